package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "jane.doe@example.com" → "ja***@example.com"
// Short local parts (≤2 chars) are fully masked: "jd@example.com" → "***@example.com"
// A comma-separated list is masked address by address.
func RedactEmail(email string) string {
	if strings.Contains(email, ",") {
		parts := strings.Split(email, ",")
		for i, p := range parts {
			parts[i] = RedactEmail(strings.TrimSpace(p))
		}
		return strings.Join(parts, ", ")
	}
	if email == "" {
		return ""
	}
	name, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(name) > 2 {
		return name[:2] + "***@" + domain
	}
	return "***@" + domain
}
