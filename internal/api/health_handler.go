package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/careconnect/intake/internal/pkg/httputil"
)

// Component and overall states reported by the health endpoints.
const (
	statusUp       = "up"
	statusDown     = "down"
	statusDisabled = "disabled"

	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// StoreInspector is the part of the store the health checks need.
type StoreInspector interface {
	Ping(ctx context.Context) error
	MissingTables(ctx context.Context) ([]string, error)
}

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status string                    `json:"status"`
	Uptime string                    `json:"uptime"`
	Checks map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck is the result of one dependency check. A required
// component that is down makes the service unhealthy.
type ComponentCheck struct {
	Status   string `json:"status"`
	Required bool   `json:"required"`
	Latency  string `json:"latency,omitempty"`
	Message  string `json:"message,omitempty"`
}

type dependency struct {
	name     string
	required bool
	timeout  time.Duration
	run      func(ctx context.Context) (string, error)
}

// HealthChecker reports whether the intake store is usable and whether the
// optional rate-limit and archive backends respond.
type HealthChecker struct {
	deps    []dependency
	started time.Time
}

// NewHealthChecker builds the checks. store is required; a nil Redis or S3
// client marks that component disabled.
func NewHealthChecker(store StoreInspector, redisClient *redis.Client, s3Client *s3.Client, bucket string) *HealthChecker {
	hc := &HealthChecker{started: time.Now()}

	hc.deps = append(hc.deps, dependency{
		name:     "store",
		required: true,
		timeout:  3 * time.Second,
		run: func(ctx context.Context) (string, error) {
			return checkStore(ctx, store)
		},
	})

	if redisClient != nil {
		hc.deps = append(hc.deps, dependency{
			name:    "redis",
			timeout: 2 * time.Second,
			run: func(ctx context.Context) (string, error) {
				return "rate limit counters reachable", redisClient.Ping(ctx).Err()
			},
		})
	} else {
		hc.deps = append(hc.deps, dependency{name: "redis"})
	}

	if s3Client != nil {
		hc.deps = append(hc.deps, dependency{
			name:    "archive",
			timeout: 3 * time.Second,
			run: func(ctx context.Context) (string, error) {
				_, err := s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &bucket})
				return fmt.Sprintf("bucket %q reachable", bucket), err
			},
		})
	} else {
		hc.deps = append(hc.deps, dependency{name: "archive"})
	}

	return hc
}

func checkStore(ctx context.Context, store StoreInspector) (string, error) {
	if store == nil {
		return "", errors.New("store not configured")
	}
	if err := store.Ping(ctx); err != nil {
		return "", fmt.Errorf("ping: %w", err)
	}
	missing, err := store.MissingTables(ctx)
	if err != nil {
		return "", err
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing tables: %s", strings.Join(missing, ", "))
	}
	return "registration tables present", nil
}

// Check runs every dependency check concurrently.
func (hc *HealthChecker) Check(ctx context.Context) map[string]ComponentCheck {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]ComponentCheck, len(hc.deps))
	)
	for _, p := range hc.deps {
		if p.run == nil {
			checks[p.name] = ComponentCheck{Status: statusDisabled, Required: p.required}
			continue
		}
		wg.Add(1)
		go func(p dependency) {
			defer wg.Done()
			c := runDependency(ctx, p)
			mu.Lock()
			checks[p.name] = c
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	return checks
}

func runDependency(ctx context.Context, p dependency) ComponentCheck {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	msg, err := p.run(ctx)
	c := ComponentCheck{Status: statusUp, Required: p.required, Latency: time.Since(start).String(), Message: msg}
	if err != nil {
		c.Status, c.Message = statusDown, err.Error()
	}
	return c
}

// overallStatus is unhealthy when a required component is down and
// degraded when only optional ones are.
func overallStatus(checks map[string]ComponentCheck) string {
	status := statusHealthy
	for _, c := range checks {
		if c.Status != statusDown {
			continue
		}
		if c.Required {
			return statusUnhealthy
		}
		status = statusDegraded
	}
	return status
}

// HandleHealth always answers 200 with the component breakdown.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := hc.Check(r.Context())
	httputil.OK(w, HealthStatus{
		Status: overallStatus(checks),
		Uptime: time.Since(hc.started).Round(time.Second).String(),
		Checks: checks,
	})
}

// HandleLiveness answers 200 while the process runs.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "alive"})
}

// HandleReadiness answers 503 until the store is reachable and holds every
// registration table.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := hc.Check(r.Context())
	overall := overallStatus(checks)

	code := http.StatusOK
	if overall == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	httputil.JSON(w, code, map[string]interface{}{
		"ready":  overall != statusUnhealthy,
		"status": overall,
		"checks": checks,
	})
}
