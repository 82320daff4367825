package render

import (
	"bytes"
	"html/template"

	"github.com/samber/lo"

	"github.com/careconnect/intake/internal/domain"
)

// AdminNotice is shown on every admin page.
const AdminNotice = "Local development only. Do not expose this endpoint publicly."

var pages = template.Must(template.New("admin").Parse(`{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
{{template "content" .}}
<p><em>{{.Notice}}</em></p>
</body>
</html>
{{end}}`))

var indexContent = template.Must(template.Must(pages.Clone()).Parse(`{{define "content"}}<h1>CareConnect Admin</h1>
<ul>
{{- range .Links}}
	<li><a href="{{.View}}">View {{.Title}}</a> | <a href="{{.Download}}">Download CSV</a></li>
{{- end}}
</ul>{{end}}`))

var tableContent = template.Must(template.Must(pages.Clone()).Parse(`{{define "content"}}<h1>{{.Title}}</h1>
<table border="1" cellpadding="6" cellspacing="0">
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
{{- if not .Rows}}
<p>No records</p>
{{- end}}
<p><a href="/admin">Back</a></p>{{end}}`))

type indexLink struct {
	Title    string
	View     string
	Download string
}

type indexPage struct {
	Title  string
	Notice string
	Links  []indexLink
}

type tablePage struct {
	Title   string
	Notice  string
	Columns []string
	Rows    [][]string
}

// AdminIndex renders the landing page linking each kind's table and export.
func AdminIndex(schemas []domain.Schema) ([]byte, error) {
	page := indexPage{
		Title:  "CareConnect Admin",
		Notice: AdminNotice,
		Links: lo.Map(schemas, func(s domain.Schema, _ int) indexLink {
			return indexLink{
				Title:    s.Title,
				View:     "/admin/" + s.Table,
				Download: "/admin/download/" + s.ExportFilename(),
			}
		}),
	}
	var buf bytes.Buffer
	if err := indexContent.ExecuteTemplate(&buf, "layout", page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// AdminTable renders one header row of column names and one row per record.
// Values are HTML-escaped.
func AdminTable(schema domain.Schema, recs []domain.Record) ([]byte, error) {
	page := tablePage{
		Title:   schema.Title,
		Notice:  AdminNotice,
		Columns: schema.Columns(),
		Rows: lo.Map(recs, func(r domain.Record, _ int) []string {
			return r.Row(schema)
		}),
	}
	var buf bytes.Buffer
	if err := tableContent.ExecuteTemplate(&buf, "layout", page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
