package render

import (
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/hyperifyio/reportindex/internal/report"
)

// JSON writes records as an indented JSON array. No records yields [].
func JSON(w io.Writer, records []report.Record) error {
	if records == nil {
		records = []report.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}

// Group is the records of one report type in document order.
type Group struct {
	Type    report.Type
	Name    string
	Records []report.Record
}

// Grouped buckets records by type in report.Types order, omitting empty
// groups. Order inside a group is preserved.
func Grouped(records []report.Record) []Group {
	out := make([]Group, 0, len(report.Types()))
	for _, t := range report.Types() {
		recs := report.Filter(records, t)
		if len(recs) == 0 {
			continue
		}
		out = append(out, Group{Type: t, Name: report.DisplayName(t), Records: recs})
	}
	return out
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>证券研究报告链接汇总</title>
<style>
body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,Arial,sans-serif;background:#f4f5fb;padding:20px}
.container{max-width:1200px;margin:0 auto;background:#fff;border-radius:12px}
.header{padding:30px;text-align:center}
.content{padding:30px}
.section{margin-bottom:40px}
.section-title{font-size:1.8em;border-bottom:3px solid #667eea;padding-bottom:10px}
.report-list{display:grid;gap:15px}
.report-item{background:#f8f9fa;border-left:4px solid #667eea;padding:20px;border-radius:8px}
.report-title{font-size:1.2em;font-weight:bold}
.report-meta{display:flex;gap:20px;color:#666}
.report-link{display:inline-block;margin-top:10px}
.footer{text-align:center;padding:20px;color:#666}
</style>
</head>
<body>
<div class="container">
<div class="header">
<h1>证券研究报告链接汇总</h1>
<div class="stats">生成时间: {{.GeneratedAt}} | 总计: {{.Total}} 篇报告</div>
</div>
<div class="content">
{{- range .Groups}}
<div class="section">
<div class="section-title">{{.Name}} ({{len .Records}} 篇)</div>
<div class="report-list">
{{- range .Records}}
<div class="report-item">
<div class="report-title">{{.Info.Title}}</div>
<div class="report-meta">
<span class="report-date">{{.Info.Date}}</span>
<span class="report-type">{{$.TypeName .Info.ReportType}}</span>
</div>
<a {{$.Href .OriginalURL}} target="_blank" class="report-link">查看PDF报告</a>
</div>
{{- end}}
</div>
</div>
{{- end}}
</div>
<div class="footer"><p>本页面由报告索引工具自动生成</p></div>
</div>
</body>
</html>
`))

type indexPage struct {
	GeneratedAt string
	Total       int
	Groups      []Group
}

func (indexPage) TypeName(t report.Type) string { return report.DisplayName(t) }

// Href writes the whole href attribute so local paths such as
// C:\reports\a.pdf survive unchanged; the URL normalizer of html/template
// would percent-encode the backslashes. Links with a scheme other than http
// or https are replaced the way html/template replaces unsafe URLs.
func (indexPage) Href(s string) template.HTMLAttr {
	if !safeLink(s) {
		s = unsafeLink
	}
	return template.HTMLAttr(`href="` + html.EscapeString(s) + `"`)
}

const unsafeLink = "#ZgotmplZ"

// safeLink accepts relative links, local paths and http(s) URLs. Spaces and
// control characters are ignored, as browsers strip them from schemes.
func safeLink(s string) bool {
	s = strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, s)
	i := strings.IndexAny(s, `:/\?#`)
	if i <= 1 || s[i] != ':' {
		return true
	}
	switch strings.ToLower(s[:i]) {
	case "http", "https":
		return true
	}
	return false
}

// HTML writes an index page in the structure the extractor reads: one
// .section per non-empty report type, each .report-item linking to the
// record's original URL.
func HTML(w io.Writer, records []report.Record, generatedAt time.Time) error {
	page := indexPage{
		GeneratedAt: generatedAt.Format("2006-01-02 15:04:05"),
		Total:       len(records),
		Groups:      Grouped(records),
	}
	if err := indexTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return nil
}
