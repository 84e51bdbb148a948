package smtp

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/user/revenue-tracker/internal/entity"
)

var funcs = map[string]any{
	"inc":    func(i int) int { return i + 1 },
	"amount": formatAmount,
	"source": sourceLabel,
	"company": func(c string) string {
		if c == "" {
			return "Unknown company"
		}
		return c
	},
	"date": func(a entity.Alert) string {
		if a.PublishedAt == nil {
			return ""
		}
		return a.PublishedAt.Format("Jan 2, 2006")
	},
}

var alertsHTML = htmltemplate.Must(htmltemplate.New("alerts").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Startup Revenue Alerts</title></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 640px; margin: 0 auto;">
  <h1 style="color: #2c3e50;">Startup Revenue Alerts</h1>
  <p>{{len .}} new disclosure{{if ne (len .) 1}}s{{end}} at or above the alert threshold.</p>
  {{range .}}
  <div style="border-left: 4px solid #27ae60; padding: 8px 16px; margin: 16px 0; background: #f8f9fa;">
    <div style="font-size: 18px; font-weight: bold;">{{company .Company}}</div>
    <div style="font-size: 22px; color: #27ae60;">{{amount .Amount}} {{.Kind}}</div>
    <div style="color: #7f8c8d;">Source: {{source .SourceID}}{{with date .}} &middot; {{.}}{{end}}</div>
    <div><a href="{{.ArticleURL}}">{{.ArticleTitle}}</a></div>
  </div>
  {{end}}
</body>
</html>`))

var alertsText = texttemplate.Must(texttemplate.New("alerts").Funcs(funcs).Parse(`Startup Revenue Alerts
{{range $i, $a := .}}
{{inc $i}}. {{company $a.Company}}: {{amount $a.Amount}} {{$a.Kind}}
   Source: {{source $a.SourceID}}
   Article: {{$a.ArticleTitle}}
   {{$a.ArticleURL}}
{{end}}`))

type summaryData struct {
	Stats  entity.StoreStats
	Recent []entity.Alert
}

var summaryHTML = htmltemplate.Must(htmltemplate.New("summary").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Weekly Revenue Tracker Summary</title></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 640px; margin: 0 auto;">
  <h1 style="color: #2c3e50;">Weekly Revenue Tracker Summary</h1>
  <table style="border-collapse: collapse;">
    <tr><td style="padding: 4px 12px;">Articles tracked</td><td><strong>{{.Stats.TotalArticles}}</strong></td></tr>
    <tr><td style="padding: 4px 12px;">Articles with revenue</td><td><strong>{{.Stats.RevenueArticles}}</strong></td></tr>
    <tr><td style="padding: 4px 12px;">Pending alerts</td><td><strong>{{.Stats.PendingAlerts}}</strong></td></tr>
  </table>
  <h2>Alerts sent in the last 7 days</h2>
  {{if .Recent}}<ul>
  {{range .Recent}}<li><strong>{{company .Company}}</strong>: {{amount .Amount}} {{.Kind}} (<a href="{{.ArticleURL}}">{{source .SourceID}}</a>)</li>
  {{end}}</ul>{{else}}<p>No alerts were sent this week.</p>{{end}}
</body>
</html>`))

var summaryText = texttemplate.Must(texttemplate.New("summary").Funcs(funcs).Parse(`Weekly Revenue Tracker Summary

Articles tracked: {{.Stats.TotalArticles}}
Articles with revenue: {{.Stats.RevenueArticles}}
Pending alerts: {{.Stats.PendingAlerts}}

Alerts sent in the last 7 days:
{{range .Recent}}- {{company .Company}}: {{amount .Amount}} {{.Kind}} (via {{source .SourceID}})
{{else}}none
{{end}}`))

// sourceLabel turns a registry id such as "business_insider" into
// "Business Insider".
func sourceLabel(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
