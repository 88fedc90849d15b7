package report

import "html/template"

var reportTemplate = template.Must(template.New("report").Parse(`<html>
<head>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: #f4f5fb; padding: 20px; margin: 0; }
.container { max-width: 800px; margin: 0 auto; background: white; padding: 30px; border-radius: 15px; }
h1 { color: #1a1a1a; border-bottom: 3px solid #667eea; padding-bottom: 15px; }
h2 { color: #667eea; margin-top: 30px; }
.listing { background: #f8f9fa; padding: 20px; margin: 15px 0; border-left: 4px solid #667eea; border-radius: 8px; }
.listing-title { font-weight: bold; font-size: 18px; color: #1a1a1a; margin-bottom: 10px; }
.status { display: inline-block; padding: 4px 10px; border-radius: 20px; font-size: 11px; font-weight: bold; text-transform: uppercase; color: white; }
.status.available { background: #4caf50; }
.status.soldout { background: #f44336; }
.status.presale { background: #ff9800; }
a { color: #667eea; text-decoration: none; font-weight: 500; }
</style>
</head>
<body>
<div class="container">
<h1>{{.Heading}}</h1>
<p><strong>{{.Date}}</strong></p>
{{- range .New}}
{{template "group" .}}
{{- end}}
{{- if .Summary}}
<h1>Still listed</h1>
{{- range .Summary}}
{{template "group" .}}
{{- end}}
{{- end}}
</div>
</body>
</html>
{{define "group"}}<h2>{{.Name}}</h2>
{{- range .Rows}}
<div class="listing">
<div class="listing-title">{{.Title}} <span class="status {{.StatusClass}}">{{.Status}}</span></div>
<div>
{{- if .Venue}}<strong>Venue:</strong> {{.Venue}}<br>{{end}}
{{- if .City}}<strong>City:</strong> {{.City}}<br>{{end}}
{{- if .Date}}<strong>Date:</strong> {{.Date}}<br>{{end}}
{{- if .Price}}<strong>Price:</strong> {{.Price}}<br>{{end}}
<strong>Source:</strong> {{.Site}}{{if .Region}} ({{.Region}}){{end}}<br>
{{- if .URL}}<a href="{{.URL}}">View listing</a>{{end}}
</div>
</div>
{{- end}}
{{- end}}`))
