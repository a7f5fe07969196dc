package output

import (
	"html/template"
	"io"
	"time"

	"github.com/farcloser/critic"
	"github.com/farcloser/critic/internal/types"
)

// Report is a batch rendered as a single HTML page.
type Report struct {
	Title     string
	RunID     string
	Generated time.Time
	Batch     *critic.Batch
}

//nolint:gochecknoglobals // parsed once
var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"timestamp": Timestamp,
	"severityClass": func(severity types.Severity) string {
		switch severity {
		case types.SeveritySevere:
			return "severe"
		case types.SeverityModerate:
			return "moderate"
		case types.SeverityMild:
			return "mild"
		default:
			return "clean"
		}
	},
	"spanning": func(obs types.Observation) bool {
		return obs.Temporal == types.Spanning
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #ccc; padding: 0.3em 0.8em; text-align: left; }
.severe { background: #f4b6b6; }
.moderate { background: #f7d9a8; }
.mild { background: #fbf3b5; }
.clean { background: #d3efd0; }
.failed { color: #a00; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Run {{.RunID}}, generated {{.Generated.Format "2006-01-02 15:04:05"}}.
{{len .Batch.Files}} files, {{.Batch.Failed}} could not be read, worst severity: {{.Batch.WorstSeverity}}.</p>
<table>
<tr><th>File</th><th>Issues</th><th>Worst</th></tr>
{{- range .Batch.Files}}
{{- if .Err}}
<tr><td>{{.Path}}</td><td class="failed" colspan="2">{{.Err}}</td></tr>
{{- else}}
<tr class="{{severityClass .Result.WorstSeverity}}"><td><a href="#{{.Path}}">{{.Path}}</a></td><td>{{.Result.IssueCount}}</td><td>{{.Result.WorstSeverity}}</td></tr>
{{- end}}
{{- end}}
</table>
{{range .Batch.Files}}{{if .Result}}
<h2 id="{{.Path}}">{{.Path}}</h2>
<p>{{.Result.Codec}}, {{.Result.Format.SampleRate}} Hz, {{.Result.Format.Channels}} channels, {{timestamp .Result.DurationMs}}, {{printf "%.1f" .Result.Loudness.IntegratedLUFS}} LUFS</p>
{{- if .Result.Observations}}
<table>
<tr><th>Kind</th><th>Start</th><th>End</th><th>Severity</th></tr>
{{- range .Result.Observations}}
<tr class="{{severityClass .Severity}}"><td>{{.Kind}}</td><td>{{timestamp .StartMs}}</td><td>{{if spanning .}}{{timestamp .EndMs}}{{end}}</td><td>{{.Severity}}</td></tr>
{{- end}}
</table>
{{- else}}
<p>No issues.</p>
{{- end}}
{{- range .Result.Failures}}
<p class="failed">{{.Kind}} not checked: {{.Err}}</p>
{{- end}}
{{end}}{{end}}
</body>
</html>
`))

// WriteHTML renders report.
func WriteHTML(writer io.Writer, report Report) error {
	return reportTemplate.Execute(writer, report) //nolint:wrapcheck // template errors are returned as is
}
