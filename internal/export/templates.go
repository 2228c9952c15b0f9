package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var summaryTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/summary.html")
	if err != nil {
		// Fallback to built-in template if file not found
		summaryTemplate = template.Must(template.New("summary").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	summaryTemplate = template.Must(template.New("summary").Funcs(funcMap).Parse(string(templateContent)))
}

// TemplateData holds data for summary template rendering
type TemplateData struct {
	Title       string
	Day         string
	UserName    string
	ContentHTML template.HTML
	GeneratedAt time.Time
}

// RenderSummaryHTML renders the summary page template with provided data
func RenderSummaryHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #2a7a4b; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    table { border-collapse: collapse; }
    th, td { border: 1px solid #ccc; padding: 0.3rem 0.8rem; }
    code { font-family: monospace; }
  </style>
</head>
<body>
  <div class="meta">{{.UserName}} | {{.Day}}</div>
  <div>{{.ContentHTML}}</div>
</body>
</html>`
