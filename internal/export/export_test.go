package export

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"testing"
)

func TestMarkdownToHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "heading",
			input:    "# Resumo do dia 10/03/2025",
			expected: "<h1>Resumo do dia 10/03/2025</h1>",
		},
		{
			name:     "task list line",
			input:    "- [x] 08:00 — Reunião _(alta)_",
			expected: "<em>(alta)</em>",
		},
		{
			name:     "priority table",
			input:    "| Prioridade | Total |\n| --- | --- |\n| urgente | 2 |",
			expected: "<table>",
		},
		{
			name:     "progress bar code span",
			input:    "`██████████░░░░░░░░░░` 50%",
			expected: "<code>██████████░░░░░░░░░░</code>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarkdownToHTML(tt.input)
			if err != nil {
				t.Fatalf("MarkdownToHTML() error = %v", err)
			}
			if !strings.Contains(result, tt.expected) {
				t.Errorf("MarkdownToHTML() = %v, want fragment %v", result, tt.expected)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Resumo 2025-03-10", "Resumo-2025-03-10"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "resumo"},
		{"Very Long Title That Exceeds Fifty Characters Limit", "Very-Long-Title-That-Exceeds-Fifty-Characters-Limi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},       // Spaces encoded as %20, not +
		{"test+sign", "test%2Bsign"},           // + signs are encoded
		{"special<>", "special%3C%3E"},         // Special chars encoded
		{"normal-text.txt", "normal-text.txt"}, // Unreserved chars pass through
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRenderSummaryHTML(t *testing.T) {
	data := TemplateData{
		Title:       "Resumo 2025-03-10",
		Day:         "2025-03-10",
		UserName:    "Ana",
		ContentHTML: template.HTML("<p>Conteúdo do resumo.</p>"),
	}

	html, err := RenderSummaryHTML(data)
	if err != nil {
		t.Fatalf("RenderSummaryHTML() error = %v", err)
	}

	if !strings.Contains(html, "Resumo 2025-03-10") {
		t.Error("HTML missing title")
	}
	if !strings.Contains(html, "Ana") {
		t.Error("HTML missing user name")
	}
	// ContentHTML must be rendered raw, not escaped
	if strings.Contains(html, "&lt;p&gt;") {
		t.Error("HTML content was escaped - should be rendered as raw HTML")
	}
	if !strings.Contains(html, "<p>Conteúdo do resumo.</p>") {
		t.Error("HTML content should contain unescaped <p> tags")
	}
}

type fakeArchive struct {
	docs map[string]string
}

func (f *fakeArchive) GetSummary(userID, day string) (string, error) {
	doc, ok := f.docs[userID+"/"+day]
	if !ok {
		return "", errors.New("not found")
	}
	return doc, nil
}

func TestExportMarkdown(t *testing.T) {
	svc := NewService(&fakeArchive{docs: map[string]string{
		"usr_1/2025-03-10": "# Resumo do dia 10/03/2025\n",
	}}, nil)

	result, err := svc.Export(context.Background(), Request{
		UserID: "usr_1",
		Day:    "2025-03-10",
		Format: FormatMarkdown,
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.Filename != "Resumo-2025-03-10.md" {
		t.Errorf("filename = %q", result.Filename)
	}
	if !strings.Contains(string(result.Data), "# Resumo do dia") {
		t.Errorf("data = %q", result.Data)
	}
	if result.URL != "" {
		t.Errorf("unexpected URL %q without uploader", result.URL)
	}
}

func TestExportMissingSummary(t *testing.T) {
	svc := NewService(&fakeArchive{docs: map[string]string{}}, nil)

	_, err := svc.Export(context.Background(), Request{
		UserID: "usr_1",
		Day:    "2025-03-10",
		Format: FormatMarkdown,
	})
	if !errors.Is(err, ErrSummaryUnavailable) {
		t.Errorf("err = %v, want ErrSummaryUnavailable", err)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := NewService(&fakeArchive{docs: map[string]string{
		"usr_1/2025-03-10": "doc\n",
	}}, nil)

	_, err := svc.Export(context.Background(), Request{
		UserID: "usr_1",
		Day:    "2025-03-10",
		Format: Format("xlsx"),
	})
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}
