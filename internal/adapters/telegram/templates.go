package telegram

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/selivandex/sentiment-index/pkg/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const marketSummaryTemplate = "market_summary.tmpl"

// TemplateManager renders Telegram notification templates
type TemplateManager struct {
	templates *template.Template
}

var funcs = template.FuncMap{
	"date":       func(t time.Time) string { return t.Format(models.DateLayout) },
	"score":      func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"signed":     func(v float64) string { return fmt.Sprintf("%+.2f", v) },
	"join":       strings.Join,
	"labelEmoji": labelEmoji,
}

// NewTemplateManager parses the embedded templates
func NewTemplateManager() (*TemplateManager, error) {
	templates, err := template.New("telegram").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse telegram templates: %w", err)
	}

	if templates.Lookup(marketSummaryTemplate) == nil {
		return nil, fmt.Errorf("missing template %s", marketSummaryTemplate)
	}

	return &TemplateManager{templates: templates}, nil
}

// ExecuteTemplate renders a template by name
func (tm *TemplateManager) ExecuteTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tm.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func labelEmoji(l models.Label) string {
	switch l {
	case models.LabelExtremeFear:
		return "😱"
	case models.LabelFear:
		return "😟"
	case models.LabelNeutral:
		return "😐"
	case models.LabelGreed:
		return "🙂"
	case models.LabelExtremeGreed:
		return "🤑"
	default:
		return "❔"
	}
}
