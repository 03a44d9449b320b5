package application

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"

	billing "sensei-backoffice/internal/billing/domain"
)

const (
	DefaultPreventiveTemplate = `Olá {{.Name}}! Lembra que sua mensalidade de {{.Value}} vence amanhã? 🥋`
	DefaultOverdueTemplate    = `Olá {{.Name}}. Consta em nosso sistema uma pendência de {{.Value}} ({{.Days}} dias de atraso). Pode nos enviar o comprovante?`
	DefaultReminderTemplate   = `🔔 *Lembrete de Vencimento*

Olá, {{.Name}}!
Passando para lembrar que sua mensalidade do plano *{{.PlanName}}* vence hoje.

Valor: {{.Value}}

Qualquer dúvida, estamos à disposição!
_{{.GymName}} - Sistema Automático_`

	DefaultGymName  = "Sua Academia"
	DefaultPlanName = "Plano"
)

// MessageData provides fields for rendering reminder text.
type MessageData struct {
	Name     string
	Value    string
	Days     int
	PlanName string
	GymName  string
}

// Messages renders the three reminder texts.
type Messages struct {
	preventive *template.Template
	overdue    *template.Template
	reminder   *template.Template
}

// NewMessages parses the configured templates, falling back to the defaults.
func NewMessages(cfg MessagesConfig) (*Messages, error) {
	preventive, err := parseTemplate("preventive", cfg.Preventive, DefaultPreventiveTemplate)
	if err != nil {
		return nil, err
	}
	overdue, err := parseTemplate("overdue", cfg.Overdue, DefaultOverdueTemplate)
	if err != nil {
		return nil, err
	}
	reminder, err := parseTemplate("reminder", cfg.Reminder, DefaultReminderTemplate)
	if err != nil {
		return nil, err
	}
	return &Messages{preventive: preventive, overdue: overdue, reminder: reminder}, nil
}

func parseTemplate(name, tpl, fallback string) (*template.Template, error) {
	if tpl == "" {
		tpl = fallback
	}
	parsed, err := template.New(name).Option("missingkey=error").Parse(tpl)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", billing.ErrInvalidTemplate, name, err)
	}
	return parsed, nil
}

// Candidate renders the text for a selector classification.
func (m *Messages) Candidate(kind billing.Kind, data MessageData) (string, error) {
	if m == nil {
		return "", errors.New("billing messages: nil")
	}
	switch kind {
	case billing.KindPreventive:
		return render(m.preventive, data)
	case billing.KindOverdue:
		return render(m.overdue, data)
	default:
		return "", fmt.Errorf("billing messages: unknown kind %q", kind)
	}
}

// Reminder renders the due-day reminder.
func (m *Messages) Reminder(data MessageData) (string, error) {
	if m == nil {
		return "", errors.New("billing messages: nil")
	}
	if data.PlanName == "" {
		data.PlanName = DefaultPlanName
	}
	if data.GymName == "" {
		data.GymName = DefaultGymName
	}
	return render(m.reminder, data)
}

func render(tpl *template.Template, data MessageData) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
