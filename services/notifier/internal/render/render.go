// Package render renders notification content from configured templates.
// Templates are text/template with the sprig function map, e.g.
//
//	{{ .Provider }} {{ .Vehicle | upper }} at {{ dateInZone "15:04" .LaunchTime .Zone }}
package render

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/stoik/launchwatch/internal/models"
	"github.com/stoik/launchwatch/services/notifier/internal/config"
)

// Message is rendered notification content.
type Message struct {
	Subject string
	Body    string
}

// Data is what launch templates see.
type Data struct {
	ID          int64
	Provider    string
	Vehicle     string
	Mission     string
	LaunchPad   string
	LaunchSite  string
	LeadMinutes int
	LaunchTime  time.Time
	Zone        string
}

// LaunchTemplate renders a subject/body pair for a launch.
type LaunchTemplate struct {
	subject *template.Template
	body    *template.Template
	lead    time.Duration
}

func NewLaunchTemplate(name string, t config.Template, lead time.Duration) (*LaunchTemplate, error) {
	subject, err := parse(name+".subject", t.Subject)
	if err != nil {
		return nil, err
	}
	body, err := parse(name+".message", t.Message)
	if err != nil {
		return nil, err
	}
	return &LaunchTemplate{subject: subject, body: body, lead: lead}, nil
}

func parse(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return tmpl, nil
}

// Render renders the templates for l, which launches at launchTime.
func (lt *LaunchTemplate) Render(l models.Launch, launchTime time.Time) (Message, error) {
	data := Data{
		ID:          l.ID,
		Provider:    l.Provider.Name,
		Vehicle:     l.Vehicle.Name,
		Mission:     l.Name,
		LaunchPad:   l.Pad.Name,
		LaunchSite:  l.Pad.Location.Name,
		LeadMinutes: int(lt.lead / time.Minute),
		LaunchTime:  launchTime,
		Zone:        launchTime.Location().String(),
	}

	var subject, body bytes.Buffer
	if err := lt.subject.Execute(&subject, data); err != nil {
		return Message{}, fmt.Errorf("failed to render subject for launch %d: %w", l.ID, err)
	}
	if err := lt.body.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("failed to render body for launch %d: %w", l.ID, err)
	}
	return Message{Subject: subject.String(), Body: body.String()}, nil
}
