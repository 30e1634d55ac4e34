package service

import (
	"fmt"

	"github.com/osteele/liquid"

	"hackdesk_backend/internal/messaging/repository"
)

// renderer personalizes subject and body templates per recipient. Templates
// are parsed once per dispatch and rendered once per recipient.
type renderer struct {
	subject *liquid.Template
	body    *liquid.Template
}

func newRenderer(subject, body string) (*renderer, error) {
	engine := liquid.NewEngine()

	subjectTpl, err := engine.ParseString(subject)
	if err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}
	bodyTpl, err := engine.ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse body template: %w", err)
	}
	return &renderer{subject: subjectTpl, body: bodyTpl}, nil
}

func bindings(rec repository.Recipient) map[string]interface{} {
	name := rec.Name
	if name == "" {
		name = "there"
	}
	return map[string]interface{}{
		"name":     name,
		"email":    rec.Email,
		"teamName": rec.TeamName,
	}
}

func (r *renderer) render(rec repository.Recipient) (subject, body string, err error) {
	b := bindings(rec)
	subject, err = r.subject.RenderString(b)
	if err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	body, err = r.body.RenderString(b)
	if err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return subject, body, nil
}
