package appErrors

import (
	"errors"
	"fmt"
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrTemplateNotFound struct {
	TemplateID string
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("template with ID %s not found", e.TemplateID)
}

func NewTemplateNotFound(id string) error {
	return &ErrTemplateNotFound{TemplateID: id}
}

type ErrMessageNotFound struct {
	MessageID string
}

func (e *ErrMessageNotFound) Error() string {
	return fmt.Sprintf("message with ID %s not found", e.MessageID)
}

func NewMessageNotFound(id string) error {
	return &ErrMessageNotFound{MessageID: id}
}

// ErrInvalidCampaignStatus is returned when an action needs a campaign in a
// different status, e.g. launching one that is not a draft.
type ErrInvalidCampaignStatus struct {
	CampaignID string
	Status     string
	Want       string
}

func (e *ErrInvalidCampaignStatus) Error() string {
	return fmt.Sprintf("campaign %s is %s, expected %s", e.CampaignID, e.Status, e.Want)
}

func NewInvalidCampaignStatus(id, status, want string) error {
	return &ErrInvalidCampaignStatus{CampaignID: id, Status: status, Want: want}
}

// ErrInvalidTransition means the row was not in a status from which the
// requested one is reachable. Nothing was written.
type ErrInvalidTransition struct {
	MessageID string
	From      string
	To        string
}

func (e *ErrInvalidTransition) Error() string {
	if e.From == "" {
		return fmt.Sprintf("message %s cannot move to %s", e.MessageID, e.To)
	}
	return fmt.Sprintf("message %s cannot move from %s to %s", e.MessageID, e.From, e.To)
}

func NewInvalidTransition(id, from, to string) error {
	return &ErrInvalidTransition{MessageID: id, From: from, To: to}
}

// ErrConfiguration reports missing provider credentials.
type ErrConfiguration struct {
	Reason string
}

func (e *ErrConfiguration) Error() string {
	return "configuration: " + e.Reason
}

func NewConfiguration(format string, args ...any) error {
	return &ErrConfiguration{Reason: fmt.Sprintf(format, args...)}
}

// IsNotFound matches any of the not-found errors above.
func IsNotFound(err error) bool {
	var c *ErrCampaignNotFound
	var t *ErrTemplateNotFound
	var m *ErrMessageNotFound
	return errors.As(err, &c) || errors.As(err, &t) || errors.As(err, &m)
}
