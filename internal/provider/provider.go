// Package provider holds the clients for every external search and messaging
// provider. Clients only speak their provider's protocol; interpreting
// provider error codes is left to the caller.
package provider

import (
	"context"
	"fmt"
)

type Name string

const (
	Serper     Name = "serper"
	Brave      Name = "brave"
	DuckDuckGo Name = "duckduckgo"
	Twilio     Name = "twilio"
	WhatsApp   Name = "whatsapp"
	SendGrid   Name = "sendgrid"
	Mock       Name = "mock"
)

// SearchProvider answers a web search query with the combined text of its
// results. An empty string with a nil error means "no answer".
type SearchProvider interface {
	Name() Name
	Configured() bool
	Search(ctx context.Context, query string) (string, error)
}

// Payload is a channel-ready message. To is already normalized by the caller.
type Payload struct {
	To      string
	Subject string
	Body    string
}

type SendResult struct {
	ExternalID string
	Status     string
}

// Sender transmits one message through a messaging provider.
type Sender interface {
	Name() Name
	Configured() bool
	Send(ctx context.Context, p Payload) (SendResult, error)
}

// APIError is a non-2xx answer from a provider. Code is the provider's own
// error code, if the body carried one.
type APIError struct {
	Provider   Name
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: http %d: code %s: %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Provider, e.StatusCode, e.Message)
}
