package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const sendGridURL = "https://api.sendgrid.com"

// SendGridClient sends email through the v3 Mail Send API.
type SendGridClient struct {
	APIKey    string
	FromEmail string
	FromName  string
	BaseURL   string
	client    *http.Client
}

func NewSendGridClient(apiKey, fromEmail, fromName string, timeout time.Duration) *SendGridClient {
	return &SendGridClient{APIKey: apiKey, FromEmail: fromEmail, FromName: fromName, BaseURL: sendGridURL, client: newHTTPClient(timeout)}
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgMail struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject,omitempty"`
	Content          []sgContent         `json:"content"`
}

type sgErrors struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func (c *SendGridClient) Name() Name { return SendGrid }

func (c *SendGridClient) Configured() bool { return c.APIKey != "" && c.FromEmail != "" }

func (c *SendGridClient) Send(ctx context.Context, p Payload) (SendResult, error) {
	mail := sgMail{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: p.To}}}},
		From:             sgAddress{Email: c.FromEmail, Name: c.FromName},
		Subject:          p.Subject,
		Content:          []sgContent{{Type: "text/html", Value: p.Body}},
	}

	b, err := json.Marshal(mail)
	if err != nil {
		return SendResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v3/mail/send", bytes.NewReader(b))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	status, header, body, err := do(c.client, req)
	if err != nil {
		return SendResult{}, err
	}
	if !ok(status) {
		apiErr := &APIError{Provider: SendGrid, StatusCode: status, Message: truncate(body)}
		var se sgErrors
		if json.Unmarshal(body, &se) == nil && len(se.Errors) > 0 {
			msgs := make([]string, 0, len(se.Errors))
			for _, e := range se.Errors {
				msgs = append(msgs, e.Message)
			}
			apiErr.Message = strings.Join(msgs, "; ")
		}
		return SendResult{}, apiErr
	}

	// a 2xx is an accepted send even when X-Message-Id is missing
	return SendResult{ExternalID: header.Get("X-Message-Id"), Status: "accepted"}, nil
}
