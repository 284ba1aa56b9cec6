package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const twilioURL = "https://api.twilio.com"

// TwilioClient sends SMS through the Programmable Messaging API.
type TwilioClient struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	client     *http.Client
}

func NewTwilioClient(sid, token, from string, timeout time.Duration) *TwilioClient {
	return &TwilioClient{AccountSID: sid, AuthToken: token, From: from, BaseURL: twilioURL, client: newHTTPClient(timeout)}
}

type twilioMessage struct {
	SID          string  `json:"sid"`
	Status       string  `json:"status"`
	ErrorCode    *int    `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (c *TwilioClient) Name() Name { return Twilio }

func (c *TwilioClient) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

func (c *TwilioClient) Send(ctx context.Context, p Payload) (SendResult, error) {
	form := url.Values{"To": {p.To}, "From": {c.From}, "Body": {p.Body}}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.BaseURL, c.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SendResult{}, err
	}
	req.SetBasicAuth(c.AccountSID, c.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	status, _, body, err := do(c.client, req)
	if err != nil {
		return SendResult{}, err
	}
	if !ok(status) {
		apiErr := &APIError{Provider: Twilio, StatusCode: status, Message: truncate(body)}
		var te twilioError
		if json.Unmarshal(body, &te) == nil && te.Code != 0 {
			apiErr.Code = strconv.Itoa(te.Code)
			apiErr.Message = te.Message
		}
		return SendResult{}, apiErr
	}

	var msg twilioMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		// accepted, but the sid is unreadable
		return SendResult{Status: "accepted"}, nil
	}
	// Twilio can accept the request yet fail the message synchronously.
	if msg.Status == "failed" || msg.Status == "undelivered" {
		apiErr := &APIError{Provider: Twilio, StatusCode: status, Message: "message " + msg.Status}
		if msg.ErrorCode != nil {
			apiErr.Code = strconv.Itoa(*msg.ErrorCode)
		}
		if msg.ErrorMessage != nil {
			apiErr.Message = *msg.ErrorMessage
		}
		return SendResult{}, apiErr
	}
	return SendResult{ExternalID: msg.SID, Status: msg.Status}, nil
}
