package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const graphURL = "https://graph.facebook.com/v19.0"

// WhatsAppClient sends text messages through the Meta WhatsApp Cloud API.
type WhatsAppClient struct {
	Token         string
	PhoneNumberID string
	BaseURL       string
	client        *http.Client
}

func NewWhatsAppClient(token, phoneNumberID string, timeout time.Duration) *WhatsAppClient {
	return &WhatsAppClient{Token: token, PhoneNumberID: phoneNumberID, BaseURL: graphURL, client: newHTTPClient(timeout)}
}

type whatsAppText struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body       string `json:"body"`
		PreviewURL bool   `json:"preview_url"`
	} `json:"text"`
}

type whatsAppResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
}

func (c *WhatsAppClient) Name() Name { return WhatsApp }

func (c *WhatsAppClient) Configured() bool { return c.Token != "" && c.PhoneNumberID != "" }

func (c *WhatsAppClient) Send(ctx context.Context, p Payload) (SendResult, error) {
	msg := whatsAppText{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		// the Cloud API wants the bare international number
		To:   strings.TrimPrefix(p.To, "+"),
		Type: "text",
	}
	msg.Text.Body = p.Body

	b, err := json.Marshal(msg)
	if err != nil {
		return SendResult{}, err
	}
	endpoint := fmt.Sprintf("%s/%s/messages", c.BaseURL, c.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	status, _, body, err := do(c.client, req)
	if err != nil {
		return SendResult{}, err
	}

	var out whatsAppResponse
	decodeErr := json.Unmarshal(body, &out)
	if !ok(status) || out.Error != nil {
		apiErr := &APIError{Provider: WhatsApp, StatusCode: status, Message: truncate(body)}
		if decodeErr == nil && out.Error != nil {
			apiErr.Code = strconv.Itoa(out.Error.Code)
			apiErr.Message = out.Error.Message
		}
		return SendResult{}, apiErr
	}
	res := SendResult{Status: "accepted"}
	if decodeErr == nil && len(out.Messages) > 0 {
		res.ExternalID = out.Messages[0].ID
	}
	return res, nil
}
