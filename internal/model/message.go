// internal/model/message.go
package model

import "time"

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp:
		return true
	}
	return false
}

type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusOpened    MessageStatus = "opened"
	StatusClicked   MessageStatus = "clicked"
	StatusReplied   MessageStatus = "replied"
	StatusFailed    MessageStatus = "failed"
)

// engagement statuses may follow delivered, and each other, in any order.
var engagement = map[MessageStatus]bool{
	StatusOpened:  true,
	StatusClicked: true,
	StatusReplied: true,
}

// CanTransition reports whether a Message may move from one status to another.
// failed -> pending is only legal as the first step of an explicit retry.
func CanTransition(from, to MessageStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusSent || to == StatusFailed
	case StatusSent:
		return to == StatusDelivered
	case StatusFailed:
		return to == StatusPending
	case StatusDelivered:
		return engagement[to]
	}
	if engagement[from] {
		return engagement[to] && to != from
	}
	return false
}

// Predecessors lists every status from which `to` is reachable in one step.
func Predecessors(to MessageStatus) []MessageStatus {
	var out []MessageStatus
	for _, s := range AllStatuses {
		if CanTransition(s, to) {
			out = append(out, s)
		}
	}
	return out
}

var AllStatuses = []MessageStatus{
	StatusPending, StatusSent, StatusDelivered, StatusOpened,
	StatusClicked, StatusReplied, StatusFailed,
}

type Message struct {
	ID            string        `db:"id" json:"id"`
	CampaignID    string        `db:"campaign_id" json:"campaignId"`
	RecipientID   string        `db:"recipient_id" json:"recipientId"`
	TemplateID    string        `db:"template_id" json:"templateId"`
	Channel       Channel       `db:"channel" json:"channel"`
	Recipient     string        `db:"recipient" json:"recipient"`
	Subject       string        `db:"subject" json:"subject,omitempty"`
	Content       string        `db:"content" json:"content"`
	Status        MessageStatus `db:"status" json:"status"`
	FailureReason *string       `db:"failure_reason" json:"failureReason"`
	ExternalID    *string       `db:"external_id" json:"externalId"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	SentAt        *time.Time    `db:"sent_at" json:"sentAt"`
	DeliveredAt   *time.Time    `db:"delivered_at" json:"deliveredAt"`
	OpenedAt      *time.Time    `db:"opened_at" json:"openedAt"`
	ClickedAt     *time.Time    `db:"clicked_at" json:"clickedAt"`
	RepliedAt     *time.Time    `db:"replied_at" json:"repliedAt"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updatedAt"`
}

// MessageUpdate carries the fields written alongside a status change.
// ClearFailure nulls failure_reason; a non-nil FailureReason overwrites it.
type MessageUpdate struct {
	ExternalID    *string
	FailureReason *string
	ClearFailure  bool
	At            time.Time
}

// Apply mutates m for a transition already checked with CanTransition.
func (m *Message) Apply(status MessageStatus, u MessageUpdate) {
	at := u.At
	if at.IsZero() {
		at = time.Now()
	}
	m.Status = status
	m.UpdatedAt = at
	if u.ExternalID != nil {
		id := *u.ExternalID
		m.ExternalID = &id
	}
	if u.ClearFailure {
		m.FailureReason = nil
	}
	if u.FailureReason != nil {
		reason := *u.FailureReason
		m.FailureReason = &reason
	}
	switch status {
	case StatusSent:
		m.SentAt = &at
	case StatusDelivered:
		m.DeliveredAt = &at
	case StatusOpened:
		m.OpenedAt = &at
	case StatusClicked:
		m.ClickedAt = &at
	case StatusReplied:
		m.RepliedAt = &at
	}
}

func StrPtr(s string) *string { return &s }
