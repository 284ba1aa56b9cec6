package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/model"
)

// MessageRepository is the Postgres DeliveryStateStore.
type MessageRepository struct {
	DB *sql.DB
}

const messageColumns = `id, campaign_id, recipient_id, template_id, channel, recipient, COALESCE(subject, ''), content,
        status, failure_reason, external_id, created_at, sent_at, delivered_at, opened_at, clicked_at, replied_at, updated_at`

// timestamp column written when a message reaches the status
var statusColumn = map[model.MessageStatus]string{
	model.StatusSent:      "sent_at",
	model.StatusDelivered: "delivered_at",
	model.StatusOpened:    "opened_at",
	model.StatusClicked:   "clicked_at",
	model.StatusReplied:   "replied_at",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (*model.Message, error) {
	var m model.Message
	err := row.Scan(
		&m.ID, &m.CampaignID, &m.RecipientID, &m.TemplateID, &m.Channel, &m.Recipient, &m.Subject, &m.Content,
		&m.Status, &m.FailureReason, &m.ExternalID, &m.CreatedAt, &m.SentAt, &m.DeliveredAt,
		&m.OpenedAt, &m.ClickedAt, &m.RepliedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Idempotent insert: a (campaign, recipient) pair that already has a row is skipped.
func (r *MessageRepository) CreateMessages(ctx context.Context, batch []model.Message) ([]model.Message, error) {
	if len(batch) == 0 {
		return []model.Message{}, nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO messages (id, campaign_id, recipient_id, template_id, channel, recipient, subject, content, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $10)
        ON CONFLICT (campaign_id, recipient_id) DO NOTHING
        RETURNING id
    `)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	created := make([]model.Message, 0, len(batch))
	for _, m := range batch {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		m.UpdatedAt = m.CreatedAt
		var id string
		err := stmt.QueryRowContext(ctx,
			m.ID, m.CampaignID, m.RecipientID, m.TemplateID, string(m.Channel), m.Recipient,
			m.Subject, m.Content, string(m.Status), m.CreatedAt,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			continue // already dispatched for this recipient
		}
		if err != nil {
			return nil, fmt.Errorf("insert message for recipient %s: %w", m.RecipientID, err)
		}
		created = append(created, m)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *MessageRepository) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	m, err := scanMessage(r.DB.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewMessageNotFound(id)
	}
	return m, err
}

func (r *MessageRepository) GetMessageByExternalID(ctx context.Context, externalID string) (*model.Message, error) {
	m, err := scanMessage(r.DB.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE external_id=$1`, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewMessageNotFound(externalID)
	}
	return m, err
}

// UpdateMessageStatus is a conditional update: the row only changes when its
// current status is a legal predecessor of status.
func (r *MessageRepository) UpdateMessageStatus(ctx context.Context, id string, status model.MessageStatus, fields model.MessageUpdate) error {
	from := model.Predecessors(status)
	if len(from) == 0 {
		return appErrors.NewInvalidTransition(id, "", string(status))
	}
	at := fields.At
	if at.IsZero() {
		at = time.Now()
	}

	sets := []string{"status=$1", "updated_at=$2"}
	args := []any{string(status), at}
	argPos := 3

	if col, ok := statusColumn[status]; ok {
		sets = append(sets, col+"=$2")
	}
	if fields.ExternalID != nil {
		sets = append(sets, fmt.Sprintf("external_id=$%d", argPos))
		args = append(args, *fields.ExternalID)
		argPos++
	}
	switch {
	case fields.FailureReason != nil:
		sets = append(sets, fmt.Sprintf("failure_reason=$%d", argPos))
		args = append(args, *fields.FailureReason)
		argPos++
	case fields.ClearFailure:
		sets = append(sets, "failure_reason=NULL")
	}

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	query := fmt.Sprintf(`UPDATE messages SET %s WHERE id=$%d AND status = ANY($%d)`,
		strings.Join(sets, ", "), argPos, argPos+1)
	args = append(args, id, pq.Array(allowed))

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var current string
	err = r.DB.QueryRowContext(ctx, `SELECT status FROM messages WHERE id=$1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NewMessageNotFound(id)
	}
	if err != nil {
		return err
	}
	return appErrors.NewInvalidTransition(id, current, string(status))
}

func (r *MessageRepository) ListFailedMessages(ctx context.Context, campaignID string) ([]model.Message, error) {
	return r.list(ctx, `SELECT `+messageColumns+` FROM messages WHERE campaign_id=$1 AND status='failed' ORDER BY created_at, id`, campaignID)
}

func (r *MessageRepository) ListMessages(ctx context.Context, campaignID string) ([]model.Message, error) {
	return r.list(ctx, `SELECT `+messageColumns+` FROM messages WHERE campaign_id=$1 ORDER BY created_at, id`, campaignID)
}

func (r *MessageRepository) list(ctx context.Context, query string, args ...any) ([]model.Message, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func (r *MessageRepository) UpdateCampaignStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	return (&CampaignRepository{DB: r.DB}).UpdateCampaignStatus(ctx, id, status)
}

func (r *MessageRepository) CampaignStats(ctx context.Context, campaignID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM messages WHERE campaign_id=$1 GROUP BY status`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := emptyStats()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		stats["total"] += count
	}
	return stats, rows.Err()
}

var _ DeliveryStateStore = (*MessageRepository)(nil)
