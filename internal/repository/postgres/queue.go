package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Leo190198/promoShare/internal/automation"
	"github.com/Leo190198/promoShare/internal/domain"
)

const queueCols = `id, suggestion_id, chat_id, scheduled_at, status, message_text,
	attempts, wa_message_id, last_error, sent_at, created_at, updated_at`

func scanQueueItem(row rowScanner, dest ...interface{}) (*domain.QueueItem, error) {
	q := &domain.QueueItem{}
	fields := []interface{}{
		&q.ID, &q.SuggestionID, &q.ChatID, &q.ScheduledAt, &q.Status, &q.MessageText,
		&q.Attempts, &q.WAMessageID, &q.LastError, &q.SentAt, &q.CreatedAt, &q.UpdatedAt,
	}
	err := row.Scan(append(fields, dest...)...)
	return q, err
}

func (s *Store) ListQueue(ctx context.Context, f automation.QueueFilter) ([]domain.QueueItem, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	countQ := `SELECT COUNT(*) FROM queue_items`
	countArgs := []interface{}{}
	if f.Status != "" {
		countQ += ` WHERE status = $1`
		countArgs = append(countArgs, f.Status)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count queue items: %w", err)
	}

	q := `
		SELECT q.id, q.suggestion_id, q.chat_id, q.scheduled_at, q.status, q.message_text,
		       q.attempts, q.wa_message_id, q.last_error, q.sent_at, q.created_at, q.updated_at,
		       s.product_name
		FROM queue_items q
		LEFT JOIN suggestions s ON s.id = q.suggestion_id`
	args := []interface{}{}
	idx := 1
	if f.Status != "" {
		q += fmt.Sprintf(` WHERE q.status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	q += fmt.Sprintf(` ORDER BY q.scheduled_at ASC, q.id ASC LIMIT $%d`, idx)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var out []domain.QueueItem
	for rows.Next() {
		var productName *string
		item, err := scanQueueItem(rows, &productName)
		if err != nil {
			return nil, 0, fmt.Errorf("scan queue item: %w", err)
		}
		item.ProductName = productName
		out = append(out, *item)
	}
	return out, total, rows.Err()
}

func (s *Store) DueQueueItems(ctx context.Context, now time.Time, limit int) ([]domain.QueueItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+queueCols+`
		FROM queue_items
		WHERE status = 'queued' AND scheduled_at <= $1
		ORDER BY scheduled_at ASC, id ASC
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("due queue items: %w", err)
	}
	defer rows.Close()

	var out []domain.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func (s *Store) MarkQueueItemSending(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE queue_items SET status = 'sending', attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark queue item sending: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return automation.ErrNotFound
	}
	return nil
}

func (s *Store) RescheduleQueueItem(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE queue_items SET scheduled_at = $2, updated_at = NOW()
		WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("reschedule queue item: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return automation.ErrNotFound
	}
	return nil
}

func (s *Store) FinalizeDispatch(ctx context.Context, r automation.DispatchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE queue_items
		SET status = 'sent', sent_at = $2, wa_message_id = $3, last_error = NULL, updated_at = NOW()
		WHERE id = $1
	`, r.Item.ID, r.SentAt, r.WAMessageID)
	if err != nil {
		return fmt.Errorf("mark queue item sent: %w", err)
	}

	hist := historyFromSend(r.Suggestion, r.Item.ChatID, r.Item.MessageText, r.WAMessageID, r.SentAt)
	if err := insertHistoryTx(ctx, tx, hist); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE suggestions
		SET status = 'sent', sent_at = $2, last_error = NULL, updated_at = NOW()
		WHERE id = $1
	`, r.Suggestion.ID, r.SentAt)
	if err != nil {
		return fmt.Errorf("mark suggestion sent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit dispatch: %w", err)
	}

	sentAt := r.SentAt
	r.Item.Status = domain.QueueSent
	r.Item.SentAt = &sentAt
	r.Item.WAMessageID = r.WAMessageID
	r.Item.LastError = nil
	r.Suggestion.Status = domain.SuggestionSent
	r.Suggestion.SentAt = &sentAt
	r.Suggestion.LastError = nil
	return nil
}

func (s *Store) FailQueueItem(ctx context.Context, id, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE queue_items SET status = 'failed', last_error = $2, updated_at = NOW()
		WHERE id = $1
	`, id, reason)
	if err != nil {
		return fmt.Errorf("fail queue item: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return automation.ErrNotFound
	}
	return nil
}

func (s *Store) FailDispatch(ctx context.Context, itemID, suggestionID, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE queue_items SET status = 'failed', last_error = $2, updated_at = NOW()
		WHERE id = $1
	`, itemID, reason)
	if err != nil {
		return fmt.Errorf("fail queue item: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE suggestions SET status = 'failed', last_error = $2, updated_at = NOW()
		WHERE id = $1
	`, suggestionID, reason)
	if err != nil {
		return fmt.Errorf("fail suggestion: %w", err)
	}

	return tx.Commit()
}

func (s *Store) LatestQueueScheduledAt(ctx context.Context, chatID string) (*time.Time, error) {
	var at time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT scheduled_at FROM queue_items
		WHERE chat_id = $1 AND status IN ('queued', 'sending', 'sent')
		ORDER BY scheduled_at DESC
		LIMIT 1
	`, chatID).Scan(&at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest queue scheduled_at: %w", err)
	}
	return &at, nil
}

func (s *Store) CountQueueInRange(ctx context.Context, chatID string, from, to time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM queue_items
		WHERE chat_id = $1 AND status IN ('queued', 'sending')
		  AND scheduled_at >= $2 AND scheduled_at <= $3
	`, chatID, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count queue in range: %w", err)
	}
	return n, nil
}

func (s *Store) CountQueueByStatus(ctx context.Context) (domain.QueueCounters, error) {
	var c domain.QueueCounters
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM queue_items GROUP BY status`)
	if err != nil {
		return c, fmt.Errorf("count queue items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return c, fmt.Errorf("scan queue count: %w", err)
		}
		switch domain.QueueItemStatus(status) {
		case domain.QueueQueued:
			c.Queued = n
		case domain.QueueSending:
			c.Sending = n
		case domain.QueueSent:
			c.Sent = n
		case domain.QueueFailed:
			c.Failed = n
		}
	}
	return c, rows.Err()
}
