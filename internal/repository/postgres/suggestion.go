package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Leo190198/promoShare/internal/automation"
	"github.com/Leo190198/promoShare/internal/domain"
)

const suggestionCols = `id, source_keyword, item_id, shop_id, product_name, image_url,
	price_min, price_max, formatted_price, product_link, offer_link, short_link,
	commission_rate, rating_star, sales, score, status, approved_action,
	rejection_reason, queue_scheduled_for, last_error, raw_payload,
	approved_at, sent_at, created_at, updated_at`

func scanSuggestion(row rowScanner) (*domain.Suggestion, error) {
	sg := &domain.Suggestion{}
	err := row.Scan(
		&sg.ID, &sg.SourceKeyword, &sg.ItemID, &sg.ShopID, &sg.ProductName, &sg.ImageURL,
		&sg.PriceMin, &sg.PriceMax, &sg.FormattedPrice, &sg.ProductLink, &sg.OfferLink, &sg.ShortLink,
		&sg.CommissionRate, &sg.RatingStar, &sg.Sales, &sg.Score, &sg.Status, &sg.ApprovedAction,
		&sg.RejectionReason, &sg.QueueScheduledFor, &sg.LastError, (*[]byte)(&sg.RawPayload),
		&sg.ApprovedAt, &sg.SentAt, &sg.CreatedAt, &sg.UpdatedAt,
	)
	return sg, err
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// pendingConflict reports why a pending-only update matched no rows: the
// suggestion is gone, or it has already left the pending state.
func pendingConflict(ctx context.Context, q queryRower, id string) error {
	var status string
	err := q.QueryRowContext(ctx, `SELECT status FROM suggestions WHERE id = $1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return automation.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check suggestion status: %w", err)
	}
	return automation.ErrNotPending
}

func (s *Store) CreateSuggestion(ctx context.Context, sg *domain.Suggestion) error {
	if sg.ID == "" {
		sg.ID = uuid.New().String()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO suggestions
			(id, source_keyword, item_id, shop_id, product_name, image_url,
			 price_min, price_max, formatted_price, product_link, offer_link, short_link,
			 commission_rate, rating_star, sales, score, status, raw_payload,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, NOW(), NOW())
		RETURNING created_at, updated_at
	`, sg.ID, sg.SourceKeyword, sg.ItemID, sg.ShopID, sg.ProductName, sg.ImageURL,
		sg.PriceMin, sg.PriceMax, sg.FormattedPrice, sg.ProductLink, sg.OfferLink, sg.ShortLink,
		sg.CommissionRate, sg.RatingStar, sg.Sales, sg.Score, sg.Status,
		nullableJSON(sg.RawPayload)).Scan(&sg.CreatedAt, &sg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create suggestion: %w", err)
	}
	return nil
}

func (s *Store) GetSuggestion(ctx context.Context, id string) (*domain.Suggestion, error) {
	sg, err := scanSuggestion(s.db.QueryRowContext(ctx,
		`SELECT `+suggestionCols+` FROM suggestions WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, automation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get suggestion: %w", err)
	}
	return sg, nil
}

func (s *Store) ListSuggestions(ctx context.Context, f automation.SuggestionFilter) ([]domain.Suggestion, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	countQ := `SELECT COUNT(*) FROM suggestions`
	countArgs := []interface{}{}
	if f.Status != "" {
		countQ += ` WHERE status = $1`
		countArgs = append(countArgs, f.Status)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suggestions: %w", err)
	}

	q := `SELECT ` + suggestionCols + ` FROM suggestions`
	args := []interface{}{}
	idx := 1
	if f.Status != "" {
		q += fmt.Sprintf(` WHERE status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, idx)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	var out []domain.Suggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan suggestion: %w", err)
		}
		out = append(out, *sg)
	}
	return out, total, rows.Err()
}

func (s *Store) RecentItemIDs(ctx context.Context, cutoff time.Time) (map[int64]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id FROM post_history
		WHERE sent_at >= $1 AND status = 'sent'
		UNION
		SELECT item_id FROM suggestions
		WHERE created_at >= $2 AND status IN ('pending', 'approved', 'queued')
	`, cutoff, cutoff)
	if err != nil {
		return nil, fmt.Errorf("recent item ids: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (s *Store) SetSuggestionShortLink(ctx context.Context, id, shortLink string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE suggestions SET short_link = $2, updated_at = NOW()
		WHERE id = $1
	`, id, shortLink)
	if err != nil {
		return fmt.Errorf("set short link: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return automation.ErrNotFound
	}
	return nil
}

func (s *Store) MarkSuggestionApproval(ctx context.Context, id string, action domain.ApprovedAction, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE suggestions SET approved_action = $2, approved_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, action, at)
	if err != nil {
		return fmt.Errorf("mark approval: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pendingConflict(ctx, s.db, id)
	}
	return nil
}

func (s *Store) EnqueueApproved(ctx context.Context, p automation.EnqueueParams) (*domain.Suggestion, *domain.QueueItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The claim is conditional on the pending status so two concurrent
	// approvals cannot both enqueue the same suggestion.
	sg, err := scanSuggestion(tx.QueryRowContext(ctx, `
		UPDATE suggestions
		SET status = 'queued', approved_action = 'schedule', approved_at = $2,
		    queue_scheduled_for = $3, last_error = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+suggestionCols+`
	`, p.SuggestionID, p.ApprovedAt, p.ScheduledAt))
	if err == sql.ErrNoRows {
		return nil, nil, pendingConflict(ctx, tx, p.SuggestionID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("claim suggestion: %w", err)
	}

	item := &domain.QueueItem{
		ID:           uuid.New().String(),
		SuggestionID: p.SuggestionID,
		ChatID:       p.ChatID,
		ScheduledAt:  p.ScheduledAt,
		Status:       domain.QueueQueued,
		MessageText:  p.MessageText,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO queue_items
			(id, suggestion_id, chat_id, scheduled_at, status, message_text, attempts,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, NOW(), NOW())
		RETURNING created_at, updated_at
	`, item.ID, item.SuggestionID, item.ChatID, item.ScheduledAt, item.Status,
		item.MessageText).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("insert queue item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit enqueue: %w", err)
	}
	item.ProductName = &sg.ProductName
	return sg, item, nil
}

func (s *Store) RejectSuggestion(ctx context.Context, id string, reason *string) (*domain.Suggestion, error) {
	sg, err := scanSuggestion(s.db.QueryRowContext(ctx, `
		UPDATE suggestions
		SET status = 'rejected', rejection_reason = $2, last_error = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+suggestionCols+`
	`, id, reason))
	if err == sql.ErrNoRows {
		return nil, pendingConflict(ctx, s.db, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reject suggestion: %w", err)
	}
	return sg, nil
}

func (s *Store) FinalizeSendNow(ctx context.Context, p automation.SendNowParams) (*domain.PostHistory, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	hist := historyFromSend(p.Suggestion, p.ChatID, p.MessageText, p.WAMessageID, p.SentAt)
	if err := insertHistoryTx(ctx, tx, hist); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE suggestions
		SET status = 'sent', sent_at = $2, last_error = NULL, updated_at = NOW()
		WHERE id = $1
	`, p.Suggestion.ID, p.SentAt)
	if err != nil {
		return nil, fmt.Errorf("mark suggestion sent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit send: %w", err)
	}

	sentAt := p.SentAt
	p.Suggestion.Status = domain.SuggestionSent
	p.Suggestion.SentAt = &sentAt
	p.Suggestion.LastError = nil
	return hist, nil
}

func (s *Store) CountSuggestionsByStatus(ctx context.Context) (domain.SuggestionCounters, error) {
	var c domain.SuggestionCounters
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM suggestions GROUP BY status`)
	if err != nil {
		return c, fmt.Errorf("count suggestions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return c, fmt.Errorf("scan suggestion count: %w", err)
		}
		switch domain.SuggestionStatus(status) {
		case domain.SuggestionPending:
			c.Pending = n
		case domain.SuggestionQueued:
			c.Queued = n
		case domain.SuggestionSent:
			c.Sent = n
		case domain.SuggestionRejected:
			c.Rejected = n
		case domain.SuggestionFailed:
			c.Failed = n
		}
	}
	return c, rows.Err()
}
