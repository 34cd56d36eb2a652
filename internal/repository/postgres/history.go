package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Leo190198/promoShare/internal/domain"
)

const historyCols = `id, suggestion_id, item_id, shop_id, chat_id, product_name,
	message_text, short_link, wa_message_id, status, sent_at, created_at`

// historyFromSend builds the audit row for one delivered message.
func historyFromSend(sg *domain.Suggestion, chatID, messageText string, waMessageID *string, sentAt time.Time) *domain.PostHistory {
	suggestionID := sg.ID
	return &domain.PostHistory{
		ID:           uuid.New().String(),
		SuggestionID: &suggestionID,
		ItemID:       sg.ItemID,
		ShopID:       sg.ShopID,
		ChatID:       chatID,
		ProductName:  sg.ProductName,
		MessageText:  messageText,
		ShortLink:    sg.ShortLink,
		WAMessageID:  waMessageID,
		Status:       domain.HistoryStatusSent,
		SentAt:       sentAt,
	}
}

func insertHistoryTx(ctx context.Context, tx *sql.Tx, h *domain.PostHistory) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO post_history
			(id, suggestion_id, item_id, shop_id, chat_id, product_name,
			 message_text, short_link, wa_message_id, status, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING created_at
	`, h.ID, h.SuggestionID, h.ItemID, h.ShopID, h.ChatID, h.ProductName,
		h.MessageText, h.ShortLink, h.WAMessageID, h.Status, h.SentAt).Scan(&h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (s *Store) ListHistory(ctx context.Context, limit int) ([]domain.PostHistory, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM post_history`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+historyCols+`
		FROM post_history
		ORDER BY sent_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []domain.PostHistory
	for rows.Next() {
		var h domain.PostHistory
		if err := rows.Scan(
			&h.ID, &h.SuggestionID, &h.ItemID, &h.ShopID, &h.ChatID, &h.ProductName,
			&h.MessageText, &h.ShortLink, &h.WAMessageID, &h.Status, &h.SentAt, &h.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, h)
	}
	return out, total, rows.Err()
}

func (s *Store) LatestHistorySentAt(ctx context.Context, chatID string) (*time.Time, error) {
	var at time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT sent_at FROM post_history
		WHERE chat_id = $1
		ORDER BY sent_at DESC
		LIMIT 1
	`, chatID).Scan(&at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest history sent_at: %w", err)
	}
	return &at, nil
}

func (s *Store) CountHistoryInRange(ctx context.Context, chatID string, from, to time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM post_history
		WHERE chat_id = $1 AND status = 'sent'
		  AND sent_at >= $2 AND sent_at <= $3
	`, chatID, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count history in range: %w", err)
	}
	return n, nil
}
