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

func (s *Store) EnsureDefaults(ctx context.Context, settings domain.AutomationSettings, window domain.PostingWindow, keywords []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO automation_settings
			(id, automation_enabled, timezone, target_group_id, target_group_name,
			 daily_post_target, daily_post_limit, price_prefix, message_template,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`, domain.SettingsID, settings.AutomationEnabled, settings.Timezone,
		settings.TargetGroupID, settings.TargetGroupName,
		settings.DailyPostTarget, settings.DailyPostLimit,
		settings.PricePrefix, settings.MessageTemplate)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO posting_windows (id, start_time, end_time, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`, domain.PostingWindowID, window.StartTime, window.EndTime, window.IsActive)
	if err != nil {
		return fmt.Errorf("seed posting window: %w", err)
	}

	// Themes are seeded only into an empty table; admin edits afterwards
	// are never overwritten.
	var themeCount int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM themes`).Scan(&themeCount); err != nil {
		return fmt.Errorf("count themes: %w", err)
	}
	if themeCount == 0 {
		for _, kw := range keywords {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO themes (id, keyword, is_active, created_at, updated_at)
				VALUES ($1, $2, TRUE, NOW(), NOW())
				ON CONFLICT DO NOTHING
			`, uuid.New().String(), kw)
			if err != nil {
				return fmt.Errorf("seed theme %q: %w", kw, err)
			}
		}
	}

	return tx.Commit()
}

func (s *Store) Settings(ctx context.Context) (*domain.AutomationSettings, error) {
	row := &domain.AutomationSettings{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, automation_enabled, timezone, target_group_id, target_group_name,
		       daily_post_target, daily_post_limit, price_prefix, message_template,
		       last_suggestion_generation_at, last_scheduler_run_at, created_at, updated_at
		FROM automation_settings
		WHERE id = $1
	`, domain.SettingsID).Scan(
		&row.ID, &row.AutomationEnabled, &row.Timezone, &row.TargetGroupID, &row.TargetGroupName,
		&row.DailyPostTarget, &row.DailyPostLimit, &row.PricePrefix, &row.MessageTemplate,
		&row.LastSuggestionGenerationAt, &row.LastSchedulerRunAt, &row.CreatedAt, &row.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, automation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return row, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings *domain.AutomationSettings) error {
	err := s.db.QueryRowContext(ctx, `
		UPDATE automation_settings
		SET automation_enabled = $2, timezone = $3, target_group_id = $4,
		    target_group_name = $5, daily_post_target = $6, daily_post_limit = $7,
		    price_prefix = $8, message_template = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, domain.SettingsID, settings.AutomationEnabled, settings.Timezone,
		settings.TargetGroupID, settings.TargetGroupName,
		settings.DailyPostTarget, settings.DailyPostLimit,
		settings.PricePrefix, settings.MessageTemplate).Scan(&settings.UpdatedAt)
	if err == sql.ErrNoRows {
		return automation.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *Store) MarkGenerationRun(ctx context.Context, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE automation_settings
		SET last_suggestion_generation_at = $2, updated_at = NOW()
		WHERE id = $1
	`, domain.SettingsID, at)
	if err != nil {
		return fmt.Errorf("mark generation run: %w", err)
	}
	return nil
}

func (s *Store) MarkSchedulerRun(ctx context.Context, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE automation_settings
		SET last_scheduler_run_at = $2, updated_at = NOW()
		WHERE id = $1
	`, domain.SettingsID, at)
	if err != nil {
		return fmt.Errorf("mark scheduler run: %w", err)
	}
	return nil
}

func (s *Store) Window(ctx context.Context) (*domain.PostingWindow, error) {
	row := &domain.PostingWindow{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, start_time, end_time, is_active, created_at, updated_at
		FROM posting_windows
		WHERE id = $1
	`, domain.PostingWindowID).Scan(
		&row.ID, &row.StartTime, &row.EndTime, &row.IsActive, &row.CreatedAt, &row.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, automation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get posting window: %w", err)
	}
	return row, nil
}

func (s *Store) SaveWindow(ctx context.Context, w *domain.PostingWindow) error {
	w.ID = domain.PostingWindowID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO posting_windows (id, start_time, end_time, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
		    is_active = EXCLUDED.is_active, updated_at = NOW()
		RETURNING created_at, updated_at
	`, w.ID, w.StartTime, w.EndTime, w.IsActive).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save posting window: %w", err)
	}
	return nil
}
