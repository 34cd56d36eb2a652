package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Leo190198/promoShare/internal/automation"
	"github.com/Leo190198/promoShare/internal/domain"
)

const themeCols = `id, keyword, is_active, created_at, updated_at`

func scanTheme(row rowScanner) (*domain.Theme, error) {
	t := &domain.Theme{}
	err := row.Scan(&t.ID, &t.Keyword, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) ListThemes(ctx context.Context, activeOnly bool) ([]domain.Theme, error) {
	q := `SELECT ` + themeCols + ` FROM themes`
	if activeOnly {
		q += ` WHERE is_active = TRUE`
	}
	q += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()

	var out []domain.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) GetTheme(ctx context.Context, id string) (*domain.Theme, error) {
	t, err := scanTheme(s.db.QueryRowContext(ctx,
		`SELECT `+themeCols+` FROM themes WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, automation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get theme: %w", err)
	}
	return t, nil
}

func (s *Store) ThemeByKeyword(ctx context.Context, keyword string) (*domain.Theme, error) {
	t, err := scanTheme(s.db.QueryRowContext(ctx,
		`SELECT `+themeCols+` FROM themes WHERE LOWER(keyword) = LOWER($1)`, keyword))
	if err == sql.ErrNoRows {
		return nil, automation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find theme by keyword: %w", err)
	}
	return t, nil
}

func (s *Store) CreateTheme(ctx context.Context, t *domain.Theme) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO themes (id, keyword, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`, t.ID, t.Keyword, t.IsActive).Scan(&t.CreatedAt, &t.UpdatedAt)
	if isUniqueViolation(err) {
		return automation.ErrDuplicateKeyword
	}
	if err != nil {
		return fmt.Errorf("create theme: %w", err)
	}
	return nil
}

func (s *Store) UpdateTheme(ctx context.Context, t *domain.Theme) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE themes SET keyword = $2, is_active = $3, updated_at = NOW()
		WHERE id = $1
	`, t.ID, t.Keyword, t.IsActive)
	if isUniqueViolation(err) {
		return automation.ErrDuplicateKeyword
	}
	if err != nil {
		return fmt.Errorf("update theme: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return automation.ErrNotFound
	}
	return nil
}
