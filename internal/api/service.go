package api

import (
	"context"

	"github.com/Leo190198/promoShare/internal/automation"
	"github.com/Leo190198/promoShare/internal/domain"
)

// AutomationService is the slice of the automation engine the HTTP layer
// drives. *automation.Engine implements it; handler tests substitute an
// in-memory fake.
type AutomationService interface {
	Status(ctx context.Context) (*domain.StatusSnapshot, error)

	UpdateSettings(ctx context.Context, patch automation.SettingsPatch) (*domain.AutomationSettings, error)

	GetWindow(ctx context.Context) (*domain.PostingWindow, error)
	UpdateWindow(ctx context.Context, start, end string, isActive bool) (*domain.PostingWindow, error)

	ListThemes(ctx context.Context) ([]domain.Theme, int, error)
	CreateTheme(ctx context.Context, keyword string, isActive bool) (*domain.Theme, error)
	UpdateTheme(ctx context.Context, id string, patch automation.ThemePatch) (*domain.Theme, error)

	GenerateSuggestions(ctx context.Context, params domain.GenerationParams) (*domain.GenerationResult, error)
	ListSuggestions(ctx context.Context, status string, limit int) ([]domain.Suggestion, int, error)
	ApproveSchedule(ctx context.Context, id string) (*domain.ApproveResult, error)
	ApproveSendNow(ctx context.Context, id string) (*domain.ApproveResult, error)
	Reject(ctx context.Context, id, reason string) (*domain.Suggestion, error)

	ListQueue(ctx context.Context, status string, limit int) ([]domain.QueueItem, int, error)
	ListHistory(ctx context.Context, limit int) ([]domain.PostHistory, int, error)
}

var _ AutomationService = (*automation.Engine)(nil)
