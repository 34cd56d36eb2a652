package automation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Leo190198/promoShare/internal/domain"
	"github.com/Leo190198/promoShare/internal/pricing"
)

// GenerateSuggestions mines the catalog for every theme and persists
// fresh pending suggestions. Items already sent or already carrying an
// open suggestion inside the dedup window are skipped, as is any item the
// run itself just inserted under an earlier theme.
func (e *Engine) GenerateSuggestions(ctx context.Context, params domain.GenerationParams) (*domain.GenerationResult, error) {
	if err := e.ensureReady(ctx); err != nil {
		return nil, err
	}

	perTheme := e.cfg.FetchLimitPerTheme
	if params.LimitPerTheme != nil && *params.LimitPerTheme > 0 {
		perTheme = *params.LimitPerTheme
	}
	maxNew := e.cfg.MaxSuggestionsPerRun
	if params.MaxNewSuggestions != nil && *params.MaxNewSuggestions > 0 {
		maxNew = *params.MaxNewSuggestions
	}

	themes, err := e.store.ListThemes(ctx, params.OnlyActiveThemes)
	if err != nil {
		return nil, err
	}

	cutoff := e.now().UTC().Add(-time.Duration(e.cfg.ProductDedupDays) * 24 * time.Hour)
	seen, err := e.store.RecentItemIDs(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	result := &domain.GenerationResult{Suggestions: []*domain.Suggestion{}}
	for _, theme := range themes {
		if result.Inserted >= maxNew {
			break
		}
		nodes, err := e.catalog.SearchProducts(ctx, theme.Keyword, 1, perTheme)
		if err != nil {
			// One broken theme must not starve the rest of the run.
			log.Printf("[automation.Engine] Failed to fetch products for theme %q: %v", theme.Keyword, err)
			continue
		}
		for _, node := range nodes {
			result.Inspected++
			sg := suggestionFromProduct(theme.Keyword, node)
			if sg == nil {
				continue
			}
			if _, dup := seen[sg.ItemID]; dup {
				result.SkippedDuplicates++
				continue
			}
			if err := e.store.CreateSuggestion(ctx, sg); err != nil {
				return nil, fmt.Errorf("insert suggestion: %w", err)
			}
			seen[sg.ItemID] = struct{}{}
			result.Inserted++
			result.Suggestions = append(result.Suggestions, sg)
			if result.Inserted >= maxNew {
				break
			}
		}
	}

	if err := e.store.MarkGenerationRun(ctx, e.now().UTC()); err != nil {
		return nil, err
	}
	return result, nil
}

// suggestionFromProduct maps a catalog node onto a pending suggestion.
// Nodes without an item id or product name are unusable and map to nil.
func suggestionFromProduct(keyword string, node domain.CatalogProduct) *domain.Suggestion {
	if node.ItemID == 0 || node.ProductName == "" {
		return nil
	}
	return &domain.Suggestion{
		SourceKeyword:  keyword,
		ItemID:         node.ItemID,
		ShopID:         node.ShopID,
		ProductName:    node.ProductName,
		ImageURL:       node.ImageURL,
		PriceMin:       node.PriceMin,
		PriceMax:       node.PriceMax,
		FormattedPrice: pricing.FormatBRLPtr(node.PriceMin),
		ProductLink:    node.ProductLink,
		OfferLink:      node.OfferLink,
		CommissionRate: node.CommissionRate,
		RatingStar:     node.RatingStar,
		Sales:          node.Sales,
		Score:          pricing.Score(node),
		Status:         domain.SuggestionPending,
		RawPayload:     node.Raw,
	}
}
