package automation

import (
	"context"
	"strings"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/domain"
	"github.com/Leo190198/promoShare/internal/pricing"
)

// targetChat returns the configured destination group id.
func targetChat(settings *domain.AutomationSettings) (string, error) {
	if settings.TargetGroupID == nil || *settings.TargetGroupID == "" {
		return "", apierr.BadRequest(apierr.CodeTargetGroupNotConfigured, "Target group is not configured")
	}
	return *settings.TargetGroupID, nil
}

// ensureShortLink returns the suggestion's short link, generating and
// persisting one on first use.
func (e *Engine) ensureShortLink(ctx context.Context, sg *domain.Suggestion) (string, error) {
	if sg.ShortLink != nil && *sg.ShortLink != "" {
		return *sg.ShortLink, nil
	}
	origin, ok := sg.BestLink()
	if !ok {
		return "", apierr.BadRequest(apierr.CodeSuggestionMissingLinks, "Suggestion missing product/offer link to generate shortlink").
			WithDetails(map[string]any{"suggestionId": sg.ID})
	}
	short, err := e.catalog.GenerateShortLink(ctx, origin)
	if err != nil {
		return "", err
	}
	if err := e.store.SetSuggestionShortLink(ctx, sg.ID, short); err != nil {
		return "", err
	}
	sg.ShortLink = &short
	return short, nil
}

// buildMessageText renders the outgoing message from the current
// template. The short link is generated lazily; the price falls back from
// the stored formatted form to a fresh formatting of the raw minimum to a
// dash.
func (e *Engine) buildMessageText(ctx context.Context, settings *domain.AutomationSettings, sg *domain.Suggestion) (string, error) {
	short, err := e.ensureShortLink(ctx, sg)
	if err != nil {
		return "", err
	}

	price := "-"
	switch {
	case sg.FormattedPrice != nil && *sg.FormattedPrice != "":
		price = *sg.FormattedPrice
	case sg.PriceMin != nil && *sg.PriceMin != "":
		if v, ok := pricing.FormatBRL(*sg.PriceMin); ok {
			price = v
		}
	}

	text := settings.MessageTemplate
	text = strings.ReplaceAll(text, "{productName}", sg.ProductName)
	text = strings.ReplaceAll(text, "{formattedPrice}", price)
	text = strings.ReplaceAll(text, "{shortLink}", short)
	return strings.TrimSpace(text), nil
}

// ApproveSchedule approves a pending suggestion onto the queue at the
// next computed slot. The rendered text is frozen on the queue item so
// dispatch sends exactly what the admin previewed.
func (e *Engine) ApproveSchedule(ctx context.Context, id string) (*domain.ApproveResult, error) {
	sc, err := e.loadSchedule(ctx)
	if err != nil {
		return nil, err
	}
	sg, err := e.pendingSuggestion(ctx, id)
	if err != nil {
		return nil, err
	}
	chatID, err := targetChat(sc.settings)
	if err != nil {
		return nil, err
	}
	text, err := e.buildMessageText(ctx, sc.settings, sg)
	if err != nil {
		return nil, err
	}
	scheduledAt, err := e.computeNextScheduleAt(ctx, sc, chatID)
	if err != nil {
		return nil, err
	}

	sg, item, err := e.store.EnqueueApproved(ctx, EnqueueParams{
		SuggestionID: id,
		ChatID:       chatID,
		ScheduledAt:  scheduledAt,
		MessageText:  text,
		ApprovedAt:   e.now().UTC(),
	})
	if err != nil {
		return nil, e.approvalRace(ctx, id, err)
	}
	return &domain.ApproveResult{
		Suggestion:     sg,
		QueueItemID:    item.ID,
		QueueStatus:    item.Status,
		MessagePreview: item.MessageText,
	}, nil
}

// ApproveSendNow approves a pending suggestion and posts it immediately.
// The approval stamp is persisted before the send so a bridge failure
// still leaves an audit trail; the suggestion stays pending and the error
// surfaces to the caller.
func (e *Engine) ApproveSendNow(ctx context.Context, id string) (*domain.ApproveResult, error) {
	sc, err := e.loadSchedule(ctx)
	if err != nil {
		return nil, err
	}
	sg, err := e.pendingSuggestion(ctx, id)
	if err != nil {
		return nil, err
	}

	approvedAt := e.now().UTC()
	if err := e.store.MarkSuggestionApproval(ctx, id, domain.ActionSendNow, approvedAt); err != nil {
		return nil, e.approvalRace(ctx, id, err)
	}
	action := domain.ActionSendNow
	sg.ApprovedAction = &action
	sg.ApprovedAt = &approvedAt

	chatID, err := targetChat(sc.settings)
	if err != nil {
		return nil, err
	}
	text, err := e.buildMessageText(ctx, sc.settings, sg)
	if err != nil {
		return nil, err
	}
	receipt, err := e.wa.SendText(ctx, chatID, text)
	if err != nil {
		return nil, err
	}

	if _, err := e.store.FinalizeSendNow(ctx, SendNowParams{
		Suggestion:  sg,
		ChatID:      chatID,
		MessageText: text,
		WAMessageID: receipt.MessageID,
		SentAt:      e.now().UTC(),
	}); err != nil {
		return nil, err
	}
	return &domain.ApproveResult{
		Suggestion:     sg,
		MessagePreview: text,
		WAResult:       &receipt,
	}, nil
}

// Reject moves a pending suggestion to rejected with an optional trimmed
// reason.
func (e *Engine) Reject(ctx context.Context, id, reason string) (*domain.Suggestion, error) {
	var trimmed *string
	if v := strings.TrimSpace(reason); v != "" {
		trimmed = &v
	}
	sg, err := e.store.RejectSuggestion(ctx, id, trimmed)
	if err != nil {
		return nil, e.approvalRace(ctx, id, err)
	}
	return sg, nil
}
