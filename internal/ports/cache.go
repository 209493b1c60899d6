package ports

import (
	"context"

	"github.com/disasterline/alert-backend/internal/domain"
)

// AlertFeedCache keeps a short-lived copy of the public alert feed.
// A miss is reported as (nil, false, nil); errors are advisory and callers fall back to the store.
type AlertFeedCache interface {
	Get(ctx context.Context) ([]domain.Alert, bool, error)
	Set(ctx context.Context, alerts []domain.Alert) error
	Invalidate(ctx context.Context) error
}
