package processor

import (
	"context"
	"time"

	"github.com/weiawesome/thumbnail-service/internal/domain"
)

// Notifier announces a stored thumbnail to downstream systems.
// Notification is advisory: errors are logged, never propagated.
type Notifier interface {
	Notify(ctx context.Context, ev *domain.ThumbnailCreated) error
}

// Observer receives per-record telemetry.
type Observer interface {
	ObserveRecord(status Status, elapsed time.Duration)
	ObserveNotifyError()
}

type nopObserver struct{}

func (nopObserver) ObserveRecord(Status, time.Duration) {}
func (nopObserver) ObserveNotifyError()                 {}
