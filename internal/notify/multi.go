package notify

import (
	"context"
	"errors"

	"github.com/weiawesome/thumbnail-service/internal/domain"
)

// Notifier announces a stored thumbnail.
type Notifier interface {
	Notify(ctx context.Context, ev *domain.ThumbnailCreated) error
}

// Multi fans an event out to every notifier and joins their errors.
// One failing sink does not stop the others.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev *domain.ThumbnailCreated) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
