package events

import (
	"context"
	"errors"
)

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) PublishDocumentCreated(ctx context.Context, evt DocumentCreated) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishDocumentCreated(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
