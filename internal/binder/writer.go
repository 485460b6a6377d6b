package binder

import (
	"context"

	"github.com/folio-cms/folio/internal/retry"
	"github.com/folio-cms/folio/pkg/logger"
	"github.com/folio-cms/folio/pkg/metrics"
)

// Writer issues store writes in the background with a retry policy. The
// outcome is delivered once on the returned channel, which is then closed.
// Writes outlive the caller's context.
type Writer struct {
	policy retry.Policy
}

func NewWriter(p retry.Policy) *Writer {
	return &Writer{policy: p}
}

func (w *Writer) Go(ctx context.Context, collection, what string, op func(context.Context) error) <-chan error {
	ch := make(chan error, 1)
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(ch)
		err := retry.Do(ctx, w.policy, op, func(attempt int, err error) {
			logger.Warnf("write %s attempt %d/%d failed: %v", what, attempt, w.policy.Attempts, err)
		})
		if err != nil {
			logger.Errorf("write %s failed: %v", what, err)
			metrics.ContentWrites.WithLabelValues(collection, "failed").Inc()
			metrics.ContentWriteFailures.WithLabelValues(collection).Inc()
		} else {
			metrics.ContentWrites.WithLabelValues(collection, "ok").Inc()
		}
		ch <- err
	}()
	return ch
}

// failed returns an already-resolved result.
func failed(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}
