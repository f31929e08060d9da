package notify

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans a notification out to every notifier and returns all failures combined.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}

// Log writes notifications to the structured log so they are visible even
// without an external channel configured.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Send(ctx context.Context, title, text string) error {
	l.Logger.Warn("notification", zap.String("title", title), zap.String("text", text))
	return nil
}
