package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Notifier delivers rendered text to an external channel. Implementations
// escape markup themselves and must return once ctx is done.
type Notifier interface {
	Deliver(ctx context.Context, text string) error
}

// Fanout delivers to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Deliver(ctx context.Context, text string) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Deliver(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stdout writes every message to the log. Used when no chat is configured and
// as a local copy of everything sent.
type Stdout struct {
	log *zap.Logger
}

func NewStdout(log *zap.Logger) *Stdout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Stdout{log: log.With(zap.String("module", "notify"))}
}

func (s *Stdout) Deliver(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info("notification", zap.String("text", text))
	return nil
}
