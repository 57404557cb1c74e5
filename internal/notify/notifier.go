package notify

import (
	"context"
	"log/slog"
	"time"
)

// Dispatcher delivers a "matched" notification intent to the vacancy
// organisation's admin. Delivery is a collaborator's job; the engine
// fires it best-effort and never lets a failure reach the swipe
// response.
type Dispatcher interface {
	NotifyMatch(ctx context.Context, orgAdminEmail, volunteerName, vacancyTitle, matchID string) error
}

// LogDispatcher is the in-process stand-in for the real delivery
// channel: it logs the intent and succeeds.
type LogDispatcher struct {
	Logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{Logger: logger}
}

func (d *LogDispatcher) NotifyMatch(ctx context.Context, orgAdminEmail, volunteerName, vacancyTitle, matchID string) error {
	d.Logger.Info("match notification",
		"to", orgAdminEmail,
		"volunteer", volunteerName,
		"vacancy", vacancyTitle,
		"match_id", matchID,
	)
	return nil
}

// Fire runs the dispatch on its own goroutine with a detached
// context and its own timeout; failures are logged, never
// propagated. The swipe that triggered it has already committed.
func Fire(d Dispatcher, logger *slog.Logger, orgAdminEmail, volunteerName, vacancyTitle, matchID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.NotifyMatch(ctx, orgAdminEmail, volunteerName, vacancyTitle, matchID); err != nil {
			logger.Error("match notification failed", "match_id", matchID, "err", err)
		}
	}()
}
