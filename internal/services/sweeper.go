// Package services – Sweeper
//
// This file implements the staleness sweeper: a background loop that
// periodically flags open help items older than a configured age so that
// hosts can spot questions nobody has picked up. Flagging is a single batch
// commit; per-item item_flagged events are broadcast only after the commit
// succeeds, so clients never see a flag the database does not hold.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/MohnishKJ/HelpWave/internal/repo"
)

// Sweeper periodically flags stale open items and announces them.
type Sweeper struct {
	DB         *gorm.DB
	Hub        Broadcaster
	Interval   time.Duration
	StaleAfter time.Duration

	// now is a test seam; nil means time.Now.
	now func() time.Time
}

// NewSweeper builds a Sweeper with the given tick interval and staleness
// threshold.
func NewSweeper(db *gorm.DB, hub Broadcaster, interval, staleAfter time.Duration) *Sweeper {
	return &Sweeper{DB: db, Hub: hub, Interval: interval, StaleAfter: staleAfter, now: time.Now}
}

// Run executes sweep cycles on the configured interval until ctx is
// cancelled. Cycle errors are logged and never stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	logger := log.With().
		Str("component", "sweeper").
		Dur("interval", s.Interval).
		Dur("stale_after", s.StaleAfter).
		Logger()
	logger.Info().Msg("staleness sweeper started")

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("staleness sweeper stopped")
			return
		case <-ticker.C:
			n, err := s.sweepSafe(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("sweep cycle failed")
			} else if n > 0 {
				logger.Info().Int("flagged", n).Msg("flagged stale items")
			}
		}
	}
}

// sweepSafe runs one cycle and converts panics into errors so a bad cycle
// cannot kill the loop.
func (s *Sweeper) sweepSafe(ctx context.Context) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("sweep panic: %v", r)
		}
	}()
	return s.SweepOnce(ctx)
}

// SweepOnce flags every open, unflagged item older than StaleAfter in a
// single batch update, then broadcasts item_flagged to each affected room.
// It returns the number of items flagged.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	tr := otel.Tracer("services/Sweeper")
	ctx, span := tr.Start(ctx, "SweepOnce")
	defer span.End()

	nowFn := s.now
	if nowFn == nil {
		nowFn = time.Now
	}
	cutoff := nowFn().UTC().Add(-s.StaleAfter)

	refs, err := repo.ListStaleOpenItems(ctx, s.DB, cutoff)
	if err != nil {
		return 0, err
	}
	if len(refs) == 0 {
		return 0, nil
	}

	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ItemID
	}
	if err := repo.FlagItems(ctx, s.DB, ids); err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int("items.flagged", len(refs)))

	for _, ref := range refs {
		s.Hub.Publish(ref.RoomCode, EventItemFlagged, ItemRef{ItemID: ref.ItemID})
	}
	return len(refs), nil
}
