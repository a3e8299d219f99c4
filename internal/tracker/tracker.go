// Package tracker sequences one check: load the persisted snapshot, fetch
// the catalog, compare, and persist when something changed.
package tracker

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"peptrack/internal/drift"
	"peptrack/internal/snapshot"
)

// SnapshotStore persists the latest snapshot.
type SnapshotStore interface {
	Load() (*snapshot.Snapshot, error)
	Save(s *snapshot.Snapshot) error
}

// Fetcher retrieves the current catalog.
type Fetcher interface {
	Fetch(ctx context.Context) (snapshot.Payload, error)
}

// Journal records reported transitions.
type Journal interface {
	Record(ctx context.Context, runID string, at, since time.Time, changes drift.ChangeSet) error
}

// Outcome is the terminal state of a check.
type Outcome string

const (
	OutcomeInitialized Outcome = "initialized" // no prior snapshot; one was written
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeChanged     Outcome = "changed"
)

// Result is everything a renderer needs about a check.
type Result struct {
	RunID       string
	Outcome     Outcome
	Changes     drift.ChangeSet
	Elapsed     time.Duration
	ElapsedText string
	Previous    *snapshot.Snapshot // nil when initialized
	Current     *snapshot.Snapshot
	Saved       bool
}

// Options configures a Tracker.
type Options struct {
	// RewriteUnchanged persists the fresh snapshot even when nothing
	// changed, which moves the baseline to the time of the last check.
	RewriteUnchanged bool

	Journal Journal
	Logger  *slog.Logger
	Now     func() time.Time
}

// Tracker runs checks.
type Tracker struct {
	store   SnapshotStore
	fetcher Fetcher
	opts    Options
}

// New creates a tracker.
func New(store SnapshotStore, fetcher Fetcher, opts Options) *Tracker {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{store: store, fetcher: fetcher, opts: opts}
}

// Check performs one run. Errors from loading, parsing or fetching abort the
// run before anything is written.
func (t *Tracker) Check(ctx context.Context) (Result, error) {
	startedAt := t.opts.Now()
	res := Result{RunID: newRunID(startedAt)}
	log := t.opts.Logger.With("run_id", res.RunID)

	previous, err := t.store.Load()
	if err != nil && !errors.Is(err, snapshot.ErrSnapshotNotFound) {
		log.Error("state.load_failed", "error", err)
		return res, err
	}

	current, err := t.fetch(ctx)
	if err != nil {
		log.Error("catalog.fetch_failed", "error", err)
		return res, err
	}
	res.Current = current
	log.Debug("catalog.fetched", "documents", current.Len())

	if previous == nil {
		if err := t.store.Save(current); err != nil {
			return res, fmt.Errorf("save state: %w", err)
		}
		res.Outcome = OutcomeInitialized
		res.Saved = true
		log.Info("state.initialized", "documents", current.Len())
		return res, nil
	}

	res.Previous = previous
	res.Changes = previous.DiffAgainst(current)
	res.Elapsed = previous.Elapsed(current)
	res.ElapsedText = drift.FormatElapsed(res.Elapsed)

	if res.Changes.Empty() {
		res.Outcome = OutcomeUnchanged
	} else {
		res.Outcome = OutcomeChanged
		if t.opts.Journal != nil {
			if err := t.opts.Journal.Record(ctx, res.RunID, current.CapturedAt(), previous.CapturedAt(), res.Changes); err != nil {
				log.Error("history.record_failed", "error", err)
				return res, fmt.Errorf("record history: %w", err)
			}
		}
	}

	if res.Outcome == OutcomeChanged || t.opts.RewriteUnchanged {
		if err := t.store.Save(current); err != nil {
			return res, fmt.Errorf("save state: %w", err)
		}
		res.Saved = true
	}

	log.Info("check.completed",
		"outcome", res.Outcome,
		"changes", len(res.Changes),
		"elapsed", res.Elapsed.String(),
		"saved", res.Saved,
	)
	return res, nil
}

func (t *Tracker) fetch(ctx context.Context) (*snapshot.Snapshot, error) {
	payload, err := t.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.FromPayloadAt(payload, t.opts.Now())
}

func newRunID(at time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}
