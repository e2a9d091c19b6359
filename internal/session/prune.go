package session

import (
	"sort"
	"time"

	apperrors "jdoptim/internal/errors"
)

// Prune enforces the retention policy on stored sessions and returns the
// number of documents removed. The count limit is applied first: when more
// than maxSessions documents exist, the oldest are removed until the limit
// holds. The age limit is applied to the survivors: any document whose
// modification time is older than maxAge is removed. A zero or negative
// limit disables that limit.
func (st *Store) Prune(maxSessions int, maxAge time.Duration) (int, error) {
	files, err := st.entries()
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	removed := 0
	remove := func(f fileEntry) {
		if err := st.Delete(f.sessionID); err != nil {
			if st.logger != nil {
				st.logger.LogError(err, "Failed to prune session document",
					"session_id", f.sessionID)
			}
			return
		}
		removed++
	}

	if maxSessions > 0 && len(files) > maxSessions {
		excess := len(files) - maxSessions
		for _, f := range files[:excess] {
			remove(f)
		}
		files = files[excess:]
	}

	if maxAge > 0 {
		cutoff := time.Now().Add(-maxAge)
		for _, f := range files {
			if f.modTime.Before(cutoff) {
				remove(f)
			}
		}
	}

	return removed, nil
}

// Pruner runs Store.Prune on a fixed interval in the background.
type Pruner struct {
	store       *Store
	logger      *apperrors.Logger
	maxSessions int
	maxAge      time.Duration
	interval    time.Duration
	done        chan struct{}

	// OnPrune, when set before Start, is called after each prune pass that
	// removed at least one session.
	OnPrune func(removed int)
}

// NewPruner creates a background pruner. Start must be called to begin
// pruning; interval defaults to one hour when zero.
func NewPruner(store *Store, logger *apperrors.Logger, maxSessions int, maxAge, interval time.Duration) *Pruner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Pruner{
		store:       store,
		logger:      logger,
		maxSessions: maxSessions,
		maxAge:      maxAge,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

// Start launches the prune loop. The first prune runs immediately.
func (p *Pruner) Start() {
	go p.run()
	if p.logger != nil {
		p.logger.Info("Session pruner started",
			"max_sessions", p.maxSessions,
			"max_age", p.maxAge.String(),
			"interval", p.interval.String())
	}
}

// Stop terminates the prune loop.
func (p *Pruner) Stop() {
	close(p.done)
}

func (p *Pruner) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pruneOnce()

	for {
		select {
		case <-ticker.C:
			p.pruneOnce()
		case <-p.done:
			return
		}
	}
}

func (p *Pruner) pruneOnce() {
	removed, err := p.store.Prune(p.maxSessions, p.maxAge)
	if err != nil {
		if p.logger != nil {
			p.logger.LogError(err, "Session prune failed")
		}
		return
	}
	if removed == 0 {
		return
	}
	if p.logger != nil {
		p.logger.Info("Pruned expired sessions", "removed", removed)
	}
	if p.OnPrune != nil {
		p.OnPrune(removed)
	}
}
