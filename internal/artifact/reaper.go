package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/solacevoice/solace/internal/observe"
)

// Reaper removes stored artifacts older than a retention window. Downloads
// must tolerate an artifact disappearing between turns; the reaper only
// guarantees an eventual sweep, never immediate deletion.
type Reaper struct {
	store     *Store
	retention time.Duration
	interval  time.Duration
	metrics   *observe.Metrics
}

// NewReaper creates a Reaper over store. Artifacts older than retention are
// removed on each sweep; sweeps run every interval. A nil met uses
// [observe.DefaultMetrics].
func NewReaper(store *Store, retention, interval time.Duration, met *observe.Metrics) *Reaper {
	if met == nil {
		met = observe.DefaultMetrics()
	}
	return &Reaper{store: store, retention: retention, interval: interval, metrics: met}
}

// Run sweeps on a ticker until ctx is cancelled. The first sweep happens
// immediately.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if n, err := r.Sweep(ctx); err != nil {
			slog.Warn("artifact sweep failed", "error", err)
		} else if n > 0 {
			slog.Info("reaped artifacts", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep removes every artifact whose modification time is older than the
// retention window, deleting concurrently. It returns the number removed.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(r.store.Dir())
	if err != nil {
		return 0, fmt.Errorf("artifact: read dir: %w", err)
	}
	cutoff := time.Now().Add(-r.retention)

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	removed := make(chan struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		eg.Go(func() error {
			info, err := entry.Info()
			if err != nil {
				return nil // raced with another remover
			}
			if info.ModTime().After(cutoff) {
				return nil
			}
			if err := os.Remove(filepath.Join(r.store.Dir(), name)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("artifact: remove %q: %w", name, err)
			}
			removed <- struct{}{}
			return nil
		})
	}
	err = eg.Wait()
	close(removed)
	if n := len(removed); n > 0 {
		r.metrics.ArtifactsReaped.Add(ctx, int64(n))
		return n, err
	}
	return 0, err
}
