// Package worker keeps a replica of the journal in step with sale events.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"salesjournal/internal/amqp"
	"salesjournal/internal/core"
	"salesjournal/internal/kv"
)

const (
	// MirrorKey holds the replica as a JSON object keyed by transaction id.
	MirrorKey = "mirror_transactions"
	// MirrorSyncedAtKey holds the RFC 3339 time of the last full reconcile.
	MirrorSyncedAtKey = "mirror_synced_at"
)

// Lister reads the authoritative transaction list.
type Lister interface {
	ListAll(ctx context.Context) ([]core.Transaction, error)
}

// MirrorWorker applies sale events to a replica store and periodically
// reconciles it against the source.
type MirrorWorker struct {
	mu      sync.Mutex
	source  Lister
	replica kv.Store
	now     func() time.Time
}

func NewMirrorWorker(source Lister, replica kv.Store) *MirrorWorker {
	return &MirrorWorker{source: source, replica: replica, now: time.Now}
}

// HandleSaleEvent applies one event. Unknown event types are skipped.
func (w *MirrorWorker) HandleSaleEvent(ctx context.Context, event *amqp.SaleEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	mirror, err := w.load(ctx)
	if err != nil {
		return err
	}

	switch event.Type {
	case amqp.EventSaleRecorded:
		if event.Transaction == nil {
			return amqp.Permanent(fmt.Errorf("sale.recorded event %d carries no transaction", event.ID))
		}
		slog.InfoContext(ctx, "Mirroring recorded sale", "id", event.ID, "product", event.Transaction.ProductName)
		mirror[event.ID] = *event.Transaction
	case amqp.EventSaleDeleted:
		if _, ok := mirror[event.ID]; !ok {
			slog.DebugContext(ctx, "Deleted sale not in mirror", "id", event.ID)
			return nil
		}
		slog.InfoContext(ctx, "Mirroring deleted sale", "id", event.ID)
		delete(mirror, event.ID)
	default:
		slog.WarnContext(ctx, "Skipping unknown sale event", "type", event.Type, "id", event.ID)
		return nil
	}

	return w.save(ctx, mirror, false)
}

// Reconcile replaces the replica with the source list and reports how many
// records were added and removed.
func (w *MirrorWorker) Reconcile(ctx context.Context) (added, removed int, err error) {
	txs, err := w.source.ListAll(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list source transactions: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	mirror, err := w.load(ctx)
	if err != nil {
		// A replica we cannot read is rebuilt from the source.
		slog.WarnContext(ctx, "Mirror unreadable, rebuilding", "error", err)
		mirror = map[int64]core.Transaction{}
	}

	next := make(map[int64]core.Transaction, len(txs))
	for _, t := range txs {
		if _, ok := mirror[t.ID]; !ok {
			added++
		}
		next[t.ID] = t
	}
	for id := range mirror {
		if _, ok := next[id]; !ok {
			removed++
		}
	}

	if err := w.save(ctx, next, true); err != nil {
		return 0, 0, err
	}
	if added > 0 || removed > 0 {
		slog.InfoContext(ctx, "Mirror reconciled", "added", added, "removed", removed, "total", len(next))
	}
	return added, removed, nil
}

// Transactions returns the replica ordered by id.
func (w *MirrorWorker) Transactions(ctx context.Context) ([]core.Transaction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	mirror, err := w.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(mirror))
	for _, t := range mirror {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Run reconciles once, then every interval until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	if _, _, err := w.Reconcile(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup reconcile failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, _, err := w.Reconcile(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic reconcile failed", "error", err)
			}
		}
	}
}

func (w *MirrorWorker) load(ctx context.Context) (map[int64]core.Transaction, error) {
	raw, found, err := w.replica.Get(ctx, MirrorKey)
	if err != nil {
		return nil, &core.StorageUnavailableError{Op: "read mirror", Err: err}
	}
	mirror := make(map[int64]core.Transaction)
	if !found || len(raw) == 0 {
		return mirror, nil
	}

	var byKey map[string]core.Transaction
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return nil, &core.StorageCorruptionError{Key: MirrorKey, Err: err}
	}
	for k, t := range byKey {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, &core.StorageCorruptionError{Key: MirrorKey, Err: fmt.Errorf("bad id %q", k)}
		}
		mirror[id] = t
	}
	return mirror, nil
}

func (w *MirrorWorker) save(ctx context.Context, mirror map[int64]core.Transaction, synced bool) error {
	byKey := make(map[string]core.Transaction, len(mirror))
	for id, t := range mirror {
		byKey[strconv.FormatInt(id, 10)] = t
	}
	raw, err := json.Marshal(byKey)
	if err != nil {
		return fmt.Errorf("encode mirror: %w", err)
	}

	entries := map[string][]byte{MirrorKey: raw}
	if synced {
		entries[MirrorSyncedAtKey] = []byte(w.now().UTC().Format(time.RFC3339))
	}
	if err := kv.WriteAll(ctx, w.replica, entries); err != nil {
		return &core.StorageUnavailableError{Op: "write mirror", Err: err}
	}
	return nil
}
