// Package storage persists the transaction collection as one JSON array under
// a fixed key of a kv.Store.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"salesjournal/internal/core"
	"salesjournal/internal/kv"
)

const (
	// TransactionsKey holds the JSON array of transactions.
	TransactionsKey = "sales_transactions"
	// SequenceKey holds the last issued transaction id.
	SequenceKey = "sales_transactions_seq"
)

// TransactionStore reads and rewrites the whole collection on every
// mutation. Writes from one process are serialized; writers in other
// processes sharing the same backend can still lose updates.
type TransactionStore struct {
	mu  sync.Mutex
	kv  kv.Store
	now func() time.Time
}

type Option func(*TransactionStore)

// WithClock overrides time.Now for id and createdAt assignment.
func WithClock(now func() time.Time) Option {
	return func(s *TransactionStore) { s.now = now }
}

func NewTransactionStore(store kv.Store, opts ...Option) *TransactionStore {
	s := &TransactionStore{kv: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAll returns the collection in insertion order, or an empty slice when
// nothing has been persisted.
func (s *TransactionStore) ListAll(ctx context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Append assigns id and createdAt to d and persists it. Total is always
// recomputed as unitPrice × quantity; the draft's own Total is ignored.
func (s *TransactionStore) Append(ctx context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, core.NewValidationError("draft", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.load(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	last, err := s.lastIssued(ctx, txs)
	if err != nil {
		return core.Transaction{}, err
	}

	now := s.now()
	id := now.UnixMilli()
	if id <= last {
		id = last + 1
	}

	t := core.Transaction{
		ID:          id,
		ProductName: d.ProductName,
		Category:    d.Category,
		UnitPrice:   d.UnitPrice,
		Quantity:    d.Quantity,
		Total:       core.LineTotal(d.UnitPrice, d.Quantity),
		Date:        d.Date,
		CreatedAt:   now.UTC().Format(time.RFC3339Nano),
	}

	next := make([]core.Transaction, len(txs), len(txs)+1)
	copy(next, txs)
	next = append(next, t)

	if err := s.save(ctx, "append", next, &id); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"product", t.ProductName,
		"quantity", t.Quantity,
		"total", t.Total,
		"date", t.Date)
	return t, nil
}

// Remove deletes the transaction with id. A missing id is not an error; the
// collection is returned unchanged and nothing is written.
func (s *TransactionStore) Remove(ctx context.Context, id int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	next := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.ID != id {
			next = append(next, t)
		}
	}
	if len(next) == len(txs) {
		slog.DebugContext(ctx, "Transaction not found for removal", "id", id)
		return txs, nil
	}

	if err := s.save(ctx, "remove", next, nil); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Transaction removed", "id", id, "remaining", len(next))
	return next, nil
}

// Clear removes every persisted transaction. The id sequence is kept so ids
// issued after a reset never repeat earlier ones.
func (s *TransactionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, TransactionsKey); err != nil {
		return &core.StorageUnavailableError{Op: "clear", Err: err}
	}
	slog.InfoContext(ctx, "Transactions cleared")
	return nil
}

// Ping reports backend health when the backend supports it.
func (s *TransactionStore) Ping(ctx context.Context) error {
	if p, ok := s.kv.(kv.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return &core.StorageUnavailableError{Op: "ping", Err: err}
		}
	}
	return nil
}

func (s *TransactionStore) load(ctx context.Context) ([]core.Transaction, error) {
	raw, found, err := s.kv.Get(ctx, TransactionsKey)
	if err != nil {
		return nil, &core.StorageUnavailableError{Op: "read", Err: err}
	}
	if !found || len(raw) == 0 {
		return []core.Transaction{}, nil
	}

	var txs []core.Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return nil, &core.StorageCorruptionError{Key: TransactionsKey, Err: err}
	}
	if txs == nil {
		// A persisted "null" reads as empty.
		txs = []core.Transaction{}
	}
	return txs, nil
}

// lastIssued is the larger of the persisted sequence and the highest id in
// txs, so collections written before the sequence existed stay safe.
func (s *TransactionStore) lastIssued(ctx context.Context, txs []core.Transaction) (int64, error) {
	var last int64
	for _, t := range txs {
		if t.ID > last {
			last = t.ID
		}
	}

	raw, found, err := s.kv.Get(ctx, SequenceKey)
	if err != nil {
		return 0, &core.StorageUnavailableError{Op: "read sequence", Err: err}
	}
	if !found {
		return last, nil
	}
	seq, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, &core.StorageCorruptionError{Key: SequenceKey, Err: err}
	}
	if seq > last {
		last = seq
	}
	return last, nil
}

func (s *TransactionStore) save(ctx context.Context, op string, txs []core.Transaction, seq *int64) error {
	payload, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	entries := map[string][]byte{TransactionsKey: payload}
	if seq != nil {
		entries[SequenceKey] = []byte(strconv.FormatInt(*seq, 10))
	}
	if err := kv.WriteAll(ctx, s.kv, entries); err != nil {
		return &core.StorageUnavailableError{Op: op, Err: err}
	}
	return nil
}
