// Package journal records and deletes sales on behalf of the journal page.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"salesjournal/internal/catalog"
	"salesjournal/internal/core"
)

// DefaultNoticeDuration is how long the success notice stays up.
const DefaultNoticeDuration = 2 * time.Second

type (
	// TransactionStore is the persistence the journal needs.
	TransactionStore interface {
		ListAll(ctx context.Context) ([]core.Transaction, error)
		Append(ctx context.Context, d core.Draft) (core.Transaction, error)
		Remove(ctx context.Context, id int64) ([]core.Transaction, error)
	}

	// EventPublisher is told about committed changes. Failures are logged,
	// never returned to the user.
	EventPublisher interface {
		PublishSaleRecorded(ctx context.Context, t core.Transaction) error
		PublishSaleDeleted(ctx context.Context, id int64) error
	}

	// SaleInput is the raw form submission.
	SaleInput struct {
		ProductName string
		Quantity    int
		Date        string
	}
)

type Service struct {
	store     TransactionStore
	catalog   *catalog.Catalog
	publisher EventPublisher
	notice    *Notice
	now       func() time.Time
}

type Option func(*Service)

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithNotice(n *Notice) Option {
	return func(s *Service) { s.notice = n }
}

func NewService(store TransactionStore, cat *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: cat,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notice == nil {
		s.notice = NewNotice(DefaultNoticeDuration)
	}
	return s
}

// Catalog returns the product list sales are recorded against.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Notice returns the transient success signal raised by Submit.
func (s *Service) Notice() *Notice { return s.notice }

// Today returns the current calendar day as a form default.
func (s *Service) Today() string { return core.FormatDay(s.now()) }

// List returns every stored transaction in insertion order.
func (s *Service) List(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListAll(ctx)
}

// Validate resolves in against the catalog and builds the draft to persist.
// A blank date means today.
func (s *Service) Validate(in SaleInput) (core.Draft, error) {
	name := strings.TrimSpace(in.ProductName)
	if name == "" {
		return core.Draft{}, core.NewValidationError("product", core.ErrNoProduct)
	}
	product, ok := s.catalog.Lookup(name)
	if !ok {
		return core.Draft{}, core.NewValidationError("product", fmt.Errorf("%w: %q", core.ErrUnknownProduct, name))
	}
	if in.Quantity < 1 {
		return core.Draft{}, core.NewValidationError("quantity", core.ErrInvalidQuantity)
	}

	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = s.Today()
	}
	if _, err := core.ParseDay(date, time.UTC); err != nil {
		return core.Draft{}, core.NewValidationError("date", err)
	}

	return core.Draft{
		ProductName: product.Name,
		Category:    product.Category,
		UnitPrice:   product.UnitPrice,
		Quantity:    in.Quantity,
		Total:       core.LineTotal(product.UnitPrice, in.Quantity),
		Date:        date,
	}, nil
}

// RecordSale validates in, persists it and publishes a sale.recorded event.
func (s *Service) RecordSale(ctx context.Context, in SaleInput) (core.Transaction, error) {
	d, err := s.Validate(in)
	if err != nil {
		slog.DebugContext(ctx, "Sale rejected", "product", in.ProductName, "quantity", in.Quantity, "error", err)
		return core.Transaction{}, err
	}

	t, err := s.store.Append(ctx, d)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record sale: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishSaleRecorded(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sale recorded event", "id", t.ID, "error", err)
		}
	}
	return t, nil
}

// DeleteSale removes id and returns the remaining collection. Unknown ids
// are a no-op.
func (s *Service) DeleteSale(ctx context.Context, id int64) ([]core.Transaction, error) {
	txs, err := s.store.Remove(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete sale %d: %w", id, err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishSaleDeleted(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sale deleted event", "id", id, "error", err)
		}
	}
	return txs, nil
}
