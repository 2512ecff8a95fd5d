package journal

import (
	"context"
	"log/slog"

	"salesjournal/internal/core"
)

// Form holds the journal form fields between submissions.
type Form struct {
	ProductName string
	Quantity    int
	Date        string
}

// NewForm returns the default form: no product, quantity 1, date today.
func NewForm(today string) Form {
	return Form{Quantity: 1, Date: today}
}

// Input converts the form into a submission.
func (f Form) Input() SaleInput {
	return SaleInput{ProductName: f.ProductName, Quantity: f.Quantity, Date: f.Date}
}

// State is the journal view: the form and the transactions on screen.
type State struct {
	Form         Form
	Transactions []core.Transaction
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// DeletePrompt is shown before a transaction is deleted.
const DeletePrompt = "Are you sure you want to delete this transaction?"

// Load returns a fresh state with the stored transactions and a default form.
func (s *Service) Load(ctx context.Context) (State, error) {
	txs, err := s.store.ListAll(ctx)
	if err != nil {
		return State{}, err
	}
	return State{Form: NewForm(s.Today()), Transactions: txs}, nil
}

// Submit runs one form submission. On any failure st is returned as given
// so the user's input survives. On success the record is appended to the
// view, the form is reset and the notice is raised.
func (s *Service) Submit(ctx context.Context, st State) (State, error) {
	t, err := s.RecordSale(ctx, st.Form.Input())
	if err != nil {
		return st, err
	}

	txs := make([]core.Transaction, len(st.Transactions), len(st.Transactions)+1)
	copy(txs, st.Transactions)
	txs = append(txs, t)

	s.notice.Raise(NoticeSaleRecorded)
	return State{Form: NewForm(s.Today()), Transactions: txs}, nil
}

// ConfirmDelete asks c before deleting id. A declined prompt leaves st as is.
func (s *Service) ConfirmDelete(ctx context.Context, st State, id int64, c Confirmer) (State, error) {
	if c != nil {
		ok, err := c.Confirm(ctx, DeletePrompt)
		if err != nil {
			return st, err
		}
		if !ok {
			slog.DebugContext(ctx, "Delete declined", "id", id)
			return st, nil
		}
	}

	txs, err := s.DeleteSale(ctx, id)
	if err != nil {
		return st, err
	}
	st.Transactions = txs
	return st, nil
}
