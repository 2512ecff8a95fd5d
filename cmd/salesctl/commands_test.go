package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"salesjournal/internal/amqp"
	"salesjournal/internal/core"
)

// run executes salesctl against a file backend in dir.
func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AMQP_URL", "")
	t.Setenv("CATALOG_PATH", "")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{
		"--backend", "file",
		"--data-file", filepath.Join(dir, "sales.json"),
		"--log-level", "error",
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func listJSON(t *testing.T, dir string) []core.Transaction {
	t.Helper()
	out, err := run(t, dir, "", "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var txs []core.Transaction
	if err := json.Unmarshal([]byte(out), &txs); err != nil {
		t.Fatalf("decode list output %q: %v", out, err)
	}
	return txs
}

func TestRecordListDelete(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "", "record", "--product", "Coffee", "--qty", "3", "--date", "2024-03-05")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !strings.Contains(out, "3 x Coffee = $10.50 on 2024-03-05") {
		t.Errorf("record output = %q", out)
	}

	txs := listJSON(t, dir)
	if len(txs) != 1 || txs[0].Category != "Beverage" {
		t.Fatalf("stored = %+v", txs)
	}
	id := strconv.FormatInt(txs[0].ID, 10)

	out, err = run(t, dir, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "1 transactions, $10.50 total") {
		t.Errorf("list output = %q", out)
	}

	// Declining the prompt keeps the record.
	out, err = run(t, dir, "n\n", "delete", id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "Cancelled") || len(listJSON(t, dir)) != 1 {
		t.Fatalf("declined delete output = %q", out)
	}

	out, err = run(t, dir, "y\n", "delete", id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "Deleted transaction "+id) || len(listJSON(t, dir)) != 0 {
		t.Fatalf("confirmed delete output = %q", out)
	}

	out, err = run(t, dir, "", "delete", "--yes", id)
	if err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
	if !strings.Contains(out, "No transaction with id") {
		t.Errorf("unknown id output = %q", out)
	}
}

func TestRecordValidation(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"unknown product", []string{"record", "--product", "Caviar"}},
		{"missing product", []string{"record"}},
		{"zero quantity", []string{"record", "--product", "Coffee", "--qty", "0"}},
		{"bad date", []string{"record", "--product", "Coffee", "--date", "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, dir, "", tt.args...)
			if !core.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if txs := listJSON(t, dir); len(txs) != 0 {
		t.Errorf("rejected sales were stored: %+v", txs)
	}
}

func TestSummary(t *testing.T) {
	dir := t.TempDir()
	nowFunc = func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.Local) }
	t.Cleanup(func() { nowFunc = time.Now })

	for _, args := range [][]string{
		{"record", "--product", "Coffee", "--qty", "2", "--date", "2024-03-05"},
		{"record", "--product", "Coffee", "--qty", "1", "--date", "2024-02-01"},
	} {
		if _, err := run(t, dir, "", args...); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	out, err := run(t, dir, "", "summary", "--period", "daily")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{"$10.50", "Revenue (Today)", "$7.00", "By category", "Beverage"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, dir, "", "summary", "--json", "--days", "7")
	if err != nil {
		t.Fatalf("summary --json: %v", err)
	}
	var d struct {
		TransactionCount int `json:"transactionCount"`
		Daily            []struct {
			Day string `json:"day"`
		} `json:"daily"`
	}
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.TransactionCount != 2 || len(d.Daily) != 7 || d.Daily[6].Day != "2024-03-05" {
		t.Errorf("dashboard = %+v", d)
	}
}

func TestClearRequiresYes(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "", "record", "--product", "Coffee", "--date", "2024-03-05"); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, dir, "", "clear"); err == nil {
		t.Fatal("clear without --yes should fail")
	}
	if len(listJSON(t, dir)) != 1 {
		t.Fatal("journal changed without --yes")
	}

	if _, err := run(t, dir, "", "clear", "--yes"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(listJSON(t, dir)) != 0 {
		t.Fatal("journal not cleared")
	}
}

func TestCatalogCommand(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "catalog")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if !strings.Contains(out, "Coffee") || !strings.Contains(out, "$3.50") {
		t.Errorf("catalog output = %q", out)
	}
}

func TestWatchRequiresBroker(t *testing.T) {
	if _, err := run(t, t.TempDir(), "", "watch"); err == nil || !strings.Contains(err.Error(), "AMQP_URL") {
		t.Fatalf("expected AMQP_URL error, got %v", err)
	}
}

func TestFormatEvent(t *testing.T) {
	ts := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	recorded := amqp.NewSaleRecordedEvent(core.Transaction{ID: 7, ProductName: "Tea", Quantity: 2, Total: 5.5, Date: "2024-03-05"})
	recorded.Timestamp = ts
	if got := formatEvent(recorded); got != "09:30:00 sale.recorded 7: 2 x Tea = $5.50 on 2024-03-05" {
		t.Errorf("recorded = %q", got)
	}

	deleted := amqp.NewSaleDeletedEvent(7)
	deleted.Timestamp = ts
	if got := formatEvent(deleted); got != "09:30:00 sale.deleted 7" {
		t.Errorf("deleted = %q", got)
	}
}
