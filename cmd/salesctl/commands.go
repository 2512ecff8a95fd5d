package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"salesjournal/internal/amqp"
	"salesjournal/internal/core"
	"salesjournal/internal/journal"
	"salesjournal/internal/report"
)

func newListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.journal(cmd.Context())
			if err != nil {
				return err
			}
			txs, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(txs)
			}
			return printTransactions(cmd.OutOrStdout(), txs)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the stored payload as JSON, in insertion order")
	return cmd
}

func printTransactions(out io.Writer, txs []core.Transaction) error {
	if len(txs) == 0 {
		_, err := fmt.Fprintln(out, "No transactions recorded yet")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tPRODUCT\tCATEGORY\tQTY\tUNIT\tTOTAL")
	for _, t := range report.SortForJournal(txs) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			t.ID, t.Date, t.ProductName, t.Category, t.Quantity,
			core.FormatCurrency(t.UnitPrice), core.FormatCurrency(t.Total))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d transactions, %s total\n", len(txs), core.FormatCurrency(report.TotalSales(txs)))
	return err
}

func newRecordCmd(a *app) *cobra.Command {
	var in journal.SaleInput
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a sale against the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.journal(cmd.Context())
			if err != nil {
				return err
			}
			t, err := svc.RecordSale(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recorded sale %d: %d x %s = %s on %s\n",
				t.ID, t.Quantity, t.ProductName, core.FormatCurrency(t.Total), t.Date)
			return err
		},
	}
	cmd.Flags().StringVarP(&in.ProductName, "product", "p", "", "Product name as listed in the catalog")
	cmd.Flags().IntVarP(&in.Quantity, "qty", "q", 1, "Quantity sold")
	cmd.Flags().StringVarP(&in.Date, "date", "d", "", "Sale date YYYY-MM-DD (default today)")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}
			svc, err := a.journal(cmd.Context())
			if err != nil {
				return err
			}
			st, err := svc.Load(cmd.Context())
			if err != nil {
				return err
			}

			confirmed := false
			confirmer := journal.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
				if yes {
					confirmed = true
					return true, nil
				}
				ok, err := promptYesNo(cmd.InOrStdin(), cmd.OutOrStdout(), prompt)
				confirmed = ok
				return ok, err
			})

			next, err := svc.ConfirmDelete(cmd.Context(), st, id, confirmer)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case !confirmed:
				fmt.Fprintln(out, "Cancelled")
			case len(next.Transactions) == len(st.Transactions):
				fmt.Fprintf(out, "No transaction with id %d\n", id)
			default:
				fmt.Fprintf(out, "Deleted transaction %d\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")
	return cmd
}

// promptYesNo writes prompt and reads one answer. Only y or yes confirms.
func promptYesNo(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func newSummaryCmd(a *app) *cobra.Command {
	var (
		period string
		top    string
		n      int
		days   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.journal(cmd.Context())
			if err != nil {
				return err
			}
			txs, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			opts := report.DefaultOptions()
			opts.Period = core.ParsePeriod(period)
			opts.TopSort = core.ParseSortKey(top)
			opts.TopN = n
			opts.WindowDays = days
			d := report.Build(txs, nowFunc(), opts)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			return printDashboard(cmd.OutOrStdout(), d)
		},
	}
	cmd.Flags().StringVar(&period, "period", string(core.Daily), "Summary period: daily, weekly or monthly")
	cmd.Flags().StringVar(&top, "top", string(core.SortByTotal), "Rank top sellers by total or quantity")
	cmd.Flags().IntVarP(&n, "n", "n", report.DefaultTopN, "Number of top sellers")
	cmd.Flags().IntVar(&days, "days", report.DefaultWindowDays, "Days in the daily series")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full dashboard as JSON")
	return cmd
}

func printDashboard(out io.Writer, d report.Dashboard) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total sales (all time)\t%s\n", core.FormatCurrency(d.TotalSales))
	fmt.Fprintf(tw, "Transactions\t%d\n", d.TransactionCount)
	fmt.Fprintf(tw, "Products sold\t%d\n", d.ProductsSold)
	fmt.Fprintf(tw, "Revenue (%s)\t%s\n", d.Summary.Label, core.FormatCurrency(d.Summary.TotalSales))
	fmt.Fprintf(tw, "Transactions (%s)\t%d\n", d.Summary.Label, d.Summary.TransactionCount)
	fmt.Fprintf(tw, "Items sold (%s)\t%d\n", d.Summary.Label, d.Summary.TotalItemsSold)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTop %d by %s\n", len(d.Top), d.TopSort)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, p := range d.Top {
		fmt.Fprintf(tw, "#%d\t%s\t%d\t%s\n", i+1, p.Name, p.Quantity, core.FormatCurrency(p.Total))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nBy category")
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, c := range d.Categories {
		fmt.Fprintf(tw, "%s\t%s\n", c.Category, core.FormatCurrency(c.Total))
	}
	return tw.Flush()
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear the journal without --yes")
			}
			if _, err := a.journal(cmd.Context()); err != nil {
				return err
			}
			if err := a.data.Store.Clear(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Journal cleared")
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm that every transaction should be removed")
	return cmd
}

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the products sales can be recorded against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PRODUCT\tCATEGORY\tPRICE")
			for _, p := range cat.Products() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Category, core.FormatCurrency(p.UnitPrice))
			}
			return tw.Flush()
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	var queue string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print sale events as they are published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.AMQPURL == "" {
				return errors.New("AMQP_URL is not set")
			}
			client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPRoutingKey)
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			err = client.ConsumeSaleEvents(cmd.Context(), queue, func(e *amqp.SaleEvent) error {
				_, err := fmt.Fprintln(out, formatEvent(e))
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&queue, "queue", "", "Durable queue to consume from (default a temporary queue)")
	return cmd
}

func formatEvent(e *amqp.SaleEvent) string {
	ts := e.Timestamp.Format("15:04:05")
	if e.Type == amqp.EventSaleRecorded && e.Transaction != nil {
		t := e.Transaction
		return fmt.Sprintf("%s %s %d: %d x %s = %s on %s", ts, e.Type, e.ID, t.Quantity, t.ProductName, core.FormatCurrency(t.Total), t.Date)
	}
	return fmt.Sprintf("%s %s %d", ts, e.Type, e.ID)
}
