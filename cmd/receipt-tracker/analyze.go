package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/receipt-tracker/internal/expense"
	"github.com/zombor/receipt-tracker/internal/remote"
)

type analyzeConfig struct {
	serverURL  string
	user       string
	pass       string
	reportPath string
	timeout    time.Duration
}

func newAnalyzeCommand(parent *ff.FlagSet) *ff.Command {
	var cfg analyzeConfig
	fs := ff.NewFlagSet("analyze").SetParent(parent)
	fs.StringVar(&cfg.serverURL, 0, "server", "http://localhost:8080", "Receipt tracker server URL")
	fs.StringVar(&cfg.user, 0, "user", "", "Login username")
	fs.StringVar(&cfg.pass, 0, "pass", "", "Login password")
	fs.StringVar(&cfg.reportPath, 0, "report", "", "Write the batch report as JSON to this file")
	fs.DurationVar(&cfg.timeout, 0, "timeout", 2*time.Minute, "Timeout for each analysis request")

	return &ff.Command{
		Name:      "analyze",
		Usage:     "receipt-tracker analyze [FLAGS] <FILE>...",
		ShortHelp: "analyze receipt files against a server and print the totals",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			return analyze(ctx, cfg, args, os.Stdout)
		},
	}
}

func analyze(ctx context.Context, cfg analyzeConfig, paths []string, out io.Writer) error {
	if len(paths) == 0 {
		slog.Warn(expense.StatusNoFiles)
		return ff.ErrHelp
	}

	files := make([]expense.FileDescriptor, 0, len(paths))
	for _, path := range paths {
		file, err := expense.LoadFile(path)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		files = append(files, file)
	}

	client := remote.NewClient(cfg.serverURL, cfg.timeout)
	if err := client.Login(ctx, cfg.user, cfg.pass); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	session := expense.NewSession(client, client, nil)
	report, runErr := session.Run(ctx, files)
	if report == nil {
		return runErr
	}

	printReport(out, report)
	if cfg.reportPath != "" {
		if err := writeReport(cfg.reportPath, report); err != nil {
			return err
		}
		slog.Info("Report written", "path", cfg.reportPath)
	}
	return runErr
}

func writeReport(path string, report *expense.BatchReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func printReport(out io.Writer, report *expense.BatchReport) {
	for _, outcome := range report.Outcomes {
		switch o := outcome.(type) {
		case expense.Success:
			fmt.Fprintf(out, "ok    %s  %s  %s  (%.2f %s)\n",
				o.File, vendor(o.Data), amount(o.Data), o.Data.CommonAmount(), expense.CommonCurrency)
		case expense.Failure:
			fmt.Fprintf(out, "fail  %s  %s\n", o.File, o.Reason)
		}
	}

	charts := report.Charts
	if charts.Monthly.Empty() {
		fmt.Fprintln(out, "\nNo dated receipts with a total.")
	} else {
		fmt.Fprintf(out, "\nMonthly (%s):\n", expense.CommonCurrency)
		for _, p := range charts.Monthly.Points {
			fmt.Fprintf(out, "  %s  %10.2f\n", p.Month, p.Amount)
		}
		fmt.Fprintf(out, "  total    %10.2f\n", charts.Monthly.Total)

		fmt.Fprintf(out, "\nCategories (%s):\n", expense.CommonCurrency)
		for _, s := range charts.Categories.Slices {
			fmt.Fprintf(out, "  %-14s %10.2f  %5.1f%%\n", s.Category, s.Amount, s.Percentage)
		}
	}
	fmt.Fprintf(out, "\n%s\n", report.Status)
}

func vendor(data expense.ReceiptData) string {
	if data.VendorName == "" {
		return "Unknown vendor"
	}
	return data.VendorName
}

func amount(data expense.ReceiptData) string {
	if data.Total == nil {
		return "no total"
	}
	currency := data.Currency
	if currency == "" {
		currency = expense.CommonCurrency
	}
	return fmt.Sprintf("%.2f %s", *data.Total, currency)
}
