package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	commitmentsapp "energy-commitments/internal/commitments/application"
	commitments "energy-commitments/internal/commitments/domain"
	"energy-commitments/internal/commitments/infrastructure/excel"
	"energy-commitments/internal/commitments/infrastructure/marketdata"
	commitmentsinterfaces "energy-commitments/internal/commitments/interfaces"
	"energy-commitments/internal/config"
)

type options struct {
	file      string
	date      string
	out       string
	format    string
	strict    bool
	priceOnly bool
	verbose   bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	date := commitmentsapp.DayOf(time.Now())
	if opts.date != "" {
		date, err = commitmentsapp.ParseReportDate(opts.date)
		if err != nil {
			fmt.Fprintln(os.Stderr, "date must be YYYY-MM-DD")
			os.Exit(2)
		}
	}

	logOut := io.Discard
	if opts.verbose {
		logOut = os.Stderr
	}
	logger := log.New(logOut, "", log.LstdFlags)

	market, err := marketdata.NewClient(cfg.MarketData, marketdata.WithTimeout(cfg.MarketDataTimeout))
	if err != nil {
		fmt.Fprintln(os.Stderr, "market data:", err)
		os.Exit(2)
	}
	pipeline, err := commitmentsapp.NewPipeline(excel.NewCapacityLoader(excel.WithSkipRows(cfg.CapacitySkipRows)), market, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pipeline:", err)
		os.Exit(2)
	}

	ctx := context.Background()
	if opts.priceOnly {
		price, err := pipeline.SelectedPrice(ctx, date)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("%s %s %s\n", date.Format(commitments.DateLayout), commitments.PriceVariable, price.String())
		return
	}

	if err := run(ctx, pipeline, opts, date); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, commitments.ErrEmptyResult) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, pipeline *commitmentsapp.Pipeline, opts options, date time.Time) error {
	file, err := os.Open(opts.file)
	if err != nil {
		return fmt.Errorf("open capacity file: %w", err)
	}
	defer file.Close()

	rows, err := pipeline.Run(ctx, file, date)
	if err != nil {
		return err
	}
	if opts.strict {
		if err := commitments.RequireRows(rows); err != nil {
			return err
		}
	}

	body, err := commitmentsinterfaces.BuildReport(opts.format, date, rows)
	if err != nil {
		return err
	}
	if opts.out == "" || opts.out == "-" {
		_, err = os.Stdout.Write(body)
		return err
	}
	if err := os.WriteFile(opts.out, body, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	buys, sells := commitments.CountOperations(rows)
	fmt.Fprintf(os.Stderr, "wrote %s: rows=%d buys=%d sells=%d\n", opts.out, len(rows), buys, sells)
	return nil
}

func parseFlags() (options, error) {
	var opts options
	flag.StringVar(&opts.file, "file", "", "capacity workbook (.xlsx)")
	flag.StringVar(&opts.date, "date", "", "report date in YYYY-MM-DD (default today)")
	flag.StringVar(&opts.out, "out", "", "output path (default stdout)")
	flag.StringVar(&opts.format, "format", commitmentsinterfaces.FormatCSV, "output format: csv, pdf or xlsx")
	flag.BoolVar(&opts.strict, "strict", false, "fail when the run yields no plant-days")
	flag.BoolVar(&opts.priceOnly, "price", false, "only print the selected day price")
	flag.BoolVar(&opts.verbose, "v", false, "log pipeline progress to stderr")
	flag.Parse()

	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	switch opts.format {
	case commitmentsinterfaces.FormatCSV, commitmentsinterfaces.FormatPDF, commitmentsinterfaces.FormatXLSX:
	default:
		return opts, fmt.Errorf("unsupported format %q", opts.format)
	}
	if !opts.priceOnly && opts.file == "" {
		return opts, errors.New("-file is required")
	}
	if opts.file != "" && !excel.IsWorkbookName(opts.file) {
		return opts, errors.New("-file must be an Excel workbook (.xls or .xlsx)")
	}
	return opts, nil
}
