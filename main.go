package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/card-statement-converter/internal/api"
	"github.com/insightdelivered/card-statement-converter/internal/config"
	"github.com/insightdelivered/card-statement-converter/internal/extractor"
	"github.com/insightdelivered/card-statement-converter/internal/history"
	"github.com/insightdelivered/card-statement-converter/internal/logger"
	"github.com/insightdelivered/card-statement-converter/internal/metrics"
	"github.com/insightdelivered/card-statement-converter/internal/models"
	"github.com/insightdelivered/card-statement-converter/internal/processor"
	"github.com/insightdelivered/card-statement-converter/internal/writer"
)

const version = "2.0.0"

func main() {
	// CLI flags
	bankFlag := flag.String("bank", "", "Bank type (auto-detected if omitted): "+bankList())
	outputFlag := flag.String("output", "", "Output CSV file path (defaults to input filename with .csv extension)")
	headerFlag := flag.Bool("header", true, "Include statement metadata rows in CSV")
	dedupeFlag := flag.Bool("dedupe", false, "Remove duplicate transactions")
	ocrFlag := flag.Bool("ocr", false, "Fall back to OCR (pdftoppm + tesseract) for scanned PDFs")
	verboseFlag := flag.Bool("verbose", false, "Log detection and cleaning details to stderr")
	serveFlag := flag.Bool("serve", false, "Start the HTTP API using environment configuration")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Credit Card Statement PDF to CSV Converter
by Insight Delivered (QEA AutoLens)

Converts credit card statement PDFs (or their extracted text) into
structured CSV files. The issuing bank is detected from the statement
text; statements from unrecognised issuers use the generic parser.

Usage:
  card-statement-converter [flags] <input.pdf|input.txt> [input2 ...]
  card-statement-converter -serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Auto-detect bank and convert
  card-statement-converter statement.pdf

  # Specify bank explicitly
  card-statement-converter -bank=amex statement.pdf

  # Custom output path, duplicates removed
  card-statement-converter -dedupe -output=transactions.csv statement.pdf

  # Convert multiple files
  card-statement-converter jan.pdf feb.pdf mar.pdf

  # Run the HTTP API (see SERVER_PORT, HISTORY_DRIVER, LOG_LEVEL ...)
  card-statement-converter -serve

Dedicated parsers:
  chase         - Chase (MM/DD description amount)
  amex          - American Express (Mon DD description [reference] amount)
  banco_nacion  - Banco de la Nación Argentina (DD-Mon-YY ... 1.234,56)
  generic       - every other issuer
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("card-statement-converter v%s\n", version)
		os.Exit(0)
	}

	if *serveFlag {
		if err := serve(); err != nil {
			fatalf("Server error: %v\n", err)
		}
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	inputFiles := flag.Args()
	if *outputFlag != "" && len(inputFiles) > 1 {
		fatalf("-output can only be used with a single input file\n")
	}

	// Validate bank flag if provided
	var bankType models.BankType
	if *bankFlag != "" {
		b, ok := models.ParseBankType(strings.ToLower(*bankFlag))
		if !ok {
			fatalf("Unknown bank type %q. Supported: %s\n", *bankFlag, bankList())
		}
		bankType = b
	}

	level := zerolog.WarnLevel
	if *verboseFlag {
		level = zerolog.DebugLevel
	}
	cliLog := logger.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)

	proc := processor.New(
		processor.WithExtractor(extractor.NewPDFExtractor(extractor.WithOCR(*ocrFlag))),
		processor.WithLogger(cliLog),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Process each input file
	for _, inputPath := range inputFiles {
		opts := processor.Options{Bank: bankType, Dedupe: *dedupeFlag, Filename: filepath.Base(inputPath)}
		if err := processFile(ctx, proc, inputPath, opts, *outputFlag, *headerFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			stop()
			os.Exit(1)
		}
	}
}

func processFile(ctx context.Context, proc *processor.Processor, inputPath string, opts processor.Options, outputPath string, includeHeader bool) error {
	content, err := os.ReadFile(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file not found: %s", inputPath)
		}
		return fmt.Errorf("failed to read input: %w", err)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	var out processor.Outcome
	switch ext := strings.ToLower(filepath.Ext(inputPath)); ext {
	case ".pdf":
		out = proc.ProcessPDF(ctx, content, opts)
	case ".txt":
		out = proc.ProcessText(ctx, string(content), opts)
	default:
		return fmt.Errorf("expected .pdf or .txt file, got %q", ext)
	}

	if !out.Result.Success {
		if out.Code == processor.CodeNoTransactionsFound && opts.Bank == "" {
			fmt.Println("  Try specifying the bank explicitly with -bank if auto-detection was used.")
		}
		return fmt.Errorf("%s (%s)", out.Result.Message, strings.Join(out.Result.Errors, "; "))
	}

	stmt := out.Statement
	meta := stmt.Metadata
	fmt.Printf("  Using %s parser\n", meta.BankName)
	fmt.Printf("  Found %d transaction(s)\n", len(stmt.Transactions))

	// Determine output path
	outPath := outputPath
	if outPath == "" {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".csv"
	}

	w := &writer.CSVWriter{IncludeHeader: includeHeader}
	if err := w.WriteToFile(outPath, stmt); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}

	fmt.Printf("  Output: %s\n", outPath)

	// Print summary
	if meta.AccountHolder != nil {
		fmt.Printf("  Account holder: %s\n", *meta.AccountHolder)
	}
	if meta.AccountNumber != nil {
		fmt.Printf("  Account number: %s\n", *meta.AccountNumber)
	}
	if meta.StatementPeriod != "" && meta.StatementPeriod != "Unknown" {
		fmt.Printf("  Period: %s\n", meta.StatementPeriod)
	}
	if meta.DueDate != nil {
		fmt.Printf("  Due date: %s\n", *meta.DueDate)
	}
	for _, note := range stmt.Notes {
		fmt.Printf("  Note: %s\n", note)
	}

	fmt.Println("  Done.")
	return nil
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.WithFields(logger.New(cfg.Log.Level, cfg.Log.Format), map[string]interface{}{
		"service": "card-statement-converter",
		"version": version,
		"env":     cfg.Environment,
	})
	rec := metrics.New()

	opts := []processor.Option{
		processor.WithExtractor(extractor.NewPDFExtractor(
			extractor.WithPdftotext(cfg.Processing.Pdftotext),
			extractor.WithOCR(cfg.Processing.OCR),
		)),
		processor.WithLimits(processor.Limits{
			MaxFileSize:  cfg.Limits.MaxFileSize,
			MinFileSize:  cfg.Limits.MinFileSize,
			MaxTextBytes: cfg.Limits.MaxTextBytes,
		}),
		processor.WithConfidenceThreshold(cfg.Processing.ConfidenceThreshold),
		processor.WithFallbackYear(cfg.Processing.FallbackYear),
		processor.WithDedupe(cfg.Processing.Deduplicate),
		processor.WithMetrics(rec),
		processor.WithLogger(log),
	}

	var stats api.StatsSource
	if cfg.HistoryEnabled() {
		store, err := history.Open(cfg.History.Driver, cfg.History.DSN)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, processor.WithRecorder(store))
		stats = store
		log.Info().Str("driver", cfg.History.Driver).Msg("processing history enabled")
	}

	proc := processor.New(opts...)
	app := api.NewApp(api.Config{
		CORSAllowOrigins:   cfg.Server.CORSAllowOrigins,
		RateLimitPerSecond: cfg.RateLimit.PerSecond,
		RateLimitBurst:     cfg.RateLimit.Burst,
		ReadTimeout:        cfg.Server.ReadTimeout,
		WriteTimeout:       cfg.Server.WriteTimeout,
	}, api.NewHandler(proc, stats, version), log, rec)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		errCh <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	return app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout)
}

func bankList() string {
	names := make([]string, 0, len(models.AllBanks))
	for _, b := range models.AllBanks {
		names = append(names, string(b))
	}
	return strings.Join(names, ", ")
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
