// Package processor runs the statement pipeline (detect, parse, clean) and
// turns every outcome into the response envelope. It is the only layer that
// logs or records metrics; the packages it drives are pure.
package processor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/card-statement-converter/internal/cleaner"
	"github.com/insightdelivered/card-statement-converter/internal/extractor"
	"github.com/insightdelivered/card-statement-converter/internal/logger"
	"github.com/insightdelivered/card-statement-converter/internal/models"
	"github.com/insightdelivered/card-statement-converter/internal/parser"
)

// Extractor turns PDF bytes into page text.
type Extractor interface {
	Extract(ctx context.Context, content []byte) (extractor.Result, error)
}

// Metrics receives pipeline observations.
type Metrics interface {
	ObserveDetection(bank models.BankType, score float64, lowConfidence bool)
	ObserveCleaning(dropped, rounded, duplicates int)
	ObserveRun(bank models.BankType, code string, transactions int, elapsed time.Duration)
}

// Run is the audit record of one processed document.
type Run struct {
	ID           uuid.UUID
	Filename     string
	Bank         models.BankType
	Success      bool
	Code         Code
	Message      string
	Transactions int
	Pages        int
	Duration     time.Duration
}

// Recorder persists Runs.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// Options are the per-request settings.
type Options struct {
	// Bank skips detection when set. It must be one of models.AllBanks.
	Bank     models.BankType
	Dedupe   bool
	Filename string
}

// Outcome is the result of a full run: the envelope for clients plus the
// statement and code for local callers.
type Outcome struct {
	Result    *models.ProcessingResult
	Statement *models.ProcessedStatement
	Code      Code
	RunID     uuid.UUID
}

// Processor is safe for concurrent use.
type Processor struct {
	extractor    Extractor
	detector     *parser.Detector
	cleaner      *cleaner.Cleaner
	limits       Limits
	fallbackYear int
	dedupe       bool
	metrics      Metrics
	recorder     Recorder
	log          zerolog.Logger
	now          func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

func WithExtractor(e Extractor) Option { return func(p *Processor) { p.extractor = e } }

func WithLimits(l Limits) Option { return func(p *Processor) { p.limits = l } }

func WithMetrics(m Metrics) Option { return func(p *Processor) { p.metrics = m } }

func WithRecorder(r Recorder) Option { return func(p *Processor) { p.recorder = r } }

func WithLogger(l zerolog.Logger) Option { return func(p *Processor) { p.log = l } }

func WithCleaner(c *cleaner.Cleaner) Option { return func(p *Processor) { p.cleaner = c } }

// WithConfidenceThreshold sets the detection threshold; values <= 0 keep
// the default.
func WithConfidenceThreshold(threshold float64) Option {
	return func(p *Processor) { p.detector = parser.NewDetector(threshold) }
}

// WithFallbackYear sets the year used when a statement shows none.
func WithFallbackYear(year int) Option {
	return func(p *Processor) { p.fallbackYear = year }
}

// WithDedupe makes deduplication the default for every run.
func WithDedupe(enabled bool) Option {
	return func(p *Processor) { p.dedupe = enabled }
}

// WithClock overrides the clock used for run durations.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// New returns a Processor. Without WithExtractor only ProcessText works.
func New(opts ...Option) *Processor {
	p := &Processor{
		detector:     parser.NewDetector(parser.DefaultConfidenceThreshold),
		cleaner:      cleaner.New(),
		limits:       DefaultLimits(),
		fallbackYear: parser.DefaultFallbackYear,
		log:          zerolog.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Limits returns the configured input limits.
func (p *Processor) Limits() Limits {
	return p.limits
}

// ProcessPDF validates, extracts and processes an uploaded document. It
// never panics and always returns an envelope.
func (p *Processor) ProcessPDF(ctx context.Context, content []byte, opts Options) (out Outcome) {
	start := p.now()
	run := Run{ID: uuid.New(), Filename: opts.Filename, Bank: opts.Bank}
	ctx = p.runContext(ctx, run)
	defer p.recoverInto(ctx, &out, &run, start)

	if err := ValidateUpload(content, p.limits); err != nil {
		return p.finish(ctx, &run, start, nil, err)
	}
	if p.extractor == nil {
		return p.finish(ctx, &run, start, nil, internalError(errors.New("no extractor configured")))
	}

	res, err := p.extractor.Extract(ctx, content)
	run.Pages = res.Pages
	if err != nil {
		return p.finish(ctx, &run, start, nil, classifyExtraction(err))
	}
	if strings.TrimSpace(res.Text) == "" {
		return p.finish(ctx, &run, start, nil, classifyExtraction(extractor.ErrNoText))
	}

	stmt, err := p.process(ctx, &run, res.Text, opts)
	return p.finish(ctx, &run, start, stmt, err)
}

// ProcessText runs the pipeline on already extracted text.
func (p *Processor) ProcessText(ctx context.Context, text string, opts Options) (out Outcome) {
	start := p.now()
	run := Run{ID: uuid.New(), Filename: opts.Filename, Bank: opts.Bank}
	ctx = p.runContext(ctx, run)
	defer p.recoverInto(ctx, &out, &run, start)

	stmt, err := p.process(ctx, &run, text, opts)
	return p.finish(ctx, &run, start, stmt, err)
}

// Process runs detection, parsing and cleaning over text. Errors are always
// *Error values.
func (p *Processor) Process(ctx context.Context, text string, opts Options) (*models.ProcessedStatement, error) {
	run := Run{Bank: opts.Bank}
	return p.process(ctx, &run, text, opts)
}

func (p *Processor) process(ctx context.Context, run *Run, text string, opts Options) (*models.ProcessedStatement, error) {
	log := p.logger(ctx)

	if err := ctx.Err(); err != nil {
		return nil, wrapError(CodeProcessingTimeout, err)
	}
	if p.limits.MaxTextBytes > 0 && len(text) > p.limits.MaxTextBytes {
		return nil, NewError(CodeTextTooLarge,
			fmt.Sprintf("Extracted text is %d bytes; the limit is %d", len(text), p.limits.MaxTextBytes))
	}

	bank, err := p.resolveBank(log, text, opts.Bank)
	if err != nil {
		return nil, err
	}
	run.Bank = bank

	prs := parser.New(bank, parser.WithFallbackYear(p.fallbackYear))
	stmt := prs.ParseStatement(text, opts.Filename)
	logTrace(log, bank, stmt.Trace)

	cleaned, report := p.cleaner.CleanStatement(stmt)
	duplicates := 0
	if opts.Dedupe || p.dedupe {
		before := len(cleaned.Transactions)
		cleaned.Transactions = cleaner.Deduplicate(cleaned.Transactions)
		duplicates = before - len(cleaned.Transactions)
		if duplicates > 0 {
			cleaned.AddNote(fmt.Sprintf("Removed %d duplicate transactions", duplicates))
		}
	}
	p.logCleaning(log, report, duplicates)

	stats := p.cleaner.Validate(cleaned.Transactions)
	for _, w := range stats.Warnings {
		log.Warn().Str("bank", string(bank)).Msg(w)
	}

	cleaned.Metadata.TotalTransactions = len(cleaned.Transactions)
	cleaned.RawText = text

	if len(cleaned.Transactions) == 0 {
		return cleaned, NewError(CodeNoTransactionsFound, "Statement may be in an unsupported format or corrupted")
	}
	return cleaned, nil
}

func (p *Processor) resolveBank(log zerolog.Logger, text string, requested models.BankType) (models.BankType, error) {
	if requested != "" {
		bank, ok := models.ParseBankType(strings.ToLower(string(requested)))
		if !ok {
			e := NewError(CodeUnsupportedBank, "Unsupported bank format detected")
			e.Message = fmt.Sprintf("No parser available for bank type: %s", requested)
			return "", e
		}
		log.Debug().Str("bank", string(bank)).Msg("bank supplied by caller")
		return bank, nil
	}

	d := p.detector.Score(text)
	if d.Empty {
		log.Warn().Msg("empty text supplied for bank detection")
	}
	evt := log.Info().
		Str("bank", string(d.Bank)).
		Str("best", string(d.Best)).
		Float64("score", d.BestScore).
		Float64("threshold", d.Threshold)
	if d.LowConfidence {
		evt = evt.Bool("low_confidence", true)
	}
	evt.Msg("bank detected")
	for _, s := range d.Scores {
		if s.Score > 0 {
			log.Debug().
				Str("bank", string(s.Bank)).
				Float64("score", s.Score).
				Int("patterns", s.PatternsMatched).
				Int("matches", s.TotalMatches).
				Int("secondary", s.SecondaryMatched).
				Msg("detection score")
		}
	}
	if p.metrics != nil {
		p.metrics.ObserveDetection(d.Bank, d.BestScore, d.LowConfidence)
	}
	return d.Bank, nil
}

func logTrace(log zerolog.Logger, bank models.BankType, trace []models.LineTrace) {
	counts := make(map[string]int)
	for _, lt := range trace {
		counts[lt.Result]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	evt := log.Debug().Str("bank", string(bank)).Int("lines", len(trace))
	for _, k := range keys {
		evt = evt.Int(k, counts[k])
	}
	evt.Msg("statement parsed")
}

func (p *Processor) logCleaning(log zerolog.Logger, report cleaner.Report, duplicates int) {
	for _, d := range report.Dropped {
		log.Debug().
			Str("description", d.Transaction.Description).
			Str("reason", string(d.Reason)).
			Msg("transaction dropped during cleaning")
	}
	for _, r := range report.Rounded {
		log.Warn().
			Str("description", r.Description).
			Str("from", r.From.String()).
			Str("to", r.To.StringFixed(2)).
			Msg("amount rounded to cents")
	}
	log.Info().
		Int("input", report.Input).
		Int("output", report.Output).
		Int("dropped", len(report.Dropped)).
		Int("duplicates", duplicates).
		Msg("data cleaning applied")
	if p.metrics != nil {
		p.metrics.ObserveCleaning(len(report.Dropped), len(report.Rounded), duplicates)
	}
}

// classifyExtraction maps extractor failures onto error codes.
func classifyExtraction(err error) *Error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return wrapError(CodeProcessingTimeout, err)
	case errors.Is(err, extractor.ErrNoText):
		return wrapError(CodeNoTextExtracted, err, "PDF appears to be empty or contains only images")
	default:
		return wrapError(CodeCorruptedPDF, err, "No text could be extracted from the PDF")
	}
}

func (p *Processor) finish(ctx context.Context, run *Run, start time.Time, stmt *models.ProcessedStatement, err error) Outcome {
	log := p.logger(ctx)
	run.Duration = p.now().Sub(start)

	var pe *Error
	if err != nil && !errors.As(err, &pe) {
		pe = internalError(err)
		err = pe
	}

	out := Outcome{Result: Envelope(stmt, err), Code: CodeOf(err), RunID: run.ID}
	if err == nil {
		out.Statement = stmt
		run.Transactions = len(stmt.Transactions)
		log.Info().
			Str("bank", string(run.Bank)).
			Int("transactions", run.Transactions).
			Dur("elapsed", run.Duration).
			Msg("statement processed")
	} else {
		evt := log.Warn()
		if pe.Code == CodeInternal {
			evt = log.Error()
		}
		evt.Err(pe.Err).
			Str("code", string(pe.Code)).
			Str("bank", string(run.Bank)).
			Strs("details", pe.Details).
			Msg(pe.Message)
	}

	run.Success = out.Result.Success
	run.Code = out.Code
	run.Message = out.Result.Message

	p.observeRun(ctx, log, *run)
	return out
}

// observeRun hands the finished run to the metrics and recorder sinks. A
// failing sink is logged and never changes the outcome or skips the other.
func (p *Processor) observeRun(ctx context.Context, log zerolog.Logger, run Run) {
	if p.metrics != nil {
		guardSink(log, "metrics", func() {
			p.metrics.ObserveRun(run.Bank, string(run.Code), run.Transactions, run.Duration)
		})
	}
	if p.recorder != nil && run.ID != uuid.Nil {
		guardSink(log, "recorder", func() {
			// Recording must outlive a cancelled request.
			if err := p.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
				log.Error().Err(err).Msg("failed to record processing run")
			}
		})
	}
}

func guardSink(log zerolog.Logger, sink string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("sink", sink).Str("panic", fmt.Sprint(r)).Msg("failed to observe processing run")
		}
	}()
	fn()
}

// runContext carries a logger tagged with the run id and filename.
func (p *Processor) runContext(ctx context.Context, run Run) context.Context {
	fields := map[string]interface{}{"run_id": run.ID.String()}
	if run.Filename != "" {
		fields["filename"] = run.Filename
	}
	return logger.WithContext(ctx, logger.WithFields(p.logger(ctx), fields))
}

func (p *Processor) logger(ctx context.Context) zerolog.Logger {
	if l, ok := logger.Lookup(ctx); ok {
		return l
	}
	return p.log
}
