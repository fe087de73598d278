package api

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/card-statement-converter/internal/history"
	"github.com/insightdelivered/card-statement-converter/internal/logger"
	"github.com/insightdelivered/card-statement-converter/internal/models"
	"github.com/insightdelivered/card-statement-converter/internal/parser"
	"github.com/insightdelivered/card-statement-converter/internal/processor"
)

// StatsSource serves the processing history summary.
type StatsSource interface {
	Summary(ctx context.Context) (history.Summary, error)
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	processor *processor.Processor
	stats     StatsSource
	validate  *validator.Validate
	version   string
}

// NewHandler builds a Handler. stats may be nil when history is disabled.
func NewHandler(p *processor.Processor, stats StatsSource, version string) *Handler {
	return &Handler{
		processor: p,
		stats:     stats,
		validate:  validator.New(),
		version:   version,
	}
}

// convertForm is the non-file part of an upload.
type convertForm struct {
	Filename string `validate:"required,max=255"`
	Bank     string `validate:"omitempty,max=32"`
	Dedupe   string `validate:"omitempty,boolean"`
}

// BankInfo describes one bank tag for /api/banks.
type BankInfo struct {
	ID              models.BankType `json:"id"`
	Parser          models.BankType `json:"parser"`
	DedicatedParser bool            `json:"dedicatedParser"`
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": h.version,
	})
}

func (h *Handler) HandleBanks(c *fiber.Ctx) error {
	banks := make([]BankInfo, 0, len(models.AllBanks))
	for _, b := range models.AllBanks {
		banks = append(banks, BankInfo{
			ID:              b,
			Parser:          parser.New(b).Bank(),
			DedicatedParser: parser.HasDedicatedParser(b),
		})
	}
	return c.JSON(fiber.Map{
		"banks":     banks,
		"supported": parser.SupportedBanks(),
	})
}

func (h *Handler) HandleStats(c *fiber.Ctx) error {
	if h.stats == nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResult("Processing history is disabled"))
	}

	summary, err := h.stats.Summary(c.UserContext())
	if err != nil {
		log := logger.FromContext(c.UserContext())
		log.Error().Err(err).Msg("failed to load processing history")
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResult(processor.MessageUnexpected, "Internal error"))
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Processing statistics",
		"data":    summary,
		"errors":  []string{},
	})
}

func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResult("No file uploaded. Use form field 'file'."))
	}

	form := convertForm{
		Filename: header.Filename,
		Bank:     strings.TrimSpace(c.FormValue("bank")),
		Dedupe:   strings.TrimSpace(c.FormValue("dedupe")),
	}
	if err := h.validate.Struct(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResult("Invalid request", validationDetails(err)...))
	}
	if !strings.HasSuffix(strings.ToLower(form.Filename), ".pdf") {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResult(
			processor.Message(processor.CodeInvalidFileType), "Only PDF files are supported"))
	}

	file, err := header.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResult("Failed to read uploaded file"))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResult("Failed to read uploaded file"))
	}

	opts := processor.Options{
		Bank:     models.BankType(form.Bank),
		Filename: form.Filename,
	}
	if form.Dedupe != "" {
		opts.Dedupe, _ = strconv.ParseBool(form.Dedupe)
	}

	out := h.processor.ProcessPDF(c.UserContext(), content, opts)
	c.Set("X-Processing-Run-ID", out.RunID.String())
	return c.Status(statusFor(out.Code)).JSON(out.Result)
}

// statusFor maps a processing code to the HTTP status of the response.
func statusFor(code processor.Code) int {
	switch code {
	case "":
		return fiber.StatusOK
	case processor.CodeInvalidFileType, processor.CodeFileTooLarge, processor.CodeFileTooSmall, processor.CodeUnsupportedBank:
		return fiber.StatusBadRequest
	case processor.CodeCorruptedPDF, processor.CodeNoTextExtracted, processor.CodeNoTransactionsFound, processor.CodeTextTooLarge:
		return fiber.StatusUnprocessableEntity
	case processor.CodeProcessingTimeout:
		return fiber.StatusRequestTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

func validationDetails(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, strings.ToLower(fe.Field())+": failed "+fe.Tag())
	}
	return details
}
