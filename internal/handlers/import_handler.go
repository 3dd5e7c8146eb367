package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"bankfeed/internal/dto"
	"bankfeed/internal/errors"
	"bankfeed/internal/export"
	"bankfeed/internal/models"
	"bankfeed/internal/parsers"
	"bankfeed/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// maxUploadBytes bounds the statement file size.
const maxUploadBytes = 16 << 20

// ImportHandler handles statement import requests
type ImportHandler struct {
	ingestion services.IngestionServiceInterface
	logger    zerolog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(ingestion services.IngestionServiceInterface, logger zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		ingestion: ingestion,
		logger:    logger.With().Str("handler", "import").Logger(),
	}
}

// Import accepts a multipart statement upload, runs the full ingestion flow
// and returns the export text with run statistics
func (h *ImportHandler) Import(c echo.Context) error {
	var req dto.ImportRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Malformed form data"))
	}
	if err := c.Validate(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(err.Error()))
	}

	data, err := readUpload(c)
	if err != nil {
		return SendError(c, errors.ValidationRequiredField, errors.WithDetails("A statement file part named 'file' is required"))
	}

	sessionRules, err := parseSessionRules(c, req.Rules)
	if err != nil {
		return SendError(c, errors.CategoryInvalidRule, errors.WithDetails(err.Error()))
	}

	kind := parsers.FileKind(req.FileKind)
	if req.FileKind == "" {
		kind = parsers.KindAuto
	}

	result, err := h.ingestion.Ingest(c.Request().Context(), services.IngestRequest{
		Data:         data,
		Kind:         kind,
		Dialect:      export.Dialect(req.ExportDialect),
		UseModel:     req.UseModel,
		SessionRules: sessionRules,
	})
	if err != nil {
		return h.sendIngestError(c, err)
	}

	return c.JSON(http.StatusOK, toImportResponse(result))
}

// sendIngestError maps pipeline errors onto the error-code taxonomy.
func (h *ImportHandler) sendIngestError(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, parsers.ErrFileTooShort):
		return SendError(c, errors.ParseFileTooShort)
	case stderrors.Is(err, parsers.ErrUnknownKind):
		return SendError(c, errors.ParseUnknownKind)
	case stderrors.Is(err, parsers.ErrNoUsableColumns):
		return SendError(c, errors.ParseNoUsableColumns)
	case stderrors.Is(err, parsers.ErrNoBlocks):
		return SendError(c, errors.ParseFailed, errors.WithDetails("No transaction blocks found"))
	case stderrors.Is(err, export.ErrUnknownDialect):
		return SendError(c, errors.ExportUnknownDialect)
	case stderrors.Is(err, services.ErrInvalidRulePattern):
		return SendError(c, errors.CategoryInvalidRule)
	case stderrors.Is(err, services.ErrModelDisabled):
		return SendError(c, errors.CategoryModelDisabled)
	default:
		h.logger.Error().Err(err).Str("trace_id", getTraceID(c)).Msg("ingestion failed")
		return SendSystemError(c, err)
	}
}

func readUpload(c echo.Context) ([]byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(io.LimitReader(src, maxUploadBytes))
}

func parseSessionRules(c echo.Context, raw string) ([]models.Rule, error) {
	if raw == "" {
		return nil, nil
	}

	var inputs []dto.RuleInput
	if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
		return nil, err
	}

	rules := make([]models.Rule, 0, len(inputs))
	for _, input := range inputs {
		if err := c.Validate(&input); err != nil {
			return nil, err
		}
		rules = append(rules, input.ToModel())
	}
	return rules, nil
}

func toImportResponse(result *services.IngestResult) dto.ImportResponse {
	resp := dto.ImportResponse{
		Export:           result.Export,
		RowCount:         result.RowCount,
		SkippedCount:     result.SkippedCount,
		DuplicateCount:   result.DuplicateCount,
		NeedsReviewCount: result.NeedsReviewCount,
		StageCounts:      result.StageCounts,
	}
	if result.ColumnMapping != nil {
		resp.ColumnMapping = &dto.ColumnMappingResponse{
			Date:        result.ColumnMapping.Date,
			Description: result.ColumnMapping.Description,
			Amount:      result.ColumnMapping.Amount,
			Debit:       result.ColumnMapping.Debit,
			Credit:      result.ColumnMapping.Credit,
			Payee:       result.ColumnMapping.Payee,
		}
	}
	return resp
}
