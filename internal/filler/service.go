package filler

import (
	"context"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-pdf-form-filler/internal/pdf"
)

// ErrInvalidUTF8 is returned for text donors that are not valid UTF-8.
var ErrInvalidUTF8 = eris.New("document is not valid UTF-8")

// TextExtractor returns the plain text of a PDF.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

// FormWriter writes field values into a copy of a template.
type FormWriter interface {
	Fill(templatePath string, fieldData any, outputPath string) (string, error)
}

// Service runs the form filling pipeline.
type Service struct {
	texts   TextExtractor
	writer  FormWriter
	schemas *SchemaExtractor
	mapper  *FieldMapper
	logger  *zap.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger *zap.Logger
	limit  int
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPromptCharLimit sets how much document text each prompt embeds.
func WithPromptCharLimit(limit int) Option {
	return func(o *serviceOptions) {
		if limit > 0 {
			o.limit = limit
		}
	}
}

// NewService wires a pipeline.
func NewService(texts TextExtractor, inferer Inferer, writer FormWriter, opts ...Option) *Service {
	o := serviceOptions{logger: zap.L(), limit: DefaultPromptCharLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		texts:   texts,
		writer:  writer,
		schemas: NewSchemaExtractor(inferer, o.limit),
		mapper:  NewFieldMapper(inferer, o.limit),
		logger:  o.logger,
	}
}

// ProcessDocument fills templatePath from donorDocuments into outputPath.
// Failures are reported in the result, never returned or raised.
func (s *Service) ProcessDocument(ctx context.Context, templatePath string, donorDocuments []string, outputPath string) (result ProcessingResult) {
	logger := s.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("template", templatePath),
	)

	defer func() {
		if rec := recover(); rec != nil {
			err := eris.Errorf("panic: %v", rec)
			logger.Error("failed to process document", zap.Error(err))
			result = Failure(err)
		}
	}()

	result, err := s.process(ctx, logger, templatePath, donorDocuments, outputPath)
	if err != nil {
		logger.Error("failed to process document", zap.Error(err))
		return Failure(err)
	}
	logger.Info("form processed",
		zap.String("output", outputPath),
		zap.Int("field_count", *result.FieldCount),
		zap.Int("mapped_fields", *result.MappedFields),
	)
	return result
}

func (s *Service) process(ctx context.Context, logger *zap.Logger, templatePath string, donors []string, outputPath string) (ProcessingResult, error) {
	formText, err := s.texts.ExtractText(templatePath)
	if err != nil {
		return ProcessingResult{}, eris.Wrap(err, "extract template text")
	}

	raw, err := s.schemas.ExtractFormFields(ctx, formText)
	if err != nil {
		return ProcessingResult{}, err
	}
	schema, err := ParseSchema(raw)
	if err != nil {
		return ProcessingResult{}, err
	}
	if schema.ShapeErr != nil {
		logger.Warn("form schema has unexpected shape", zap.Error(schema.ShapeErr))
	}
	logger.Debug("inferred form schema", zap.Int("fields", schema.FieldCount()))

	donorText := s.GatherDonorText(logger, donors)

	raw, err = s.mapper.MapDataToFields(ctx, schema, donorText)
	if err != nil {
		return ProcessingResult{}, err
	}
	mappings, err := ParseMappings(raw)
	if err != nil {
		return ProcessingResult{}, err
	}
	if mappings.ShapeErr != nil {
		logger.Warn("field mappings have unexpected shape", zap.Error(mappings.ShapeErr))
	}

	if _, err := s.writer.Fill(templatePath, mappings.Data, outputPath); err != nil {
		return ProcessingResult{}, eris.Wrap(err, "fill form")
	}

	return Success(outputPath, schema.FieldCount(), mappings.Count()), nil
}

// GatherDonorText concatenates the text of each readable donor, each
// followed by a newline. Unreadable donors are logged and skipped.
func (s *Service) GatherDonorText(logger *zap.Logger, donors []string) string {
	if logger == nil {
		logger = s.logger
	}

	var builder strings.Builder
	for _, path := range donors {
		text, err := s.readDonor(path)
		if err != nil {
			logger.Warn("skipping donor document", zap.String("path", path), zap.Error(err))
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String()
}

func (s *Service) readDonor(path string) (string, error) {
	if pdf.IsPDFPath(path) {
		return s.texts.ExtractText(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "read %s", path)
	}
	if !utf8.Valid(data) {
		return "", eris.Wrapf(ErrInvalidUTF8, "read %s", path)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}

// FillPDF writes fieldData into a copy of templatePath. fieldData may be a
// []FieldMapping, a list of mapping objects or a flat name to value map.
func (s *Service) FillPDF(templatePath string, fieldData any, outputPath string) (string, error) {
	if mappings, ok := fieldData.([]FieldMapping); ok {
		fieldData = Entries(mappings)
	}
	return s.writer.Fill(templatePath, fieldData, outputPath)
}
