package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-pdf-form-filler/internal/config"
	"github.com/a3tai/mcp-pdf-form-filler/internal/descriptions"
	"github.com/a3tai/mcp-pdf-form-filler/internal/filler"
	"github.com/a3tai/mcp-pdf-form-filler/internal/pdf"
	"github.com/a3tai/mcp-pdf-form-filler/internal/pdf/form"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	filler    *filler.Service
	reader    *pdf.Reader
	logger    *zap.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, svc *filler.Service, reader *pdf.Reader, logger *zap.Logger) (*Server, error) {
	if svc == nil {
		return nil, eris.New("filler service cannot be nil")
	}
	if reader == nil {
		return nil, eris.New("pdf reader cannot be nil")
	}
	if logger == nil {
		logger = zap.L()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		filler:    svc,
		reader:    reader,
		logger:    logger,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	fillTool := mcp.NewTool(
		"form_fill_document",
		mcp.WithDescription(descriptions.FormFillDocumentDescription),
		mcp.WithString("template_path",
			mcp.Required(),
			mcp.Description("Full path to the blank PDF form"),
		),
		mcp.WithArray("donor_documents",
			mcp.Description("Paths of donor documents; a comma-separated string is also accepted"),
		),
		mcp.WithString("output_path",
			mcp.Required(),
			mcp.Description("Where to write the filled PDF"),
		),
	)
	s.mcpServer.AddTool(fillTool, s.handleFillDocument)

	fieldsTool := mcp.NewTool(
		"pdf_form_fields",
		mcp.WithDescription(descriptions.PDFFormFieldsDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(fieldsTool, s.handleFormFields)

	textTool := mcp.NewTool(
		"pdf_extract_text",
		mcp.WithDescription(descriptions.PDFExtractTextDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(textTool, s.handleExtractText)
}

func (s *Server) handleFillDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templatePath, err := request.RequireString("template_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outputPath, err := request.RequireString("output_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	donors, err := donorDocuments(request.GetArguments()["donor_documents"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := s.filler.ProcessDocument(ctx, templatePath, donors, outputPath)
	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if result.Status != filler.StatusSuccess {
		return mcp.NewToolResultError(string(body)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) handleFormFields(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fields, err := form.ListFields(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatFields(path, fields)), nil
}

func (s *Server) handleExtractText(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pages, err := s.reader.ExtractPages(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Successfully read PDF: %s\n", path)
	fmt.Fprintf(&b, "Pages: %d\n\nContent:\n", len(pages))
	for _, page := range pages {
		b.WriteString(page)
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// donorDocuments accepts a JSON array of strings, a comma-separated string
// or nothing.
func donorDocuments(arg any) ([]string, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		donors := make([]string, 0, len(v))
		for i, item := range v {
			path, ok := item.(string)
			if !ok {
				return nil, eris.Errorf("donor_documents[%d] must be a string", i)
			}
			donors = append(donors, path)
		}
		return donors, nil
	case string:
		var donors []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				donors = append(donors, part)
			}
		}
		return donors, nil
	default:
		return nil, eris.Errorf("donor_documents must be a list of paths, got %T", arg)
	}
}

func formatFields(path string, fields []form.Field) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Form fields in %s: %d\n", path, len(fields))
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s (%s)", f.Name, f.Type)
		if f.Value != "" {
			fmt.Fprintf(&b, " = %q", f.Value)
		}
		if f.Required {
			b.WriteString(" [required]")
		}
		if f.ReadOnly {
			b.WriteString(" [read-only]")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Run serves MCP over stdin and stdout until ctx is done or input ends.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("starting MCP stdio server",
		zap.String("name", s.config.ServerName),
		zap.String("version", s.config.Version),
	)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))

	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return eris.Wrap(err, "serve stdio")
	}
	return nil
}
