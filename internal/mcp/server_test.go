package mcp

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-pdf-form-filler/internal/config"
	"github.com/a3tai/mcp-pdf-form-filler/internal/filler"
	"github.com/a3tai/mcp-pdf-form-filler/internal/pdf"
	"github.com/a3tai/mcp-pdf-form-filler/internal/pdf/form"
	"github.com/a3tai/mcp-pdf-form-filler/internal/pdf/pdftest"
)

// cannedInferer answers schema prompts with schema and everything else
// with mappings.
type cannedInferer struct {
	schema, mappings string
}

func (c cannedInferer) Infer(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "structure of this PDF form") {
		return c.schema, nil
	}
	return c.mappings, nil
}

func newTestServer(t *testing.T, inferer filler.Inferer) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ServerName = "test-server"
	reader := pdf.NewReader(cfg.MaxFileSize)
	svc := filler.NewService(reader, inferer, form.NewFiller(form.WithLogger(zap.NewNop())), filler.WithLogger(zap.NewNop()))

	server, err := NewServer(cfg, svc, reader, zap.NewNop())
	if err != nil {
		t.Fatalf("NewServer() unexpected error: %v", err)
	}
	return server
}

func callTool(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func TestNewServer(t *testing.T) {
	cfg := config.DefaultConfig()
	reader := pdf.NewReader(cfg.MaxFileSize)
	svc := filler.NewService(reader, cannedInferer{}, form.NewFiller())

	tests := []struct {
		name        string
		svc         *filler.Service
		reader      *pdf.Reader
		expectError bool
	}{
		{name: "valid", svc: svc, reader: reader},
		{name: "nil service", svc: nil, reader: reader, expectError: true},
		{name: "nil reader", svc: svc, reader: nil, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(cfg, tt.svc, tt.reader, nil)
			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if server.mcpServer == nil {
				t.Error("mcpServer should be initialized")
			}
			if server.config != cfg {
				t.Error("server config not set correctly")
			}
		})
	}
}

func TestServer_HandleFillDocument(t *testing.T) {
	server := newTestServer(t, cannedInferer{
		schema:   `{"fields":[{"name":"full_name","type":"text"}]}`,
		mappings: `{"mappings":[{"field_name":"full_name","value":"Jane Doe"}]}`,
	})
	dir := t.TempDir()
	template := pdftest.Write(t, dir, "form.pdf", pdftest.Document{
		Pages:  [][]string{{"Full name"}},
		Fields: []pdftest.Field{{Name: "full_name"}},
	})
	donor := pdftest.Write(t, dir, "donor.pdf", pdftest.Document{Pages: [][]string{{"Jane Doe"}}})
	output := filepath.Join(dir, "out.pdf")

	result, err := server.handleFillDocument(context.Background(), callTool(map[string]interface{}{
		"template_path":   template,
		"donor_documents": []interface{}{donor},
		"output_path":     output,
	}))
	if err != nil {
		t.Fatalf("handleFillDocument() unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handleFillDocument() returned tool error: %s", extractTextFromResult(result))
	}

	var got filler.ProcessingResult
	if err := json.Unmarshal([]byte(extractTextFromResult(result)), &got); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if got.Status != filler.StatusSuccess || got.OutputPath != output {
		t.Errorf("unexpected result: %+v", got)
	}
	if got.FieldCount == nil || *got.FieldCount != 1 {
		t.Errorf("FieldCount = %v, want 1", got.FieldCount)
	}

	fields, err := form.ListFields(output)
	if err != nil {
		t.Fatalf("ListFields() error: %v", err)
	}
	if len(fields) != 1 || fields[0].Value != "Jane Doe" {
		t.Errorf("filled fields = %+v", fields)
	}
}

func TestServer_HandleFillDocument_Errors(t *testing.T) {
	server := newTestServer(t, cannedInferer{schema: "not json"})
	template := pdftest.Write(t, t.TempDir(), "form.pdf", pdftest.Document{Pages: [][]string{{"x"}}})

	tests := []struct {
		name     string
		args     map[string]interface{}
		contains string
	}{
		{
			name:     "missing template",
			args:     map[string]interface{}{"output_path": "out.pdf"},
			contains: "template_path",
		},
		{
			name:     "missing output",
			args:     map[string]interface{}{"template_path": template},
			contains: "output_path",
		},
		{
			name:     "bad donors",
			args:     map[string]interface{}{"template_path": template, "output_path": "o.pdf", "donor_documents": 42},
			contains: "donor_documents",
		},
		{
			name:     "pipeline failure",
			args:     map[string]interface{}{"template_path": template, "output_path": filepath.Join(t.TempDir(), "o.pdf")},
			contains: "Failed to process document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleFillDocument(context.Background(), callTool(tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Fatal("expected tool error result")
			}
			if text := extractTextFromResult(result); !strings.Contains(text, tt.contains) {
				t.Errorf("result %q does not contain %q", text, tt.contains)
			}
		})
	}
}

func TestServer_HandleFormFields(t *testing.T) {
	server := newTestServer(t, cannedInferer{})
	path := pdftest.Write(t, t.TempDir(), "form.pdf", pdftest.Document{
		Pages:  [][]string{{"x"}},
		Fields: []pdftest.Field{{Name: "email", Value: "a@b.c"}, {Name: "agree", Type: "Btn"}},
	})

	result, err := server.handleFormFields(context.Background(), callTool(map[string]interface{}{"path": path}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := extractTextFromResult(result)
	for _, want := range []string{"Form fields in", ": 2", `email (text) = "a@b.c"`, "agree (checkbox)"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}

	result, _ = server.handleFormFields(context.Background(), callTool(map[string]interface{}{}))
	if !result.IsError {
		t.Error("expected error for missing path")
	}
}

func TestServer_HandleExtractText(t *testing.T) {
	server := newTestServer(t, cannedInferer{})
	path := pdftest.Write(t, t.TempDir(), "doc.pdf", pdftest.Document{Pages: [][]string{{"hello"}, {"world"}}})

	result, err := server.handleExtractText(context.Background(), callTool(map[string]interface{}{"path": path}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := extractTextFromResult(result)
	for _, want := range []string{"Pages: 2", "hello", "world"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}

	result, _ = server.handleExtractText(context.Background(), callTool(map[string]interface{}{"path": "/non/existent.pdf"}))
	if !result.IsError {
		t.Error("expected error for missing file")
	}
}

func TestDonorDocuments(t *testing.T) {
	tests := []struct {
		name    string
		arg     any
		want    []string
		wantErr bool
	}{
		{name: "nil", arg: nil, want: nil},
		{name: "json array", arg: []any{"a.pdf", "b.txt"}, want: []string{"a.pdf", "b.txt"}},
		{name: "string slice", arg: []string{"a.pdf"}, want: []string{"a.pdf"}},
		{name: "comma separated", arg: "a.pdf, b.txt,,", want: []string{"a.pdf", "b.txt"}},
		{name: "non-string item", arg: []any{"a.pdf", 3}, wantErr: true},
		{name: "number", arg: 3.0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := donorDocuments(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("donorDocuments() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("donorDocuments() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServer_Serve_StopsOnCancel(t *testing.T) {
	server := newTestServer(t, cannedInferer{})
	in, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, in, io.Discard) }()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}
}

func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}
