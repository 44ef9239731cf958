package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-pdf-form-filler/internal/filler"
	"github.com/a3tai/mcp-pdf-form-filler/internal/mcp"
	"github.com/a3tai/mcp-pdf-form-filler/internal/pdf/form"
)

// errProcessingFailed marks a run whose result was already printed.
var errProcessingFailed = errors.New("form processing failed")

func newFillCmd(a *app) *cobra.Command {
	var (
		template string
		donors   []string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill a form template from donor documents",
		Example: `  form-filler fill --template blank.pdf --donor id.pdf --donor notes.txt --output filled.pdf
  form-filler fill --template blank.pdf --donor id.pdf,notes.txt --output filled.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result := a.service.ProcessDocument(ctx, template, donors, output)
			if err := writeJSON(cmd, result); err != nil {
				return err
			}
			if result.Status != filler.StatusSuccess {
				return errProcessingFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "Blank PDF form to fill")
	cmd.Flags().StringSliceVar(&donors, "donor", nil, "Donor document (PDF or text); repeatable")
	cmd.Flags().StringVar(&output, "output", "", "Path of the filled PDF")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields FILE",
		Short: "List the form fields of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := form.ListFields(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, fields)
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the form filler as an MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, err := mcp.NewServer(a.cfg, a.service, a.reader, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()
			return server.Run(ctx)
		},
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
