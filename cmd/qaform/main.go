// SPDX-License-Identifier: Apache-2.0

// qaform formats raw question-answering model output into structured answer
// documents, either as a one-shot CLI or as an MCP server on stdio.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/goccy/go-yaml"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/qaformproj/qaform-mcp/internal/config"
	"github.com/qaformproj/qaform-mcp/internal/qa"
	"github.com/qaformproj/qaform-mcp/internal/schema"
	"github.com/qaformproj/qaform-mcp/internal/tool"
)

// Populated by ldflags at build time.
var version = "dev"

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "qaform",
		Short:        "Format QA model predictions into answer documents",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	root.AddCommand(
		buildFormatCmd(&configPath),
		buildServeCmd(&configPath),
	)
	return root
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	// stdout carries the emitted document (or the MCP stream); logs go to
	// stderr only.
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func buildFormatCmd(configPath *string) *cobra.Command {
	var (
		output     string
		squad      bool
		validate   bool
		windowSize int
		indent     bool
	)

	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Format a raw prediction payload from a JSON or YAML file ('-' for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			req, err := readRequest(args[0])
			if err != nil {
				return err
			}
			if err := req.Validate(); err != nil {
				return err
			}

			size := windowSize
			if size <= 0 {
				size = cfg.ContextWindowSize
			}
			set := req.PredictionSet(size, qa.NewZapSink(logger))
			if len(set.AnswerTypes) == 0 {
				set.AnswerTypes = cfg.AnswerTypes
			}

			useSquad := squad || cfg.SQuADFormat
			doc := set.Document(useSquad)
			var data []byte
			if indent {
				data, err = qa.MarshalIndentNoEscape(doc, "", "  ")
			} else {
				data, err = qa.MarshalNoEscape(doc)
			}
			if err != nil {
				return fmt.Errorf("serialize document: %w", err)
			}
			if validate || cfg.ValidateOutput {
				if err := schema.ValidateDocument(data); err != nil {
					return err
				}
			}

			logger.Info("formatted predictions",
				zap.String("id", set.ID),
				zap.Int("answers", len(set.Candidates)),
				zap.Int("anomalies", len(set.Diagnostics)),
				zap.Bool("squad", useSquad),
			)

			if output == "" || output == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			return os.WriteFile(output, append(data, '\n'), 0o644)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the document to a file instead of stdout")
	cmd.Flags().BoolVar(&squad, "squad", false, "Emit the SQuAD-compatible schema")
	cmd.Flags().BoolVar(&validate, "validate", false, "Check the emitted document against the output schema")
	cmd.Flags().IntVar(&windowSize, "window-size", 0, "Context window size in characters (overrides config)")
	cmd.Flags().BoolVar(&indent, "indent", false, "Pretty-print the document")
	return cmd
}

// readRequest decodes a raw prediction payload from JSON or YAML, chosen by
// file extension. Stdin is treated as JSON.
func readRequest(path string) (qa.Request, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return qa.Request{}, fmt.Errorf("read input: %w", err)
	}

	var req qa.Request
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &req)
	default:
		err = json.Unmarshal(data, &req)
	}
	if err != nil {
		return qa.Request{}, fmt.Errorf("parse input %s: %w", path, err)
	}
	return req, nil
}

func buildServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			server := mcp.NewServer(&mcp.Implementation{
				Name:    "qaform-mcp",
				Version: version,
			}, nil)
			mcp.AddTool(server, tool.MetadataFormatPredictions, tool.FormatPredictions(tool.Options{
				Config: cfg,
				Sink:   qa.NewZapSink(logger),
			}))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("serving qaform tools over stdio", zap.String("version", version))
			if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}
