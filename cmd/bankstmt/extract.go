package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/artifacts"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/config"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/export"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/pipeline"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/providers"
	"github.com/AhsanRiaz786/bank-statement-extraction/internal/render"
)

var (
	flagOutput      string
	flagFormat      string
	flagModel       string
	flagBaseURL     string
	flagSchemaPages int
	flagMaxAttempts int
	flagDebugDir    string
)

var extractCmd = &cobra.Command{
	Use:   "extract <statement.pdf>",
	Short: "Extract transactions from a PDF bank statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cm.Get()

		log, err := newLogger(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return err
		}

		model := cfg.Model.Name
		if flagModel != "" {
			model = flagModel
		}
		baseURL := cfg.Model.BaseURL
		if flagBaseURL != "" {
			baseURL = flagBaseURL
		}
		schemaPages := cfg.Pipeline.SchemaPageLimit
		if cmd.Flags().Changed("schema-pages") {
			schemaPages = flagSchemaPages
		}
		maxAttempts := cfg.Pipeline.MaxAttempts
		if cmd.Flags().Changed("max-attempts") {
			maxAttempts = flagMaxAttempts
		}

		inputPath := args[0]
		format, err := export.ParseFormat(formatFor(flagOutput, flagFormat, cfg.Output.Format))
		if err != nil {
			return err
		}
		outputPath := flagOutput
		if outputPath == "" {
			outputPath = defaultOutputPath(inputPath, format)
		}

		doc, err := render.Open(inputPath)
		if err != nil {
			return err
		}

		var debugDir *artifacts.Dir
		debugPath := cfg.Output.DebugDir
		if flagDebugDir != "" {
			debugPath = flagDebugDir
		}
		if debugPath != "" {
			debugDir, err = artifacts.New(debugPath)
			if err != nil {
				return err
			}
			log.Info("debug artifacts enabled", "dir", debugDir.Path())
		}

		client := providers.NewOpenAIClient(providers.OpenAIConfig{
			APIKey:      cfg.Model.APIKey,
			Model:       model,
			BaseURL:     baseURL,
			Temperature: cfg.Model.Temperature,
			MaxTokens:   cfg.Model.MaxTokens,
			Timeout:     cfg.Pipeline.CallTimeout(),
		})

		p := &pipeline.Pipeline{
			Client:    client,
			Renderer:  render.NewPopplerRenderer(),
			Artifacts: debugDir,
			Config: pipeline.Config{
				Model:           model,
				SchemaPageLimit: schemaPages,
				MaxAttempts:     maxAttempts,
				CallTimeout:     cfg.Pipeline.CallTimeout(),
				DateHints:       cfg.Pipeline.DateHints,
			},
			Logger: log,
		}

		result, err := p.Run(cmd.Context(), doc)
		if err != nil {
			return err
		}

		if err := export.Write(outputPath, format, result.Records, result.Schema.ExtraFields()); err != nil {
			return err
		}

		log.Info("wrote output",
			"path", outputPath,
			"records", len(result.Records),
			"degraded", result.Report.DegradedRecords)
		fmt.Printf("Extracted %d transactions to %s\n", len(result.Records), outputPath)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file (default: <input>_transactions.csv)")
	extractCmd.Flags().StringVarP(&flagFormat, "format", "f", "", "output format: csv or xlsx (default: csv)")
	extractCmd.Flags().StringVar(&flagModel, "model", "", "model name override")
	extractCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "OpenAI-compatible endpoint override")
	extractCmd.Flags().IntVar(&flagSchemaPages, "schema-pages", 0, "pages to scan for the table schema")
	extractCmd.Flags().IntVar(&flagMaxAttempts, "max-attempts", 0, "repair attempts per model call")
	extractCmd.Flags().StringVar(&flagDebugDir, "debug-dir", "", "write per-page debug artifacts to this directory")
}

// formatFor resolves the output format from, in order, the explicit flag,
// the output filename's extension, and the configured default.
func formatFor(outputPath, formatFlag, configured string) string {
	if formatFlag != "" {
		return formatFlag
	}
	if ext := strings.TrimPrefix(filepath.Ext(outputPath), "."); ext != "" {
		return ext
	}
	return configured
}

// defaultOutputPath derives the output filename from the input stem.
func defaultOutputPath(inputPath string, format export.Format) string {
	stem := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return fmt.Sprintf("%s_transactions.%s", stem, format)
}
