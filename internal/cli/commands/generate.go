package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oapi-codegen/slimtypes/codegen"
	"github.com/oapi-codegen/slimtypes/internal/cli/config"
)

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "generate [input]",
		Short: "Generate types from an OpenAPI document",
		Long: `Generate reads an OpenAPI document (JSON or YAML), applies the filter and
writes type declarations for the selected schemas.

Settings are read from slimtypes.yaml (or --config), SLIMTYPES_* environment
variables and flags, with flags taking precedence.`,
		Example: `  slimtypes generate api.yaml -f filter.yaml -o types.gen.go
  slimtypes generate api.json --target rust -o src/types.rs`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := cmd.Flags().Set("input", args[0]); err != nil {
					return err
				}
			}
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runGenerate(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Config file (default ./slimtypes.yaml)")
	cmd.Flags().StringP("input", "i", "", "OpenAPI document to read")
	cmd.Flags().StringP("filter", "f", "", "Filter document selecting schemas and fields")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringP("package", "p", "", "Go package name of the generated file")
	cmd.Flags().StringP("target", "t", codegen.TargetGo, "Output language: go or rust")
	cmd.Flags().String("overlay", "", "OpenAPI Overlay applied before generation")
	cmd.Flags().Bool("overlay-strict", false, "Fail when an overlay action matches nothing")
	cmd.Flags().Bool("validate", false, "Validate the input as a full OpenAPI document")
	cmd.Flags().BoolP("verbose", "v", false, "Log filter and dependency decisions")

	return cmd
}

func runGenerate(cmd *cobra.Command, cfg *config.Config) error {
	logger := newLogger(cfg.Verbose)
	defer func() { _ = logger.Sync() }()

	doc, err := codegen.LoadDocumentFile(cmd.Context(), cfg.Input, cfg.Document)
	if err != nil {
		return err
	}

	var filter *codegen.FilterSpec
	if cfg.Filter != "" {
		if filter, err = codegen.LoadFilterFile(cfg.Filter); err != nil {
			return err
		}
	}

	gen := cfg.Generate
	gen.Logger = logger

	if cfg.Output == "" || cfg.Output == "-" {
		code, err := codegen.Generate(doc, filter, gen)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), code)
		return err
	}

	if err := codegen.WriteTypes(doc, filter, cfg.Output, gen); err != nil {
		return err
	}
	successColor := color.New(color.FgGreen)
	successColor.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", cfg.Output)
	return nil
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
