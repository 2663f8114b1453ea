package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/fnol/internal/model"
	"github.com/ppiankov/fnol/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON    string
	outMD      string
	outYAML    string
	timeout    time.Duration
	threshold  float64
	noCache    bool
	noFooter   bool
	httpProxy  string
	httpsProxy string
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <path|url>",
	Short: "Extract fields from one FNOL document and recommend a route",
	Long: `Process reads a single FNOL document and:
- Decodes it (PDF text layer, plain text or HTML)
- Extracts policy, incident, party and asset fields
- Lists missing mandatory fields
- Recommends a route with its reasoning

The API-shaped result is printed to stdout unless --json is given.
A one-line summary goes to stderr.

Example:
  fnol process claim.pdf
  fnol process notice.txt --json result.json --md result.md
  fnol process https://example.com/claims/123.pdf --threshold 10000`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	// Output flags
	processCmd.Flags().StringVar(&outJSON, "json", "", "write the full report (with rule trace) as JSON")
	processCmd.Flags().StringVar(&outMD, "md", "", "write a Markdown report")
	processCmd.Flags().StringVar(&outYAML, "yaml", "", "write the result as YAML")
	processCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Routing flags
	processCmd.Flags().Float64Var(&threshold, "threshold", model.DefaultFastTrackThreshold, "fast-track damage threshold for this run")

	// HTTP flags
	processCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout (fetch and decode)")
	processCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	processCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	processCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// applyFlags copies explicitly set command flags over the loaded config
func applyFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("threshold") {
		cfg.Routing.FastTrackThreshold = threshold
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if flags.Changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
}

func runProcess(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if cmd.Flags().Changed("timeout") {
		cfg.HTTP.Timeout = timeout
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	logger, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Processing: %s\n", source)
		fmt.Fprintf(os.Stderr, "Fast-track threshold: %.2f\n\n", cfg.Routing.FastTrackThreshold)
	}

	p := pipeline.NewPipeline(cfg, logger)
	report, err := p.ProcessSource(ctx, source)
	if err != nil {
		return fmt.Errorf("process failed: %w", err)
	}

	if outJSON == "" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.Result()); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	if outYAML != "" {
		if err := p.Renderer().RenderYAML(report, outYAML); err != nil {
			return fmt.Errorf("render YAML: %w", err)
		}
	}

	if err := p.RenderReport(report, outJSON, outMD, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
