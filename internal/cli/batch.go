package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/fnol/internal/model"
	"github.com/ppiankov/fnol/internal/pipeline"
	"github.com/ppiankov/fnol/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	withMarkdown bool
	// threshold, noCache, noFooter and the proxy flags are shared with process.go
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir|file>",
	Short: "Process many FNOL documents in parallel",
	Long: `Batch processes many documents concurrently:
- A directory argument processes every .pdf, .txt and .html file in it
- A file argument is read as a list of paths or URLs (one per line, # comments)
- Writes one JSON report per document to the output directory
- Prints a tally of recommended routes

Example:
  fnol batch ./inbox
  fnol batch sources.txt --concurrency 8 --output-dir ./reports
  fnol batch ./inbox --threshold 10000 --md`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./fnol-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&withMarkdown, "md", false, "also write a Markdown report per document")

	// Shared with process
	batchCmd.Flags().Float64Var(&threshold, "threshold", model.DefaultFastTrackThreshold, "fast-track damage threshold for this run")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	batchCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	input := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	logger, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sources, err := collectSources(input)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  FNOL Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input:        %s (%d documents)\n", input, len(sources))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Threshold:    %.2f\n", cfg.Routing.FastTrackThreshold)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p := pipeline.NewPipeline(cfg, logger)
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	results := processor.ProcessSources(ctx, sources)

	renderer := p.Renderer()
	tally := make(map[model.Route]int)
	failureCount := 0

	for i, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Source, result.Error)
			continue
		}

		report := result.Report
		tally[report.Decision.Route]++

		slug := fmt.Sprintf("%03d-%s", i+1, sanitizeFilename(report.Source))
		jsonPath := filepath.Join(outputDir, slug+".json")
		if err := renderer.RenderJSON(report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Source, err)
			continue
		}
		if withMarkdown {
			if err := renderer.RenderMarkdown(report, filepath.Join(outputDir, slug+".md")); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Source, err)
				continue
			}
		}

		fmt.Fprintf(os.Stderr, "✓ %s → %s\n", result.Source, report.Decision.Route)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d documents\n", len(results))
	for _, route := range model.Routes {
		fmt.Fprintf(os.Stderr, "  %-20s %d\n", string(route)+":", tally[route])
	}
	fmt.Fprintf(os.Stderr, "  %-20s %d\n", "Failures:", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && failureCount == len(results) {
		return fmt.Errorf("all %d documents failed", failureCount)
	}
	return nil
}

// batchExtensions are the document types picked up from a directory
var batchExtensions = map[string]bool{".pdf": true, ".txt": true, ".html": true, ".htm": true}

// collectSources expands a directory into its documents or reads a source list
func collectSources(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", input, err)
	}

	if !info.IsDir() {
		sources, err := worker.ReadSourcesFromFile(input)
		if err != nil {
			return nil, fmt.Errorf("read source list: %w", err)
		}
		return sources, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var sources []string
	for _, e := range entries {
		if e.IsDir() || !batchExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		sources = append(sources, filepath.Join(input, e.Name()))
	}
	sort.Strings(sources)

	if len(sources) == 0 {
		return nil, fmt.Errorf("no .pdf, .txt or .html documents in %s", input)
	}
	return sources, nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename sanitizes a path or URL for use as a filename
func sanitizeFilename(s string) string {
	s = strings.TrimSuffix(s, "/")
	s = filepath.Base(s)
	s = strings.TrimSuffix(s, filepath.Ext(s))
	s = filenameReplacer.Replace(s)

	if s == "" || s == "." {
		s = "document"
	}
	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
