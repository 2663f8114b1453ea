package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/fnol/internal/model"
)

// Processor processes one document given its path or URL
type Processor interface {
	ProcessSource(ctx context.Context, source string) (*model.Report, error)
}

// DocumentJob processes a single source
type DocumentJob struct {
	Source    string
	Processor Processor
}

// Execute runs the job
func (j *DocumentJob) Execute(ctx context.Context) Result {
	report, err := j.Processor.ProcessSource(ctx, j.Source)
	return &DocumentResult{Source: j.Source, Report: report, Error: err}
}

// DocumentResult is the outcome of one document
type DocumentResult struct {
	Source string
	Report *model.Report
	Error  error
}

// GetError returns the processing error, if any
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor processes many documents concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessSources processes every source and returns results in input order
func (b *BatchProcessor) ProcessSources(ctx context.Context, sources []string) []*DocumentResult {
	if len(sources) == 0 {
		return []*DocumentResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, src := range sources {
		pool.Submit(&DocumentJob{Source: src, Processor: b.processor})
	}

	results := pool.Wait()

	out := make([]*DocumentResult, len(results))
	for i, res := range results {
		out[i] = res.(*DocumentResult)
	}
	return out
}

// ProcessFile reads sources from a list file and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*DocumentResult, error) {
	sources, err := ReadSourcesFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	return b.ProcessSources(ctx, sources), nil
}

// ReadSourcesFromFile reads document paths or URLs, one per line. Blank lines
// and # comments are skipped; duplicates are dropped.
func ReadSourcesFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}
