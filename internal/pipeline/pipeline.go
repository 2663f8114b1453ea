package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/fnol/internal/cache"
	"github.com/ppiankov/fnol/internal/decode"
	"github.com/ppiankov/fnol/internal/extract"
	"github.com/ppiankov/fnol/internal/model"
	"github.com/ppiankov/fnol/internal/route"
	"github.com/ppiankov/fnol/internal/validate"
	"go.uber.org/zap"
)

// Input errors, re-exported so callers need only this package
var (
	ErrUnsupportedMedia = decode.ErrUnsupportedMedia
	ErrEmptyInput       = decode.ErrEmptyInput
	ErrDecode           = decode.ErrDecode
)

// Pipeline orchestrates decode, extraction, mandatory-field checks and routing
type Pipeline struct {
	fetcher   *Fetcher
	uploads   *decode.Registry // Formats accepted on upload
	documents *decode.Registry // Formats accepted from disk or URL
	extractor *extract.Extractor
	engine    *route.Engine
	cache     cache.Cache // nil when caching is disabled
	renderer  *Renderer
	logger    *zap.Logger
	config    *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	var resultCache cache.Cache
	if cfg.Cache.Enabled {
		resultCache = cache.NewMemoryCache(cfg.Cache.TTL, 2*cfg.Cache.TTL)
	}

	return &Pipeline{
		fetcher: NewFetcher(
			cfg.HTTP.Timeout,
			cfg.HTTP.UserAgent,
			cfg.HTTP.MaxBodyBytes,
			cfg.HTTP.RespectRobots,
			cfg.HTTP.HTTPProxy,
			cfg.HTTP.HTTPSProxy,
			cfg.HTTP.NoProxy,
		),
		uploads:   decode.UploadRegistry(),
		documents: decode.DefaultRegistry(),
		extractor: extract.NewDefaultExtractor(),
		engine:    route.NewEngine(cfg.Routing.FastTrackThreshold),
		cache:     resultCache,
		renderer:  NewRenderer(cfg.Output.IncludeFooter),
		logger:    logger,
		config:    cfg,
	}
}

// Threshold returns the fast-track threshold in effect
func (p *Pipeline) Threshold() float64 {
	return p.engine.Threshold()
}

// CacheStats returns result cache statistics (zero when disabled)
func (p *Pipeline) CacheStats() cache.Stats {
	if p.cache == nil {
		return cache.Stats{}
	}
	return p.cache.Stats()
}

// Analyze extracts, checks and routes decoded text. The second return
// reports whether the outcome came from the cache.
func (p *Pipeline) Analyze(text string) (*cache.Entry, bool) {
	key := cache.Key(text, p.engine.Threshold())
	if p.cache != nil {
		if entry, ok := p.cache.Get(key); ok {
			return entry, true
		}
	}

	fields, sources := p.extractor.ExtractWithSources(text)
	missing := validate.MissingFields(fields)
	entry := &cache.Entry{
		Fields:   fields,
		Missing:  missing,
		Decision: p.engine.Route(fields, missing),
	}

	if ce := p.logger.Check(zap.DebugLevel, "extraction rules"); ce != nil {
		ce.Write(zap.Any("sources", sources))
	}

	if p.cache != nil {
		p.cache.Set(key, entry)
	}
	return entry, false
}

// ProcessText processes already-decoded text
func (p *Pipeline) ProcessText(ctx context.Context, source string, text string) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrEmptyInput)
	}
	return p.process(source, "text", decode.NormalizeNewlines(text)), nil
}

// ProcessUpload decodes an uploaded file (.pdf or .txt, chosen by extension)
// and processes it
func (p *Pipeline) ProcessUpload(ctx context.Context, filename string, data []byte) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, format, err := p.uploads.Decode(filename, "", data)
	if err != nil {
		p.logger.Error("decode upload failed", zap.String("filename", filename), zap.Error(err))
		return nil, err
	}
	return p.process(filename, format, text), nil
}

// ProcessFile decodes a local file (.pdf, .txt or .html) and processes it
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	text, format, err := p.documents.Decode(filepath.Base(path), "", data)
	if err != nil {
		p.logger.Error("decode file failed", zap.String("filename", path), zap.Error(err))
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return p.process(path, format, text), nil
}

// ProcessURL fetches a remote document and processes it
func (p *Pipeline) ProcessURL(ctx context.Context, rawURL string) (*model.Report, error) {
	fetched, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	text, format, err := p.documents.Decode(fetched.Filename, fetched.ContentType, fetched.Data)
	if err != nil {
		p.logger.Error("decode document failed", zap.String("url", fetched.FinalURL), zap.Error(err))
		return nil, fmt.Errorf("decode %s: %w", fetched.FinalURL, err)
	}
	return p.process(fetched.FinalURL, format, text), nil
}

// ProcessSource processes a URL or a local path
func (p *Pipeline) ProcessSource(ctx context.Context, source string) (*model.Report, error) {
	if isURL(source) {
		return p.ProcessURL(ctx, source)
	}
	return p.ProcessFile(ctx, source)
}

func (p *Pipeline) process(source string, format string, text string) *model.Report {
	start := time.Now()
	entry, cached := p.Analyze(text)

	report := &model.Report{
		Source:      source,
		Format:      format,
		ProcessedAt: time.Now().UTC(),
		Fields:      entry.Fields,
		Missing:     entry.Missing,
		Decision:    entry.Decision,
	}

	p.logger.Info("document processed",
		zap.String("source", source),
		zap.String("format", format),
		zap.String("route", string(entry.Decision.Route)),
		zap.Strings("missing", entry.Missing),
		zap.Bool("cache_hit", cached),
		zap.Duration("duration", time.Since(start)),
	)

	return report
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(os.Stderr, report)
	return nil
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
