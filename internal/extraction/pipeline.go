// Package extraction runs the structured-data extraction pipeline:
// normalize, invoke the model once, parse, sanitize.
// Every task shares the same pipeline; a task differs only in its registry definition
// and the context values its caller supplies.
package extraction

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/trade-hire/internal/fetch"
	"github.com/jonathan/trade-hire/internal/ingestion"
	"github.com/jonathan/trade-hire/internal/llm"
	"github.com/jonathan/trade-hire/internal/parsing"
	"github.com/jonathan/trade-hire/internal/sanitize"
	"github.com/jonathan/trade-hire/internal/schema"
	"github.com/jonathan/trade-hire/internal/schemas"
)

// Request is one pipeline run.
type Request struct {
	Task    schema.TaskKind
	Source  ingestion.Source
	URL     string            // website tasks: fetched when Source.Text is empty
	Context map[string]string // template variables, e.g. FirstName
}

// Run is the audit record of one pipeline run.
type Run struct {
	ID             uuid.UUID
	Task           schema.TaskKind
	Status         string // "ok" or "failed"
	ErrorKind      Kind
	NeedsAttention []string
	Dropped        int
	Duration       time.Duration
	CreatedAt      time.Time
}

// RunRecorder stores run audit records. Recording failures never fail a run.
type RunRecorder interface {
	RecordRun(ctx context.Context, run Run) error
}

// Pipeline wires the extraction stages together.
type Pipeline struct {
	invoker    *Invoker
	normalizer *ingestion.Normalizer
	fetcher    fetch.Fetcher
	recorder   RunRecorder
	verbose    bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFetcher sets the page fetcher used by website tasks.
func WithFetcher(f fetch.Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *ingestion.Normalizer) Option {
	return func(p *Pipeline) { p.normalizer = n }
}

// WithRecorder stores an audit record per run.
func WithRecorder(r RunRecorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithVerbose logs each stage.
func WithVerbose(v bool) Option {
	return func(p *Pipeline) { p.verbose = v }
}

// NewPipeline returns a Pipeline that calls client for generation.
func NewPipeline(client llm.Client, opts ...Option) *Pipeline {
	p := &Pipeline{
		invoker:    NewInvoker(client),
		normalizer: ingestion.NewNormalizer(),
		fetcher:    fetch.New(nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one extraction. It returns either a result or a single error whose
// failure kind is given by KindOf; never both.
func (p *Pipeline) Run(ctx context.Context, req Request) (*sanitize.Result, error) {
	start := time.Now()
	res, err := p.run(ctx, req)
	p.record(ctx, req.Task, res, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, req Request) (*sanitize.Result, error) {
	task, err := schema.For(req.Task)
	if err != nil {
		return nil, err
	}

	src := req.Source
	if src.Kind == "" {
		src.Kind = task.Source
	}
	vars := req.Context

	if task.Source == schema.SourceHTML && src.Text == "" {
		src, err = p.fetchPage(ctx, req.URL)
		if err != nil {
			return nil, err
		}
	}
	if req.URL != "" {
		vars = withDefault(vars, "WebsiteURL", req.URL)
	}

	text, err := p.normalizer.Normalize(src, task.MaxInputLength)
	if err != nil {
		log.Printf("[extract] %s: %v", task.Kind, err)
		return nil, err
	}
	if p.verbose {
		log.Printf("[extract] %s: normalized %d characters (limit %d)", task.Kind, len([]rune(text)), task.MaxInputLength)
	}

	raw, err := p.invoker.Invoke(ctx, task, text, vars)
	if err != nil {
		log.Printf("[extract] %s: %v", task.Kind, err)
		return nil, err
	}

	obj, err := parsing.Parse(raw)
	if err != nil {
		log.Printf("[extract] %s: %v", task.Kind, err)
		return nil, err
	}

	res := sanitize.Sanitize(obj, task)
	if len(res.Dropped) > 0 {
		log.Printf("[extract] %s: dropped %s", task.Kind, strings.Join(res.Dropped, ", "))
	}
	if err := schemas.Validate(task, res.Fields); err != nil {
		log.Printf("[extract] %s: sanitized record failed self-check: %v", task.Kind, err)
	}
	if p.verbose {
		log.Printf("[extract] %s: %d fields, needs attention: %v", task.Kind, len(res.Fields), res.NeedsAttention)
	}
	return res, nil
}

func (p *Pipeline) fetchPage(ctx context.Context, rawURL string) (ingestion.Source, error) {
	if strings.TrimSpace(rawURL) == "" {
		return ingestion.Source{}, &ingestion.UnreadableSourceError{Reason: ingestion.ReasonFetchFailed, Message: "no URL given"}
	}
	if p.fetcher == nil {
		return ingestion.Source{}, &ingestion.UnreadableSourceError{Reason: ingestion.ReasonFetchFailed, Message: "fetching is disabled"}
	}

	page, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		log.Printf("[extract] fetch %s: %v", rawURL, err)
		return ingestion.Source{}, &ingestion.UnreadableSourceError{Reason: ingestion.ReasonFetchFailed, Message: rawURL, Cause: err}
	}
	if p.verbose {
		log.Printf("[extract] fetched %s: %d bytes (rendered=%t)", rawURL, len(page.HTML), page.Rendered)
	}
	return ingestion.Source{Kind: schema.SourceHTML, Text: page.HTML, URL: rawURL}, nil
}

func (p *Pipeline) record(ctx context.Context, kind schema.TaskKind, res *sanitize.Result, err error, elapsed time.Duration) {
	if p.recorder == nil {
		return
	}
	run := Run{
		ID:        uuid.New(),
		Task:      kind,
		Status:    "ok",
		Duration:  elapsed,
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		run.Status = "failed"
		run.ErrorKind = KindOf(err)
	} else {
		run.NeedsAttention = res.NeedsAttention
		run.Dropped = len(res.Dropped)
	}
	// Audit rows are written even after the caller's context is done.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if recErr := p.recorder.RecordRun(recordCtx, run); recErr != nil && !errors.Is(recErr, context.Canceled) {
		log.Printf("[extract] failed to record run %s: %v", run.ID, recErr)
	}
}

func withDefault(vars map[string]string, key, value string) map[string]string {
	if vars[key] != "" {
		return vars
	}
	out := make(map[string]string, len(vars)+1)
	for k, v := range vars {
		out[k] = v
	}
	out[key] = value
	return out
}
