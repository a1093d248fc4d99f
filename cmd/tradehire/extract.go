package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/trade-hire/internal/config"
	"github.com/jonathan/trade-hire/internal/extraction"
	"github.com/jonathan/trade-hire/internal/ingestion"
	"github.com/jonathan/trade-hire/internal/llm"
	"github.com/jonathan/trade-hire/internal/observability"
	"github.com/jonathan/trade-hire/internal/sanitize"
	"github.com/jonathan/trade-hire/internal/schema"
)

var (
	extractTask        string
	extractFiles       []string
	extractURL         string
	extractPrompt      string
	extractVars        []string
	extractConcurrency int
	extractVerbose     bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run one or more extractions and print the results as JSON lines",
	Long: `Run the extraction pipeline locally. Each input produces one JSON line on stdout.
Multiple --file inputs run concurrently and independently.

Examples:
  tradehire extract --task resume-onboarding --file resume.pdf --var FirstName=Maria
  tradehire extract --task website-company --url https://acme-electric.example
  tradehire extract --task prompt-job --prompt "Need two journeyman electricians in Denver" --var CompanyName=Acme`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractTask, "task", "", "Extraction task: "+taskList())
	extractCmd.Flags().StringArrayVar(&extractFiles, "file", nil, "Input file; repeat for a batch")
	extractCmd.Flags().StringVar(&extractURL, "url", "", "Website to fetch (website-company)")
	extractCmd.Flags().StringVar(&extractPrompt, "prompt", "", "Free-text description (prompt-job)")
	extractCmd.Flags().StringArrayVar(&extractVars, "var", nil, "Prompt context value as Key=Value; repeatable")
	extractCmd.Flags().IntVar(&extractConcurrency, "concurrency", 4, "Maximum concurrent extractions")
	extractCmd.Flags().BoolVarP(&extractVerbose, "verbose", "v", false, "Print a readable summary of each result to stderr")
	_ = extractCmd.MarkFlagRequired("task")
	rootCmd.AddCommand(extractCmd)
}

// extractJob is one input of a batch.
type extractJob struct {
	Label   string
	Request extraction.Request
}

// extractLine is the JSON line printed for each input.
type extractLine struct {
	Source         string          `json:"source"`
	Task           schema.TaskKind `json:"task"`
	Fields         map[string]any  `json:"fields,omitempty"`
	NeedsAttention []string        `json:"needsAttention,omitempty"`
	Error          *lineError      `json:"error,omitempty"`
}

type lineError struct {
	Kind    extraction.Kind `json:"kind"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
}

type runner interface {
	Run(ctx context.Context, req extraction.Request) (*sanitize.Result, error)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	vars, err := parseVars(extractVars)
	if err != nil {
		return err
	}
	jobs, err := buildJobs(schema.TaskKind(extractTask), extractFiles, extractURL, extractPrompt, vars)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := llm.NewClient(ctx, cfg.LLMConfig(), cfg.APIKey)
	if err != nil {
		return err
	}
	defer client.Close()

	verbose := extractVerbose || cfg.Verbose
	pipeline := extraction.NewPipeline(client,
		extraction.WithFetcher(newFetcher(cfg, false)),
		extraction.WithVerbose(verbose),
	)

	var printer *observability.Printer
	if verbose {
		printer = observability.NewPrinter(os.Stderr)
	}
	return extractAll(ctx, pipeline, jobs, extractConcurrency, os.Stdout, printer)
}

// extractAll runs every job with at most concurrency in flight and writes one line per job
// in input order. A failed job does not stop the others.
func extractAll(ctx context.Context, r runner, jobs []extractJob, concurrency int, out io.Writer, printer *observability.Printer) error {
	results := make([]*sanitize.Result, len(jobs))
	errs := make([]error, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, job := range jobs {
		g.Go(func() error {
			results[i], errs[i] = r.Run(gctx, job.Request)
			return nil
		})
	}
	_ = g.Wait()

	enc := json.NewEncoder(out)
	failed := 0
	for i, job := range jobs {
		line := extractLine{Source: job.Label, Task: job.Request.Task}
		if err := errs[i]; err != nil {
			failed++
			kind := extraction.KindOf(err)
			line.Error = &lineError{Kind: kind, Message: kind.UserMessage(), Detail: err.Error()}
			if printer != nil {
				printer.PrintFailure(job.Label, err)
			}
		} else {
			line.Fields = results[i].Fields
			line.NeedsAttention = results[i].NeedsAttention
			if printer != nil {
				printer.PrintResult(job.Label, results[i])
			}
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d extractions failed", failed, len(jobs))
	}
	return nil
}

// buildJobs turns command inputs into pipeline requests for task.
func buildJobs(kind schema.TaskKind, files []string, rawURL, prompt string, vars map[string]string) ([]extractJob, error) {
	task, err := schema.For(kind)
	if err != nil {
		return nil, fmt.Errorf("%w (known tasks: %s)", err, taskList())
	}

	var jobs []extractJob
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		src := ingestion.Source{Kind: task.Source}
		switch task.Source {
		case schema.SourceDocument:
			src.Data = data
			src.MediaType = mediaTypeFor(path)
		default:
			src.Text = string(data)
		}
		jobs = append(jobs, extractJob{
			Label:   path,
			Request: extraction.Request{Task: task.Kind, Source: src, Context: vars},
		})
	}

	switch {
	case rawURL != "" && task.Source != schema.SourceHTML:
		return nil, fmt.Errorf("--url only applies to %s", schema.TaskWebsiteCompany)
	case rawURL != "":
		jobs = append(jobs, extractJob{
			Label:   rawURL,
			Request: extraction.Request{Task: task.Kind, Source: ingestion.Source{Kind: schema.SourceHTML}, URL: rawURL, Context: vars},
		})
	}

	switch {
	case prompt != "" && task.Source != schema.SourceText:
		return nil, fmt.Errorf("--prompt only applies to %s", schema.TaskPromptJob)
	case prompt != "":
		jobs = append(jobs, extractJob{
			Label:   "prompt",
			Request: extraction.Request{Task: task.Kind, Source: ingestion.Source{Kind: schema.SourceText, Text: prompt}, Context: vars},
		})
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("no input given: use --file, --url or --prompt")
	}
	return jobs, nil
}

// mediaTypeFor guesses a document's media type from its extension.
// Unknown extensions are left empty and resolved by content sniffing.
func mediaTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return ingestion.MediaPDF
	case ".docx":
		return ingestion.MediaDOCX
	case ".txt", ".md":
		return ingestion.MediaPlain
	default:
		return ""
	}
}

func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q: expected Key=Value", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

func taskList() string {
	kinds := schema.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
