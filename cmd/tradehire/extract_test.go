package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/trade-hire/internal/extraction"
	"github.com/jonathan/trade-hire/internal/ingestion"
	"github.com/jonathan/trade-hire/internal/observability"
	"github.com/jonathan/trade-hire/internal/sanitize"
	"github.com/jonathan/trade-hire/internal/schema"
)

// fakeRunner answers by source text. Text starting with "fail" yields an unreadable source error.
type fakeRunner struct {
	mu       sync.Mutex
	seen     []extraction.Request
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeRunner) Run(_ context.Context, req extraction.Request) (*sanitize.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.seen = append(f.seen, req)
	f.mu.Unlock()

	if strings.HasPrefix(req.Source.Text, "fail") {
		return nil, &ingestion.UnreadableSourceError{Reason: ingestion.ReasonEmpty}
	}
	return &sanitize.Result{
		Task:           req.Task,
		Fields:         map[string]any{"title": req.Source.Text},
		NeedsAttention: []string{"location"},
	}, nil
}

func textJobs(texts ...string) []extractJob {
	jobs := make([]extractJob, len(texts))
	for i, text := range texts {
		jobs[i] = extractJob{
			Label: text,
			Request: extraction.Request{
				Task:   schema.TaskPromptJob,
				Source: ingestion.Source{Kind: schema.SourceText, Text: text},
			},
		}
	}
	return jobs
}

func readLines(t *testing.T, out *bytes.Buffer) []extractLine {
	t.Helper()
	var lines []extractLine
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var line extractLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	return lines
}

func TestExtractAll_KeepsInputOrder(t *testing.T) {
	r := &fakeRunner{delay: 5 * time.Millisecond}
	var out bytes.Buffer

	err := extractAll(context.Background(), r, textJobs("Welder", "Plumber", "Roofer", "Electrician"), 2, &out, nil)
	require.NoError(t, err)

	lines := readLines(t, &out)
	require.Len(t, lines, 4)
	for i, want := range []string{"Welder", "Plumber", "Roofer", "Electrician"} {
		assert.Equal(t, want, lines[i].Source)
		assert.Equal(t, want, lines[i].Fields["title"])
		assert.Equal(t, []string{"location"}, lines[i].NeedsAttention)
		assert.Nil(t, lines[i].Error)
	}
	assert.LessOrEqual(t, r.peak.Load(), int32(2))
}

func TestExtractAll_FailuresAreIndependent(t *testing.T) {
	r := &fakeRunner{}
	var out bytes.Buffer

	err := extractAll(context.Background(), r, textJobs("Welder", "fail: blank", "Plumber"), 4, &out, nil)
	require.Error(t, err)
	assert.Equal(t, "1 of 3 extractions failed", err.Error())

	lines := readLines(t, &out)
	require.Len(t, lines, 3)
	assert.Nil(t, lines[0].Error)
	assert.Nil(t, lines[2].Error)

	require.NotNil(t, lines[1].Error)
	assert.Equal(t, extraction.KindUnreadableSource, lines[1].Error.Kind)
	assert.Equal(t, extraction.KindUnreadableSource.UserMessage(), lines[1].Error.Message)
	assert.Empty(t, lines[1].Fields)
	assert.Len(t, r.seen, 3)
}

func TestExtractAll_ZeroConcurrencyStillRuns(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, extractAll(context.Background(), &fakeRunner{}, textJobs("Welder"), 0, &out, nil))
	assert.Len(t, readLines(t, &out), 1)
}

func TestExtractAll_VerbosePrintsSummary(t *testing.T) {
	var out, summary bytes.Buffer
	err := extractAll(context.Background(), &fakeRunner{}, textJobs("Welder", "fail"), 1, &out, observability.NewPrinter(&summary))
	require.Error(t, err)

	assert.Contains(t, summary.String(), "Welder")
	assert.Contains(t, summary.String(), "fail")
	assert.Len(t, readLines(t, &out), 2)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildJobs_Documents(t *testing.T) {
	pdf := writeFile(t, "resume.pdf", "%PDF-1.4")
	docx := writeFile(t, "resume.DOCX", "PK")
	other := writeFile(t, "resume.bin", "hello")
	vars := map[string]string{"FirstName": "Maria"}

	jobs, err := buildJobs(schema.TaskResumeOnboarding, []string{pdf, docx, other}, "", "", vars)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	assert.Equal(t, pdf, jobs[0].Label)
	assert.Equal(t, schema.SourceDocument, jobs[0].Request.Source.Kind)
	assert.Equal(t, []byte("%PDF-1.4"), jobs[0].Request.Source.Data)
	assert.Equal(t, ingestion.MediaPDF, jobs[0].Request.Source.MediaType)
	assert.Equal(t, ingestion.MediaDOCX, jobs[1].Request.Source.MediaType)
	assert.Empty(t, jobs[2].Request.Source.MediaType)
	assert.Equal(t, vars, jobs[0].Request.Context)
}

func TestBuildJobs_WebsiteAndPrompt(t *testing.T) {
	page := writeFile(t, "home.html", "<html><body>Acme Electric</body></html>")

	jobs, err := buildJobs(schema.TaskWebsiteCompany, []string{page}, "https://acme.example", "", nil)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, schema.SourceHTML, jobs[0].Request.Source.Kind)
	assert.Contains(t, jobs[0].Request.Source.Text, "Acme Electric")
	assert.Equal(t, "https://acme.example", jobs[1].Request.URL)
	assert.Empty(t, jobs[1].Request.Source.Text)

	jobs, err = buildJobs(schema.TaskPromptJob, nil, "", "Two journeyman electricians", nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "prompt", jobs[0].Label)
	assert.Equal(t, "Two journeyman electricians", jobs[0].Request.Source.Text)
}

func TestBuildJobs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		task    schema.TaskKind
		files   []string
		url     string
		prompt  string
		wantErr string
	}{
		{name: "unknown task", task: "cover-letter", prompt: "x", wantErr: "known tasks"},
		{name: "no input", task: schema.TaskPromptJob, wantErr: "no input"},
		{name: "url on prompt task", task: schema.TaskPromptJob, url: "https://acme.example", wantErr: "--url"},
		{name: "prompt on website task", task: schema.TaskWebsiteCompany, prompt: "x", wantErr: "--prompt"},
		{name: "missing file", task: schema.TaskResumeProfile, files: []string{"does-not-exist.pdf"}, wantErr: "failed to read"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildJobs(tt.task, tt.files, tt.url, tt.prompt, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"FirstName=Maria", " CompanyName =Acme=Co", "Empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"FirstName": "Maria", "CompanyName": "Acme=Co", "Empty": ""}, vars)

	_, err = parseVars([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseVars([]string{"=x"})
	assert.Error(t, err)
}

func TestTaskList(t *testing.T) {
	assert.Equal(t, "prompt-job, resume-onboarding, resume-profile, website-company", taskList())
}
