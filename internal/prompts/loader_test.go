package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/trade-hire/internal/schema"
)

func TestExtractionTemplates_MatchRegistry(t *testing.T) {
	ClearCache()

	for _, kind := range schema.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			task := schema.MustFor(kind)
			tmpl, err := Get(ExtractionFile, task.PromptKey)
			require.NoError(t, err)

			var used []string
			for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
				used = append(used, m[1])
			}
			assert.Subset(t, task.ContextVars, used, "template uses a variable the task does not supply")
			for _, v := range task.ContextVars {
				assert.Contains(t, used, v, "context variable %s is never substituted", v)
			}
		})
	}
}

func TestExtractionTemplates_NoOrphans(t *testing.T) {
	keys, err := List(ExtractionFile)
	require.NoError(t, err)

	taskKeys := make([]string, 0, len(schema.Kinds()))
	for _, kind := range schema.Kinds() {
		taskKeys = append(taskKeys, schema.MustFor(kind).PromptKey)
	}
	assert.ElementsMatch(t, taskKeys, keys)
}

func TestGet_Errors(t *testing.T) {
	ClearCache()

	_, err := Get("cover-letters.json", "resume-onboarding")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")

	_, err = Get(ExtractionFile, "cover-letter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"cover-letter" not found`)

	assert.Panics(t, func() { MustGet(ExtractionFile, "cover-letter") })
}

func TestGet_Cached(t *testing.T) {
	ClearCache()

	first := MustGet(ExtractionFile, "prompt-job")
	second := MustGet(ExtractionFile, "prompt-job")
	assert.Equal(t, first, second)

	cacheMu.RLock()
	_, ok := cache[ExtractionFile]
	cacheMu.RUnlock()
	assert.True(t, ok)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		want     string
	}{
		{
			name:     "substitutes every occurrence",
			template: "Resume of {{.FirstName}}. Write as {{.FirstName}}.",
			data:     map[string]string{"FirstName": "Maria"},
			want:     "Resume of Maria. Write as Maria.",
		},
		{
			name:     "missing value keeps placeholder",
			template: "Scraped from {{.WebsiteURL}} for {{.CompanyName}}",
			data:     map[string]string{"CompanyName": "Acme Electric"},
			want:     "Scraped from {{.WebsiteURL}} for Acme Electric",
		},
		{
			name:     "value containing a placeholder is not expanded again",
			template: "{{.CompanyName}} / {{.WebsiteURL}}",
			data:     map[string]string{"CompanyName": "{{.WebsiteURL}}", "WebsiteURL": "acme.example"},
			want:     "{{.WebsiteURL}} / acme.example",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.template, tt.data))
		})
	}
}
