package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/trade-hire/internal/schema"
)

func TestRunSchema_All(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runSchema(&out, nil, ""))

	var all map[string]map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &all))
	assert.Len(t, all, len(schema.Kinds()))
	assert.Equal(t, "object", all[string(schema.TaskPromptJob)]["type"])
}

func TestRunSchema_OneTask(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runSchema(&out, []string{string(schema.TaskWebsiteCompany)}, ""))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	props := doc["properties"].(map[string]any)
	assert.Contains(t, props, "specialties")
}

func TestRunSchema_Check(t *testing.T) {
	valid := writeFile(t, "job.json", `{"title": "Welder", "jobType": "CONTRACT", "payMin": 30}`)
	invalid := writeFile(t, "bad.json", `{"payMin": "thirty"}`)
	task := []string{string(schema.TaskPromptJob)}

	var out bytes.Buffer
	require.NoError(t, runSchema(&out, task, valid))
	assert.Contains(t, out.String(), "valid JobPosting record")

	assert.Error(t, runSchema(&out, task, invalid))
	assert.Error(t, runSchema(&out, task, "missing.json"))
	assert.Error(t, runSchema(&out, nil, valid))
}

func TestRunSchema_UnknownTask(t *testing.T) {
	err := runSchema(&bytes.Buffer{}, []string{"cover-letter"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "known tasks")
}
