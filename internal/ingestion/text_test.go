package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText_PreservesBulletLists(t *testing.T) {
	input := "- Wired panels\n- Pulled permits\n* Trained apprentices"
	result := CleanText(input)

	assert.Contains(t, result, "- Wired panels")
	assert.Contains(t, result, "- Pulled permits")
	assert.Contains(t, result, "* Trained apprentices")
}

func TestCleanText_NormalizesWhitespace(t *testing.T) {
	result := CleanText("Journeyman    electrician\t\tDenver, CO   ")
	assert.Equal(t, "Journeyman electrician Denver, CO", result)
}

func TestCleanText_RemovesExcessiveBlankLines(t *testing.T) {
	result := CleanText("Experience\n\n\n\n\nEducation")
	assert.Equal(t, "Experience\n\nEducation", result)
}

func TestCleanText_NormalizesLineEndings(t *testing.T) {
	result := CleanText("Line 1\r\nLine 2\rLine 3\nLine 4")

	assert.NotContains(t, result, "\r")
	assert.Equal(t, "Line 1\nLine 2\nLine 3\nLine 4", result)
}

func TestCleanText_DropsInvalidBytes(t *testing.T) {
	result := CleanText("Plumber\x00 with \xff\xfe10 years")
	assert.Equal(t, "Plumber with 10 years", result)
}

func TestCleanText_Empty(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "", CleanText(" \n\t\n "))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("  a \n\n b\t c  "))
	assert.Equal(t, "", CollapseWhitespace("\n \t"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{name: "shorter than limit", input: "hello", maxLength: 10, want: "hello"},
		{name: "exactly at limit", input: "hello", maxLength: 5, want: "hello"},
		{name: "cut from end", input: "hello world", maxLength: 5, want: "hello"},
		{name: "counts runes not bytes", input: "ñañañaña", maxLength: 3, want: "ñañ"},
		{name: "non-positive limit is no-op", input: "hello", maxLength: 0, want: "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.input, tt.maxLength))
		})
	}
}

func TestTruncate_NeverExceedsLimit(t *testing.T) {
	input := strings.Repeat("é", 1000)
	for _, limit := range []int{1, 7, 50, 999, 1000, 5000} {
		got := Truncate(input, limit)
		assert.LessOrEqual(t, len([]rune(got)), limit)
		assert.True(t, strings.HasPrefix(input, got))
	}
}
