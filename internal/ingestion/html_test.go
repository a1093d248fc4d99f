package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLText_StripsScriptsAndStyles(t *testing.T) {
	page := `<html><head>
<style>body { color: red; }</style>
<script>window.track("visit");</script>
</head><body>
<noscript>Enable JavaScript</noscript>
<h1>Acme   Electric</h1>
<p>Licensed and insured electricians serving <b>Denver</b> since 1998.</p>
</body></html>`

	text, err := HTMLText(page)
	require.NoError(t, err)

	assert.Contains(t, text, "Acme Electric")
	assert.Contains(t, text, "Licensed and insured electricians serving Denver since 1998.")
	assert.NotContains(t, text, "color")
	assert.NotContains(t, text, "track")
	assert.NotContains(t, text, "Enable JavaScript")
	assert.NotContains(t, text, "  ")
	assert.NotContains(t, text, "\n")
}

func TestHTMLText_SeparatesBlocks(t *testing.T) {
	text, err := HTMLText(`<ul><li>Wiring</li><li>Panels</li></ul>`)
	require.NoError(t, err)
	assert.Equal(t, "Wiring Panels", text)
}

func TestHTMLText_OnlyMarkup(t *testing.T) {
	text, err := HTMLText(`<html><body><script>var x = 1;</script></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, text)
}
