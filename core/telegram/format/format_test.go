package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeAndBold(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; &amp; c", EscapeHTML("a <b> & c"))
	assert.Equal(t, "<b>Tom &amp; Jerry</b>", Bold("Tom & Jerry"))
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "При", Truncate("Привет", 3))
	assert.Equal(t, "short", Truncate("short", 30))
	assert.Equal(t, "", Truncate("x", 0))
}

func TestLinesSkipsEmpty(t *testing.T) {
	assert.Equal(t, "a\nc", Lines("a", "", "c"))
	assert.Equal(t, "fallback", DerefString(nil, "fallback"))
}
