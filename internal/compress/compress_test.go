package compress

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollapseWhitespace(t *testing.T) {
	in := "a\n\n\n\n  b\t\t c"
	assert.Equal(t, "a\n\n b c", CollapseWhitespace(in))
}

func TestCompressStopsAfterWhitespace(t *testing.T) {
	in := "alpha" + strings.Repeat(" ", 50) + "beta"
	res, err := New().Compress(in, 0.9)
	require.NoError(t, err)
	assert.Equal(t, "alpha beta", res.Text)
	assert.InDelta(t, float64(len("alpha beta"))/float64(len(in)), res.Ratio, 1e-9)
}

func TestSummarizeCodeBlocks(t *testing.T) {
	var b strings.Builder
	b.WriteString("```python\n")
	b.WriteString("import os\n")
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, "def f%d():\n    x = %d\n", i, i)
	}
	b.WriteString("```")
	out := SummarizeCodeBlocks(b.String())

	assert.True(t, strings.HasPrefix(out, "```python\n"))
	assert.Contains(t, out, "import os")
	assert.Contains(t, out, "def f0():")
	assert.Contains(t, out, "def f5():")
	assert.NotContains(t, out, "def f3():")
	assert.Contains(t, out, "# ... (13 total lines)")
	assert.NotContains(t, out, "x = 2")
}

func TestSummarizeShortBlockUntouched(t *testing.T) {
	block := "```go\nfunc main() {}\n```"
	assert.Equal(t, block, SummarizeCodeBlocks(block))
}

func TestExtractKeyLines(t *testing.T) {
	long := strings.Repeat("x", 150)
	in := "chatter\nERROR: disk full\n\nmore chatter\n" + long + "\nbuild completed"
	out := ExtractKeyLines(in)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ERROR: disk full", lines[0])
	assert.Equal(t, strings.Repeat("x", 97)+"...", lines[1])
	assert.Equal(t, "build completed", lines[2])
}

func TestExtractKeyLinesElidesMiddle(t *testing.T) {
	var lines []string
	for i := 0; i < 80; i++ {
		lines = append(lines, fmt.Sprintf("note %d", i))
	}
	out := strings.Split(ExtractKeyLines(strings.Join(lines, "\n")), "\n")
	require.Len(t, out, 51)
	assert.Equal(t, "note 0", out[0])
	assert.Equal(t, "...", out[25])
	assert.Equal(t, "note 79", out[50])
}

func TestCompressReachesLowRatio(t *testing.T) {
	in := strings.Repeat("some ordinary log line without keywords\n", 40) + "error: boom\n"
	res, err := New().Compress(in, SummaryRatio)
	require.NoError(t, err)
	assert.Equal(t, "error: boom", res.Text)
	assert.Less(t, res.Ratio, SummaryRatio)
}

func TestCompressEmptyResult(t *testing.T) {
	in := strings.Repeat("plain words here\n", 20)
	res, err := New().Compress(in, 0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyResult))
	assert.Equal(t, in, res.Text)
	assert.Equal(t, 1.0, res.Ratio)
}

func TestCompressEmptyInput(t *testing.T) {
	res, err := New().Compress("", 0.5)
	require.NoError(t, err)
	assert.Equal(t, "", res.Text)
	assert.Equal(t, 1.0, res.Ratio)
}

func TestCompressIdempotentOnMinimal(t *testing.T) {
	c := New()
	in := "error: build failed\nwarning: deprecated api\nsuccess"
	first, err := c.Compress(in, SummaryRatio)
	require.NoError(t, err)
	second, err := c.Compress(first.Text, SummaryRatio)
	require.NoError(t, err)
	assert.Equal(t, first.Text, second.Text)
}

func TestRecompressingElidedTextIsStable(t *testing.T) {
	filler := strings.Repeat("lorem ipsum ", 12)
	var lines []string
	for i := 0; i < 80; i++ {
		lines = append(lines, fmt.Sprintf("note %d", i), filler)
	}
	c := New()
	first, err := c.Compress(strings.Join(lines, "\n"), SummaryRatio)
	require.NoError(t, err)
	require.Contains(t, first.Text, "\n...\n")

	second, err := c.Compress(first.Text, SummaryRatio)
	require.NoError(t, err)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1.0, second.Ratio)
}

func TestDecompressIsIdentity(t *testing.T) {
	assert.Equal(t, "abc", Decompress("abc"))
}
