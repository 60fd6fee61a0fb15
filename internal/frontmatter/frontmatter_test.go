package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nkey: value\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_CRLF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyBlockAndTrailingDelimiter(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\nbody"))
	require.NoError(t, err)
	assert.True(t, had)
	assert.Empty(t, fm)
	assert.Equal(t, []byte("body"), body)

	fm, body, had, err = Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, []byte("title: x\n"), fm)
	assert.Empty(t, body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
	require.False(t, had)
}

func TestParse_FieldsAndBodyLine(t *testing.T) {
	page, err := Parse([]byte("---\ntitle: Hello\nuid: guide.hello\n---\n# Body\n"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", page.Title())
	assert.Equal(t, "guide.hello", page.UID())
	assert.Equal(t, 5, page.BodyLine)
	assert.Equal(t, []byte("# Body\n"), page.Body)

	plain, err := Parse([]byte("# Body\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, plain.BodyLine)
	assert.Empty(t, plain.Title())
}

func TestParse_SyntaxErrorIsPositioned(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: ok\nbad: [unclosed\n---\n"))
	var syntax *SyntaxError
	require.ErrorAs(t, err, &syntax)
	assert.GreaterOrEqual(t, syntax.Line, 2)
	assert.NotEmpty(t, syntax.Message)
}

func TestFingerprint_IgnoresVolatileFields(t *testing.T) {
	a, err := Parse([]byte("---\ntitle: Hello\nuid: one\nlastmod: 2024-01-01\n---\nbody\n"))
	require.NoError(t, err)
	b, err := Parse([]byte("---\ntitle: Hello\nuid: two\n---\nbody\n"))
	require.NoError(t, err)
	c, err := Parse([]byte("---\ntitle: Changed\n---\nbody\n"))
	require.NoError(t, err)

	ha, err := Fingerprint(a)
	require.NoError(t, err)
	hb, err := Fingerprint(b)
	require.NoError(t, err)
	hc, err := Fingerprint(c)
	require.NoError(t, err)

	assert.NotEmpty(t, ha)
	assert.Equal(t, ha, hb)
	assert.NotEqual(t, ha, hc)
}
