package remotecache

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memMirror struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemMirror() *memMirror { return &memMirror{data: map[string][]byte{}} }

func (m *memMirror) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memMirror) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

type xrefSpec struct {
	UID  string
	Href string
}

func TestCache_PersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	c := Open[xrefSpec]("xref", dir)
	c.Put("System.String", xrefSpec{UID: "System.String", Href: "https://example.com/string"})
	require.NoError(t, c.Save(t.Context()))

	reopened := Open[xrefSpec]("xref", dir)
	v, ok := reopened.Get(t.Context(), "System.String")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/string", v.Href)
	assert.Equal(t, 1, reopened.Len())
}

func TestCache_TTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := Open[string]("users", "", WithTTL(time.Hour), withClock(clock))

	c.Put("a@example.com", "Alice")
	_, ok := c.Get(t.Context(), "a@example.com")
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok = c.Get(t.Context(), "a@example.com")
	assert.False(t, ok)
}

func TestCache_MirrorSharing(t *testing.T) {
	mirror := newMemMirror()
	writer := Open[string]("users", "", WithMirror(mirror))
	writer.Put("a@example.com", "Alice")
	require.NoError(t, writer.Save(t.Context()))

	reader := Open[string]("users", "", WithMirror(mirror))
	v, ok := reader.Get(t.Context(), "a@example.com")
	require.True(t, ok)
	assert.Equal(t, "Alice", v)
	assert.Equal(t, 1, reader.Len())
}

func TestCache_SaveReportsMirrorFailure(t *testing.T) {
	mirror := newMemMirror()
	mirror.err = errors.New("bucket gone")
	c := Open[string]("users", "", WithMirror(mirror))
	c.Put("k", "v")
	require.ErrorContains(t, c.Save(t.Context()), "bucket gone")

	mirror.err = nil
	require.NoError(t, c.Save(t.Context()), "dirty entries are retried")
	assert.Len(t, mirror.data, 1)
}

func TestCache_GetOrFetch(t *testing.T) {
	c := Open[string]("xref", "")
	calls := 0
	fetch := func(context.Context) (string, bool, error) {
		calls++
		return "found", true, nil
	}
	for range 3 {
		v, ok, err := c.GetOrFetch(t.Context(), "uid", fetch)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "found", v)
	}
	assert.Equal(t, 1, calls)

	_, ok, err := c.GetOrFetch(t.Context(), "missing", func(context.Context) (string, bool, error) { return "", false, nil })
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "misses are not cached")
}

func TestEncodeKey_UsesKVAlphabet(t *testing.T) {
	valid := regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)
	for _, key := range []string{"a@example.com", "System.Collections.Generic.List`1", "ümlaut uid"} {
		assert.Regexp(t, valid, encodeKey(key))
	}
}
