package editor

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsetbuilder/internal/build"
	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
)

type session struct {
	t    *testing.T
	in   *io.PipeWriter
	msgs chan message
	done chan error
}

func startSession(t *testing.T, root string) *session {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	srv, err := NewServer(inR, outW, build.NewBuilder(build.WithSummaryWriter(nil)), Options{
		Root:   root,
		Window: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	s := &session{t: t, in: inW, msgs: make(chan message, 64), done: make(chan error, 1)}
	go func() {
		s.done <- srv.Run(t.Context())
		outW.Close()
	}()
	go func() {
		r := bufio.NewReader(outR)
		for {
			payload, err := readMessage(r)
			if err != nil {
				close(s.msgs)
				return
			}
			var msg message
			if json.Unmarshal(payload, &msg) == nil {
				s.msgs <- msg
			}
		}
	}()
	t.Cleanup(func() { inW.Close() })
	return s
}

func (s *session) send(msg map[string]any) {
	s.t.Helper()
	msg["jsonrpc"] = "2.0"
	payload, err := json.Marshal(msg)
	require.NoError(s.t, err)
	require.NoError(s.t, writeMessage(s.in, payload))
}

// next returns the next message matching match.
func (s *session) next(match func(message) bool) message {
	s.t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-s.msgs:
			require.True(s.t, ok, "output closed")
			if match(msg) {
				return msg
			}
		case <-timeout:
			s.t.Fatal("timed out waiting for message")
		}
	}
}

func (s *session) response(id int) message {
	want, _ := json.Marshal(id)
	return s.next(func(m message) bool { return string(m.ID) == string(want) })
}

func (s *session) diagnostics(uri string) []diag.Diagnostic {
	msg := s.next(func(m message) bool {
		if m.Method != "textDocument/publishDiagnostics" {
			return false
		}
		var p publishDiagnosticsParams
		return json.Unmarshal(m.Params, &p) == nil && p.URI == uri
	})
	var p publishDiagnosticsParams
	require.NoError(s.t, json.Unmarshal(msg.Params, &p))
	return p.Diagnostics
}

func codesOf(ds []diag.Diagnostic) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

func TestServer_Session(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.md"), []byte("# B\n"), 0o600))
	s := startSession(t, root)

	s.send(map[string]any{"id": 1, "method": "initialize", "params": map[string]any{"rootUri": pathToURI(root)}})
	initResp := s.response(1)
	require.Nil(t, initResp.Error)
	var result initializeResult
	require.NoError(t, json.Unmarshal(initResp.Result, &result))
	assert.Equal(t, syncIncremental, result.Capabilities.TextDocumentSync.Change)
	assert.Equal(t, diag.SourceLabel, result.ServerInfo.Name)
	s.send(map[string]any{"method": "initialized", "params": map[string]any{}})

	uri := pathToURI(filepath.Join(root, "a.md"))
	s.send(map[string]any{"method": "textDocument/didOpen", "params": map[string]any{
		"textDocument": map[string]any{"uri": uri, "languageId": "markdown", "version": 1, "text": "no title\n\n[x](gone.md)\n"},
	}})
	got := s.diagnostics(uri)
	assert.ElementsMatch(t, []string{diag.CodeTitleMissing, diag.CodeFileNotFound}, codesOf(got))
	for _, d := range got {
		if d.Code == diag.CodeFileNotFound {
			assert.Equal(t, uint32(2), d.Range.Start.Line)
			assert.Equal(t, diag.SeverityWarning, d.Severity)
		}
	}

	s.send(map[string]any{"method": "textDocument/didChange", "params": map[string]any{
		"textDocument":   map[string]any{"uri": uri, "version": 2},
		"contentChanges": []map[string]any{{"text": "# A\n\n[x](b.md)\n"}},
	}})
	assert.Empty(t, s.diagnostics(uri))

	s.send(map[string]any{"method": "textDocument/didClose", "params": map[string]any{
		"textDocument": map[string]any{"uri": uri},
	}})
	assert.Empty(t, s.diagnostics(uri))

	s.send(map[string]any{"id": 2, "method": "textDocument/hover", "params": map[string]any{}})
	unknown := s.response(2)
	require.NotNil(t, unknown.Error)
	assert.Equal(t, codeMethodNotFound, unknown.Error.Code)

	s.send(map[string]any{"id": 3, "method": "shutdown"})
	require.Nil(t, s.response(3).Error)
	s.send(map[string]any{"method": "exit"})

	select {
	case err := <-s.done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not exit")
	}
	assert.NoDirExists(t, filepath.Join(root, "_site"))
}

func TestServer_ExitWithoutShutdown(t *testing.T) {
	s := startSession(t, t.TempDir())
	s.send(map[string]any{"method": "exit"})
	select {
	case err := <-s.done:
		require.ErrorIs(t, err, ErrExitWithoutShutdown)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not exit")
	}
}

func TestServer_EndOfInputStops(t *testing.T) {
	s := startSession(t, t.TempDir())
	require.NoError(t, s.in.Close())
	select {
	case err := <-s.done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_IgnoresBuffersOutsideRoot(t *testing.T) {
	root := t.TempDir()
	srv, err := NewServer(nil, io.Discard, build.NewBuilder(build.WithSummaryWriter(nil)), Options{Root: root})
	require.NoError(t, err)

	srv.update(pathToURI(filepath.Join(t.TempDir(), "x.md")), func(string) (string, bool) { return "x", true })
	srv.update(pathToURI(filepath.Join(root, "sub", "y.md")), func(string) (string, bool) { return "y", true })
	assert.Equal(t, []string{"sub/y.md"}, srv.overlay.Paths())
}
