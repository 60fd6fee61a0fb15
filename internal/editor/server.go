package editor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsetbuilder/internal/build"
	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
	"git.home.luguber.info/inful/docsetbuilder/internal/metrics"
	"git.home.luguber.info/inful/docsetbuilder/internal/rebuild"
	"git.home.luguber.info/inful/docsetbuilder/internal/version"
)

var (
	// ErrExit reports an exit notification after shutdown.
	ErrExit = errors.New("editor exit")
	// ErrExitWithoutShutdown reports an exit notification without a
	// preceding shutdown request.
	ErrExitWithoutShutdown = errors.New("editor exit without shutdown")
)

// Options configures a Server.
type Options struct {
	// Root is the docset directory served to the editor.
	Root string

	// Window is the rebuild coalescing window. Zero selects the default.
	Window time.Duration

	Recorder metrics.Recorder

	// Handled is passed through to the rebuild trigger.
	Handled func()
}

// Server speaks the language server protocol over a reader and a writer.
type Server struct {
	in  *bufio.Reader
	out *bufio.Writer

	sendMu sync.Mutex

	mu       sync.Mutex
	docs     map[string]string // uri -> text
	uris     map[string]string // absolute path -> uri
	shutdown bool

	root    string
	overlay *docset.Overlay
	trigger *rebuild.Trigger
}

// NewServer creates a server that rebuilds the docset at opts.Root through
// service. Cycles run as dry runs against the open buffers.
func NewServer(in io.Reader, out io.Writer, service build.Service, opts Options) (*Server, error) {
	s := &Server{
		in:      bufio.NewReader(in),
		out:     bufio.NewWriter(out),
		docs:    make(map[string]string),
		uris:    make(map[string]string),
		overlay: docset.NewOverlay(),
	}
	trigger, err := rebuild.New(service, rebuild.Config{
		Root:     opts.Root,
		Window:   opts.Window,
		Overlay:  s.overlay,
		Build:    build.Options{DryRun: true},
		Publish:  s.publish,
		Handled:  opts.Handled,
		Recorder: opts.Recorder,
	})
	if err != nil {
		return nil, err
	}
	s.trigger = trigger
	s.root = trigger.Root()
	return s, nil
}

// Run serves until the input ends, an exit notification arrives or ctx is
// done. A blocked read only returns once the input delivers data or closes.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.trigger.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		return s.serve(gctx)
	})
	err := g.Wait()
	if errors.Is(err, ErrExit) {
		return nil
	}
	return err
}

func (s *Server) serve(ctx context.Context) error {
	for ctx.Err() == nil {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
		var msg message
		if err := json.Unmarshal(payload, &msg); err != nil {
			slog.Warn("Discarding malformed editor message", logfields.Error(err))
			if sendErr := s.sendError(nil, codeParseError, "parse error"); sendErr != nil {
				return sendErr
			}
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handle(&msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handle(msg *message) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		return s.sendResponse(msg.ID, nil)
	case "exit":
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.shutdown {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "textDocument/didOpen":
		var params didOpenParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.invalidParams(msg, err)
		}
		s.update(params.TextDocument.URI, func(string) (string, bool) { return params.TextDocument.Text, true })
		return nil
	case "textDocument/didChange":
		var params didChangeParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.invalidParams(msg, err)
		}
		s.update(params.TextDocument.URI, func(text string) (string, bool) {
			return applyChanges(text, params.ContentChanges), true
		})
		return nil
	case "textDocument/didSave":
		var params didSaveParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.invalidParams(msg, err)
		}
		s.update(params.TextDocument.URI, func(text string) (string, bool) {
			if params.Text != nil {
				return *params.Text, true
			}
			return text, true
		})
		return nil
	case "textDocument/didClose":
		var params didCloseParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.invalidParams(msg, err)
		}
		s.update(params.TextDocument.URI, func(string) (string, bool) { return "", false })
		return nil
	}
	if msg.isRequest() {
		return s.sendError(msg.ID, codeMethodNotFound, "method not found: "+msg.Method)
	}
	return nil
}

func (s *Server) handleInitialize(msg *message) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	if root := uriToPath(params.RootURI); root != "" && root != s.root {
		slog.Info("Editor workspace differs from the served docset",
			slog.String("workspace", root), logfields.Docset(s.root))
	}
	return s.sendResponse(msg.ID, initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    syncIncremental,
				Save:      saveOptions{IncludeText: true},
			},
		},
		ServerInfo: serverInfo{Name: diag.SourceLabel, Version: version.Version},
	})
}

func (s *Server) invalidParams(msg *message, err error) error {
	slog.Warn("Invalid editor notification", slog.String("method", msg.Method), logfields.Error(err))
	if msg.isRequest() {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	return nil
}

// update applies edit to the buffer of uri and signals the trigger. edit
// returns false to close the buffer.
func (s *Server) update(uri string, edit func(text string) (string, bool)) {
	p := uriToPath(uri)
	if p == "" {
		return
	}
	s.mu.Lock()
	text, open := edit(s.docs[uri])
	if open {
		s.docs[uri] = text
		s.uris[p] = uri
	} else {
		delete(s.docs, uri)
	}
	s.mu.Unlock()

	rel, ok := s.relative(p)
	if !ok {
		slog.Debug("Ignoring buffer outside the docset", logfields.File(p))
		return
	}
	if open {
		s.overlay.Set(rel, []byte(text))
	} else {
		s.overlay.Delete(rel)
	}
	s.trigger.Notify(rel)
}

func (s *Server) relative(p string) (string, bool) {
	rel, err := filepath.Rel(s.root, p)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// publish sends the diagnostics of one file.
func (s *Server) publish(file string, diagnostics []diag.Diagnostic) {
	s.mu.Lock()
	uri, ok := s.uris[file]
	if _, open := s.docs[uri]; ok && !open {
		delete(s.uris, file)
	}
	s.mu.Unlock()
	if !ok {
		uri = pathToURI(file)
	}
	if diagnostics == nil {
		diagnostics = []diag.Diagnostic{}
	}
	err := s.notify("textDocument/publishDiagnostics", publishDiagnosticsParams{URI: uri, Diagnostics: diagnostics})
	if err != nil {
		slog.Warn("Publishing diagnostics failed", logfields.File(file), logfields.Error(err))
	}
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	return s.send(map[string]any{"jsonrpc": "2.0", "id": id, "result": result})
}

func (s *Server) sendError(id json.RawMessage, code int, text string) error {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return s.send(map[string]any{"jsonrpc": "2.0", "id": id, "error": responseError{Code: code, Message: text}})
}

func (s *Server) notify(method string, params any) error {
	return s.send(map[string]any{"jsonrpc": "2.0", "method": method, "params": params})
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}
