package editor

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	ferrors "git.home.luguber.info/inful/docsetbuilder/internal/foundation/errors"
)

// maxMessageSize bounds a single incoming message.
const maxMessageSize = 64 << 20

// readMessage reads one Content-Length framed payload.
func readMessage(r *bufio.Reader) ([]byte, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return nil, ferrors.ProtocolError(fmt.Sprintf("invalid Content-Length %q", strings.TrimSpace(value))).Build()
		}
		length = n
	}
	if length < 0 {
		return nil, ferrors.ProtocolError("missing Content-Length header").Build()
	}
	if length > maxMessageSize {
		return nil, ferrors.ProtocolError(fmt.Sprintf("message of %d bytes exceeds limit", length)).Build()
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// writeMessage frames payload and writes it to w.
func writeMessage(w io.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
