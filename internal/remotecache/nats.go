package remotecache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSMirror mirrors caches into a JetStream key-value bucket so that
// several builders can share remote lookups.
type NATSMirror struct {
	conn *nats.Conn
	kv   jetstream.KeyValue
}

// ConnectNATS connects to url and opens or creates bucket.
func ConnectNATS(ctx context.Context, url, bucket string) (*NATSMirror, error) {
	conn, err := nats.Connect(url, nats.Name("docsetbuilder"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := js.KeyValue(ctx, bucket)
	if err != nil {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "Remote lookup cache for docsetbuilder",
			MaxBytes:    64 * 1024 * 1024,
			History:     1,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create KV bucket: %w", err)
		}
		slog.Info("Created KV bucket for remote caches", slog.String("bucket", bucket))
	}
	return &NATSMirror{conn: conn, kv: kv}, nil
}

// Get returns the value stored under key.
func (m *NATSMirror) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	e, err := m.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return e.Value(), true, nil
}

// Put stores value under key.
func (m *NATSMirror) Put(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := m.kv.Put(ctx, key, value)
	return err
}

// Close drains the connection.
func (m *NATSMirror) Close() {
	if m == nil || m.conn == nil {
		return
	}
	if err := m.conn.Drain(); err != nil {
		m.conn.Close()
	}
}

// encodeKey maps arbitrary keys (uids, e-mail addresses) onto the KV key
// alphabet.
func encodeKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}
