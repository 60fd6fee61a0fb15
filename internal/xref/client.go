// Package xref resolves cross-reference uids against external services.
package xref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsetbuilder/internal/config"
	"git.home.luguber.info/inful/docsetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/docsetbuilder/internal/remotecache"
	"git.home.luguber.info/inful/docsetbuilder/internal/retry"
)

// CacheName names the remote cache holding resolved uids.
const CacheName = "xref"

// Spec is the reply of a cross-reference service for one uid.
type Spec struct {
	UID  string `json:"uid"`
	Href string `json:"href"`
	Name string `json:"name,omitempty"`
}

// Client queries services in order and caches found hrefs. A service is
// asked with GET <service>?uid=<uid>; 404 means unknown.
type Client struct {
	services   []string
	httpClient *http.Client
	policy     retry.Policy
	cache      *remotecache.Cache[string]
}

// NewClient creates a client for the configured services. cache may be nil.
func NewClient(cfg config.XrefConfig, cache *remotecache.Cache[string]) *Client {
	return &Client{
		services:   cfg.Services,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout()},
		policy:     retry.NewPolicy(retry.Mode(cfg.Backoff), 200*time.Millisecond, 5*time.Second, cfg.Retries),
		cache:      cache,
	}
}

// Resolve returns the href of uid. Service failures count as not found.
func (c *Client) Resolve(ctx context.Context, uid string) (string, bool) {
	fetch := func(ctx context.Context) (string, bool, error) {
		for _, service := range c.services {
			spec, found, err := c.query(ctx, service, uid)
			if err != nil {
				slog.Warn("Cross reference service failed", slog.String("service", service), slog.String("uid", uid), slog.String("error", err.Error()))
				continue
			}
			if found {
				return spec.Href, true, nil
			}
		}
		return "", false, nil
	}
	if c.cache == nil {
		href, ok, _ := fetch(ctx)
		return href, ok
	}
	href, ok, _ := c.cache.GetOrFetch(ctx, uid, fetch)
	return href, ok
}

func (c *Client) query(ctx context.Context, service, uid string) (Spec, bool, error) {
	u, err := url.Parse(service)
	if err != nil {
		return Spec{}, false, errors.NetworkError("invalid service URL").WithCause(err).WithContext("url", service).Build()
	}
	q := u.Query()
	q.Set("uid", uid)
	u.RawQuery = q.Encode()

	var spec Spec
	var found bool
	err = c.policy.Do(ctx, func(ctx context.Context) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return false, err
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return true, errors.NetworkError("failed to execute xref request").WithCause(err).WithContext("url", u.String()).Build()
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return false, nil
		case resp.StatusCode >= 400:
			limited, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
				errors.NetworkError(fmt.Sprintf("xref service error: %s", resp.Status)).
					WithContext("url", u.String()).
					WithContext("response", strings.ReplaceAll(string(limited), "\n", " ")).
					Build()
		}
		if err := json.NewDecoder(resp.Body).Decode(&spec); err != nil {
			return false, errors.NetworkError("invalid xref response").WithCause(err).WithContext("url", u.String()).Build()
		}
		found = spec.Href != ""
		return false, nil
	})
	return spec, found, err
}
