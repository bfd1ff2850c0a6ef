// Package github wraps the GitHub API client used to download reference
// schemes published in repositories.
package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"occubench/internal/logging"

	"github.com/google/go-github/v81/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

type options struct {
	logger *zap.Logger
}

type Option func(*options)

// WithLogger routes one debug line per request and response through l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// loggingRoundTripper emits one debug line per request and response,
// including latency.
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger *zap.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug("http request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.logger.Debug("http error", zap.Duration("after", dur), zap.Error(err))
	} else {
		t.logger.Debug("http response", zap.Int("status", resp.StatusCode), zap.Duration("after", dur))
	}
	return resp, err
}

// NewClient builds a GitHub client. An empty token yields an
// unauthenticated client, which is enough for public repositories.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	var transport http.RoundTripper = &loggingRoundTripper{
		base:   http.DefaultTransport,
		logger: logging.OrNop(o.logger),
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	tc := &http.Client{Transport: transport}

	return &Client{
		Client: github.NewClient(tc),
		HTTP:   tc,
	}, nil
}

// DownloadFile streams a file from a repository at ref (default branch when
// ref is empty). The caller closes the returned reader.
func (c *Client) DownloadFile(ctx context.Context, owner, repo, path, ref string) (io.ReadCloser, error) {
	if c == nil || c.Client == nil {
		return nil, fmt.Errorf("download %s/%s/%s: nil GitHub client (use NewClient)", owner, repo, path)
	}
	path = strings.TrimPrefix(path, "/")
	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}
	rc, _, err := c.Client.Repositories.DownloadContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s/%s: %w", owner, repo, path, err)
	}
	return rc, nil
}
