// Package fetcher downloads reference files (classification schemes) from
// HTTP URLs or GitHub repositories into a local cache directory.
package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	gh "occubench/internal/github"
	"occubench/internal/logging"

	"go.uber.org/zap"
)

type Fetcher struct {
	dir     string
	client  *gh.Client
	http    *http.Client
	refresh bool
	logger  *zap.Logger
	group   Group
	cache   *Cache
}

type Option func(*Fetcher)

func WithGitHubClient(c *gh.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.http = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithRefresh ignores files already present in the cache directory. The
// in-process memo still applies.
func WithRefresh(refresh bool) Option {
	return func(f *Fetcher) { f.refresh = refresh }
}

func NewFetcher(dir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		dir:   dir,
		cache: NewCache(),
	}
	for _, apply := range opts {
		if apply != nil {
			apply(f)
		}
	}
	f.logger = logging.OrNop(f.logger)
	return f
}

// DefaultCacheDir is the per-user directory downloads land in.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "occubench", "schemes"), nil
}

func (f *Fetcher) GitHub() *gh.Client {
	return f.client
}

func (f *Fetcher) HTTPClient() *http.Client {
	if f.http != nil {
		return f.http
	}
	if f.client != nil && f.client.HTTP != nil {
		return f.client.HTTP
	}
	return http.DefaultClient
}

// Fetch returns a local path holding the source's bytes. File sources are
// returned as-is after a stat. Remote sources are downloaded once per process
// (concurrent callers share one download) and reused from the cache
// directory across runs unless refresh is set.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("Fetch: nil context")
	}
	if f == nil || f.cache == nil {
		return "", fmt.Errorf("Fetch: nil Fetcher (use NewFetcher)")
	}

	if src.Scheme == SchemeFile || src.Scheme == "" {
		if _, err := os.Stat(src.Path); err != nil {
			return "", fmt.Errorf("Fetch %s: %w", src.Path, err)
		}
		return src.Path, nil
	}

	provider, ok := ResolveProvider(src.Scheme)
	if !ok {
		return "", fmt.Errorf("unsupported source scheme: %s", src.Scheme)
	}
	if f.dir == "" {
		return "", fmt.Errorf("Fetch %s: no cache directory configured", src)
	}

	key := src.Key()
	if p, ok := f.cache.Get(key); ok {
		return p, nil
	}

	p, err, _ := f.group.Do(key, func() (string, error) {
		return f.download(ctx, provider, src)
	})
	if err != nil {
		return "", err
	}
	f.cache.Set(key, p)
	return p, nil
}

// LocalPath is where src is stored inside the cache directory.
func (f *Fetcher) LocalPath(src Source) string {
	sum := sha256.Sum256([]byte(src.Key()))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:6])+"-"+src.BaseName())
}

func (f *Fetcher) download(ctx context.Context, provider Provider, src Source) (string, error) {
	dest := f.LocalPath(src)
	if !f.refresh {
		if st, err := os.Stat(dest); err == nil && st.Mode().IsRegular() {
			f.logger.Debug("cache hit", zap.String("source", src.String()), zap.String("path", dest))
			return dest, nil
		}
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	f.logger.Debug("downloading", zap.String("source", src.String()))
	rc, err := provider.Open(ctx, src, f)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", src, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(f.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	n, copyErr := io.Copy(tmp, rc)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("fetch %s: %w", src, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("store %s: %w", src, err)
	}

	f.logger.Debug("downloaded", zap.String("source", src.String()), zap.String("path", dest), zap.Int64("bytes", n))
	return dest, nil
}
