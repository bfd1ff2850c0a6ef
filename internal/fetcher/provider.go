package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
)

// Provider opens the remote bytes of a source. Providers are registered by
// scheme at init time.
type Provider interface {
	Scheme() string
	Open(ctx context.Context, src Source, f *Fetcher) (io.ReadCloser, error)
}

var (
	providerRegistry = make(map[string]Provider)
	providerMu       sync.RWMutex
)

func RegisterProvider(p Provider) {
	if p == nil {
		panic("provider is nil")
	}
	s := p.Scheme()
	if s == "" {
		panic("provider scheme is empty")
	}

	providerMu.Lock()
	defer providerMu.Unlock()
	if _, exists := providerRegistry[s]; exists {
		panic(fmt.Sprintf("provider %s already registered", s))
	}
	providerRegistry[s] = p
}

func ResolveProvider(scheme string) (Provider, bool) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	p, ok := providerRegistry[scheme]
	return p, ok
}

func ProviderSchemes() []string {
	providerMu.RLock()
	defer providerMu.RUnlock()
	out := make([]string, 0, len(providerRegistry))
	for s := range providerRegistry {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func init() {
	RegisterProvider(httpProvider{})
	RegisterProvider(githubProvider{})
}

type httpProvider struct{}

func (httpProvider) Scheme() string { return SchemeHTTP }

func (httpProvider) Open(ctx context.Context, src Source, f *Fetcher) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.HTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", src.URL, resp.Status)
	}
	return resp.Body, nil
}

type githubProvider struct{}

func (githubProvider) Scheme() string { return SchemeGitHub }

func (githubProvider) Open(ctx context.Context, src Source, f *Fetcher) (io.ReadCloser, error) {
	client := f.GitHub()
	if client == nil {
		return nil, fmt.Errorf("github source %s: no GitHub client configured", src)
	}
	return client.DownloadFile(ctx, src.Owner, src.Repo, src.Path, src.Ref)
}
