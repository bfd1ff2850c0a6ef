package fetcher

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

const (
	SchemeFile   = "file"
	SchemeHTTP   = "http"
	SchemeGitHub = "github"
)

// Source locates a remote or local file.
//
// Accepted forms:
//
//	github:owner/repo/path/to/file.xlsx[@ref]
//	https://host/path/file.csv
//	file:relative/or/absolute/path
//	relative/or/absolute/path
type Source struct {
	Scheme string

	// URL is set for http sources.
	URL string

	// Owner, Repo, Path and Ref are set for github sources. Path is also
	// the local path of file sources.
	Owner string
	Repo  string
	Path  string
	Ref   string
}

func ParseSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Source{}, fmt.Errorf("empty source")
	}

	switch {
	case strings.HasPrefix(raw, "github:"):
		return parseGitHub(strings.TrimPrefix(raw, "github:"))
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Source{}, fmt.Errorf("invalid url %q: %w", raw, err)
		}
		if u.Host == "" {
			return Source{}, fmt.Errorf("invalid url %q: missing host", raw)
		}
		return Source{Scheme: SchemeHTTP, URL: u.String(), Path: u.Path}, nil
	case strings.HasPrefix(raw, "file:"):
		raw = strings.TrimPrefix(raw, "file:")
		if raw == "" {
			return Source{}, fmt.Errorf("empty file source")
		}
	}
	return Source{Scheme: SchemeFile, Path: raw}, nil
}

func parseGitHub(spec string) (Source, error) {
	ref := ""
	if at := strings.LastIndex(spec, "@"); at >= 0 {
		ref = spec[at+1:]
		spec = spec[:at]
		if ref == "" {
			return Source{}, fmt.Errorf("invalid github source: empty ref")
		}
	}
	parts := strings.SplitN(spec, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || strings.Trim(parts[2], "/") == "" {
		return Source{}, fmt.Errorf("invalid github source %q (want github:owner/repo/path[@ref])", spec)
	}
	return Source{
		Scheme: SchemeGitHub,
		Owner:  parts[0],
		Repo:   parts[1],
		Path:   strings.Trim(parts[2], "/"),
		Ref:    ref,
	}, nil
}

// Key identifies the source for caching. Owner and repo are case
// insensitive on GitHub; paths are not.
func (s Source) Key() string {
	switch s.Scheme {
	case SchemeGitHub:
		return SchemeGitHub + ":" + strings.ToLower(s.Owner) + "/" + strings.ToLower(s.Repo) + "/" + s.Path + "@" + s.Ref
	case SchemeHTTP:
		return s.URL
	default:
		return SchemeFile + ":" + filepath.Clean(s.Path)
	}
}

// BaseName is the file name the source would be stored under.
func (s Source) BaseName() string {
	var name string
	if s.Scheme == SchemeFile {
		name = filepath.Base(s.Path)
	} else {
		name = path.Base(s.Path)
	}
	if name == "" || name == "." || name == "/" {
		return "download"
	}
	return name
}

func (s Source) String() string {
	switch s.Scheme {
	case SchemeGitHub:
		out := "github:" + s.Owner + "/" + s.Repo + "/" + s.Path
		if s.Ref != "" {
			out += "@" + s.Ref
		}
		return out
	case SchemeHTTP:
		return s.URL
	default:
		return s.Path
	}
}
