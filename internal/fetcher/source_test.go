package fetcher

import "testing"

func TestParseSource(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Source
		wantErr bool
	}{
		{
			name: "github with ref",
			raw:  "github:acme/codes/schemes/isco08.xlsx@v1.2",
			want: Source{Scheme: SchemeGitHub, Owner: "acme", Repo: "codes", Path: "schemes/isco08.xlsx", Ref: "v1.2"},
		},
		{
			name: "github default branch",
			raw:  "github:acme/codes/isco08.csv",
			want: Source{Scheme: SchemeGitHub, Owner: "acme", Repo: "codes", Path: "isco08.csv"},
		},
		{
			name: "https",
			raw:  "https://example.org/isco/isco08.xlsx",
			want: Source{Scheme: SchemeHTTP, URL: "https://example.org/isco/isco08.xlsx", Path: "/isco/isco08.xlsx"},
		},
		{
			name: "file prefix",
			raw:  "file:data/isco08.xlsx",
			want: Source{Scheme: SchemeFile, Path: "data/isco08.xlsx"},
		},
		{
			name: "bare path",
			raw:  " data/isco08.xlsx ",
			want: Source{Scheme: SchemeFile, Path: "data/isco08.xlsx"},
		},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "github missing path", raw: "github:acme/codes", wantErr: true},
		{name: "github empty ref", raw: "github:acme/codes/a.csv@", wantErr: true},
		{name: "url without host", raw: "https:///x.csv", wantErr: true},
		{name: "empty file", raw: "file:", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSource(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSource(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseSource(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSource_KeyAndBaseName(t *testing.T) {
	a, _ := ParseSource("github:Acme/Codes/isco08.xlsx@main")
	b, _ := ParseSource("github:acme/codes/isco08.xlsx@main")
	if a.Key() != b.Key() {
		t.Errorf("owner/repo should be case insensitive: %q vs %q", a.Key(), b.Key())
	}
	c, _ := ParseSource("github:acme/codes/ISCO08.xlsx@main")
	if a.Key() == c.Key() {
		t.Errorf("paths should be case sensitive")
	}
	if got := a.BaseName(); got != "isco08.xlsx" {
		t.Errorf("BaseName = %q", got)
	}
	if got := a.String(); got != "github:Acme/Codes/isco08.xlsx@main" {
		t.Errorf("String = %q", got)
	}

	u, _ := ParseSource("https://example.org/")
	if got := u.BaseName(); got != "download" {
		t.Errorf("BaseName for bare host = %q, want download", got)
	}
}
