package github

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

type AuthTokenSource string

const (
	AuthTokenSourceNone     AuthTokenSource = ""
	AuthTokenSourceExplicit AuthTokenSource = "explicit"
	AuthTokenSourceEnv      AuthTokenSource = "env:GITHUB_TOKEN"
	AuthTokenSourceGitHubCL AuthTokenSource = "gh"
)

// ghTokenTimeout bounds `gh auth token` so a broken credential helper cannot
// hang a download.
const ghTokenTimeout = 5 * time.Second

// ResolveAuthToken resolves an optional GitHub access token.
//
// Precedence:
//  1. provided (if non-empty)
//  2. GITHUB_TOKEN env var
//  3. GitHub CLI: `gh auth token -h github.com`
//
// No token is not an error: public schemes download anonymously. The token
// is never logged.
func ResolveAuthToken(ctx context.Context, provided string) (string, AuthTokenSource, error) {
	if tok := strings.TrimSpace(provided); tok != "" {
		return tok, AuthTokenSourceExplicit, nil
	}
	if env := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); env != "" {
		return env, AuthTokenSourceEnv, nil
	}

	tok, err := tokenFromGitHubCLI(ctx)
	if err != nil {
		return "", AuthTokenSourceNone, err
	}
	if tok != "" {
		return tok, AuthTokenSourceGitHubCL, nil
	}
	return "", AuthTokenSourceNone, nil
}

func tokenFromGitHubCLI(ctx context.Context) (string, error) {
	if _, err := exec.LookPath("gh"); err != nil {
		return "", nil
	}

	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, ghTokenTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, "gh", "auth", "token", "-h", "github.com")
	env := make([]string, 0, len(os.Environ())+1)
	for _, entry := range os.Environ() {
		if !strings.HasPrefix(entry, "GH_PAGER=") {
			env = append(env, entry)
		}
	}
	cmd.Env = append(env, "GH_PAGER=cat")

	out, err := cmd.Output()
	if err != nil {
		if cmdCtx.Err() != nil {
			return "", cmdCtx.Err()
		}
		// gh present but logged out: anonymous access.
		return "", nil
	}

	tok := strings.TrimSpace(string(out))
	if strings.ContainsAny(tok, " \t\n\r") {
		return "", errors.New("invalid token returned by gh: contains whitespace")
	}
	return tok, nil
}
