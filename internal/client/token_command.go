package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// defaultCommandTokenLifetime applies to token commands that print a bare
// token without an expiry.
const defaultCommandTokenLifetime = 5 * time.Minute

type commandToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// CommandTokenSource runs command through the shell and reads a token from
// its standard output: either {"access_token": ..., "expires_in": seconds}
// or a bare token.
func CommandTokenSource(command string) TokenSource {
	return func(ctx context.Context) (string, time.Time, error) {
		var stdout, stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return "", time.Time{}, fmt.Errorf("token command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return parseTokenOutput(stdout.Bytes(), time.Now())
	}
}

func parseTokenOutput(out []byte, now time.Time) (string, time.Time, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return "", time.Time{}, errors.New("token command printed nothing")
	}
	if trimmed[0] != '{' {
		return string(trimmed), now.Add(defaultCommandTokenLifetime), nil
	}

	var tok commandToken
	if err := json.Unmarshal(trimmed, &tok); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode token command output: %w", err)
	}
	lifetime := defaultCommandTokenLifetime
	if tok.ExpiresIn > 0 {
		lifetime = time.Duration(tok.ExpiresIn) * time.Second
	}
	return tok.AccessToken, now.Add(lifetime), nil
}

// NewCredentials picks the service credentials: tokens from tokenCommand,
// cached until a minute before expiry, when it is set, and the static API
// key otherwise.
func NewCredentials(apiKey, tokenCommand string) CredentialProvider {
	if tokenCommand != "" {
		return NewCachedTokenCredentials(CommandTokenSource(tokenCommand), time.Minute)
	}
	return BearerToken(apiKey)
}
