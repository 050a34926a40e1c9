package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"profile-qa/internal/config"
	"profile-qa/internal/models"
	"profile-qa/internal/parser"
)

const (
	acceptHeader = "application/vnd.github.v3+json"
	reposPerPage = 100
)

// UpstreamError reports a failed read from the GitHub API.
type UpstreamError struct {
	Resource   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("github %s: unexpected status %d", e.Resource, e.StatusCode)
	}
	return fmt.Sprintf("github %s: %v", e.Resource, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type Client struct {
	baseURL   string
	token     string
	chunkSize int
	http      *http.Client
}

func NewClient(cfg *config.GitHubConfig, chunkSize int) *Client {
	if chunkSize <= 0 {
		chunkSize = models.MaxChunkSize
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		chunkSize: chunkSize,
		http:      &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchChunks fetches the user's profile and repositories and wraps the
// rendered text into context chunks.
func (c *Client) FetchChunks(ctx context.Context, username string) ([]string, error) {
	profile, repos, err := c.FetchProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	text := RenderProfile(profile, repos)
	chunks := parser.WrapText(text, c.chunkSize)
	log.Debug().Str("username", username).Int("repos", len(repos)).Int("chunks", len(chunks)).Msg("Profile chunked")
	return chunks, nil
}

func (c *Client) FetchProfile(ctx context.Context, username string) (*models.Profile, []models.Repository, error) {
	escaped := url.PathEscape(username)

	var profile models.Profile
	if err := c.get(ctx, "user", "/users/"+escaped, &profile); err != nil {
		return nil, nil, err
	}

	var repos []models.Repository
	reposPath := "/users/" + escaped + "/repos?per_page=" + strconv.Itoa(reposPerPage)
	if err := c.get(ctx, "repos", reposPath, &repos); err != nil {
		return nil, nil, err
	}

	return &profile, repos, nil
}

func (c *Client) get(ctx context.Context, resource, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &UpstreamError{Resource: resource, Err: err}
	}
	req.Header.Set("Accept", acceptHeader)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &UpstreamError{Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warn().Str("resource", resource).Int("status", resp.StatusCode).Str("body", string(body)).Msg("GitHub request failed")
		return &UpstreamError{Resource: resource, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{Resource: resource, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
