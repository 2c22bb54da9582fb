// Package github is a minimal GitHub REST client covering what the
// reporting pipeline needs: workflow-job step lookup for execution
// windows, and issue comments plus the job summary file for delivery.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"runmeter.sh/internal/retry"
	"runmeter.sh/telemetry"
)

const defaultBaseURL = "https://api.github.com"

// Client talks to the GitHub REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewClient returns a REST client. An empty baseURL targets the public
// API; token may be empty for unauthenticated reads.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		retryCfg: retry.RemoteAPIConfig(),
	}
}

// Job is one workflow job with its executed steps.
type Job struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Step is one executed step of a workflow job. Timestamps are absent
// until the runner records them.
type Step struct {
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ListWorkflowJobs returns the jobs of a workflow run, steps included.
func (c *Client) ListWorkflowJobs(ctx context.Context, owner, repo string, runID int64) ([]Job, error) {
	var out struct {
		Jobs []Job `json:"jobs"`
	}

	path := fmt.Sprintf("/repos/%s/%s/actions/runs/%d/jobs?per_page=100", owner, repo, runID)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// CreateIssueComment posts a comment on an issue or pull request.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("failed to marshal comment: %w", err)
	}

	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number)
	return c.post(ctx, path, payload)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return retry.DoWithRetryable(ctx, c.retryCfg, retry.HTTPRetryable, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		c.decorate(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("github request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: %w", path, &retry.StatusError{Service: "github", Code: resp.StatusCode})
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode github response: %w", err)
		}
		return nil
	})
}

func (c *Client) post(ctx context.Context, path string, payload []byte) error {
	return retry.DoWithRetryable(ctx, c.retryCfg, retry.HTTPRetryable, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		c.decorate(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("github request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%s: %w", path, &retry.StatusError{Service: "github", Code: resp.StatusCode})
		}
		return nil
	})
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// StepFinder adapts the jobs API to the window resolver: it scans a
// run's jobs for the named step. A nil result means no such step carries
// usable timestamps yet.
type StepFinder struct {
	Client *Client
	Owner  string
	Repo   string
	RunID  int64

	// JobName restricts the scan to one job when set; useful when
	// parallel jobs share step names.
	JobName string
}

func (f *StepFinder) FindStep(ctx context.Context, name string) (*telemetry.Step, error) {
	jobs, err := f.Client.ListWorkflowJobs(ctx, f.Owner, f.Repo, f.RunID)
	if err != nil {
		return nil, err
	}

	for _, job := range jobs {
		if f.JobName != "" && job.Name != f.JobName {
			continue
		}
		for _, step := range job.Steps {
			if step.Name != name || step.StartedAt == nil || step.CompletedAt == nil {
				continue
			}
			return &telemetry.Step{
				Name:        step.Name,
				StartedAt:   *step.StartedAt,
				CompletedAt: *step.CompletedAt,
			}, nil
		}
	}
	return nil, nil
}

// AppendJobSummary appends markdown to the runner's job summary file.
func AppendJobSummary(markdown string) error {
	path := os.Getenv("GITHUB_STEP_SUMMARY")
	if path == "" {
		return fmt.Errorf("GITHUB_STEP_SUMMARY is not set")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open job summary: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(markdown + "\n"); err != nil {
		return fmt.Errorf("failed to append job summary: %w", err)
	}
	return nil
}

// SplitRepository splits an "owner/name" slug as found in
// GITHUB_REPOSITORY.
func SplitRepository(slug string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("malformed repository slug %q", slug)
	}
	return owner, repo, nil
}
