// Package poll implements the client side of the badge contract: classify a
// status payload and re-poll at a fixed interval until a terminal state.
package poll

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// State is the badge state derived from one status response.
type State int

const (
	// StateUnavailable means no record exists for the commit.
	StateUnavailable State = iota
	// StateQueued means the job is waiting for a concurrency slot.
	StateQueued
	// StateRunning means the checker is evaluating the commit.
	StateRunning
	// StateMetaInconsistent means the meta-model is inconsistent; constraints
	// were not evaluated.
	StateMetaInconsistent
	// StateViolation means at least one constraint is violated.
	StateViolation
	// StateClean means the commit passed all constraints.
	StateClean
)

func (s State) String() string {
	switch s {
	case StateUnavailable:
		return "unavailable"
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateMetaInconsistent:
		return "meta-inconsistent"
	case StateViolation:
		return "violation"
	case StateClean:
		return "clean"
	default:
		return "unknown"
	}
}

// Terminal reports whether polling should stop in this state.
func (s State) Terminal() bool {
	return s != StateQueued && s != StateRunning
}

// Status mirrors the JSON body of the status endpoint.
type Status struct {
	Exists           bool `json:"exists"`
	IsRunning        bool `json:"isRunning"`
	IsQueued         bool `json:"isQueued"`
	MetaInconsistent bool `json:"metaInconsistent"`
	HasViolation     bool `json:"hasViolation"`
}

// Classify maps a status payload onto a badge state. At most one of
// isQueued/isRunning is ever set, so the order below is not load-bearing
// between the two.
func Classify(s Status) State {
	switch {
	case !s.Exists:
		return StateUnavailable
	case s.IsRunning:
		return StateRunning
	case s.IsQueued:
		return StateQueued
	case s.MetaInconsistent:
		return StateMetaInconsistent
	case s.HasViolation:
		return StateViolation
	default:
		return StateClean
	}
}

// Client polls a constraint-warden instance.
type Client struct {
	// BaseURL is the server origin, e.g. "http://localhost:8080".
	BaseURL string
	// HookID is the hook identifier the routes are rooted at.
	HookID string
	// Interval between polls. Zero defaults to one second.
	Interval time.Duration
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Status fetches the current badge status for one commit. The commit hash
// may be passed with or without the leading marker.
func (c *Client) Status(ctx context.Context, owner, project, commitHash string) (Status, error) {
	url := fmt.Sprintf("%s/%s/%s/%s/status/%s",
		strings.TrimRight(c.BaseURL, "/"), c.HookID, owner, project, strings.TrimPrefix(commitHash, "#"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Status{}, err
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("status request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("status request returned %s", resp.Status)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return Status{}, fmt.Errorf("failed to decode status response: %w", err)
	}
	return status, nil
}

// Wait polls until the commit reaches a terminal state, the context is
// cancelled, or a request fails.
func (c *Client) Wait(ctx context.Context, owner, project, commitHash string) (State, error) {
	interval := c.Interval
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.Status(ctx, owner, project, commitHash)
		if err != nil {
			return StateUnavailable, err
		}

		if state := Classify(status); state.Terminal() {
			return state, nil
		}

		select {
		case <-ctx.Done():
			return StateUnavailable, ctx.Err()
		case <-ticker.C:
		}
	}
}
