// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"fmt"
	"strings"
)

// EventCommit is the only event kind the dispatcher acts upon.
const EventCommit = "COMMIT"

// CommitMarker prefixes every persisted commit hash. API paths and CLI
// arguments carry the bare hash; the marker is applied at the store boundary.
const CommitMarker = "#"

// CommitData carries the commit-specific part of an event payload.
type CommitData struct {
	CommitHash string `json:"commitHash"`
	UserID     string `json:"userId"`
	ProjectID  string `json:"projectId"`
}

// CommitEvent represents an incoming webhook notification that a commit
// occurred on a project. It mirrors the payload the model server posts.
type CommitEvent struct {
	Event       string     `json:"event"`
	Owner       string     `json:"owner"`
	ProjectName string     `json:"projectName"`
	Data        CommitData `json:"data"`
}

// ProjectID returns the project-scoped namespace for this event. The payload
// may carry it explicitly; otherwise it is derived from owner and project name.
func (e CommitEvent) ProjectID() string {
	if e.Data.ProjectID != "" {
		return e.Data.ProjectID
	}
	if e.Owner == "" && e.ProjectName == "" {
		return ""
	}
	return JoinProjectID(e.Owner, e.ProjectName)
}

// Validate checks that the event carries everything a checker run needs.
func (e CommitEvent) Validate() error {
	if e.Event != EventCommit {
		return fmt.Errorf("unexpected event kind %q", e.Event)
	}
	if e.Data.CommitHash == "" {
		return fmt.Errorf("event is missing a commit hash")
	}
	if e.ProjectID() == "" {
		return fmt.Errorf("event is missing project identification")
	}
	return nil
}

// JoinProjectID builds the project namespace used as the store partition key.
func JoinProjectID(owner, projectName string) string {
	return owner + "+" + projectName
}

// CommitKey normalizes a commit hash into its persisted form, ensuring
// exactly one leading marker regardless of what the caller passed.
func CommitKey(commitHash string) string {
	return CommitMarker + strings.TrimPrefix(commitHash, CommitMarker)
}
