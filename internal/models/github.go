package models

import (
	"net/url"
)

// Pull request actions that trigger a review
const (
	ActionOpened      = "opened"
	ActionSynchronize = "synchronize"
	ActionReopened    = "reopened"
)

// Pull request states
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// ChangeEvent is a normalized pull request transition
type ChangeEvent struct {
	Action  string   `json:"action"`
	Owner   string   `json:"owner"`
	Repo    string   `json:"repo"`
	Number  int      `json:"number"`
	State   string   `json:"state"`
	Locked  bool     `json:"locked"`
	BaseSHA string   `json:"base_sha"`
	HeadSHA string   `json:"head_sha"`
	Commits []string `json:"commits,omitempty"` // ordered push sequence, oldest first
	HTMLURL string   `json:"html_url,omitempty"`
	Sender  string   `json:"sender,omitempty"`
}

// FullName returns "owner/repo"
func (e ChangeEvent) FullName() string {
	return e.Owner + "/" + e.Repo
}

// IsReviewableAction reports whether the action is one the reviewer reacts to
func IsReviewableAction(action string) bool {
	switch action {
	case ActionOpened, ActionSynchronize, ActionReopened:
		return true
	}
	return false
}

// FileStatus is the change kind GitHub reports for a file in a compare
type FileStatus string

const (
	FileAdded     FileStatus = "added"
	FileModified  FileStatus = "modified"
	FileRemoved   FileStatus = "removed"
	FileRenamed   FileStatus = "renamed"
	FileCopied    FileStatus = "copied"
	FileChanged   FileStatus = "changed"
	FileUnchanged FileStatus = "unchanged"
)

// ChangedFile is one file touched by a compare
type ChangedFile struct {
	Filename    string     `json:"filename"`
	Status      FileStatus `json:"status"`
	Patch       string     `json:"patch,omitempty"`
	ContentsURL string     `json:"contents_url,omitempty"`
}

// MatchPath is the path used for include/ignore patterns: the URL path of the
// contents reference, or the bare filename when there is none.
func (f ChangedFile) MatchPath() string {
	if f.ContentsURL == "" {
		return f.Filename
	}
	u, err := url.Parse(f.ContentsURL)
	if err != nil || u.Path == "" {
		return f.Filename
	}
	return u.Path
}

// CommitRef identifies a commit in a compare result
type CommitRef struct {
	SHA string `json:"sha"`
}

// CompareResult is the output of comparing two commits
type CompareResult struct {
	Files   []ChangedFile `json:"files"`
	Commits []CommitRef   `json:"commits"`
}
