package models

// Review submission constants
const (
	ReviewEventComment     = "COMMENT"
	ReviewBodyWithComments = "Review By Bot"
	ReviewBodyNoComments   = "No review, looks good to merge"
)

// ReviewVerdict is the provider's decision for one patch
type ReviewVerdict struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment"`
}

// ReviewComment is an inline comment anchored to a position in a file's patch
type ReviewComment struct {
	Path     string `json:"path"`
	Body     string `json:"body"`
	Position int    `json:"position"`
}

// ReviewSubmission is the single review posted per change event
type ReviewSubmission struct {
	Owner    string          `json:"owner"`
	Repo     string          `json:"repo"`
	Number   int             `json:"number"`
	CommitID string          `json:"commit_id"`
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	Comments []ReviewComment `json:"comments"`
}

// ResolvedDiff is the file set chosen for a change event
type ResolvedDiff struct {
	Base     string        `json:"base"`
	Head     string        `json:"head"`
	Files    []ChangedFile `json:"files"`
	Commits  []string      `json:"commits"`
	CommitID string        `json:"commit_id"`
}

// OutcomeStatus describes how a review invocation ended
type OutcomeStatus string

const (
	OutcomeNoChatBot          OutcomeStatus = "no_chat_bot"
	OutcomeInvalidPullRequest OutcomeStatus = "invalid_pull_request"
	OutcomeNoFileChanges      OutcomeStatus = "no_file_changes"
	OutcomeSkippedAction      OutcomeStatus = "skipped_action"
	OutcomeSuccess            OutcomeStatus = "success"
	OutcomeSubmissionFailed   OutcomeStatus = "submission_failed"
)

// ReviewOutcome summarizes one invocation of the reviewer
type ReviewOutcome struct {
	Status        OutcomeStatus     `json:"status"`
	Message       string            `json:"message"`
	FilesReviewed int               `json:"files_reviewed"`
	FilesFailed   int               `json:"files_failed"`
	Comments      int               `json:"comments"`
	Submission    *ReviewSubmission `json:"submission,omitempty"`
}
