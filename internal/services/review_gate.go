package services

import (
	"github.com/igorsal/pr-reviewer/internal/config"
	"github.com/igorsal/pr-reviewer/internal/models"
)

// ReviewGate filters changed files down to the ones worth sending for review
type ReviewGate struct {
	Rules          FilterRules
	MaxPatchLength int
}

// NewReviewGate builds a gate from the review configuration
func NewReviewGate(cfg config.ReviewConfig) ReviewGate {
	maxLen := cfg.MaxPatchLength
	if maxLen <= 0 {
		maxLen = config.DefaultMaxPatchLength
	}
	return ReviewGate{
		Rules: FilterRules{
			IncludePatterns: cfg.IncludePatterns,
			IgnorePatterns:  cfg.IgnorePatterns,
		},
		MaxPatchLength: maxLen,
	}
}

// Filter returns the admissible files in their original order
func (g ReviewGate) Filter(files []models.ChangedFile) []models.ChangedFile {
	admitted := make([]models.ChangedFile, 0, len(files))
	for _, file := range files {
		if g.Admits(file) {
			admitted = append(admitted, file)
		}
	}
	return admitted
}

// Admits reports whether a single file passes the gate. Oversized patches are
// rejected rather than truncated.
func (g ReviewGate) Admits(file models.ChangedFile) bool {
	if file.Status != models.FileModified && file.Status != models.FileAdded {
		return false
	}
	if file.Patch == "" || len(file.Patch) > g.MaxPatchLength {
		return false
	}
	return g.Rules.Admits(file.MatchPath())
}
