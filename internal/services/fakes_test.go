package services

import (
	"context"
	"fmt"

	"github.com/igorsal/pr-reviewer/internal/models"
)

// --- Fake collaborators shared by the service tests ---

type compareCall struct {
	Base string
	Head string
}

type fakeGitHub struct {
	compares   map[string]*models.CompareResult // keyed by "base...head"
	compareErr map[string]error
	reviewErr  error

	compareCalls []compareCall
	submissions  []models.ReviewSubmission
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		compares:   make(map[string]*models.CompareResult),
		compareErr: make(map[string]error),
	}
}

func (f *fakeGitHub) onCompare(base, head string, result *models.CompareResult) {
	f.compares[base+"..."+head] = result
}

func (f *fakeGitHub) CompareCommits(_ context.Context, _, _, base, head string) (*models.CompareResult, error) {
	f.compareCalls = append(f.compareCalls, compareCall{Base: base, Head: head})
	key := base + "..." + head
	if err := f.compareErr[key]; err != nil {
		return nil, err
	}
	if result, ok := f.compares[key]; ok {
		return result, nil
	}
	return &models.CompareResult{}, nil
}

func (f *fakeGitHub) CreateReview(_ context.Context, submission models.ReviewSubmission) error {
	f.submissions = append(f.submissions, submission)
	return f.reviewErr
}

func (f *fakeGitHub) GetPullRequest(_ context.Context, owner, repo string, number int) (*models.ChangeEvent, error) {
	return nil, fmt.Errorf("not implemented: %s/%s#%d", owner, repo, number)
}

type fakeChat struct {
	verdicts map[string]*models.ReviewVerdict // keyed by patch
	errs     map[string]error
	calls    []string
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		verdicts: make(map[string]*models.ReviewVerdict),
		errs:     make(map[string]error),
	}
}

func (f *fakeChat) CodeReview(_ context.Context, patch string) (*models.ReviewVerdict, error) {
	f.calls = append(f.calls, patch)
	if err := f.errs[patch]; err != nil {
		return nil, err
	}
	if verdict, ok := f.verdicts[patch]; ok {
		return verdict, nil
	}
	return &models.ReviewVerdict{Approved: true}, nil
}

func openedEvent() models.ChangeEvent {
	return models.ChangeEvent{
		Action:  models.ActionOpened,
		Owner:   "octo",
		Repo:    "app",
		Number:  7,
		State:   models.StateOpen,
		BaseSHA: "base",
		HeadSHA: "head",
		HTMLURL: "https://github.com/octo/app/pull/7",
	}
}

func commits(shas ...string) []models.CommitRef {
	refs := make([]models.CommitRef, 0, len(shas))
	for _, sha := range shas {
		refs = append(refs, models.CommitRef{SHA: sha})
	}
	return refs
}
