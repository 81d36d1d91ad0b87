package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igorsal/pr-reviewer/internal/config"
	"github.com/igorsal/pr-reviewer/internal/interfaces"
	"github.com/igorsal/pr-reviewer/internal/models"
	"github.com/igorsal/pr-reviewer/pkg/logger"
	"github.com/igorsal/pr-reviewer/pkg/metrics"
)

func newTestReviewer(chat interfaces.ChatClient, gh *fakeGitHub) *ReviewerService {
	return NewReviewerService(chat, gh, config.ReviewConfig{}, logger.NewNop(), metrics.Noop{})
}

func TestReviewPR_CommentsOnRejectedFile(t *testing.T) {
	gh := newFakeGitHub()
	gh.onCompare("base", "head", &models.CompareResult{
		Files:   []models.ChangedFile{{Filename: "src/a.ts", Status: models.FileAdded, Patch: "+x"}},
		Commits: commits("c1"),
	})
	chat := newFakeChat()
	chat.verdicts["+x"] = &models.ReviewVerdict{Approved: false, Comment: "use const"}

	outcome, err := newTestReviewer(chat, gh).ReviewPR(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, outcome.Status)
	require.Len(t, gh.submissions, 1)

	submission := gh.submissions[0]
	assert.Equal(t, "octo", submission.Owner)
	assert.Equal(t, "app", submission.Repo)
	assert.Equal(t, 7, submission.Number)
	assert.Equal(t, "c1", submission.CommitID)
	assert.Equal(t, models.ReviewEventComment, submission.Event)
	assert.Equal(t, models.ReviewBodyWithComments, submission.Body)
	assert.Equal(t, []models.ReviewComment{{Path: "src/a.ts", Body: "use const", Position: 0}}, submission.Comments)
	assert.Equal(t, 1, outcome.Comments)
	assert.Equal(t, 1, outcome.FilesReviewed)
}

func TestReviewPR_AllApproved(t *testing.T) {
	gh := newFakeGitHub()
	gh.onCompare("base", "head", &models.CompareResult{
		Files: []models.ChangedFile{
			{Filename: "a.go", Status: models.FileModified, Patch: "+a"},
			{Filename: "b.go", Status: models.FileModified, Patch: "+b"},
		},
	})
	chat := newFakeChat()

	outcome, err := newTestReviewer(chat, gh).ReviewPR(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, outcome.Status)
	require.Len(t, gh.submissions, 1)
	assert.Equal(t, models.ReviewBodyNoComments, gh.submissions[0].Body)
	assert.NotNil(t, gh.submissions[0].Comments)
	assert.Empty(t, gh.submissions[0].Comments)
	assert.Equal(t, "head", gh.submissions[0].CommitID)
	assert.Equal(t, []string{"+a", "+b"}, chat.calls)
}

func TestReviewPR_PositionCountsNewlines(t *testing.T) {
	patch := "@@ -1,2 +1,3 @@\n line\n+added\n line"
	gh := newFakeGitHub()
	gh.onCompare("base", "head", &models.CompareResult{
		Files: []models.ChangedFile{{Filename: "a.go", Status: models.FileModified, Patch: patch}},
	})
	chat := newFakeChat()
	chat.verdicts[patch] = &models.ReviewVerdict{Comment: "nit"}

	_, err := newTestReviewer(chat, gh).ReviewPR(context.Background(), openedEvent())

	require.NoError(t, err)
	require.Len(t, gh.submissions[0].Comments, 1)
	assert.Equal(t, 3, gh.submissions[0].Comments[0].Position)
}

func TestReviewPR_RejectedWithoutCommentIsNotPosted(t *testing.T) {
	gh := newFakeGitHub()
	gh.onCompare("base", "head", &models.CompareResult{
		Files: []models.ChangedFile{{Filename: "a.go", Status: models.FileModified, Patch: "+a"}},
	})
	chat := newFakeChat()
	chat.verdicts["+a"] = &models.ReviewVerdict{Approved: false}

	_, err := newTestReviewer(chat, gh).ReviewPR(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Empty(t, gh.submissions[0].Comments)
	assert.Equal(t, models.ReviewBodyNoComments, gh.submissions[0].Body)
}

func TestReviewPR_FileFailureIsIsolated(t *testing.T) {
	gh := newFakeGitHub()
	gh.onCompare("base", "head", &models.CompareResult{
		Files: []models.ChangedFile{
			{Filename: "a.go", Status: models.FileModified, Patch: "+a"},
			{Filename: "b.go", Status: models.FileModified, Patch: "+b"},
			{Filename: "c.go", Status: models.FileModified, Patch: "+c"},
		},
	})
	chat := newFakeChat()
	chat.errs["+a"] = errors.New("timeout")
	chat.verdicts["+c"] = &models.ReviewVerdict{Comment: "check bounds"}

	outcome, err := newTestReviewer(chat, gh).ReviewPR(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, outcome.Status)
	assert.Equal(t, 2, outcome.FilesReviewed)
	assert.Equal(t, 1, outcome.FilesFailed)
	assert.Len(t, chat.calls, 3)
	require.Len(t, gh.submissions[0].Comments, 1)
	assert.Equal(t, "c.go", gh.submissions[0].Comments[0].Path)
}

func TestReviewPR_NoChatBot(t *testing.T) {
	gh := newFakeGitHub()

	outcome, err := newTestReviewer(nil, gh).ReviewPR(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNoChatBot, outcome.Status)
	assert.Equal(t, "No Chat Bot", outcome.Message)
	assert.Empty(t, gh.compareCalls)
	assert.Empty(t, gh.submissions)
}

func TestReviewPR_SkippedAction(t *testing.T) {
	gh := newFakeGitHub()
	event := openedEvent()
	event.Action = "labeled"

	outcome, err := newTestReviewer(newFakeChat(), gh).ReviewPR(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSkippedAction, outcome.Status)
	assert.Empty(t, gh.compareCalls)
}

func TestReviewPR_InvalidPullRequest(t *testing.T) {
	gh := newFakeGitHub()
	event := openedEvent()
	event.State = models.StateClosed

	outcome, err := newTestReviewer(newFakeChat(), gh).ReviewPR(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeInvalidPullRequest, outcome.Status)
	assert.Empty(t, gh.compareCalls)
	assert.Empty(t, gh.submissions)
}

func TestReviewPR_NoFileChanges(t *testing.T) {
	gh := newFakeGitHub()
	gh.onCompare("base", "head", &models.CompareResult{
		Files: []models.ChangedFile{{Filename: "gone.go", Status: models.FileRemoved, Patch: "-x"}},
	})
	chat := newFakeChat()

	outcome, err := newTestReviewer(chat, gh).ReviewPR(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNoFileChanges, outcome.Status)
	assert.Equal(t, "no file changes", outcome.Message)
	assert.Empty(t, chat.calls)
	assert.Empty(t, gh.submissions)
}

func TestReviewPR_SubmissionFailure(t *testing.T) {
	gh := newFakeGitHub()
	gh.onCompare("base", "head", &models.CompareResult{
		Files: []models.ChangedFile{{Filename: "a.go", Status: models.FileModified, Patch: "+a"}},
	})
	gh.reviewErr = errors.New("422 Unprocessable Entity")

	outcome, err := newTestReviewer(newFakeChat(), gh).ReviewPR(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSubmissionFailed, outcome.Status)
	assert.Contains(t, outcome.Message, "422")
	require.NotNil(t, outcome.Submission)
	assert.Len(t, gh.submissions, 1)
}

func TestReviewPR_CompareFailureIsReturned(t *testing.T) {
	boom := errors.New("bad credentials")
	gh := newFakeGitHub()
	gh.compareErr["base...head"] = boom

	outcome, err := newTestReviewer(newFakeChat(), gh).ReviewPR(context.Background(), openedEvent())

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, outcome)
	assert.Empty(t, gh.submissions)
}

func TestReviewPR_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewPrometheusCollectorWithRegisterer(reg)

	gh := newFakeGitHub()
	gh.onCompare("base", "head", &models.CompareResult{
		Files: []models.ChangedFile{
			{Filename: "a.go", Status: models.FileModified, Patch: "+a"},
			{Filename: "b.go", Status: models.FileModified, Patch: "+b"},
		},
	})
	chat := newFakeChat()
	chat.verdicts["+b"] = &models.ReviewVerdict{Comment: "rename"}

	reviewer := NewReviewerService(chat, gh, config.ReviewConfig{}, logger.NewNop(), collector)
	_, err := reviewer.ReviewPR(context.Background(), openedEvent())
	require.NoError(t, err)

	reviews := collector.Counter("pr_review_total")
	require.NotNil(t, reviews)
	assert.Equal(t, 1.0, testutil.ToFloat64(reviews.WithLabelValues("octo/app", "opened", "success")))

	files := collector.Counter("files_reviewed_total")
	require.NotNil(t, files)
	assert.Equal(t, 1.0, testutil.ToFloat64(files.WithLabelValues("octo/app", "approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(files.WithLabelValues("octo/app", "commented")))

	comments := collector.Counter("review_comments_total")
	require.NotNil(t, comments)
	assert.Equal(t, 1.0, testutil.ToFloat64(comments.WithLabelValues("octo/app")))
}
