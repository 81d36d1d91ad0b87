package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igorsal/pr-reviewer/internal/models"
	"github.com/igorsal/pr-reviewer/pkg/logger"
)

func TestDiffResolver_RejectsClosedOrLocked(t *testing.T) {
	closed := openedEvent()
	closed.State = models.StateClosed
	locked := openedEvent()
	locked.Locked = true

	for name, event := range map[string]models.ChangeEvent{"closed": closed, "locked": locked} {
		t.Run(name, func(t *testing.T) {
			gh := newFakeGitHub()
			resolver := NewDiffResolver(gh, logger.NewNop())

			resolved, err := resolver.Resolve(context.Background(), event)

			assert.ErrorIs(t, err, ErrInvalidPullRequest)
			assert.Nil(t, resolved)
			assert.Empty(t, gh.compareCalls)
		})
	}
}

func TestDiffResolver_OpenedUsesWholeRange(t *testing.T) {
	gh := newFakeGitHub()
	files := []models.ChangedFile{
		{Filename: "b.go", Status: models.FileModified, Patch: "+b"},
		{Filename: "a.go", Status: models.FileAdded, Patch: "+a"},
	}
	gh.onCompare("base", "head", &models.CompareResult{Files: files, Commits: commits("c1", "c2")})

	resolved, err := NewDiffResolver(gh, logger.NewNop()).Resolve(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, []compareCall{{Base: "base", Head: "head"}}, gh.compareCalls)
	assert.Equal(t, files, resolved.Files)
	assert.Equal(t, "c2", resolved.CommitID)
	assert.Equal(t, []string{"c1", "c2"}, resolved.Commits)
}

func TestDiffResolver_SynchronizeNarrowsToLatestPush(t *testing.T) {
	gh := newFakeGitHub()
	gh.onCompare("base", "head", &models.CompareResult{
		Files:   []models.ChangedFile{{Filename: "old.go", Status: models.FileModified, Patch: "+old"}},
		Commits: commits("c1", "c2", "c3"),
	})
	latest := []models.ChangedFile{{Filename: "new.go", Status: models.FileModified, Patch: "+new"}}
	gh.onCompare("c2", "c3", &models.CompareResult{Files: latest, Commits: commits("c3")})

	event := openedEvent()
	event.Action = models.ActionSynchronize

	resolved, err := NewDiffResolver(gh, logger.NewNop()).Resolve(context.Background(), event)

	require.NoError(t, err)
	require.Len(t, gh.compareCalls, 2)
	assert.Equal(t, compareCall{Base: "c2", Head: "c3"}, gh.compareCalls[1])
	assert.Equal(t, latest, resolved.Files)
	assert.Equal(t, "c2", resolved.Base)
	assert.Equal(t, "c3", resolved.Head)
	assert.Equal(t, "c3", resolved.CommitID)
}

func TestDiffResolver_SynchronizeSingleCommitKeepsRange(t *testing.T) {
	gh := newFakeGitHub()
	files := []models.ChangedFile{{Filename: "a.go", Status: models.FileModified, Patch: "+a"}}
	gh.onCompare("base", "head", &models.CompareResult{Files: files, Commits: commits("c1")})

	event := openedEvent()
	event.Action = models.ActionSynchronize

	resolved, err := NewDiffResolver(gh, logger.NewNop()).Resolve(context.Background(), event)

	require.NoError(t, err)
	assert.Len(t, gh.compareCalls, 1)
	assert.Equal(t, files, resolved.Files)
}

func TestDiffResolver_ReopenedDoesNotNarrow(t *testing.T) {
	gh := newFakeGitHub()
	gh.onCompare("base", "head", &models.CompareResult{Commits: commits("c1", "c2", "c3")})

	event := openedEvent()
	event.Action = models.ActionReopened

	_, err := NewDiffResolver(gh, logger.NewNop()).Resolve(context.Background(), event)

	require.NoError(t, err)
	assert.Len(t, gh.compareCalls, 1)
}

func TestDiffResolver_EventCommitsTakePrecedence(t *testing.T) {
	gh := newFakeGitHub()
	gh.onCompare("base", "head", &models.CompareResult{Commits: commits("c1", "c2", "c3")})

	event := openedEvent()
	event.Action = models.ActionSynchronize
	event.Commits = []string{"x1", "x2"}

	resolved, err := NewDiffResolver(gh, logger.NewNop()).Resolve(context.Background(), event)

	require.NoError(t, err)
	require.Len(t, gh.compareCalls, 2)
	assert.Equal(t, compareCall{Base: "x1", Head: "x2"}, gh.compareCalls[1])
	assert.Equal(t, "x2", resolved.CommitID)
}

func TestDiffResolver_NoCommitsFallsBackToHead(t *testing.T) {
	gh := newFakeGitHub()

	resolved, err := NewDiffResolver(gh, logger.NewNop()).Resolve(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Empty(t, resolved.Files)
	assert.Equal(t, "head", resolved.CommitID)
}

func TestDiffResolver_CompareErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("initial compare", func(t *testing.T) {
		gh := newFakeGitHub()
		gh.compareErr["base...head"] = boom

		_, err := NewDiffResolver(gh, logger.NewNop()).Resolve(context.Background(), openedEvent())

		assert.ErrorIs(t, err, boom)
	})

	t.Run("narrowed compare", func(t *testing.T) {
		gh := newFakeGitHub()
		gh.onCompare("base", "head", &models.CompareResult{Commits: commits("c1", "c2")})
		gh.compareErr["c1...c2"] = boom
		event := openedEvent()
		event.Action = models.ActionSynchronize

		_, err := NewDiffResolver(gh, logger.NewNop()).Resolve(context.Background(), event)

		assert.ErrorIs(t, err, boom)
	})
}
