package cluster

import (
	"context"
	"testing"

	"voicenote-be/internal/entity"
	"voicenote-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }

func TestMatcher_NoClustersSkipsMemberScan(t *testing.T) {
	uow := newFakeUnitOfWork()
	matcher := NewMatcher(0.3, logger.Noop())

	got, err := matcher.FindBestCluster(context.Background(), uow, uuid.New(), vec(1))

	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got)
	assert.Equal(t, 1, uow.clusters.findAllCalls)
	assert.Equal(t, 0, uow.notes.findAllCalls, "member notes must not be loaded when there is nothing to match")
}

func TestMatcher_PicksHighestMeanSimilarity(t *testing.T) {
	userId := uuid.New()
	closeId := uuid.New()
	farId := uuid.New()

	uow := newFakeUnitOfWork()
	uow.clusters.clusters = []*entity.Cluster{
		{Id: closeId, UserId: userId, Label: "Groceries"},
		{Id: farId, UserId: userId, Label: "Work"},
	}
	uow.notes.notes = []*entity.Note{
		{Id: uuid.New(), UserId: userId, ClusterId: ptrUUID(closeId), Embedding: vec(1, 0)},
		{Id: uuid.New(), UserId: userId, ClusterId: ptrUUID(closeId), Embedding: vec(0.9, 0.1)},
		{Id: uuid.New(), UserId: userId, ClusterId: ptrUUID(farId), Embedding: vec(0, 1)},
	}

	matcher := NewMatcher(0.3, logger.Noop())
	got, err := matcher.FindBestCluster(context.Background(), uow, userId, vec(1, 0))

	require.NoError(t, err)
	assert.Equal(t, closeId, got)
}

func TestMatcher_ThresholdBoundaryIsInclusive(t *testing.T) {
	userId := uuid.New()
	clusterId := uuid.New()

	uow := newFakeUnitOfWork()
	uow.clusters.clusters = []*entity.Cluster{
		{Id: clusterId, UserId: userId, Label: "Misc"},
	}
	// Orthogonal-plus-aligned member mix engineering an exact mean of 0.5:
	// cos(candidate, m1)=1.0, cos(candidate, m2)=0.0.
	uow.notes.notes = []*entity.Note{
		{Id: uuid.New(), UserId: userId, ClusterId: ptrUUID(clusterId), Embedding: vec(1, 0)},
		{Id: uuid.New(), UserId: userId, ClusterId: ptrUUID(clusterId), Embedding: vec(0, 1)},
	}

	matcher := NewMatcher(0.5, logger.Noop())
	got, err := matcher.FindBestCluster(context.Background(), uow, userId, vec(1, 0))

	require.NoError(t, err)
	assert.Equal(t, clusterId, got, "a score exactly at the threshold must match")
}

func TestMatcher_BelowThresholdReturnsNil(t *testing.T) {
	userId := uuid.New()
	clusterId := uuid.New()

	uow := newFakeUnitOfWork()
	uow.clusters.clusters = []*entity.Cluster{
		{Id: clusterId, UserId: userId, Label: "Misc"},
	}
	uow.notes.notes = []*entity.Note{
		{Id: uuid.New(), UserId: userId, ClusterId: ptrUUID(clusterId), Embedding: vec(0, 1)},
	}

	matcher := NewMatcher(0.3, logger.Noop())
	got, err := matcher.FindBestCluster(context.Background(), uow, userId, vec(1, 0))

	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got)
}

func TestMatcher_SkipsMalformedMembers(t *testing.T) {
	userId := uuid.New()
	clusterId := uuid.New()

	uow := newFakeUnitOfWork()
	uow.clusters.clusters = []*entity.Cluster{
		{Id: clusterId, UserId: userId, Label: "Misc"},
	}
	uow.notes.notes = []*entity.Note{
		// Wrong width, must be ignored rather than dragging the mean down.
		{Id: uuid.New(), UserId: userId, ClusterId: ptrUUID(clusterId), Embedding: []float32{1, 0, 0}},
		{Id: uuid.New(), UserId: userId, ClusterId: ptrUUID(clusterId), Embedding: vec(1, 0)},
	}

	matcher := NewMatcher(0.9, logger.Noop())
	got, err := matcher.FindBestCluster(context.Background(), uow, userId, vec(1, 0))

	require.NoError(t, err)
	assert.Equal(t, clusterId, got, "the single well-formed member scores 1.0")
}

func TestMatcher_ClusterWithOnlyMalformedMembersIsExcluded(t *testing.T) {
	userId := uuid.New()
	clusterId := uuid.New()

	uow := newFakeUnitOfWork()
	uow.clusters.clusters = []*entity.Cluster{
		{Id: clusterId, UserId: userId, Label: "Broken"},
	}
	uow.notes.notes = []*entity.Note{
		{Id: uuid.New(), UserId: userId, ClusterId: ptrUUID(clusterId), Embedding: []float32{1}},
	}

	matcher := NewMatcher(0.0, logger.Noop())
	got, err := matcher.FindBestCluster(context.Background(), uow, userId, vec(1, 0))

	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got)
}
