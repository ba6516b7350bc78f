package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"voicenote-be/internal/config"
	"voicenote-be/internal/dto"
	"voicenote-be/internal/entity"
	"voicenote-be/internal/pkg/logger"
	"voicenote-be/pkg/cluster"
	"voicenote-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(uploadsDir string) *config.Config {
	return &config.Config{
		Ai: config.AIConfig{
			EmbedTimeout: time.Second,
			SttTimeout:   time.Second,
		},
		Semantics: config.SemanticsConfig{
			MatchThreshold: 0.3,
			MinSimilarity:  0.3,
			RagTrigger:     0.5,
			QueryCacheTTL:  time.Minute,
		},
		Storage: config.StorageConfig{UploadsDir: uploadsDir},
	}
}

func newNoteServiceForTest(t *testing.T, factory *memFactory, embedder *stubEmbedder, jobs JobPublisher, llmResponse string) INoteService {
	t.Helper()
	log := logger.Noop()
	return NewNoteService(
		factory,
		embedder,
		cluster.NewMatcher(0.3, log),
		cluster.NewLabeler(&stubLLM{response: llmResponse}, log),
		jobs,
		testConfig(t.TempDir()),
		log,
	)
}

func TestCreateFromText_NoMatchSuggestsWithoutCreating(t *testing.T) {
	factory := newMemFactory()
	embedder := &stubEmbedder{fallback: vec(1, 0)}
	svc := newNoteServiceForTest(t, factory, embedder, &capturePublisher{}, "Grocery Shopping")

	res, err := svc.CreateFromText(context.Background(), uuid.New(), &dto.CreateNoteRequest{Transcript: "buy milk"})

	require.NoError(t, err)
	assert.Nil(t, res.ClusterId)
	require.NotNil(t, res.SuggestedClusterLabel)
	assert.Equal(t, "Grocery Shopping", *res.SuggestedClusterLabel)
	assert.Empty(t, factory.uow.clusterRepo.clusters, "text creation must never auto-create a cluster")

	stored := factory.uow.noteRepo.notes[res.Id]
	require.NotNil(t, stored)
	assert.True(t, stored.HasEmbedding())
}

func TestCreateFromText_MatchAutoAssigns(t *testing.T) {
	userId := uuid.New()
	clusterId := uuid.New()

	factory := newMemFactory()
	factory.uow.clusterRepo.clusters[clusterId] = &entity.Cluster{Id: clusterId, UserId: userId, Label: "Groceries"}
	memberId := uuid.New()
	factory.uow.noteRepo.notes[memberId] = &entity.Note{
		Id: memberId, UserId: userId, ClusterId: &clusterId, Embedding: vec(1, 0), CreatedAt: time.Now(),
	}

	embedder := &stubEmbedder{fallback: vec(1, 0)}
	svc := newNoteServiceForTest(t, factory, embedder, &capturePublisher{}, "unused")

	res, err := svc.CreateFromText(context.Background(), userId, &dto.CreateNoteRequest{Transcript: "buy eggs"})

	require.NoError(t, err)
	require.NotNil(t, res.ClusterId)
	assert.Equal(t, clusterId, *res.ClusterId)
	assert.Nil(t, res.SuggestedClusterLabel)
}

func TestCreateFromAudio_EnqueuesJobWithPlaceholderRow(t *testing.T) {
	factory := newMemFactory()
	jobs := &capturePublisher{}
	svc := newNoteServiceForTest(t, factory, &stubEmbedder{fallback: vec(1)}, jobs, "unused")

	userId := uuid.New()
	res, err := svc.CreateFromAudio(context.Background(), userId, []byte("riff-webm-bytes"), "memo.webm", nil)

	require.NoError(t, err)
	assert.Equal(t, dto.StatusProcessing, res.Status)

	stored := factory.uow.noteRepo.notes[res.Id]
	require.NotNil(t, stored)
	assert.Empty(t, stored.Transcript)
	assert.Nil(t, stored.TranscriptionError)
	require.NotNil(t, stored.AudioPath)

	audio, err := os.ReadFile(*stored.AudioPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("riff-webm-bytes"), audio)

	require.Len(t, jobs.published, 1)
	assert.Equal(t, events.TypeTranscribeRequested, jobs.published[0].EventType())
	assert.Equal(t, res.Id, events.ParseUUID(jobs.published[0].Payload(), "note_id"))
}

func TestCreateFromAudio_EnqueueFailureIsPersisted(t *testing.T) {
	factory := newMemFactory()
	jobs := &capturePublisher{err: errors.New("nats down")}
	svc := newNoteServiceForTest(t, factory, &stubEmbedder{fallback: vec(1)}, jobs, "unused")

	res, err := svc.CreateFromAudio(context.Background(), uuid.New(), []byte("bytes"), "memo.ogg", nil)

	require.NoError(t, err)
	assert.Equal(t, dto.StatusFailed, res.Status)

	stored := factory.uow.noteRepo.notes[res.Id]
	require.NotNil(t, stored)
	require.NotNil(t, stored.TranscriptionError)
	assert.Contains(t, *stored.TranscriptionError, "enqueue")
}

func TestUpdate_TranscriptChangeReembeds(t *testing.T) {
	userId := uuid.New()
	noteId := uuid.New()

	factory := newMemFactory()
	factory.uow.noteRepo.notes[noteId] = &entity.Note{
		Id: noteId, UserId: userId, Transcript: "old text", Embedding: vec(1, 0), CreatedAt: time.Now(),
	}

	embedder := &stubEmbedder{vectors: map[string][]float32{"new text": vec(0, 1)}, fallback: vec(1, 0)}
	svc := newNoteServiceForTest(t, factory, embedder, &capturePublisher{}, "unused")

	newText := "new text"
	_, err := svc.Update(context.Background(), userId, &dto.UpdateNoteRequest{Id: noteId, Transcript: &newText})

	require.NoError(t, err)
	stored := factory.uow.noteRepo.notes[noteId]
	assert.Equal(t, "new text", stored.Transcript)
	assert.Equal(t, vec(0, 1), stored.Embedding)
	assert.Equal(t, 1, embedder.calls)
}

func TestUpdate_TranscriptChangeRematchesCluster(t *testing.T) {
	userId := uuid.New()
	noteId := uuid.New()
	oldCluster := uuid.New()
	physicsCluster := uuid.New()

	factory := newMemFactory()
	factory.uow.clusterRepo.clusters[oldCluster] = &entity.Cluster{Id: oldCluster, UserId: userId, Label: "Groceries"}
	factory.uow.clusterRepo.clusters[physicsCluster] = &entity.Cluster{Id: physicsCluster, UserId: userId, Label: "Physics"}
	memberId := uuid.New()
	factory.uow.noteRepo.notes[memberId] = &entity.Note{
		Id: memberId, UserId: userId, ClusterId: &physicsCluster, Embedding: vec(0, 1), CreatedAt: time.Now(),
	}
	factory.uow.noteRepo.notes[noteId] = &entity.Note{
		Id: noteId, UserId: userId, Transcript: "buy milk", ClusterId: &oldCluster, Embedding: vec(1, 0), CreatedAt: time.Now(),
	}

	embedder := &stubEmbedder{vectors: map[string][]float32{"quantum entanglement": vec(0, 1)}, fallback: vec(1, 0)}
	svc := newNoteServiceForTest(t, factory, embedder, &capturePublisher{}, "unused")

	newText := "quantum entanglement"
	res, err := svc.Update(context.Background(), userId, &dto.UpdateNoteRequest{Id: noteId, Transcript: &newText})

	require.NoError(t, err)
	require.NotNil(t, res.ClusterId)
	assert.Equal(t, physicsCluster, *res.ClusterId)
	assert.Nil(t, res.SuggestedClusterLabel)

	stored := factory.uow.noteRepo.notes[noteId]
	require.NotNil(t, stored.ClusterId)
	assert.Equal(t, physicsCluster, *stored.ClusterId)
}

func TestUpdate_TranscriptChangeNoMatchSuggestsAndKeepsCluster(t *testing.T) {
	userId := uuid.New()
	noteId := uuid.New()
	oldCluster := uuid.New()

	factory := newMemFactory()
	factory.uow.clusterRepo.clusters[oldCluster] = &entity.Cluster{Id: oldCluster, UserId: userId, Label: "Groceries"}
	memberId := uuid.New()
	factory.uow.noteRepo.notes[memberId] = &entity.Note{
		Id: memberId, UserId: userId, ClusterId: &oldCluster, Embedding: vec(1, 0), CreatedAt: time.Now(),
	}
	factory.uow.noteRepo.notes[noteId] = &entity.Note{
		Id: noteId, UserId: userId, Transcript: "buy milk", ClusterId: &oldCluster, Embedding: vec(1, 0), CreatedAt: time.Now(),
	}

	// Orthogonal to every member, so no cluster reaches the threshold.
	embedder := &stubEmbedder{vectors: map[string][]float32{"dentist on friday": vec(0, 0, 1)}, fallback: vec(1, 0)}
	svc := newNoteServiceForTest(t, factory, embedder, &capturePublisher{}, "Appointments")

	newText := "dentist on friday"
	res, err := svc.Update(context.Background(), userId, &dto.UpdateNoteRequest{Id: noteId, Transcript: &newText})

	require.NoError(t, err)
	require.NotNil(t, res.SuggestedClusterLabel)
	assert.Equal(t, "Appointments", *res.SuggestedClusterLabel)
	// A miss suggests, it never clears an existing reference.
	require.NotNil(t, res.ClusterId)
	assert.Equal(t, oldCluster, *res.ClusterId)
	assert.Len(t, factory.uow.clusterRepo.clusters, 1, "update must never auto-create a cluster")
}

func TestUpdate_SameTranscriptSkipsEmbedding(t *testing.T) {
	userId := uuid.New()
	noteId := uuid.New()

	factory := newMemFactory()
	factory.uow.noteRepo.notes[noteId] = &entity.Note{
		Id: noteId, UserId: userId, Transcript: "same", Embedding: vec(1, 0), CreatedAt: time.Now(),
	}

	embedder := &stubEmbedder{fallback: vec(1, 0)}
	svc := newNoteServiceForTest(t, factory, embedder, &capturePublisher{}, "unused")

	same := "same"
	_, err := svc.Update(context.Background(), userId, &dto.UpdateNoteRequest{Id: noteId, Transcript: &same})

	require.NoError(t, err)
	assert.Zero(t, embedder.calls)
}

func TestUpdate_ExplicitClusterOverrideWins(t *testing.T) {
	userId := uuid.New()
	noteId := uuid.New()
	clusterId := uuid.New()

	factory := newMemFactory()
	factory.uow.noteRepo.notes[noteId] = &entity.Note{Id: noteId, UserId: userId, Transcript: "t", CreatedAt: time.Now()}
	factory.uow.clusterRepo.clusters[clusterId] = &entity.Cluster{Id: clusterId, UserId: userId, Label: "Target"}

	svc := newNoteServiceForTest(t, factory, &stubEmbedder{fallback: vec(1)}, &capturePublisher{}, "unused")

	_, err := svc.Update(context.Background(), userId, &dto.UpdateNoteRequest{Id: noteId, ClusterId: &clusterId})
	require.NoError(t, err)
	require.NotNil(t, factory.uow.noteRepo.notes[noteId].ClusterId)
	assert.Equal(t, clusterId, *factory.uow.noteRepo.notes[noteId].ClusterId)

	// Clearing with the nil uuid detaches the note from its cluster.
	nilId := uuid.Nil
	_, err = svc.Update(context.Background(), userId, &dto.UpdateNoteRequest{Id: noteId, ClusterId: &nilId})
	require.NoError(t, err)
	assert.Nil(t, factory.uow.noteRepo.notes[noteId].ClusterId)
}

func TestUpdate_ForeignClusterRejected(t *testing.T) {
	userId := uuid.New()
	noteId := uuid.New()
	foreignCluster := uuid.New()

	factory := newMemFactory()
	factory.uow.noteRepo.notes[noteId] = &entity.Note{Id: noteId, UserId: userId, Transcript: "t", CreatedAt: time.Now()}
	factory.uow.clusterRepo.clusters[foreignCluster] = &entity.Cluster{Id: foreignCluster, UserId: uuid.New(), Label: "NotYours"}

	svc := newNoteServiceForTest(t, factory, &stubEmbedder{fallback: vec(1)}, &capturePublisher{}, "unused")

	_, err := svc.Update(context.Background(), userId, &dto.UpdateNoteRequest{Id: noteId, ClusterId: &foreignCluster})
	assert.Error(t, err)
}

func TestSetFavorite(t *testing.T) {
	userId := uuid.New()
	noteId := uuid.New()

	factory := newMemFactory()
	factory.uow.noteRepo.notes[noteId] = &entity.Note{Id: noteId, UserId: userId, Transcript: "t", CreatedAt: time.Now()}

	svc := newNoteServiceForTest(t, factory, &stubEmbedder{fallback: vec(1)}, &capturePublisher{}, "unused")

	require.NoError(t, svc.SetFavorite(context.Background(), userId, noteId, true))
	assert.True(t, factory.uow.noteRepo.notes[noteId].IsFavorite)

	require.NoError(t, svc.SetFavorite(context.Background(), userId, noteId, false))
	assert.False(t, factory.uow.noteRepo.notes[noteId].IsFavorite)
}

func TestShow_OtherUsersNoteIsInvisible(t *testing.T) {
	ownerId := uuid.New()
	noteId := uuid.New()

	factory := newMemFactory()
	factory.uow.noteRepo.notes[noteId] = &entity.Note{Id: noteId, UserId: ownerId, Transcript: "secret", CreatedAt: time.Now()}

	svc := newNoteServiceForTest(t, factory, &stubEmbedder{fallback: vec(1)}, &capturePublisher{}, "unused")

	res, err := svc.Show(context.Background(), uuid.New(), noteId)
	require.NoError(t, err)
	assert.Nil(t, res)
}
