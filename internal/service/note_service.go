package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"voicenote-be/internal/config"
	"voicenote-be/internal/dto"
	"voicenote-be/internal/entity"
	"voicenote-be/internal/pkg/logger"
	"voicenote-be/internal/repository/specification"
	"voicenote-be/internal/repository/unitofwork"
	"voicenote-be/pkg/cluster"
	"voicenote-be/pkg/embedding"
	"voicenote-be/pkg/events"

	"github.com/google/uuid"
)

type INoteService interface {
	CreateFromText(ctx context.Context, userId uuid.UUID, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error)
	CreateFromAudio(ctx context.Context, userId uuid.UUID, audio []byte, filename string, durationSeconds *int) (*dto.CreateAudioNoteResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.NoteResponse, error)
	List(ctx context.Context, userId uuid.UUID, req *dto.ListNotesRequest) ([]*dto.NoteResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNoteRequest) (*dto.UpdateNoteResponse, error)
	SetFavorite(ctx context.Context, userId uuid.UUID, id uuid.UUID, favorite bool) error
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type noteService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	matcher           *cluster.Matcher
	labeler           *cluster.Labeler
	jobPublisher      JobPublisher
	uploadsDir        string
	embedTimeout      time.Duration
	logger            logger.ILogger
}

func NewNoteService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	matcher *cluster.Matcher,
	labeler *cluster.Labeler,
	jobPublisher JobPublisher,
	cfg *config.Config,
	log logger.ILogger,
) INoteService {
	return &noteService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		matcher:           matcher,
		labeler:           labeler,
		jobPublisher:      jobPublisher,
		uploadsDir:        cfg.Storage.UploadsDir,
		embedTimeout:      cfg.Ai.EmbedTimeout,
		logger:            log,
	}
}

// CreateFromText embeds synchronously and either auto-assigns a matching
// cluster or returns a suggested label for the caller to confirm. It never
// creates a cluster on its own; that only happens in the async pipeline
// where no human is in the loop.
func (c *noteService) CreateFromText(ctx context.Context, userId uuid.UUID, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	note := entity.Note{
		Id:         uuid.New(),
		UserId:     userId,
		Transcript: req.Transcript,
		CreatedAt:  time.Now(),
	}

	vector, err := c.embed(ctx, req.Transcript)
	if err != nil {
		return nil, err
	}

	var suggestion *string
	if embedding.ValidDimensions(vector) {
		note.Embedding = vector

		matched, err := c.matcher.FindBestCluster(ctx, uow, userId, vector)
		if err != nil {
			return nil, err
		}
		if matched != uuid.Nil {
			note.ClusterId = &matched
		} else {
			label := c.labeler.GenerateClusterLabel(ctx, req.Transcript)
			suggestion = &label
		}
	} else {
		c.logger.Warn("NoteService", "Embedding has unexpected dimensions, storing note without one", map[string]interface{}{
			"note_id":    note.Id,
			"dimensions": len(vector),
		})
	}

	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		return nil, err
	}

	return &dto.CreateNoteResponse{
		Id:                    note.Id,
		ClusterId:             note.ClusterId,
		SuggestedClusterLabel: suggestion,
	}, nil
}

// CreateFromAudio stores the audio artifact and a placeholder note row,
// then enqueues the transcription job. The HTTP response returns before any
// transcription work happens.
func (c *noteService) CreateFromAudio(ctx context.Context, userId uuid.UUID, audio []byte, filename string, durationSeconds *int) (*dto.CreateAudioNoteResponse, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio payload is empty")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)

	noteId := uuid.New()
	audioPath, err := c.storeAudio(noteId, filename, audio)
	if err != nil {
		return nil, fmt.Errorf("failed to store audio: %w", err)
	}

	note := entity.Note{
		Id:              noteId,
		UserId:          userId,
		AudioPath:       &audioPath,
		DurationSeconds: durationSeconds,
		CreatedAt:       time.Now(),
	}
	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		return nil, err
	}

	if err := c.jobPublisher.Publish(ctx, events.NewTranscribeRequested(noteId, userId)); err != nil {
		// The user must see why the note is stuck, not just a log line.
		reason := fmt.Sprintf("failed to enqueue transcription: %v", err)
		note.TranscriptionError = &reason
		if updErr := uow.NoteRepository().Update(ctx, &note); updErr != nil {
			c.logger.Error("NoteService", "Failed to persist enqueue error", map[string]interface{}{
				"note_id": noteId,
				"error":   updErr.Error(),
			})
		}
		return &dto.CreateAudioNoteResponse{Id: noteId, Status: dto.StatusFailed}, nil
	}

	return &dto.CreateAudioNoteResponse{Id: noteId, Status: dto.StatusProcessing}, nil
}

func (c *noteService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, nil // Not found
	}
	return toNoteResponse(note), nil
}

func (c *noteService) List(ctx context.Context, userId uuid.UUID, req *dto.ListNotesRequest) ([]*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	}
	if req.ClusterId != nil {
		specs = append(specs, specification.InCluster{ClusterID: *req.ClusterId})
	}
	if req.FavoritesOnly {
		specs = append(specs, specification.FavoritesOnly{})
	}
	if req.Limit > 0 {
		specs = append(specs, specification.Pagination{Limit: req.Limit, Offset: req.Offset})
	}

	notes, err := uow.NoteRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.NoteResponse, len(notes))
	for i, n := range notes {
		res[i] = toNoteResponse(n)
	}
	return res, nil
}

// Update applies a transcript edit and/or an explicit cluster reassignment.
// A transcript change forces re-embedding followed by a fresh
// match-or-suggest pass; an explicit cluster reference always wins over the
// matcher, including clearing it with the nil uuid.
func (c *noteService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNoteRequest) (*dto.UpdateNoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, fmt.Errorf("note %s not found", req.Id)
	}

	transcriptChanged := false
	if req.Transcript != nil && *req.Transcript != note.Transcript {
		if *req.Transcript == "" {
			return nil, fmt.Errorf("transcript cannot be empty")
		}
		vector, err := c.embed(ctx, *req.Transcript)
		if err != nil {
			return nil, err
		}
		if !embedding.ValidDimensions(vector) {
			return nil, fmt.Errorf("embedding provider returned %d dimensions, expected %d", len(vector), embedding.Dimensions)
		}
		note.Transcript = *req.Transcript
		note.Embedding = vector
		transcriptChanged = true
	}

	var suggestion *string
	if req.ClusterId != nil {
		if *req.ClusterId == uuid.Nil {
			note.ClusterId = nil
		} else {
			target, err := uow.ClusterRepository().FindOne(ctx,
				specification.ByID{ID: *req.ClusterId},
				specification.UserOwnedBy{UserID: userId},
			)
			if err != nil {
				return nil, err
			}
			if target == nil {
				return nil, fmt.Errorf("cluster %s not found", *req.ClusterId)
			}
			note.ClusterId = &target.Id
		}
	} else if transcriptChanged {
		// The old cluster was chosen for the old text; re-run
		// match-or-suggest against the new embedding. On a miss the
		// current cluster is kept and a suggestion surfaced instead of
		// yanking a reference the user may have set by hand.
		matched, err := c.matcher.FindBestCluster(ctx, uow, userId, note.Embedding)
		if err != nil {
			return nil, err
		}
		if matched != uuid.Nil {
			note.ClusterId = &matched
		} else {
			label := c.labeler.GenerateClusterLabel(ctx, note.Transcript)
			suggestion = &label
		}
	}

	now := time.Now()
	note.UpdatedAt = &now
	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, err
	}

	return &dto.UpdateNoteResponse{
		Id:                    note.Id,
		ClusterId:             note.ClusterId,
		SuggestedClusterLabel: suggestion,
	}, nil
}

func (c *noteService) SetFavorite(ctx context.Context, userId uuid.UUID, id uuid.UUID, favorite bool) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if note == nil {
		return fmt.Errorf("note %s not found", id)
	}

	note.IsFavorite = favorite
	now := time.Now()
	note.UpdatedAt = &now
	return uow.NoteRepository().Update(ctx, note)
}

func (c *noteService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if note == nil {
		return fmt.Errorf("note %s not found", id)
	}
	return uow.NoteRepository().Delete(ctx, id)
}

func (c *noteService) embed(ctx context.Context, text string) ([]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, c.embedTimeout)
	defer cancel()

	res, err := c.embeddingProvider.Generate(embedCtx, text, embedding.TaskDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	return res.Embedding.Values, nil
}

func (c *noteService) storeAudio(noteId uuid.UUID, filename string, audio []byte) (string, error) {
	if err := os.MkdirAll(c.uploadsDir, 0o755); err != nil {
		return "", err
	}
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".webm"
	}
	path := filepath.Join(c.uploadsDir, noteId.String()+ext)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func toNoteResponse(n *entity.Note) *dto.NoteResponse {
	return &dto.NoteResponse{
		Id:                 n.Id,
		Transcript:         n.Transcript,
		AudioPath:          n.AudioPath,
		DurationSeconds:    n.DurationSeconds,
		ClusterId:          n.ClusterId,
		IsFavorite:         n.IsFavorite,
		Status:             noteStatus(n),
		TranscriptionError: n.TranscriptionError,
		CreatedAt:          n.CreatedAt,
		UpdatedAt:          n.UpdatedAt,
	}
}

// noteStatus distinguishes "still processing" (empty transcript, no error)
// from "failed" (error text present) so clients never wait on a dead note.
func noteStatus(n *entity.Note) string {
	switch {
	case n.TranscriptionError != nil:
		return dto.StatusFailed
	case n.Transcript == "":
		return dto.StatusProcessing
	default:
		return dto.StatusReady
	}
}
