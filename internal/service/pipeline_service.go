package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
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
	pktNats "voicenote-be/pkg/nats"
	"voicenote-be/pkg/transcribe"

	"github.com/google/uuid"
)

// IPipelineService runs the async transcription pipeline: speech-to-text,
// embedding, then best-effort clustering, driven by durable jobs so work
// survives process restarts between enqueue and execution.
type IPipelineService interface {
	Start() error
	ProcessNote(ctx context.Context, noteId uuid.UUID) error
}

type pipelineService struct {
	uowFactory        unitofwork.RepositoryFactory
	transcriber       transcribe.Provider
	embeddingProvider embedding.EmbeddingProvider
	assigner          *cluster.Assigner
	subscriber        *pktNats.Subscriber
	statusPublisher   IPublisherService
	sttTimeout        time.Duration
	embedTimeout      time.Duration
	logger            logger.ILogger
}

func NewPipelineService(
	uowFactory unitofwork.RepositoryFactory,
	transcriber transcribe.Provider,
	embeddingProvider embedding.EmbeddingProvider,
	assigner *cluster.Assigner,
	subscriber *pktNats.Subscriber,
	statusPublisher IPublisherService,
	cfg *config.Config,
	log logger.ILogger,
) IPipelineService {
	return &pipelineService{
		uowFactory:        uowFactory,
		transcriber:       transcriber,
		embeddingProvider: embeddingProvider,
		assigner:          assigner,
		subscriber:        subscriber,
		statusPublisher:   statusPublisher,
		sttTimeout:        cfg.Ai.SttTimeout,
		embedTimeout:      cfg.Ai.EmbedTimeout,
		logger:            log,
	}
}

// Start begins consuming transcription jobs with a durable consumer.
func (p *pipelineService) Start() error {
	subject := fmt.Sprintf("jobs.%s", events.TypeTranscribeRequested)
	if err := p.subscriber.Subscribe(subject, "transcription-worker", p.handleJob); err != nil {
		return fmt.Errorf("failed to start transcription worker: %w", err)
	}
	p.logger.Info("PipelineService", "Transcription worker started", map[string]interface{}{"subject": subject})
	return nil
}

func (p *pipelineService) handleJob(ctx context.Context, event events.Event) error {
	noteId := events.ParseUUID(event.Payload(), "note_id")
	if noteId == uuid.Nil {
		p.logger.Error("PipelineService", "Job carries no usable note_id, dropping", map[string]interface{}{
			"payload": event.Payload(),
		})
		return nil // unprocessable forever, don't redeliver
	}
	return p.ProcessNote(ctx, noteId)
}

// ProcessNote is keyed by note id and safe to re-run: a note that already
// has a transcript is treated as done. Terminal failures are persisted to
// the note, never only logged, and return nil so the job is not redelivered.
func (p *pipelineService) ProcessNote(ctx context.Context, noteId uuid.UUID) error {
	uow := p.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: noteId})
	if err != nil {
		return err // store hiccup, retriable
	}
	if note == nil {
		p.logger.Warn("PipelineService", "Note vanished before processing", map[string]interface{}{"note_id": noteId})
		return nil
	}
	if note.Transcript != "" && note.HasEmbedding() {
		p.logger.Info("PipelineService", "Note already processed, skipping", map[string]interface{}{"note_id": noteId})
		return nil
	}

	transcript, err := p.transcribeAudio(ctx, note)
	if err != nil {
		return p.failNote(ctx, uow, note, err.Error())
	}

	vector, err := p.embedTranscript(ctx, transcript)
	if err != nil {
		return p.failNote(ctx, uow, note, err.Error())
	}

	// Single update: no window where transcript is visible without its
	// embedding, and any prior error is cleared by the same write.
	note.Transcript = transcript
	note.Embedding = vector
	note.TranscriptionError = nil
	now := time.Now()
	note.UpdatedAt = &now
	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return err // retriable; transcript not yet visible
	}

	// Clustering is strictly additive; its failure must not undo the
	// transcript persistence above.
	clusterId := p.assignCluster(ctx, uow, note)

	p.publishStatus(dto.NoteStatusEvent{
		NoteId:    note.Id,
		UserId:    note.UserId,
		Status:    dto.StatusReady,
		ClusterId: clusterId,
	})
	return nil
}

func (p *pipelineService) transcribeAudio(ctx context.Context, note *entity.Note) (string, error) {
	if note.AudioPath == nil {
		return "", fmt.Errorf("note has no audio artifact")
	}

	audio, err := os.ReadFile(*note.AudioPath)
	if err != nil {
		return "", fmt.Errorf("failed to read audio file: %v", err)
	}

	sttCtx, cancel := context.WithTimeout(ctx, p.sttTimeout)
	defer cancel()

	transcript, err := p.transcriber.Transcribe(sttCtx, audio, *note.AudioPath)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %v", err)
	}
	if transcript == "" {
		return "", fmt.Errorf("transcription produced no text")
	}
	return transcript, nil
}

func (p *pipelineService) embedTranscript(ctx context.Context, transcript string) ([]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, p.embedTimeout)
	defer cancel()

	res, err := p.embeddingProvider.Generate(embedCtx, transcript, embedding.TaskDocument)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %v", err)
	}
	vector := res.Embedding.Values
	if !embedding.ValidDimensions(vector) {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(vector), embedding.Dimensions)
	}
	return vector, nil
}

// assignCluster links the note to its cluster, creating one when needed.
// Every failure here is swallowed: the note simply stays unclustered.
func (p *pipelineService) assignCluster(ctx context.Context, uow unitofwork.UnitOfWork, note *entity.Note) *uuid.UUID {
	clusterId, err := p.assigner.AssignToCluster(ctx, uow, note)
	if err != nil {
		p.logger.Warn("PipelineService", "Cluster assignment failed, note stays unclustered", map[string]interface{}{
			"note_id": note.Id,
			"error":   err.Error(),
		})
		return nil
	}
	if clusterId == uuid.Nil {
		return nil
	}

	note.ClusterId = &clusterId
	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		p.logger.Warn("PipelineService", "Failed to persist cluster link", map[string]interface{}{
			"note_id": note.Id,
			"error":   err.Error(),
		})
		note.ClusterId = nil
		return nil
	}
	return &clusterId
}

// failNote persists a terminal failure so the owner can see why the note is
// stuck. Returns nil: a persisted failure is handled, not retriable.
func (p *pipelineService) failNote(ctx context.Context, uow unitofwork.UnitOfWork, note *entity.Note, reason string) error {
	p.logger.Error("PipelineService", "Pipeline failed terminally", map[string]interface{}{
		"note_id": note.Id,
		"reason":  reason,
	})

	note.TranscriptionError = &reason
	now := time.Now()
	note.UpdatedAt = &now
	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		// Couldn't persist the failure; redeliver so the user isn't left
		// with a silently stuck note.
		return err
	}

	p.publishStatus(dto.NoteStatusEvent{
		NoteId: note.Id,
		UserId: note.UserId,
		Status: dto.StatusFailed,
		Error:  &reason,
	})
	return nil
}

func (p *pipelineService) publishStatus(event dto.NoteStatusEvent) {
	if p.statusPublisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := p.statusPublisher.Publish(context.Background(), payload); err != nil {
		p.logger.Warn("PipelineService", "Failed to publish status event", map[string]interface{}{
			"note_id": event.NoteId,
			"error":   err.Error(),
		})
	}
}
