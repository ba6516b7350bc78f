package cluster

import (
	"context"
	"strings"

	"voicenote-be/internal/entity"
	"voicenote-be/internal/pkg/logger"
	"voicenote-be/internal/repository/specification"
	"voicenote-be/internal/repository/unitofwork"
	"voicenote-be/pkg/embedding"

	"github.com/google/uuid"
)

// Assigner resolves which cluster a freshly embedded note should live in,
// creating a labeled cluster when nothing existing fits. It is the
// write-path counterpart of Matcher and is only used by the async
// transcription pipeline; interactive note creation never auto-creates.
type Assigner struct {
	matcher *Matcher
	labeler *Labeler
	logger  logger.ILogger
}

func NewAssigner(matcher *Matcher, labeler *Labeler, log logger.ILogger) *Assigner {
	return &Assigner{
		matcher: matcher,
		labeler: labeler,
		logger:  log,
	}
}

// AssignToCluster returns the cluster the note belongs to, creating a new
// one when no existing cluster reaches the match threshold. A malformed
// embedding yields uuid.Nil with no error: the note simply stays
// unclustered. The caller is responsible for persisting the reference on
// the note.
func (a *Assigner) AssignToCluster(ctx context.Context, uow unitofwork.UnitOfWork, note *entity.Note) (uuid.UUID, error) {
	if !embedding.ValidDimensions(note.Embedding) {
		a.logger.Warn("Assigner", "Note embedding has unexpected dimensions, leaving unclustered", map[string]interface{}{
			"note_id":    note.Id,
			"dimensions": len(note.Embedding),
		})
		return uuid.Nil, nil
	}

	matched, err := a.matcher.FindBestCluster(ctx, uow, note.UserId, note.Embedding)
	if err != nil {
		return uuid.Nil, err
	}
	if matched != uuid.Nil {
		return matched, nil
	}

	label := a.labeler.GenerateClusterLabel(ctx, note.Transcript)
	return a.findOrCreateCluster(ctx, uow, note.UserId, label)
}

// findOrCreateCluster reuses an existing cluster with the same label before
// creating a new one, so repeated label suggestions stay idempotent per
// owner.
func (a *Assigner) findOrCreateCluster(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, label string) (uuid.UUID, error) {
	existing, err := uow.ClusterRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ByLabel{Label: label},
	)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		return existing.Id, nil
	}

	created := &entity.Cluster{
		Id:     uuid.New(),
		UserId: userId,
		Label:  label,
	}
	if err := uow.ClusterRepository().Create(ctx, created); err != nil {
		// A concurrent pipeline run may have created the same label and
		// tripped the unique (user_id, label) index. Reuse that row.
		if isDuplicateLabel(err) {
			winner, findErr := uow.ClusterRepository().FindOne(ctx,
				specification.UserOwnedBy{UserID: userId},
				specification.ByLabel{Label: label},
			)
			if findErr == nil && winner != nil {
				return winner.Id, nil
			}
		}
		return uuid.Nil, err
	}

	a.logger.Info("Assigner", "Created cluster", map[string]interface{}{
		"cluster_id": created.Id,
		"label":      label,
	})
	return created.Id, nil
}

func isDuplicateLabel(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505")
}
