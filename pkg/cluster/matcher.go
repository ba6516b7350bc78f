package cluster

import (
	"context"

	"voicenote-be/internal/entity"
	"voicenote-be/internal/pkg/logger"
	"voicenote-be/internal/repository/specification"
	"voicenote-be/internal/repository/unitofwork"
	"voicenote-be/pkg/embedding"
	"voicenote-be/pkg/similarity"

	"github.com/google/uuid"
)

// DefaultMatchThreshold is the empirically chosen cutoff below which no
// existing cluster is considered a good enough fit.
const DefaultMatchThreshold = 0.3

// Matcher finds the existing cluster that best fits a candidate embedding.
//
// Fit is the mean pairwise cosine similarity between the candidate and every
// member note of a cluster — each member is compared individually and
// averaged, so outliers pull the average down symmetrically (this is not a
// centroid comparison).
type Matcher struct {
	threshold float64
	logger    logger.ILogger
}

func NewMatcher(threshold float64, log logger.ILogger) *Matcher {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	return &Matcher{
		threshold: threshold,
		logger:    log,
	}
}

// FindBestCluster returns the id of the best-fitting cluster for the owner,
// or uuid.Nil when no cluster reaches the threshold. The threshold boundary
// is inclusive. When two clusters tie exactly, the first one in store
// iteration order wins; exact float ties are rare enough that this
// nondeterminism is accepted.
func (m *Matcher) FindBestCluster(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, candidate []float32) (uuid.UUID, error) {
	clusters, err := uow.ClusterRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return uuid.Nil, err
	}
	if len(clusters) == 0 {
		// Nothing to match against, skip the member scan entirely.
		return uuid.Nil, nil
	}

	members, err := uow.NoteRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.HasCluster{},
		specification.HasEmbedding{},
	)
	if err != nil {
		return uuid.Nil, err
	}

	membersByCluster := make(map[uuid.UUID][]*entity.Note)
	for _, n := range members {
		if n.ClusterId == nil {
			continue
		}
		membersByCluster[*n.ClusterId] = append(membersByCluster[*n.ClusterId], n)
	}

	bestId := uuid.Nil
	bestScore := -1.0

	for _, c := range clusters {
		score, usable := m.meanSimilarity(candidate, membersByCluster[c.Id])
		if !usable {
			// Cluster has no usable members, exclude it from ranking.
			continue
		}
		if score > bestScore {
			bestScore = score
			bestId = c.Id
		}
	}

	if bestId == uuid.Nil || bestScore < m.threshold {
		return uuid.Nil, nil
	}

	m.logger.Debug("Matcher", "Best cluster selected", map[string]interface{}{
		"cluster_id": bestId,
		"score":      bestScore,
	})
	return bestId, nil
}

// meanSimilarity averages the candidate's similarity against each member.
// Members with malformed embeddings (wrong width) are skipped individually
// rather than failing the whole pass.
func (m *Matcher) meanSimilarity(candidate []float32, members []*entity.Note) (float64, bool) {
	var sum float64
	var usable int

	for _, member := range members {
		if !embedding.ValidDimensions(member.Embedding) {
			m.logger.Warn("Matcher", "Skipping member with malformed embedding", map[string]interface{}{
				"note_id":    member.Id,
				"dimensions": len(member.Embedding),
			})
			continue
		}
		sum += similarity.Cosine(candidate, member.Embedding)
		usable++
	}

	if usable == 0 {
		return 0, false
	}
	return sum / float64(usable), true
}
