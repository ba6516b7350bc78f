package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"voicenote-be/internal/config"
	"voicenote-be/internal/dto"
	"voicenote-be/internal/entity"
	"voicenote-be/internal/pkg/logger"
	"voicenote-be/internal/repository/contract"
	"voicenote-be/internal/repository/specification"
	"voicenote-be/internal/repository/unitofwork"
	"voicenote-be/pkg/embedding"
	"voicenote-be/pkg/rag"
	pkgSearch "voicenote-be/pkg/search"
	"voicenote-be/pkg/similarity"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const (
	temporalResultLimit = 10 // date match alone is weaker evidence, return more
	semanticResultLimit = 5
	relatedNotesLimit   = 3

	// neutralScore is assigned to temporal candidates without a usable
	// embedding; date relevance alone is considered informative.
	neutralScore = 0.5
)

type ISearchService interface {
	Search(ctx context.Context, userId uuid.UUID, query string) (*dto.SearchResponse, error)
}

type searchService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	answerGenerator   *rag.AnswerGenerator
	queryCache        *gocache.Cache
	minSimilarity     float64
	ragTrigger        float64
	embedTimeout      time.Duration
	logger            logger.ILogger
}

func NewSearchService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	answerGenerator *rag.AnswerGenerator,
	cfg *config.Config,
	log logger.ILogger,
) ISearchService {
	return &searchService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		answerGenerator:   answerGenerator,
		queryCache:        gocache.New(cfg.Semantics.QueryCacheTTL, 2*cfg.Semantics.QueryCacheTTL),
		minSimilarity:     cfg.Semantics.MinSimilarity,
		ragTrigger:        cfg.Semantics.RagTrigger,
		embedTimeout:      cfg.Ai.EmbedTimeout,
		logger:            log,
	}
}

func (s *searchService) Search(ctx context.Context, userId uuid.UUID, query string) (*dto.SearchResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	queryVector, err := s.queryEmbedding(ctx, userId, query)
	if err != nil {
		return nil, err
	}

	temporal := pkgSearch.DetectTemporalRange(query, time.Now())

	var scored []*contract.ScoredNote
	if temporal != nil {
		scored, err = s.temporalCandidates(ctx, uow, userId, temporal, queryVector)
	} else {
		scored, err = uow.NoteRepository().SearchSimilarWithScore(ctx, queryVector, semanticResultLimit, userId, s.minSimilarity)
	}
	if err != nil {
		return nil, err
	}

	res := &dto.SearchResponse{Results: make([]dto.SearchResult, 0, len(scored))}

	if len(scored) == 0 {
		// The generated answer IS the result here, so its failure fails
		// the request.
		answer, err := s.answerGenerator.Answer(ctx, query, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to generate fallback answer: %w", err)
		}
		res.AiAnswer = &answer
		res.IsFallback = true
		return res, nil
	}

	candidates, err := uow.NoteRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.HasEmbedding{},
	)
	if err != nil {
		return nil, err
	}

	for _, sn := range scored {
		res.Results = append(res.Results, dto.SearchResult{
			Id:           sn.Note.Id,
			Transcript:   sn.Note.Transcript,
			ClusterId:    sn.Note.ClusterId,
			Similarity:   sn.Similarity,
			CreatedAt:    sn.Note.CreatedAt,
			RelatedNotes: relatedNotes(sn.Note, candidates),
		})
	}

	// Weak top score: run RAG in addition to the ranked list, best-effort.
	if scored[0].Similarity < s.ragTrigger {
		notes := make([]*entity.Note, len(scored))
		for i, sn := range scored {
			notes[i] = sn.Note
		}
		answer, err := s.answerGenerator.Answer(ctx, query, notes)
		if err != nil {
			s.logger.Warn("SearchService", "RAG augmentation failed, returning ranked results only", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			res.AiAnswer = &answer
		}
	}

	return res, nil
}

// temporalCandidates restricts to the detected creation interval and scores
// in-process, so notes still waiting on an embedding can participate with a
// neutral score.
func (s *searchService) temporalCandidates(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, temporal *pkgSearch.TemporalRange, queryVector []float32) ([]*contract.ScoredNote, error) {
	notes, err := uow.NoteRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.CreatedBetween{Start: temporal.Start, End: temporal.End},
	)
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredNote, 0, len(notes))
	for _, n := range notes {
		score := neutralScore
		if embedding.ValidDimensions(n.Embedding) {
			score = similarity.Cosine(queryVector, n.Embedding)
		}
		scored = append(scored, &contract.ScoredNote{Note: n, Similarity: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > temporalResultLimit {
		scored = scored[:temporalResultLimit]
	}
	return scored, nil
}

// relatedNotes attaches the top most similar other notes to a result.
// Quadratic in the worst case but bounded by result count times candidate
// count, fine at personal-notes volume.
func relatedNotes(base *entity.Note, candidates []*entity.Note) []dto.RelatedNote {
	if !embedding.ValidDimensions(base.Embedding) {
		return []dto.RelatedNote{}
	}

	type rel struct {
		note  *entity.Note
		score float64
	}
	rels := make([]rel, 0, len(candidates))
	for _, c := range candidates {
		if c.Id == base.Id || !embedding.ValidDimensions(c.Embedding) {
			continue
		}
		rels = append(rels, rel{note: c, score: similarity.Cosine(base.Embedding, c.Embedding)})
	}

	sort.SliceStable(rels, func(i, j int) bool { return rels[i].score > rels[j].score })
	if len(rels) > relatedNotesLimit {
		rels = rels[:relatedNotesLimit]
	}

	out := make([]dto.RelatedNote, len(rels))
	for i, r := range rels {
		out[i] = dto.RelatedNote{
			Id:         r.note.Id,
			Transcript: r.note.Transcript,
			Similarity: r.score,
		}
	}
	return out
}

// queryEmbedding computes the query vector once per (user, query) within
// the cache TTL; repeated identical searches skip the provider call.
func (s *searchService) queryEmbedding(ctx context.Context, userId uuid.UUID, query string) ([]float32, error) {
	cacheKey := userId.String() + "|" + query
	if cached, found := s.queryCache.Get(cacheKey); found {
		if vector, ok := cached.([]float32); ok {
			return vector, nil
		}
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	res, err := s.embeddingProvider.Generate(embedCtx, query, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	vector := res.Embedding.Values
	s.queryCache.Set(cacheKey, vector, gocache.DefaultExpiration)
	return vector, nil
}
