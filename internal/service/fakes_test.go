package service

import (
	"context"
	"errors"
	"sort"

	"voicenote-be/internal/entity"
	"voicenote-be/internal/repository/contract"
	"voicenote-be/internal/repository/specification"
	"voicenote-be/internal/repository/unitofwork"
	"voicenote-be/pkg/embedding"
	"voicenote-be/pkg/events"
	"voicenote-be/pkg/llm"
	"voicenote-be/pkg/similarity"

	"github.com/google/uuid"
)

func vec(lead ...float32) []float32 {
	v := make([]float32, embedding.Dimensions)
	copy(v, lead)
	return v
}

// memNoteRepo is an in-memory NoteRepository. Reads hand out copies so a
// caller's mutations only become visible through Update, mirroring a real
// store.
type memNoteRepo struct {
	notes map[uuid.UUID]*entity.Note

	updateErr   error
	updateCalls int
}

func newMemNoteRepo() *memNoteRepo {
	return &memNoteRepo{notes: make(map[uuid.UUID]*entity.Note)}
}

func (r *memNoteRepo) Create(_ context.Context, n *entity.Note) error {
	c := *n
	r.notes[n.Id] = &c
	return nil
}

func (r *memNoteRepo) Update(_ context.Context, n *entity.Note) error {
	r.updateCalls++
	if r.updateErr != nil {
		return r.updateErr
	}
	c := *n
	r.notes[n.Id] = &c
	return nil
}

func (r *memNoteRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.notes, id)
	return nil
}

func (r *memNoteRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Note, error) {
	for _, n := range r.sorted() {
		if noteMatches(n, specs) {
			c := *n
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memNoteRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	var out []*entity.Note
	for _, n := range r.sorted() {
		if noteMatches(n, specs) {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memNoteRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	found, _ := r.FindAll(context.Background(), specs...)
	return int64(len(found)), nil
}

func (r *memNoteRepo) ClearClusterRef(_ context.Context, clusterId uuid.UUID) error {
	for _, n := range r.notes {
		if n.ClusterId != nil && *n.ClusterId == clusterId {
			n.ClusterId = nil
		}
	}
	return nil
}

// SearchSimilarWithScore mimics the pgvector query with in-memory cosine.
func (r *memNoteRepo) SearchSimilarWithScore(_ context.Context, queryVec []float32, limit int, userId uuid.UUID, threshold float64) ([]*contract.ScoredNote, error) {
	var scored []*contract.ScoredNote
	for _, n := range r.sorted() {
		if n.UserId != userId || !n.HasEmbedding() {
			continue
		}
		score := similarity.Cosine(queryVec, n.Embedding)
		if score < threshold {
			continue
		}
		c := *n
		scored = append(scored, &contract.ScoredNote{Note: &c, Similarity: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// sorted gives deterministic iteration order.
func (r *memNoteRepo) sorted() []*entity.Note {
	out := make([]*entity.Note, 0, len(r.notes))
	for _, n := range r.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func noteMatches(n *entity.Note, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			if n.Id != spec.ID {
				return false
			}
		case specification.UserOwnedBy:
			if n.UserId != spec.UserID {
				return false
			}
		case specification.HasEmbedding:
			if !n.HasEmbedding() {
				return false
			}
		case specification.HasCluster:
			if n.ClusterId == nil {
				return false
			}
		case specification.InCluster:
			if n.ClusterId == nil || *n.ClusterId != spec.ClusterID {
				return false
			}
		case specification.FavoritesOnly:
			if !n.IsFavorite {
				return false
			}
		case specification.CreatedBetween:
			if n.CreatedAt.Before(spec.Start) || !n.CreatedAt.Before(spec.End) {
				return false
			}
		}
	}
	return true
}

type memClusterRepo struct {
	clusters map[uuid.UUID]*entity.Cluster
}

func newMemClusterRepo() *memClusterRepo {
	return &memClusterRepo{clusters: make(map[uuid.UUID]*entity.Cluster)}
}

func (r *memClusterRepo) Create(_ context.Context, c *entity.Cluster) error {
	for _, existing := range r.clusters {
		if existing.UserId == c.UserId && existing.Label == c.Label {
			return errors.New("duplicate key value violates unique constraint (SQLSTATE 23505)")
		}
	}
	cp := *c
	r.clusters[c.Id] = &cp
	return nil
}

func (r *memClusterRepo) Update(_ context.Context, c *entity.Cluster) error {
	cp := *c
	r.clusters[c.Id] = &cp
	return nil
}

func (r *memClusterRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.clusters, id)
	return nil
}

func (r *memClusterRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Cluster, error) {
	for _, c := range r.sorted() {
		if clusterMatches(c, specs) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memClusterRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Cluster, error) {
	var out []*entity.Cluster
	for _, c := range r.sorted() {
		if clusterMatches(c, specs) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memClusterRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	found, _ := r.FindAll(context.Background(), specs...)
	return int64(len(found)), nil
}

func (r *memClusterRepo) sorted() []*entity.Cluster {
	out := make([]*entity.Cluster, 0, len(r.clusters))
	for _, c := range r.clusters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func clusterMatches(c *entity.Cluster, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			if c.Id != spec.ID {
				return false
			}
		case specification.UserOwnedBy:
			if c.UserId != spec.UserID {
				return false
			}
		case specification.ByLabel:
			if c.Label != spec.Label {
				return false
			}
		}
	}
	return true
}

type memUnitOfWork struct {
	noteRepo    *memNoteRepo
	clusterRepo *memClusterRepo
}

func (u *memUnitOfWork) Begin(_ context.Context) error { return nil }
func (u *memUnitOfWork) Commit() error                 { return nil }
func (u *memUnitOfWork) Rollback() error               { return nil }

func (u *memUnitOfWork) NoteRepository() contract.NoteRepository       { return u.noteRepo }
func (u *memUnitOfWork) ClusterRepository() contract.ClusterRepository { return u.clusterRepo }

type memFactory struct {
	uow *memUnitOfWork
}

func newMemFactory() *memFactory {
	return &memFactory{uow: &memUnitOfWork{
		noteRepo:    newMemNoteRepo(),
		clusterRepo: newMemClusterRepo(),
	}}
}

func (f *memFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork { return f.uow }

// stubEmbedder maps exact texts to preset vectors; unknown text gets the
// fallback vector. Deterministic so semantic assertions are stable.
type stubEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
}

func (s *stubEmbedder) Generate(_ context.Context, text string, _ string) (*embedding.EmbeddingResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.vectors[text]
	if !ok {
		v = s.fallback
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: v},
	}, nil
}

type stubTranscriber struct {
	transcript string
	err        error
	calls      int
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	s.calls++
	return s.transcript, s.err
}

type capturePublisher struct {
	published []events.Event
	err       error
}

func (p *capturePublisher) Publish(_ context.Context, event events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

type captureStatusPublisher struct {
	payloads [][]byte
}

func (p *captureStatusPublisher) Publish(_ context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubLLM) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	return s.response, s.err
}
