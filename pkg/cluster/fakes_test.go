package cluster

import (
	"context"
	"errors"

	"voicenote-be/internal/entity"
	"voicenote-be/internal/repository/contract"
	"voicenote-be/internal/repository/specification"
	"voicenote-be/pkg/embedding"
	"voicenote-be/pkg/llm"

	"github.com/google/uuid"
)

// vec builds a test embedding of the system width with the leading
// components set, so cosine geometry stays easy to reason about.
func vec(lead ...float32) []float32 {
	v := make([]float32, embedding.Dimensions)
	copy(v, lead)
	return v
}

type fakeClusterRepo struct {
	clusters []*entity.Cluster

	findAllCalls int
	findOneCalls int
	createCalls  int
	createErr    error
	onCreate     func() // runs before the duplicate check, for race tests
}

func (r *fakeClusterRepo) Create(_ context.Context, c *entity.Cluster) error {
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	if r.onCreate != nil {
		r.onCreate()
	}
	for _, existing := range r.clusters {
		if existing.UserId == c.UserId && existing.Label == c.Label {
			return errors.New(`duplicate key value violates unique constraint "idx_clusters_user_label" (SQLSTATE 23505)`)
		}
	}
	r.clusters = append(r.clusters, c)
	return nil
}

func (r *fakeClusterRepo) Update(_ context.Context, _ *entity.Cluster) error { return nil }
func (r *fakeClusterRepo) Delete(_ context.Context, _ uuid.UUID) error       { return nil }

func (r *fakeClusterRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Cluster, error) {
	r.findOneCalls++
	for _, c := range r.clusters {
		if clusterMatches(c, specs) {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeClusterRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Cluster, error) {
	r.findAllCalls++
	var out []*entity.Cluster
	for _, c := range r.clusters {
		if clusterMatches(c, specs) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeClusterRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	found, _ := r.FindAll(context.Background(), specs...)
	return int64(len(found)), nil
}

func clusterMatches(c *entity.Cluster, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.UserOwnedBy:
			if c.UserId != spec.UserID {
				return false
			}
		case specification.ByLabel:
			if c.Label != spec.Label {
				return false
			}
		case specification.ByID:
			if c.Id != spec.ID {
				return false
			}
		}
	}
	return true
}

type fakeNoteRepo struct {
	notes []*entity.Note

	findAllCalls int
}

func (r *fakeNoteRepo) Create(_ context.Context, n *entity.Note) error {
	r.notes = append(r.notes, n)
	return nil
}

func (r *fakeNoteRepo) Update(_ context.Context, _ *entity.Note) error { return nil }
func (r *fakeNoteRepo) Delete(_ context.Context, _ uuid.UUID) error    { return nil }

func (r *fakeNoteRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Note, error) {
	for _, n := range r.notes {
		if noteMatches(n, specs) {
			return n, nil
		}
	}
	return nil, nil
}

func (r *fakeNoteRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	r.findAllCalls++
	var out []*entity.Note
	for _, n := range r.notes {
		if noteMatches(n, specs) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNoteRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	found, _ := r.FindAll(context.Background(), specs...)
	return int64(len(found)), nil
}

func (r *fakeNoteRepo) ClearClusterRef(_ context.Context, clusterId uuid.UUID) error {
	for _, n := range r.notes {
		if n.ClusterId != nil && *n.ClusterId == clusterId {
			n.ClusterId = nil
		}
	}
	return nil
}

func (r *fakeNoteRepo) SearchSimilarWithScore(_ context.Context, _ []float32, _ int, _ uuid.UUID, _ float64) ([]*contract.ScoredNote, error) {
	return nil, nil
}

func noteMatches(n *entity.Note, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.UserOwnedBy:
			if n.UserId != spec.UserID {
				return false
			}
		case specification.HasCluster:
			if n.ClusterId == nil {
				return false
			}
		case specification.HasEmbedding:
			if len(n.Embedding) == 0 {
				return false
			}
		case specification.ByID:
			if n.Id != spec.ID {
				return false
			}
		case specification.InCluster:
			if n.ClusterId == nil || *n.ClusterId != spec.ClusterID {
				return false
			}
		}
	}
	return true
}

type fakeUnitOfWork struct {
	notes    *fakeNoteRepo
	clusters *fakeClusterRepo
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		notes:    &fakeNoteRepo{},
		clusters: &fakeClusterRepo{},
	}
}

func (u *fakeUnitOfWork) Begin(_ context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                 { return nil }
func (u *fakeUnitOfWork) Rollback() error               { return nil }

func (u *fakeUnitOfWork) NoteRepository() contract.NoteRepository       { return u.notes }
func (u *fakeUnitOfWork) ClusterRepository() contract.ClusterRepository { return u.clusters }

// fakeLLM returns a canned response or error for every call and records
// the prompts it saw.
type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	if len(history) > 0 {
		f.prompts = append(f.prompts, history[len(history)-1].Content)
	}
	return f.response, f.err
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}
