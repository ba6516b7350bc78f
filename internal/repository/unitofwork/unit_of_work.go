package unitofwork

import (
	"context"

	"voicenote-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	NoteRepository() contract.NoteRepository
	ClusterRepository() contract.ClusterRepository
}
