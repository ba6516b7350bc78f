package service

import (
	"context"
	"fmt"
	"time"

	"voicenote-be/internal/dto"
	"voicenote-be/internal/entity"
	"voicenote-be/internal/pkg/logger"
	"voicenote-be/internal/repository/specification"
	"voicenote-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// ErrDuplicateLabel is returned when a user already owns a cluster with the
// requested label.
var ErrDuplicateLabel = fmt.Errorf("a cluster with this label already exists")

type IClusterService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateClusterRequest) (*dto.CreateClusterResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.ClusterResponse, error)
	Rename(ctx context.Context, userId uuid.UUID, req *dto.RenameClusterRequest) error
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type clusterService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewClusterService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IClusterService {
	return &clusterService{
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (c *clusterService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateClusterRequest) (*dto.CreateClusterResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.ClusterRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ByLabel{Label: req.Label},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateLabel
	}

	created := &entity.Cluster{
		Id:        uuid.New(),
		UserId:    userId,
		Label:     req.Label,
		CreatedAt: time.Now(),
	}
	if err := uow.ClusterRepository().Create(ctx, created); err != nil {
		return nil, err
	}

	return &dto.CreateClusterResponse{Id: created.Id}, nil
}

func (c *clusterService) List(ctx context.Context, userId uuid.UUID) ([]*dto.ClusterResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	clusters, err := uow.ClusterRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ClusterResponse, len(clusters))
	for i, cl := range clusters {
		count, err := uow.NoteRepository().Count(ctx,
			specification.UserOwnedBy{UserID: userId},
			specification.InCluster{ClusterID: cl.Id},
		)
		if err != nil {
			return nil, err
		}
		res[i] = &dto.ClusterResponse{
			Id:        cl.Id,
			Label:     cl.Label,
			NoteCount: count,
			CreatedAt: cl.CreatedAt,
		}
	}
	return res, nil
}

func (c *clusterService) Rename(ctx context.Context, userId uuid.UUID, req *dto.RenameClusterRequest) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	target, err := uow.ClusterRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("cluster %s not found", req.Id)
	}

	if target.Label == req.Label {
		return nil
	}

	conflict, err := uow.ClusterRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ByLabel{Label: req.Label},
	)
	if err != nil {
		return err
	}
	if conflict != nil {
		return ErrDuplicateLabel
	}

	target.Label = req.Label
	now := time.Now()
	target.UpdatedAt = &now
	return uow.ClusterRepository().Update(ctx, target)
}

// Delete removes the cluster and unlinks its member notes inside one
// transaction. Notes survive as unclustered rows.
func (c *clusterService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	target, err := uow.ClusterRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("cluster %s not found", id)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}

	if err := uow.NoteRepository().ClearClusterRef(ctx, id); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			c.logger.Error("ClusterService", "Rollback failed", map[string]interface{}{"error": rbErr.Error()})
		}
		return err
	}
	if err := uow.ClusterRepository().Delete(ctx, id); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			c.logger.Error("ClusterService", "Rollback failed", map[string]interface{}{"error": rbErr.Error()})
		}
		return err
	}

	return uow.Commit()
}
