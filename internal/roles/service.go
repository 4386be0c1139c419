package roles

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/novatech/management-backend/internal/users"
	"github.com/novatech/management-backend/pkg/db"
	pkgerrors "github.com/novatech/management-backend/pkg/errors"
	"github.com/novatech/management-backend/pkg/logger"
)

// RoleDTO is the wire shape of a role.
type RoleDTO struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Service administers roles and their assignment to users.
type Service interface {
	List(ctx context.Context) ([]RoleDTO, error)
	Assign(ctx context.Context, userID, roleID uint) error
	Revoke(ctx context.Context, userID, roleID uint) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx   txRunner
	repo *Repository
	logg *logger.Logger
}

// NewService wires the role service over the shared db client.
func NewService(client *db.Client, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &service{tx: client, repo: NewRepository(client.DB()), logg: logg}, nil
}

func (s *service) List(ctx context.Context) ([]RoleDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list roles")
	}
	out := make([]RoleDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, RoleDTO{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (s *service) Assign(ctx context.Context, userID, roleID uint) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := ensureUserAndRole(ctx, tx, repo, userID, roleID); err != nil {
			return err
		}

		held, err := repo.HasRole(ctx, userID, roleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check role assignment")
		}
		if held {
			return pkgerrors.New(pkgerrors.CodeConflict, "user already has this role")
		}
		if err := repo.Assign(ctx, userID, roleID); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "user already has this role")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign role")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logRoleChange(ctx, "role.assigned", userID, roleID)
	return nil
}

func (s *service) Revoke(ctx context.Context, userID, roleID uint) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := ensureUserAndRole(ctx, tx, repo, userID, roleID); err != nil {
			return err
		}

		removed, err := repo.Revoke(ctx, userID, roleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke role")
		}
		if removed == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user does not have this role")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logRoleChange(ctx, "role.revoked", userID, roleID)
	return nil
}

func ensureUserAndRole(ctx context.Context, tx *gorm.DB, repo *Repository, userID, roleID uint) error {
	if _, err := users.NewRepository(tx).FindByID(ctx, userID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.NotFound("user", userID)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if _, err := repo.FindByID(ctx, roleID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.NotFound("role", roleID)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load role")
	}
	return nil
}

func (s *service) logRoleChange(ctx context.Context, event string, userID, roleID uint) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"target_user_id": userID, "role_id": roleID}), event)
}
