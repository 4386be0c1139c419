package auth

import (
	"context"

	"gorm.io/gorm"

	"github.com/novatech/management-backend/internal/roles"
	"github.com/novatech/management-backend/internal/users"
	"github.com/novatech/management-backend/pkg/db"
	"github.com/novatech/management-backend/pkg/enums"
	pkgerrors "github.com/novatech/management-backend/pkg/errors"
	"github.com/novatech/management-backend/pkg/security"
)

const emailExistsMessage = "email already exists"

// Register creates a user and grants the default role when it is seeded.
// A missing default role is logged and the user is left without roles.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*MessageResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(req.Password) < 6 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 6 characters")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		roleRepo := roles.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, emailExistsMessage)
		} else if !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			RegisteredAt: s.now(),
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, emailExistsMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		role, err := roleRepo.FindByName(ctx, enums.DefaultRole.String())
		if err != nil {
			if db.IsNotFound(err) {
				if s.logg != nil {
					s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
						"target_user_id": user.ID,
						"role":           enums.DefaultRole.String(),
					}), "auth.register.default_role_missing")
				}
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load default role")
		}
		if err := roleRepo.Assign(ctx, user.ID, role.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign default role")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &MessageResponse{Message: registeredMessage}, nil
}
