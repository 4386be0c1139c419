package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/novatech/management-backend/internal/roles"
	"github.com/novatech/management-backend/internal/users"
	pkgAuth "github.com/novatech/management-backend/pkg/auth"
	"github.com/novatech/management-backend/pkg/config"
	"github.com/novatech/management-backend/pkg/db"
	"github.com/novatech/management-backend/pkg/db/models"
	pkgerrors "github.com/novatech/management-backend/pkg/errors"
	"github.com/novatech/management-backend/pkg/logger"
	"github.com/novatech/management-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*MessageResponse, error)
	Logout(ctx context.Context, accessID string) error
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*MessageResponse, error)
	Me(ctx context.Context, userID uint) (*users.UserDTO, error)
	EnsureAdmin(ctx context.Context, email, password string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type tokenIssuer interface {
	Mint(now time.Time, id pkgAuth.Identity) (pkgAuth.Token, error)
}

type sessionManager interface {
	Start(ctx context.Context, accessID string, ttl time.Duration) error
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	db          *gorm.DB
	tx          txRunner
	issuer      tokenIssuer
	session     sessionManager
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	DB             *db.Client
	Issuer         tokenIssuer
	SessionManager sessionManager
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Issuer == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		db:          params.DB.DB(),
		tx:          params.DB,
		issuer:      params.Issuer,
		session:     params.SessionManager,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	roleNames, err := users.NewRepository(s.db).RoleNames(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load roles")
	}

	now := s.now()
	token, err := s.issuer.Mint(now, pkgAuth.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: users.Deref(user.FirstName),
		LastName:  users.Deref(user.LastName),
		Roles:     roleNames,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := s.session.Start(ctx, token.ID, token.ExpiresAt.Sub(now)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}

	return &LoginResponse{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: users.Deref(user.FirstName),
		LastName:  users.Deref(user.LastName),
		Roles:     token.Roles,
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*MessageResponse, error) {
	email := normalizeEmail(req.Email)
	user, err := users.NewRepository(s.db).FindByEmail(ctx, email)
	switch {
	case err == nil:
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "target_user_id", user.ID), "auth.forgot_password.requested")
		}
	case !db.IsNotFound(err):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return &MessageResponse{Message: forgotPasswordMessage}, nil
}

func (s *service) Me(ctx context.Context, userID uint) (*users.UserDTO, error) {
	repo := users.NewRepository(s.db)
	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	roleNames, err := repo.RoleNames(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load roles")
	}
	return users.FromModel(user, roleNames), nil
}

// authenticate resolves the user and checks the password. Unknown emails still
// pay for one hash verification so both failure paths take similar time.
func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := normalizeEmail(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := users.NewRepository(s.db).FindByEmail(ctx, input)
	if err != nil {
		if db.IsNotFound(err) {
			_, _ = security.VerifyPassword(password, s.dummy())
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if security.NeedsRehash(user.PasswordHash, s.passwordCfg) {
		s.upgradeHash(ctx, user.ID, password)
	}
	return user, nil
}

// upgradeHash re-hashes a legacy or under-strength password after a good
// login. Failures are logged and never block the login.
func (s *service) upgradeHash(ctx context.Context, userID uint, password string) {
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err == nil {
		err = users.NewRepository(s.db).UpdatePasswordHash(ctx, userID, hash)
	}
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "target_user_id", userID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.password.rehash_failed")
		return
	}
	s.logg.Info(ctx, "auth.password.rehashed")
}

func (s *service) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = security.HashPassword("novatech-dummy-password", s.passwordCfg)
	})
	return s.dummyHash
}

// EnsureAdmin creates the bootstrap administrator when missing and makes sure
// it holds the Admin role. Running it again changes nothing.
func (s *service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "bootstrap admin email and password are required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		roleRepo := roles.NewRepository(tx)

		admin, err := roleRepo.FindByName(ctx, "Admin")
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeInternal, "admin role is not seeded")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load admin role")
		}

		user, err := userRepo.FindByEmail(ctx, email)
		if db.IsNotFound(err) {
			hash, hashErr := security.HashPassword(password, s.passwordCfg)
			if hashErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, hashErr, "hash password")
			}
			user, err = userRepo.Create(ctx, users.CreateUserDTO{Email: email, PasswordHash: hash, RegisteredAt: s.now()})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create admin user")
			}
			if s.logg != nil {
				s.logg.Info(s.logg.WithField(ctx, "target_user_id", user.ID), "auth.bootstrap.admin_created")
			}
		} else if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup admin user")
		}

		held, err := roleRepo.HasRole(ctx, user.ID, admin.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check admin role")
		}
		if held {
			return nil
		}
		if err := roleRepo.Assign(ctx, user.ID, admin.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "grant admin role")
		}
		return nil
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
