package service

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/laala-payout-service/internal/auth"
	"github.com/laala-payout-service/internal/config"
	"github.com/laala-payout-service/internal/domain/balance"
	"github.com/laala-payout-service/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
)

// AuthServiceImpl implements the AuthService interface
type AuthServiceImpl struct {
	txExecutor  TxExecutor
	userRepo    user.Repository
	balanceRepo balance.Repository
	jwtCfg      *config.JWTConfig
	logger      *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(logger *slog.Logger, txExecutor TxExecutor, userRepo user.Repository, balanceRepo balance.Repository, jwtCfg *config.JWTConfig) AuthService {
	return &AuthServiceImpl{
		txExecutor:  txExecutor,
		userRepo:    userRepo,
		balanceRepo: balanceRepo,
		jwtCfg:      jwtCfg,
		logger:      logger,
	}
}

// Register creates a new user account together with its zero balance in one
// transaction. Funds only enter through credits.
func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password, role string) (*user.User, error) {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, user.ErrDuplicateEmail{Email: email}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", "error", err)
		return nil, err
	}

	u, err := user.NewUser(name, email, string(hash), user.Role(role))
	if err != nil {
		return nil, err
	}

	err = s.txExecutor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.userRepo.WithTx(tx).Create(ctx, u); err != nil {
			return err
		}
		return s.balanceRepo.WithTx(tx).Create(ctx, balance.NewBalance(u.ID))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Registered new user", "user_id", u.ID.String(), "role", string(u.Role))
	return u, nil
}

// Login verifies credentials and issues an HS256 access token
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if u == nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateAccessToken(s.jwtCfg, u.ID, u.Email, string(u.Role))
	if err != nil {
		s.logger.Error("Failed to generate access token", "user_id", u.ID.String(), "error", err)
		return "", nil, err
	}

	return token, u, nil
}
