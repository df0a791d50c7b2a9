package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ecotrack/waste-server/internal/apperr"
	"github.com/ecotrack/waste-server/internal/auth"
	"github.com/ecotrack/waste-server/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// AccountService handles principals: registration, credential checks,
// worker provisioning, and the role lookup every request goes through.
type AccountService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewAccountService creates a new account service
func NewAccountService(db *pgxpool.Pool, logger *zap.SugaredLogger) *AccountService {
	return &AccountService{db: db, logger: logger}
}

// ResolveRole fetches the single role record for an authenticated account.
// A missing record means the principal is unknown to the application.
func (s *AccountService) ResolveRole(ctx context.Context, id uuid.UUID) (models.Role, error) {
	var role models.Role
	err := s.db.QueryRow(ctx, `SELECT role FROM accounts WHERE id = $1`, id).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.NotFound("no role record for account %s", id)
	}
	if err != nil {
		return "", apperr.External(err, "failed to resolve role")
	}
	return role, nil
}

// Get fetches one account by id.
func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.getBy(ctx, `id = $1`, id)
}

// Register creates a citizen account.
func (s *AccountService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error) {
	return s.create(ctx, req.Email, req.Name, req.Password, models.RoleUser)
}

// CreateWorker provisions a worker account on behalf of management.
func (s *AccountService) CreateWorker(ctx context.Context, req *models.CreateWorkerRequest) (*models.Account, error) {
	return s.create(ctx, req.Email, req.Name, req.Password, models.RoleWorker)
}

func (s *AccountService) create(ctx context.Context, email, name, password string, role models.Role) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || name == "" {
		return nil, apperr.PreconditionFailed("email and name are required")
	}
	if len(password) < 8 {
		return nil, apperr.PreconditionFailed("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.External(err, "failed to hash password")
	}

	account := &models.Account{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO accounts (id, email, name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.Exec(ctx, query, account.ID, account.Email, account.Name, account.Role, hash, account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.PreconditionFailed("email %s is already registered", email)
		}
		return nil, apperr.External(err, "failed to create account")
	}

	s.logger.Infow("Account created", "id", account.ID, "role", role)
	return account, nil
}

// Authenticate verifies credentials and returns the matching account.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.getBy(ctx, `email = $1`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, apperr.Forbidden("invalid email or password")
	}
	if !auth.CheckPasswordHash(password, account.PasswordHash) {
		return nil, apperr.Forbidden("invalid email or password")
	}
	return account, nil
}

// ListWorkers returns all worker accounts ordered by name, for the
// management assignment and worker views.
func (s *AccountService) ListWorkers(ctx context.Context) ([]models.Account, error) {
	query := `
		SELECT id, email, name, role, password_hash, created_at
		FROM accounts WHERE role = 'worker' ORDER BY name
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, apperr.External(err, "failed to query workers")
	}
	defer rows.Close()

	var workers []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.PasswordHash, &a.CreatedAt); err != nil {
			return nil, apperr.External(err, "failed to scan worker")
		}
		workers = append(workers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.External(err, "failed to read workers")
	}
	return workers, nil
}

func (s *AccountService) getBy(ctx context.Context, where string, arg any) (*models.Account, error) {
	query := `SELECT id, email, name, role, password_hash, created_at FROM accounts WHERE ` + where
	var a models.Account
	err := s.db.QueryRow(ctx, query, arg).Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("account not found")
	}
	if err != nil {
		return nil, apperr.External(err, "failed to load account")
	}
	return &a, nil
}

// isUniqueViolation matches the postgres unique_violation SQLSTATE.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
