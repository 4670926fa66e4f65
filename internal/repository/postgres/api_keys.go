package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

type apiKeyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *sql.DB, logger *zap.Logger) *apiKeyRepository {
	return &apiKeyRepository{
		db:     db,
		logger: logger,
	}
}

// GetByKey resolves a raw API key to its credential record. Bcrypt hashes
// are salted, so the active keys are iterated and verified one by one.
func (r *apiKeyRepository) GetByKey(ctx context.Context, apiKey string) (*domain.APIKey, error) {
	query := `
		SELECT id, name, key_hash, permissions, is_active, created_at, updated_at
		FROM api_keys
		WHERE is_active = true
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query API keys", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key domain.APIKey

		err := rows.Scan(
			&key.ID,
			&key.Name,
			&key.KeyHash,
			pq.Array(&key.Permissions),
			&key.IsActive,
			&key.CreatedAt,
			&key.UpdatedAt,
		)
		if err != nil {
			continue
		}

		if err := bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(apiKey)); err == nil {
			return &key, nil
		}
	}

	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (r *apiKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	query := `
		INSERT INTO api_keys (id, name, key_hash, permissions, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now()
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = now
	}
	if key.UpdatedAt.IsZero() {
		key.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		key.ID,
		key.Name,
		key.KeyHash,
		pq.Array(key.Permissions),
		key.IsActive,
		key.CreatedAt,
		key.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create API key", zap.Error(err))
		return err
	}

	return nil
}
