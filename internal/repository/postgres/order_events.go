package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
)

type dropshipOrderEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDropshipOrderEventRepository creates a new order event repository
func NewDropshipOrderEventRepository(db *sql.DB, logger *zap.Logger) *dropshipOrderEventRepository {
	return &dropshipOrderEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *dropshipOrderEventRepository) Create(ctx context.Context, event *domain.DropshipOrderEvent) error {
	query := `
		INSERT INTO dropship_order_events (id, dropship_order_id, event_type, actor_id, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	eventDataJSON, err := json.Marshal(event.EventData)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.DropshipOrderID,
		event.EventType,
		event.ActorID,
		eventDataJSON,
		event.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create dropship order event", zap.Error(err))
		return err
	}

	return nil
}

func (r *dropshipOrderEventRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.DropshipOrderEvent, error) {
	query := `
		SELECT id, dropship_order_id, event_type, actor_id, event_data, created_at
		FROM dropship_order_events
		WHERE dropship_order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to get dropship order events", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var events []*domain.DropshipOrderEvent
	for rows.Next() {
		var event domain.DropshipOrderEvent
		var actorID uuid.NullUUID
		var eventDataJSON []byte

		err := rows.Scan(
			&event.ID,
			&event.DropshipOrderID,
			&event.EventType,
			&actorID,
			&eventDataJSON,
			&event.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan dropship order event row", zap.Error(err))
			return nil, err
		}

		if actorID.Valid {
			event.ActorID = &actorID.UUID
		}
		if len(eventDataJSON) > 0 {
			if err := json.Unmarshal(eventDataJSON, &event.EventData); err != nil {
				return nil, err
			}
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}
