package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
)

// Store persists audit events.
type Store interface {
	Insert(ctx context.Context, event Event) error
	Search(ctx context.Context, filter SearchFilter) ([]Event, int, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// PostgresStore implements Store over the audit_logs table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Insert appends one event.
func (s *PostgresStore) Insert(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_logs(tenant_id, actor_id, action, entity_type, entity_id, ip_address)
		 VALUES($1, $2, $3, $4, $5, $6)`,
		nullable(event.TenantID), nullable(event.ActorID), event.Action,
		event.EntityType, nullable(event.EntityID), nullable(event.IPAddress))
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// Search returns events matching the filter, newest first, plus the total
// match count.
func (s *PostgresStore) Search(ctx context.Context, filter SearchFilter) ([]Event, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.TenantID != "" {
		add("tenant_id = $%d", filter.TenantID)
	}
	if filter.ActorID != "" {
		add("actor_id = $%d", filter.ActorID)
	}
	if filter.Action != "" {
		add("action = $%d", filter.Action)
	}
	if filter.EntityType != "" {
		add("entity_type = $%d", filter.EntityType)
	}
	if !filter.Since.IsZero() {
		add("created_at >= $%d", filter.Since)
	}
	if !filter.Until.IsZero() {
		add("created_at <= $%d", filter.Until)
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_logs WHERE `+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to count audit events", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT id, tenant_id, actor_id, action, entity_type, entity_id, ip_address, created_at
		FROM audit_logs
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, whereClause, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to search audit events", err)
	}
	defer rows.Close()

	var result []Event
	for rows.Next() {
		var e Event
		var tenantID, actorID, entityID, ip sql.NullString
		err := rows.Scan(&e.ID, &tenantID, &actorID, &e.Action, &e.EntityType,
			&entityID, &ip, &e.CreatedAt)
		if err != nil {
			return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to scan audit event", err)
		}
		e.TenantID = tenantID.String
		e.ActorID = actorID.String
		e.EntityID = entityID.String
		e.IPAddress = ip.String
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to iterate audit events", err)
	}
	return result, total, nil
}

// Prune deletes events older than the cutoff and reports how many went.
func (s *PostgresStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM audit_logs WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit events: %w", err)
	}
	return result.RowsAffected()
}
