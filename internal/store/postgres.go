package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NorthLot-Market/Verdict/internal/signal"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const decisionColumns = `id, domain, subject_id, compare_id,
	score, label, confidence, rationale, recommended_actions, signals,
	status, requested_by, evaluated_at, created_at, updated_at`

func (s *PostgresStore) CreateDecision(ctx context.Context, rec *DecisionRecord) error {
	rationaleJSON, _ := json.Marshal(rec.Rationale)
	actionsJSON, _ := json.Marshal(rec.RecommendedActions)
	signalsJSON, _ := json.Marshal(rec.Signals)

	return s.pool.QueryRow(ctx, `
		INSERT INTO verdict_decisions (domain, subject_id, compare_id,
			score, label, confidence, rationale, recommended_actions, signals,
			status, requested_by, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		rec.Domain, rec.SubjectID, rec.CompareID,
		rec.Score, rec.Label, rec.Confidence, rationaleJSON, actionsJSON, signalsJSON,
		rec.Status, rec.RequestedBy, rec.EvaluatedAt,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

func (s *PostgresStore) GetDecision(ctx context.Context, id uuid.UUID) (*DecisionRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+decisionColumns+`
		FROM verdict_decisions WHERE id = $1`, id)
	rec, err := scanDecision(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) ListDecisions(ctx context.Context, filter DecisionFilter) ([]*DecisionRecord, error) {
	query := `SELECT ` + decisionColumns + ` FROM verdict_decisions WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Domain != nil {
		n++
		query += fmt.Sprintf(" AND domain = $%d", n)
		args = append(args, string(*filter.Domain))
	}
	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}
	if filter.SubjectID != "" {
		n++
		query += fmt.Sprintf(" AND subject_id = $%d", n)
		args = append(args, filter.SubjectID)
	}
	if filter.Label != "" {
		n++
		query += fmt.Sprintf(" AND label = $%d", n)
		args = append(args, filter.Label)
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDecisions(rows)
}

func (s *PostgresStore) UpdateDecisionStatus(ctx context.Context, id uuid.UUID, status DecisionStatus) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE verdict_decisions SET status = $2, updated_at = now()
		WHERE id = $1`, id, status)
	return err
}

func (s *PostgresStore) CreateDecisionEvent(ctx context.Context, event *DecisionEvent) error {
	payloadJSON, _ := json.Marshal(event.Payload)
	return s.pool.QueryRow(ctx, `
		INSERT INTO verdict_decision_events (decision_id, event, actor, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		event.DecisionID, event.Event, event.Actor, payloadJSON,
	).Scan(&event.ID, &event.CreatedAt)
}

func (s *PostgresStore) GetDecisionEvents(ctx context.Context, decisionID uuid.UUID) ([]*DecisionEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, decision_id, event, actor, payload, created_at
		FROM verdict_decision_events WHERE decision_id = $1
		ORDER BY created_at ASC`, decisionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*DecisionEvent
	for rows.Next() {
		e := &DecisionEvent{}
		var payloadJSON []byte
		if err := rows.Scan(&e.ID, &e.DecisionID, &e.Event, &e.Actor, &payloadJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if payloadJSON != nil {
			_ = json.Unmarshal(payloadJSON, &e.Payload)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) GetStaleFlagged(ctx context.Context, cutoff time.Time) ([]*DecisionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+decisionColumns+`
		FROM verdict_decisions
		WHERE status = 'flagged' AND created_at < $1
		ORDER BY created_at ASC`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDecisions(rows)
}

func (s *PostgresStore) GetStats(ctx context.Context) (*DecisionStats, error) {
	stats := &DecisionStats{TotalByDomain: make(map[string]int)}

	rows, err := s.pool.Query(ctx, `
		SELECT domain, COUNT(*) FROM verdict_decisions GROUP BY domain`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var domain string
		var count int
		if err := rows.Scan(&domain, &count); err != nil {
			return nil, err
		}
		stats.TotalByDomain[domain] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'flagged' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'confirmed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'dismissed' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(confidence), 0)
		FROM verdict_decisions`,
	).Scan(&stats.TotalFlagged, &stats.TotalConfirmed, &stats.TotalDismissed, &stats.AvgConfidence)
	return stats, err
}

func scanDecision(row pgx.Row) (*DecisionRecord, error) {
	rec := &DecisionRecord{}
	var rationaleJSON, actionsJSON, signalsJSON []byte
	if err := row.Scan(
		&rec.ID, &rec.Domain, &rec.SubjectID, &rec.CompareID,
		&rec.Score, &rec.Label, &rec.Confidence, &rationaleJSON, &actionsJSON, &signalsJSON,
		&rec.Status, &rec.RequestedBy, &rec.EvaluatedAt, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if rationaleJSON != nil {
		_ = json.Unmarshal(rationaleJSON, &rec.Rationale)
	}
	if actionsJSON != nil {
		_ = json.Unmarshal(actionsJSON, &rec.RecommendedActions)
	}
	if signalsJSON != nil {
		var sigs []signal.Signal
		_ = json.Unmarshal(signalsJSON, &sigs)
		rec.Signals = sigs
	}
	return rec, nil
}

func scanDecisions(rows pgx.Rows) ([]*DecisionRecord, error) {
	var records []*DecisionRecord
	for rows.Next() {
		rec, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
