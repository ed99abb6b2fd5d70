package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nidhogg/vivarium/internal/relation"
)

// UpdateRelationship upserts the relationship row keyed by the
// canonical pair.
func (s *Store) UpdateRelationship(ctx context.Context, snap relation.Snapshot) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO relationships (char_a, char_b, affinity, trust, rivalry, interaction_count, last_interaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (char_a, char_b) DO UPDATE SET
			affinity = EXCLUDED.affinity,
			trust = EXCLUDED.trust,
			rivalry = EXCLUDED.rivalry,
			interaction_count = EXCLUDED.interaction_count,
			last_interaction = EXCLUDED.last_interaction`,
		snap.Pair.A, snap.Pair.B,
		snap.Metrics.Affinity, snap.Metrics.Trust, snap.Metrics.Rivalry,
		snap.InteractionCount, snap.LastInteraction,
	)
	if err != nil {
		return fmt.Errorf("update relationship %s-%s: %w", snap.Pair.A, snap.Pair.B, err)
	}
	return nil
}

// GetRelationship loads one relationship by canonical pair.
func (s *Store) GetRelationship(ctx context.Context, p relation.Pair) (*relation.Snapshot, error) {
	row := s.db.QueryRow(ctx, `
		SELECT char_a, char_b, affinity, trust, rivalry, interaction_count, last_interaction
		FROM relationships WHERE char_a = $1 AND char_b = $2`, p.A, p.B)

	var snap relation.Snapshot
	err := row.Scan(
		&snap.Pair.A, &snap.Pair.B,
		&snap.Metrics.Affinity, &snap.Metrics.Trust, &snap.Metrics.Rivalry,
		&snap.InteractionCount, &snap.LastInteraction,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get relationship %s-%s: %w", p.A, p.B, err)
	}
	return &snap, nil
}

// ListRelationships returns every persisted relationship.
func (s *Store) ListRelationships(ctx context.Context) ([]relation.Snapshot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT char_a, char_b, affinity, trust, rivalry, interaction_count, last_interaction
		FROM relationships ORDER BY char_a, char_b`)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var snaps []relation.Snapshot
	for rows.Next() {
		var snap relation.Snapshot
		if err := rows.Scan(
			&snap.Pair.A, &snap.Pair.B,
			&snap.Metrics.Affinity, &snap.Metrics.Trust, &snap.Metrics.Rivalry,
			&snap.InteractionCount, &snap.LastInteraction,
		); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
