package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nidhogg/vivarium/internal/emotion"
)

// UpdateEmotionalState upserts one character's decayed emotional state.
// Intensities and baseline are stored as JSONB.
func (s *Store) UpdateEmotionalState(ctx context.Context, snap emotion.Snapshot) error {
	intensities, err := json.Marshal(snap.Intensities)
	if err != nil {
		return fmt.Errorf("encode intensities: %w", err)
	}
	baseline, err := json.Marshal(snap.Baseline)
	if err != nil {
		return fmt.Errorf("encode baseline: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO emotional_states (character_id, intensities, baseline, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (character_id) DO UPDATE SET
			intensities = EXCLUDED.intensities,
			baseline = EXCLUDED.baseline,
			updated_at = EXCLUDED.updated_at`,
		snap.CharacterID, intensities, baseline, snap.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update emotional state %s: %w", snap.CharacterID, err)
	}
	return nil
}

// GetEmotionalState loads one character's persisted emotional state.
func (s *Store) GetEmotionalState(ctx context.Context, characterID string) (*emotion.Snapshot, error) {
	row := s.db.QueryRow(ctx, `
		SELECT character_id, intensities, baseline, updated_at
		FROM emotional_states WHERE character_id = $1`, characterID)

	var (
		snap        emotion.Snapshot
		intensities []byte
		baseline    []byte
	)
	err := row.Scan(&snap.CharacterID, &intensities, &baseline, &snap.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get emotional state %s: %w", characterID, err)
	}
	if err := json.Unmarshal(intensities, &snap.Intensities); err != nil {
		return nil, fmt.Errorf("decode intensities: %w", err)
	}
	if err := json.Unmarshal(baseline, &snap.Baseline); err != nil {
		return nil, fmt.Errorf("decode baseline: %w", err)
	}
	return &snap, nil
}

// ListEmotionalStates returns every persisted emotional state.
func (s *Store) ListEmotionalStates(ctx context.Context) ([]emotion.Snapshot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT character_id, intensities, baseline, updated_at
		FROM emotional_states ORDER BY character_id`)
	if err != nil {
		return nil, fmt.Errorf("list emotional states: %w", err)
	}
	defer rows.Close()

	var snaps []emotion.Snapshot
	for rows.Next() {
		var (
			snap        emotion.Snapshot
			intensities []byte
			baseline    []byte
		)
		if err := rows.Scan(&snap.CharacterID, &intensities, &baseline, &snap.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan emotional state: %w", err)
		}
		if err := json.Unmarshal(intensities, &snap.Intensities); err != nil {
			return nil, fmt.Errorf("decode intensities: %w", err)
		}
		if err := json.Unmarshal(baseline, &snap.Baseline); err != nil {
			return nil, fmt.Errorf("decode baseline: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
