package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nidhogg/vivarium/internal/interaction"
)

// SaveInteraction appends one interaction record. Records are never
// updated or deleted.
func (s *Store) SaveInteraction(ctx context.Context, rec *interaction.Record) error {
	relDelta, err := json.Marshal(rec.RelationshipDelta)
	if err != nil {
		return fmt.Errorf("encode relationship delta: %w", err)
	}
	initEmo, err := json.Marshal(rec.InitiatorEmotion)
	if err != nil {
		return fmt.Errorf("encode initiator emotion: %w", err)
	}
	targetEmo, err := json.Marshal(rec.TargetEmotion)
	if err != nil {
		return fmt.Errorf("encode target emotion: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO interactions (id, ecosystem_id, initiator_id, target_id, type, content, ts,
		                          accepted, reason, response, relationship_delta, initiator_emotion,
		                          target_emotion, energy_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.ID, rec.EcosystemID, rec.InitiatorID, rec.TargetID, string(rec.Type), rec.Content,
		rec.Timestamp, rec.Accepted, rec.Reason, rec.Response,
		relDelta, initEmo, targetEmo, rec.EnergyCost,
	)
	if err != nil {
		return fmt.Errorf("save interaction %s: %w", rec.ID, err)
	}
	return nil
}

// ListInteractions returns an ecosystem's interaction history, newest
// first, capped at limit.
func (s *Store) ListInteractions(ctx context.Context, ecosystemID string, limit int) ([]*interaction.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, ecosystem_id, initiator_id, target_id, type, content, ts,
		       accepted, reason, response, relationship_delta, initiator_emotion,
		       target_emotion, energy_cost
		FROM interactions WHERE ecosystem_id = $1
		ORDER BY ts DESC LIMIT $2`, ecosystemID, limit)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	var recs []*interaction.Record
	for rows.Next() {
		var (
			rec       interaction.Record
			relDelta  []byte
			initEmo   []byte
			targetEmo []byte
		)
		if err := rows.Scan(
			&rec.ID, &rec.EcosystemID, &rec.InitiatorID, &rec.TargetID, &rec.Type, &rec.Content,
			&rec.Timestamp, &rec.Accepted, &rec.Reason, &rec.Response,
			&relDelta, &initEmo, &targetEmo, &rec.EnergyCost,
		); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		if err := json.Unmarshal(relDelta, &rec.RelationshipDelta); err != nil {
			return nil, fmt.Errorf("decode relationship delta: %w", err)
		}
		if err := json.Unmarshal(initEmo, &rec.InitiatorEmotion); err != nil {
			return nil, fmt.Errorf("decode initiator emotion: %w", err)
		}
		if err := json.Unmarshal(targetEmo, &rec.TargetEmotion); err != nil {
			return nil, fmt.Errorf("decode target emotion: %w", err)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// ListInteractionsBetween returns the history of one pair within an
// ecosystem, newest first.
func (s *Store) ListInteractionsBetween(ctx context.Context, a, b string, limit int) ([]*interaction.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, ecosystem_id, initiator_id, target_id, type, content, ts,
		       accepted, reason, response, relationship_delta, initiator_emotion,
		       target_emotion, energy_cost
		FROM interactions
		WHERE (initiator_id = $1 AND target_id = $2) OR (initiator_id = $2 AND target_id = $1)
		ORDER BY ts DESC LIMIT $3`, a, b, limit)
	if err != nil {
		return nil, fmt.Errorf("list interactions between %s and %s: %w", a, b, err)
	}
	defer rows.Close()

	var recs []*interaction.Record
	for rows.Next() {
		var (
			rec       interaction.Record
			relDelta  []byte
			initEmo   []byte
			targetEmo []byte
		)
		if err := rows.Scan(
			&rec.ID, &rec.EcosystemID, &rec.InitiatorID, &rec.TargetID, &rec.Type, &rec.Content,
			&rec.Timestamp, &rec.Accepted, &rec.Reason, &rec.Response,
			&relDelta, &initEmo, &targetEmo, &rec.EnergyCost,
		); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		if err := json.Unmarshal(relDelta, &rec.RelationshipDelta); err != nil {
			return nil, fmt.Errorf("decode relationship delta: %w", err)
		}
		if err := json.Unmarshal(initEmo, &rec.InitiatorEmotion); err != nil {
			return nil, fmt.Errorf("decode initiator emotion: %w", err)
		}
		if err := json.Unmarshal(targetEmo, &rec.TargetEmotion); err != nil {
			return nil, fmt.Errorf("decode target emotion: %w", err)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}
