package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nidhogg/vivarium/internal/character"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SaveCharacter upserts a character.
func (s *Store) SaveCharacter(ctx context.Context, c *character.Character) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO characters (id, name, openness, conscientiousness, extraversion, agreeableness, neuroticism,
		                        autonomy, social_energy, ecosystem_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			openness = EXCLUDED.openness,
			conscientiousness = EXCLUDED.conscientiousness,
			extraversion = EXCLUDED.extraversion,
			agreeableness = EXCLUDED.agreeableness,
			neuroticism = EXCLUDED.neuroticism,
			autonomy = EXCLUDED.autonomy,
			social_energy = EXCLUDED.social_energy,
			ecosystem_id = EXCLUDED.ecosystem_id,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.Name,
		c.Traits.Openness, c.Traits.Conscientiousness, c.Traits.Extraversion,
		c.Traits.Agreeableness, c.Traits.Neuroticism,
		c.Autonomy, c.SocialEnergy, c.EcosystemID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save character %s: %w", c.ID, err)
	}
	return nil
}

// GetCharacter retrieves a single character by id.
func (s *Store) GetCharacter(ctx context.Context, id string) (*character.Character, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, openness, conscientiousness, extraversion, agreeableness, neuroticism,
		       autonomy, social_energy, COALESCE(ecosystem_id,''), created_at, updated_at
		FROM characters WHERE id = $1`, id)

	var c character.Character
	err := row.Scan(
		&c.ID, &c.Name,
		&c.Traits.Openness, &c.Traits.Conscientiousness, &c.Traits.Extraversion,
		&c.Traits.Agreeableness, &c.Traits.Neuroticism,
		&c.Autonomy, &c.SocialEnergy, &c.EcosystemID, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get character %s: %w", id, err)
	}
	return &c, nil
}

// ListCharacters returns all characters ordered by creation time.
func (s *Store) ListCharacters(ctx context.Context) ([]*character.Character, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, openness, conscientiousness, extraversion, agreeableness, neuroticism,
		       autonomy, social_energy, COALESCE(ecosystem_id,''), created_at, updated_at
		FROM characters ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var chars []*character.Character
	for rows.Next() {
		var c character.Character
		if err := rows.Scan(
			&c.ID, &c.Name,
			&c.Traits.Openness, &c.Traits.Conscientiousness, &c.Traits.Extraversion,
			&c.Traits.Agreeableness, &c.Traits.Neuroticism,
			&c.Autonomy, &c.SocialEnergy, &c.EcosystemID, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		chars = append(chars, &c)
	}
	return chars, rows.Err()
}

// UpdateCharacterEnergy persists a character's social energy after an
// interaction debit or regeneration.
func (s *Store) UpdateCharacterEnergy(ctx context.Context, id string, energy float64) error {
	_, err := s.db.Exec(ctx,
		`UPDATE characters SET social_energy = $2, updated_at = NOW() WHERE id = $1`,
		id, energy)
	if err != nil {
		return fmt.Errorf("update character energy %s: %w", id, err)
	}
	return nil
}
