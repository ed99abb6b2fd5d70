package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/nidhogg/vivarium/internal/relation"
	"go.uber.org/zap"
)

// Graph mirrors relationships into Neo4j so graph queries (mutual
// acquaintances, strongest bonds) run without touching the hot path.
// The engine treats mirror failures as non-fatal.
type Graph struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewGraph connects to Neo4j and verifies connectivity.
func NewGraph(uri, user, password string, logger *zap.Logger) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	logger.Info("Neo4j connected")
	return &Graph{driver: driver, logger: logger}, nil
}

// SetRelation upserts the undirected KNOWS edge for a canonical pair.
func (g *Graph) SetRelation(ctx context.Context, snap relation.Snapshot) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MERGE (a:Character {id: $a})
		 MERGE (b:Character {id: $b})
		 MERGE (a)-[r:KNOWS]->(b)
		 SET r.affinity = $affinity, r.trust = $trust, r.rivalry = $rivalry,
		     r.interaction_count = $count, r.updated_at = datetime()`,
		map[string]interface{}{
			"a":        snap.Pair.A,
			"b":        snap.Pair.B,
			"affinity": snap.Metrics.Affinity,
			"trust":    snap.Metrics.Trust,
			"rivalry":  snap.Metrics.Rivalry,
			"count":    snap.InteractionCount,
		})
	if err != nil {
		return fmt.Errorf("set relation %s-%s: %w", snap.Pair.A, snap.Pair.B, err)
	}
	return nil
}

// Acquaintances returns the ids of every character connected to id,
// optionally filtered to edges at or above minAffinity.
func (g *Graph) Acquaintances(ctx context.Context, id string, minAffinity float64) ([]string, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (a:Character {id: $id})-[r:KNOWS]-(b:Character)
		 WHERE r.affinity >= $min
		 RETURN b.id ORDER BY r.affinity DESC`,
		map[string]interface{}{"id": id, "min": minAffinity})
	if err != nil {
		return nil, fmt.Errorf("acquaintances of %s: %w", id, err)
	}

	var ids []string
	for result.Next(ctx) {
		if v, ok := result.Record().Get("b.id"); ok {
			if s, ok := v.(string); ok {
				ids = append(ids, s)
			}
		}
	}
	return ids, result.Err()
}

// MutualAcquaintances returns ids known to both a and b.
func (g *Graph) MutualAcquaintances(ctx context.Context, a, b string) ([]string, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (x:Character {id: $a})-[:KNOWS]-(m:Character)-[:KNOWS]-(y:Character {id: $b})
		 RETURN DISTINCT m.id`,
		map[string]interface{}{"a": a, "b": b})
	if err != nil {
		return nil, fmt.Errorf("mutual acquaintances of %s and %s: %w", a, b, err)
	}

	var ids []string
	for result.Next(ctx) {
		if v, ok := result.Record().Get("m.id"); ok {
			if s, ok := v.(string); ok {
				ids = append(ids, s)
			}
		}
	}
	return ids, result.Err()
}

// Close shuts down the driver.
func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}
