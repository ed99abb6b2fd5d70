package generator

import (
	"context"
	"fmt"

	"github.com/nidhogg/vivarium/internal/character"
	"github.com/nidhogg/vivarium/internal/interaction"
	"github.com/nidhogg/vivarium/internal/relation"
)

// Request carries the profiles and resolved context the generator turns
// into response prose.
type Request struct {
	Initiator         character.Snapshot `json:"initiator"`
	Target            character.Snapshot `json:"target"`
	Type              interaction.Type   `json:"type"`
	Content           string             `json:"content"`
	RelationshipDelta relation.Delta     `json:"relationship_delta"`
	Relationship      relation.Snapshot  `json:"relationship"`
	Context           map[string]string  `json:"context,omitempty"`
}

// Generator produces the target character's response text for one
// accepted interaction. Implementations must honor ctx cancellation so
// a stuck backend cannot wedge an in-flight interaction.
type Generator interface {
	Generate(ctx context.Context, req *Request) (string, error)
}

// Template is a deterministic offline generator: no backend, response
// text derived only from the request. Used when no provider is
// configured and throughout the tests.
type Template struct{}

// NewTemplate creates a template generator.
func NewTemplate() *Template { return &Template{} }

var templatePhrases = map[interaction.Type]string{
	interaction.Greeting:         "%s returns %s's greeting with a nod.",
	interaction.Chat:             "%s chats along, trading small talk with %s.",
	interaction.Discussion:       "%s weighs %s's point and offers a considered reply.",
	interaction.Debate:           "%s pushes back on %s's argument, conceding nothing.",
	interaction.Conflict:         "%s bristles at %s and answers sharply.",
	interaction.Collaboration:    "%s picks up %s's thread and builds on the plan.",
	interaction.EmotionalSupport: "%s leans in, reassured by %s's words.",
}

// Generate renders a fixed phrase for the interaction type.
func (t *Template) Generate(_ context.Context, req *Request) (string, error) {
	phrase, ok := templatePhrases[req.Type]
	if !ok {
		return "", fmt.Errorf("no template for interaction type %q", req.Type)
	}
	return fmt.Sprintf(phrase, req.Target.Name, req.Initiator.Name), nil
}
