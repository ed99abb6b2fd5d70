package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/vivarium/internal/bus"
	"github.com/nidhogg/vivarium/internal/character"
	"github.com/nidhogg/vivarium/internal/emotion"
	"github.com/nidhogg/vivarium/internal/generator"
	"github.com/nidhogg/vivarium/internal/interaction"
	"github.com/nidhogg/vivarium/internal/relation"
	"go.uber.org/zap"
)

// Store is the durable persistence consumed by the engine. Every method
// may fail with a store-specific error; the engine maps failures to
// PersistenceError and rolls back its in-memory mutation.
type Store interface {
	SaveInteraction(ctx context.Context, rec *interaction.Record) error
	UpdateRelationship(ctx context.Context, snap relation.Snapshot) error
	UpdateEmotionalState(ctx context.Context, snap emotion.Snapshot) error
	UpdateCharacterEnergy(ctx context.Context, characterID string, energy float64) error
}

// RelationMirror receives relationship updates for secondary indexes
// (the Neo4j graph). Mirroring is best-effort and never fails an
// interaction.
type RelationMirror interface {
	SetRelation(ctx context.Context, snap relation.Snapshot) error
}

// Request is one interaction to process.
type Request struct {
	InitiatorID string            `json:"initiator_id"`
	TargetID    string            `json:"target_id"`
	Type        interaction.Type  `json:"interaction_type"`
	Content     string            `json:"content"`
	Context     map[string]string `json:"context,omitempty"`
}

// Result is the complete outcome of one processed interaction: either a
// full success or a full, reason-coded rejection. Partial application
// is never visible.
type Result struct {
	Success           bool                   `json:"success"`
	Reason            string                 `json:"reason,omitempty"`
	InteractionID     string                 `json:"interaction_id"`
	Response          string                 `json:"response,omitempty"`
	RelationshipDelta relation.Delta         `json:"relationship_delta"`
	Relationship      *relation.Snapshot     `json:"relationship,omitempty"`
	InitiatorEmotion  *emotion.Snapshot      `json:"initiator_emotion,omitempty"`
	TargetEmotion     *emotion.Snapshot      `json:"target_emotion,omitempty"`
	Metadata          map[string]interface{} `json:"metadata"`
}

// Engine orchestrates interaction processing: it resolves effects from
// personality, mutates relationship and emotional state under per-pair
// locking, persists the outcome, and publishes it to the ecosystem bus.
type Engine struct {
	registry  *character.Registry
	relations *relation.Store
	emotions  *emotion.Tracker
	generator generator.Generator
	publisher bus.Publisher
	store     Store
	mirror    RelationMirror
	now       func() time.Time

	charLocks map[string]*sync.Mutex
	lockMu    sync.Mutex

	logger *zap.Logger
}

// New creates an engine. Store and mirror are optional and attached via
// SetStore / SetMirror; without a store the engine runs purely in
// memory.
func New(
	registry *character.Registry,
	relations *relation.Store,
	emotions *emotion.Tracker,
	gen generator.Generator,
	publisher bus.Publisher,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		registry:  registry,
		relations: relations,
		emotions:  emotions,
		generator: gen,
		publisher: publisher,
		now:       time.Now,
		charLocks: make(map[string]*sync.Mutex),
		logger:    logger,
	}
}

// SetStore attaches the durable store.
func (e *Engine) SetStore(s Store) { e.store = s }

// SetMirror attaches a relationship mirror.
func (e *Engine) SetMirror(m RelationMirror) { e.mirror = m }

// SetPublisher replaces the event publisher, e.g. to tee events onto a
// Redis stream alongside the in-process bus.
func (e *Engine) SetPublisher(p bus.Publisher) { e.publisher = p }

// SetClock overrides the engine's clock for record timestamps.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// ProcessInteraction runs one interaction end to end. Precondition
// failures (validation, self-interaction, unknown character) return
// typed errors before any lock is taken. Business rejections (unknown
// type, insufficient energy) return Success=false with a reason and
// publish a rejection event. Generation and persistence failures leave
// all relationship, emotional, and energy state exactly as it was.
func (e *Engine) ProcessInteraction(ctx context.Context, req *Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	initiator, ok := e.registry.Snapshot(req.InitiatorID)
	if !ok {
		return nil, &NotFoundError{CharacterID: req.InitiatorID}
	}
	target, ok := e.registry.Snapshot(req.TargetID)
	if !ok {
		return nil, &NotFoundError{CharacterID: req.TargetID}
	}

	// Unknown type is a business rejection decided before any lock.
	if !interaction.KnownType(req.Type) {
		res := interaction.Resolution{Accepted: false, Reason: interaction.ReasonUnknownType}
		result := e.reject(req, res)
		if ev := e.eventFor(bus.EventRejection, result, req, initiator, target); ev != nil {
			e.publish(*ev)
		}
		return result, nil
	}

	result, event, err := e.processLocked(ctx, req)
	if err != nil {
		return nil, err
	}
	// Publish only after the pair lock is released.
	if event != nil {
		e.publish(*event)
	}
	return result, nil
}

// processLocked runs the lock-holding portion: snapshot, resolve,
// generate, apply, persist. It returns the event to publish after the
// lock is gone.
func (e *Engine) processLocked(ctx context.Context, req *Request) (*Result, *bus.Event, error) {
	pair := relation.NewPair(req.InitiatorID, req.TargetID)
	unlock := e.lockPair(pair)
	defer unlock()

	initiator, ok := e.registry.Snapshot(req.InitiatorID)
	if !ok {
		return nil, nil, &NotFoundError{CharacterID: req.InitiatorID}
	}
	target, ok := e.registry.Snapshot(req.TargetID)
	if !ok {
		return nil, nil, &NotFoundError{CharacterID: req.TargetID}
	}

	relBefore := e.relations.Snapshot(pair)
	initEmoBefore := e.emotions.Snapshot(initiator.ID)
	targetEmoBefore := e.emotions.Snapshot(target.ID)

	res := interaction.Resolve(interaction.Input{
		Initiator:        initiator,
		Target:           target,
		Relationship:     &relBefore,
		InitiatorEmotion: initEmoBefore,
		TargetEmotion:    targetEmoBefore,
		Type:             req.Type,
		Content:          req.Content,
		Context:          req.Context,
	})
	if !res.Accepted {
		result := e.reject(req, res)
		ev := e.eventFor(bus.EventRejection, result, req, initiator, target)
		return result, ev, nil
	}

	// The generator is the one I/O suspension point before mutation; it
	// must respect ctx so a stuck backend cannot hold the pair forever.
	response, err := e.generator.Generate(ctx, &generator.Request{
		Initiator:         initiator,
		Target:            target,
		Type:              req.Type,
		Content:           req.Content,
		RelationshipDelta: res.RelationshipDelta,
		Relationship:      relBefore,
		Context:           req.Context,
	})
	if err != nil {
		e.logger.Warn("content generation failed",
			zap.String("initiator", initiator.ID),
			zap.String("target", target.ID),
			zap.Error(err))
		return nil, nil, &GenerationError{Err: err}
	}

	// Cancellation is honored up to the commit point; past here the
	// interaction's effects are final.
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	now := e.now()
	relAfter := e.relations.ApplyDelta(pair, res.RelationshipDelta, now)
	initEmoAfter := e.emotions.ApplyDelta(initiator.ID, res.InitiatorEmotion)
	targetEmoAfter := e.emotions.ApplyDelta(target.ID, res.TargetEmotion)
	initEnergy := e.registry.DebitEnergy(initiator.ID, res.EnergyCost)
	targetEnergy := e.registry.DebitEnergy(target.ID, res.EnergyCost)

	rec := &interaction.Record{
		ID:                uuid.New().String(),
		EcosystemID:       ecosystemOf(initiator, target),
		InitiatorID:       initiator.ID,
		TargetID:          target.ID,
		Type:              req.Type,
		Content:           req.Content,
		Timestamp:         now,
		Accepted:          true,
		Response:          response,
		RelationshipDelta: res.RelationshipDelta,
		InitiatorEmotion:  res.InitiatorEmotion,
		TargetEmotion:     res.TargetEmotion,
		EnergyCost:        res.EnergyCost,
	}

	if err := e.persist(ctx, rec, relAfter, initEmoAfter, targetEmoAfter, initEnergy, targetEnergy); err != nil {
		// Roll back every in-memory mutation before surfacing the failure.
		e.relations.Restore(relBefore)
		e.emotions.Restore(initEmoBefore)
		e.emotions.Restore(targetEmoBefore)
		e.registry.SetEnergy(initiator.ID, initiator.SocialEnergy)
		e.registry.SetEnergy(target.ID, target.SocialEnergy)
		return nil, nil, err
	}

	if e.mirror != nil {
		if err := e.mirror.SetRelation(ctx, relAfter); err != nil {
			e.logger.Warn("relationship mirror update failed", zap.Error(err))
		}
	}

	e.logger.Info("interaction processed",
		zap.String("id", rec.ID),
		zap.String("type", string(req.Type)),
		zap.String("initiator", initiator.ID),
		zap.String("target", target.ID),
		zap.Float64("affinity", relAfter.Metrics.Affinity))

	result := &Result{
		Success:           true,
		InteractionID:     rec.ID,
		Response:          response,
		RelationshipDelta: res.RelationshipDelta,
		Relationship:      &relAfter,
		InitiatorEmotion:  &initEmoAfter,
		TargetEmotion:     &targetEmoAfter,
		Metadata: map[string]interface{}{
			"interaction_type": req.Type,
			"energy_cost":      res.EnergyCost,
			"initiator_energy": initEnergy,
			"target_energy":    targetEnergy,
			"compatibility":    res.Compatibility,
			"timestamp":        now,
		},
	}
	ev := &bus.Event{
		Kind:         bus.EventInteraction,
		Interaction:  rec,
		Relationship: &relAfter,
		Timestamp:    now,
	}
	ev.EcosystemID = rec.EcosystemID
	return result, ev, nil
}

// persist writes the interaction and every touched record. The first
// failure aborts; the caller rolls back in-memory state.
func (e *Engine) persist(
	ctx context.Context,
	rec *interaction.Record,
	rel relation.Snapshot,
	initEmo, targetEmo emotion.Snapshot,
	initEnergy, targetEnergy float64,
) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.SaveInteraction(ctx, rec); err != nil {
		return &PersistenceError{Op: "interaction", Err: err}
	}
	if err := e.store.UpdateRelationship(ctx, rel); err != nil {
		return &PersistenceError{Op: "relationship", Err: err}
	}
	if err := e.store.UpdateEmotionalState(ctx, initEmo); err != nil {
		return &PersistenceError{Op: "emotional state", Err: err}
	}
	if err := e.store.UpdateEmotionalState(ctx, targetEmo); err != nil {
		return &PersistenceError{Op: "emotional state", Err: err}
	}
	if err := e.store.UpdateCharacterEnergy(ctx, rec.InitiatorID, initEnergy); err != nil {
		return &PersistenceError{Op: "character energy", Err: err}
	}
	if err := e.store.UpdateCharacterEnergy(ctx, rec.TargetID, targetEnergy); err != nil {
		return &PersistenceError{Op: "character energy", Err: err}
	}
	return nil
}

// reject builds the rejection result and publishes nothing itself; the
// rejection event carries an unpersisted record.
func (e *Engine) reject(req *Request, res interaction.Resolution) *Result {
	return &Result{
		Success:       false,
		Reason:        res.Reason,
		InteractionID: uuid.New().String(),
		Metadata: map[string]interface{}{
			"interaction_type": req.Type,
			"energy_cost":      res.EnergyCost,
			"timestamp":        e.now(),
		},
	}
}

func (e *Engine) eventFor(kind bus.EventKind, result *Result, req *Request, initiator, target character.Snapshot) *bus.Event {
	rec := &interaction.Record{
		ID:          result.InteractionID,
		EcosystemID: ecosystemOf(initiator, target),
		InitiatorID: req.InitiatorID,
		TargetID:    req.TargetID,
		Type:        req.Type,
		Content:     req.Content,
		Timestamp:   e.now(),
		Accepted:    false,
		Reason:      result.Reason,
	}
	return &bus.Event{
		Kind:        kind,
		EcosystemID: rec.EcosystemID,
		Interaction: rec,
		Timestamp:   rec.Timestamp,
	}
}

func (e *Engine) publish(ev bus.Event) {
	if e.publisher == nil || ev.EcosystemID == "" {
		return
	}
	e.publisher.Publish(ev.EcosystemID, ev)
}

// lockPair acquires both character locks in canonical order, so any two
// interactions sharing a character serialize and overlapping pairs
// (A-B, B-C) can never deadlock. The returned func releases in reverse
// order.
func (e *Engine) lockPair(p relation.Pair) func() {
	first := e.lockFor(p.A)
	second := e.lockFor(p.B)
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}

func (e *Engine) lockFor(characterID string) *sync.Mutex {
	e.lockMu.Lock()
	defer e.lockMu.Unlock()
	m, ok := e.charLocks[characterID]
	if !ok {
		m = &sync.Mutex{}
		e.charLocks[characterID] = m
	}
	return m
}

func validate(req *Request) error {
	if req.InitiatorID == "" {
		return &ValidationError{Field: "initiator_id", Reason: "required"}
	}
	if req.TargetID == "" {
		return &ValidationError{Field: "target_id", Reason: "required"}
	}
	if req.InitiatorID == req.TargetID {
		return ErrSelfInteraction
	}
	if len(req.Content) < interaction.MinContentLen || len(req.Content) > interaction.MaxContentLen {
		return &ValidationError{Field: "content", Reason: "length must be 1..5000"}
	}
	return nil
}

// ecosystemOf picks the stream an interaction belongs to: the
// initiator's ecosystem, falling back to the target's.
func ecosystemOf(initiator, target character.Snapshot) string {
	if initiator.EcosystemID != "" {
		return initiator.EcosystemID
	}
	return target.EcosystemID
}
