package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nidhogg/vivarium/internal/api"
	"github.com/nidhogg/vivarium/internal/bus"
	"github.com/nidhogg/vivarium/internal/character"
	"github.com/nidhogg/vivarium/internal/config"
	"github.com/nidhogg/vivarium/internal/emotion"
	"github.com/nidhogg/vivarium/internal/engine"
	"github.com/nidhogg/vivarium/internal/generator"
	"github.com/nidhogg/vivarium/internal/relation"
	pgstore "github.com/nidhogg/vivarium/internal/store"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/vivarium.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}

	logger := newLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	logger.Info("Starting vivarium...", zap.String("config", cfgPath))

	// In-memory state
	registry := character.NewRegistry(nil, logger)
	relations := relation.NewStore(logger)
	emotions := emotion.NewTracker(nil, logger)
	eventBus := bus.New(cfg.Bus.BufferSize, logger)

	// Content generator
	var gen generator.Generator
	switch cfg.Generator.Type {
	case "openai":
		gen = generator.NewOpenAI(generator.Config{
			Endpoint: cfg.Generator.Endpoint,
			APIKey:   cfg.Generator.APIKey,
			Model:    cfg.Generator.Model,
			Timeout:  time.Duration(cfg.Generator.TimeoutMS) * time.Millisecond,
		}, logger)
	default:
		gen = generator.NewTemplate()
	}
	logger.Info("Generator configured", zap.String("type", cfg.Generator.Type))

	eng := engine.New(registry, relations, emotions, gen, eventBus, logger)

	// Initialize PostgreSQL store
	var store *pgstore.Store
	if cfg.Database.Postgres.DSN != "" {
		ps, pgErr := pgstore.New(cfg.Database.Postgres.DSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running without persistence", zap.Error(pgErr))
		} else {
			if mErr := ps.Migrate(context.Background(), pgstore.DefaultMigrationsDir); mErr != nil {
				logger.Fatal("migration failed", zap.Error(mErr))
			}
			store = ps
			eng.SetStore(ps)
			loadState(registry, relations, emotions, ps, logger)
		}
	}

	// Neo4j relationship mirror
	var graph *pgstore.Graph
	if cfg.Database.Neo4j.URI != "" {
		g, gErr := pgstore.NewGraph(cfg.Database.Neo4j.URI, cfg.Database.Neo4j.User, cfg.Database.Neo4j.Password, logger)
		if gErr != nil {
			logger.Warn("Neo4j unavailable, running without relationship graph", zap.Error(gErr))
		} else {
			graph = g
			eng.SetMirror(g)
		}
	}

	// Redis stream mirror for out-of-process consumers
	var bridge *bus.StreamBridge
	if cfg.Database.Redis.URL != "" {
		sb, sbErr := bus.NewStreamBridge(cfg.Database.Redis.URL, logger)
		if sbErr != nil {
			logger.Warn("Redis unavailable, events stay in-process", zap.Error(sbErr))
		} else {
			bridge = sb
			eng.SetPublisher(bus.Tee{eventBus, sb})
		}
	}

	// Seed characters
	if cfg.SeedFile != "" {
		if err := seedCharacters(cfg.SeedFile, registry, store, logger); err != nil {
			logger.Warn("seed load failed", zap.String("path", cfg.SeedFile), zap.Error(err))
		}
	}

	// HTTP server
	var history api.History
	if store != nil {
		history = store
	}
	handler := api.NewHandler(eng, registry, relations, emotions, eventBus, history, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("vivarium listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down vivarium...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	eventBus.Close()
	if bridge != nil {
		bridge.Close()
	}
	if graph != nil {
		graph.Close(ctx)
	}
	if store != nil {
		store.Close()
	}
}

// newLogger builds a zap logger matching the configured level.
func newLogger(level string) *zap.Logger {
	if level == "debug" {
		l, _ := zap.NewDevelopment()
		return l
	}
	l, _ := zap.NewProduction()
	return l
}

// loadState hydrates the in-memory stores from PostgreSQL so restarts
// keep relationships and emotional state.
func loadState(
	registry *character.Registry,
	relations *relation.Store,
	emotions *emotion.Tracker,
	store *pgstore.Store,
	logger *zap.Logger,
) {
	ctx := context.Background()

	chars, err := store.ListCharacters(ctx)
	if err != nil {
		logger.Warn("failed to load characters", zap.Error(err))
	} else {
		for _, c := range chars {
			registry.Register(c)
		}
		logger.Info("Loaded characters from DB", zap.Int("count", len(chars)))
	}

	rels, err := store.ListRelationships(ctx)
	if err != nil {
		logger.Warn("failed to load relationships", zap.Error(err))
	} else {
		for _, snap := range rels {
			relations.Load(snap)
		}
		logger.Info("Loaded relationships from DB", zap.Int("count", len(rels)))
	}

	states, err := store.ListEmotionalStates(ctx)
	if err != nil {
		logger.Warn("failed to load emotional states", zap.Error(err))
	} else {
		for _, snap := range states {
			emotions.Load(snap)
		}
		logger.Info("Loaded emotional states from DB", zap.Int("count", len(states)))
	}
}

// seedCharacters registers characters from a JSON seed file, persisting
// them when a store is attached. Characters already present (by id) are
// left alone.
func seedCharacters(path string, registry *character.Registry, store *pgstore.Store, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seeds []character.Character
	if err := json.Unmarshal(data, &seeds); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	added := 0
	for i := range seeds {
		c := &seeds[i]
		if c.ID != "" {
			if _, ok := registry.Snapshot(c.ID); ok {
				continue
			}
		}
		if !c.Traits.Valid() || !c.Valid() {
			logger.Warn("skipping seed character with out-of-range fields", zap.String("name", c.Name))
			continue
		}
		registry.Register(c)
		if store != nil {
			if err := store.SaveCharacter(context.Background(), c); err != nil {
				logger.Warn("persist seed character failed", zap.String("id", c.ID), zap.Error(err))
			}
		}
		added++
	}
	logger.Info("Seeded characters", zap.Int("count", added), zap.String("path", path))
	return nil
}
