package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/handlers"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/services/discovery"
	"github.com/ternarybob/reperio/internal/services/extract"
	"github.com/ternarybob/reperio/internal/services/llm"
	"github.com/ternarybob/reperio/internal/services/marketplace"
	"github.com/ternarybob/reperio/internal/services/pipeline"
	"github.com/ternarybob/reperio/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB             *badger.BadgerDB
	KnowledgeStore interfaces.KnowledgeStore
	RunStore       interfaces.RunStore

	// Generative model services
	DiscoveryLLM interfaces.LLMService
	PromptLLM    interfaces.LLMService

	// Pipeline services
	Engine       *discovery.Engine
	Collector    *discovery.Collector
	Processor    *extract.Processor
	Marketplace  *marketplace.Client
	Aggregator   *marketplace.Aggregator
	Orchestrator *pipeline.Orchestrator

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	DiscoveryHandler *handlers.DiscoveryHandler
}

// New creates and wires all application components.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	knowledgeStore := badger.NewKnowledgeStore(db, logger)
	runStore := pipeline.NewMemoryRunStore()

	discoveryLLM, promptLLM, err := llm.NewServices(config, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize LLM services: %w", err)
	}

	engine := discovery.NewEngine(config, discoveryLLM, logger)
	processor := extract.NewProcessor(config, logger)
	collector := discovery.NewCollector(config, engine, processor, logger)
	marketplaceClient := marketplace.NewClient(config, logger)
	aggregator := marketplace.NewAggregator(marketplaceClient, logger)

	orchestrator := pipeline.NewOrchestrator(
		config,
		engine,
		collector,
		promptLLM,
		aggregator,
		knowledgeStore,
		runStore,
		logger,
	)

	application := &App{
		Config:           config,
		Logger:           logger,
		DB:               db,
		KnowledgeStore:   knowledgeStore,
		RunStore:         runStore,
		DiscoveryLLM:     discoveryLLM,
		PromptLLM:        promptLLM,
		Engine:           engine,
		Collector:        collector,
		Processor:        processor,
		Marketplace:      marketplaceClient,
		Aggregator:       aggregator,
		Orchestrator:     orchestrator,
		APIHandler:       handlers.NewAPIHandler(),
		DiscoveryHandler: handlers.NewDiscoveryHandler(orchestrator, runStore, logger),
	}

	logger.Info().Msg("Application initialized")
	return application, nil
}

// Close releases application resources.
func (a *App) Close() {
	if a.DiscoveryLLM != nil {
		a.DiscoveryLLM.Close()
	}
	if a.PromptLLM != nil {
		a.PromptLLM.Close()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close database")
		}
	}
	a.Logger.Info().Msg("Application closed")
}
