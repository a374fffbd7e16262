package bootstrap

import (
	"context"
	"log"
	"os"
	"time"

	"itsm-triage-be/internal/config"
	"itsm-triage-be/internal/controller"
	"itsm-triage-be/internal/pkg/logger"
	"itsm-triage-be/internal/repository/contract"
	"itsm-triage-be/internal/repository/memory"
	"itsm-triage-be/internal/repository/redisstate"
	"itsm-triage-be/internal/repository/unitofwork"
	"itsm-triage-be/internal/service"
	"itsm-triage-be/pkg/embedding"
	"itsm-triage-be/pkg/kb"
	"itsm-triage-be/pkg/llm/factory"
	"itsm-triage-be/pkg/ticketing/ivanti"
	"itsm-triage-be/pkg/ticketing/nice"
	"itsm-triage-be/pkg/triage"
	"itsm-triage-be/pkg/triage/agent"
	"itsm-triage-be/pkg/triage/history"
	"itsm-triage-be/pkg/triage/policy"
	"itsm-triage-be/pkg/triage/state"

	pktNats "itsm-triage-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	TriageController controller.ITriageController
	KbController     controller.IKbController

	// Background Services (Exposed for main.go to run)
	AuditConsumerService service.IAuditConsumerService
	KbConsumerService    service.IKbConsumerService

	// Shared infrastructure main.go needs for shutdown
	Logger *logger.ZapLogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	stdLogger := log.New(os.Stdout, "", log.LstdFlags)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "azure" {
		embeddingProvider = embedding.NewAzureProvider(
			cfg.Ai.AzureEndpoint,
			cfg.Ai.AzureAPIKey,
			cfg.Ai.AzureEmbedModel,
			cfg.Ai.AzureAPIVersion,
		)
		log.Printf("[INFO] Using Embedding Provider: AZURE (%s)", cfg.Ai.AzureEmbedModel)
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	llmBaseURL := cfg.Ai.OllamaBaseURL
	if cfg.Ai.LLMProvider == "azure-openai" {
		llmBaseURL = cfg.Ai.AzureEndpoint
	}
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:   cfg.Ai.LLMProvider,
		BaseURL:    llmBaseURL,
		Model:      cfg.Ai.LLMModel,
		APIKey:     cfg.Ai.AzureAPIKey,
		APIVersion: cfg.Ai.AzureAPIVersion,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Conversation State Storage
	stateTTL := time.Duration(cfg.Triage.StateTTLMinutes) * time.Minute
	var stateRepo contract.StateRepository
	if cfg.Triage.StateStore == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		stateRepo = redisstate.NewStateRepository(rdb, stateTTL)
		log.Printf("[INFO] Using State Store: REDIS (ttl=%s)", stateTTL)
	} else {
		stateRepo = memory.NewStateRepository(stateTTL)
		log.Printf("[INFO] Using State Store: MEMORY (ttl=%s)", stateTTL)
	}

	// 5. NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 6. Triage Pipeline
	searcher := kb.NewVectorSearcher(uowFactory, embeddingProvider, stdLogger)
	histories := history.NewLoader(uowFactory, cfg.Triage.HistoryLimit, stdLogger)
	stateMachine := state.NewMachine(stateRepo, stdLogger)

	ivantiClient := ivanti.NewClient(cfg.Ticketing.IvantiAPIURL, 30*time.Second, stdLogger)
	niceClient := nice.NewClient(cfg.Ticketing.NiceAPIURL, cfg.Ticketing.NiceSkillId, 30*time.Second, stdLogger)
	toolRunner := agent.NewToolRunner(ivantiClient, niceClient, stdLogger)
	reasoner := agent.NewGroup(llmProvider, toolRunner, cfg.Triage.MaxAgentIterations, stdLogger)

	orchestrator := triage.NewOrchestrator(
		histories,
		stateMachine,
		searcher,
		reasoner,
		cfg.Triage.TopK,
		stdLogger,
	)

	classifier := policy.NewClassifier(cfg.Triage.AutoEscalateThreshold)

	// 7. Services
	auditPublisher := service.NewPublisherService(pubSub, cfg.Triage.AuditTopicName)
	kbEmbedPublisher := service.NewPublisherService(pubSub, cfg.Triage.KbEmbedTopicName)

	triageService := service.NewTriageService(orchestrator, classifier, histories, auditPublisher, natsPub, sysLogger)
	kbService := service.NewKbService(uowFactory, kbEmbedPublisher)

	auditConsumerService := service.NewAuditConsumerService(pubSub, cfg.Triage.AuditTopicName, uowFactory)
	kbConsumerService := service.NewKbConsumerService(
		pubSub,
		cfg.Triage.KbEmbedTopicName,
		uowFactory,
		embeddingProvider,
	)

	// 8. Controllers
	return &Container{
		TriageController: controller.NewTriageController(triageService),
		KbController:     controller.NewKbController(kbService),

		AuditConsumerService: auditConsumerService,
		KbConsumerService:    kbConsumerService,

		Logger: sysLogger,
	}
}
