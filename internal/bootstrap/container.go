package bootstrap

import (
	"context"
	"log"

	"voicenote-be/internal/config"
	"voicenote-be/internal/controller"
	"voicenote-be/internal/pkg/logger"
	"voicenote-be/internal/repository/unitofwork"
	"voicenote-be/internal/service"
	"voicenote-be/internal/websocket"
	"voicenote-be/pkg/cluster"
	"voicenote-be/pkg/embedding"
	"voicenote-be/pkg/llm/factory"
	"voicenote-be/pkg/rag"
	"voicenote-be/pkg/transcribe"

	pktNats "voicenote-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// statusTopic is the in-process bus topic carrying note status events from
// the pipeline to the websocket hub.
const statusTopic = "NOTE_STATUS"

type Container struct {
	// Controllers
	NoteController    controller.INoteController
	ClusterController controller.IClusterController
	WsController      *controller.WsController

	// Background Services (Exposed for main.go to run)
	PipelineService       service.IPipelineService
	StatusConsumerService service.IStatusConsumerService

	WebSocketHub *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. In-process Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
			cfg.Ai.EmbedTimeout,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey, cfg.Ai.EmbedTimeout)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	transcriber := transcribe.NewWhisperProvider(cfg.Ai.OpenAIAPIKey, "", cfg.Ai.SttModel)

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

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

	// WebSocket Hub
	wsHub := websocket.NewHub(rdb, sysLogger)
	go wsHub.Run()

	// 5. Semantic Engine
	matcher := cluster.NewMatcher(cfg.Semantics.MatchThreshold, sysLogger)
	labeler := cluster.NewLabeler(llmProvider, sysLogger)
	assigner := cluster.NewAssigner(matcher, labeler, sysLogger)
	answerGenerator := rag.NewAnswerGenerator(llmProvider)

	// 6. Services
	statusPublisher := service.NewPublisherService(statusTopic, pubSub)
	statusConsumer := service.NewStatusConsumerService(pubSub, statusTopic, wsHub, sysLogger)

	noteService := service.NewNoteService(
		uowFactory,
		embeddingProvider,
		matcher,
		labeler,
		natsPub,
		cfg,
		sysLogger,
	)
	clusterService := service.NewClusterService(uowFactory, sysLogger)
	searchService := service.NewSearchService(
		uowFactory,
		embeddingProvider,
		answerGenerator,
		cfg,
		sysLogger,
	)
	pipelineService := service.NewPipelineService(
		uowFactory,
		transcriber,
		embeddingProvider,
		assigner,
		natsSub,
		statusPublisher,
		cfg,
		sysLogger,
	)

	// 7. Controllers
	noteController := controller.NewNoteController(noteService, searchService)
	clusterController := controller.NewClusterController(clusterService)
	wsController := controller.NewWsController(wsHub, sysLogger)

	return &Container{
		NoteController:        noteController,
		ClusterController:     clusterController,
		WsController:          wsController,
		PipelineService:       pipelineService,
		StatusConsumerService: statusConsumer,
		WebSocketHub:          wsHub,
		Logger:                sysLogger,
	}
}
