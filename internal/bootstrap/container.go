package bootstrap

import (
	"context"
	"fmt"
	"log"

	"speech-rehearsal-be/internal/config"
	"speech-rehearsal-be/internal/controller"
	"speech-rehearsal-be/internal/handler"
	"speech-rehearsal-be/internal/pkg/logger"
	"speech-rehearsal-be/internal/repository/memory"
	"speech-rehearsal-be/internal/repository/redisstore"
	"speech-rehearsal-be/internal/repository/unitofwork"
	"speech-rehearsal-be/internal/service"
	"speech-rehearsal-be/internal/session"
	"speech-rehearsal-be/internal/websocket"
	"speech-rehearsal-be/pkg/analysisengine"
	"speech-rehearsal-be/pkg/media"
	pktNats "speech-rehearsal-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const recomputeTopic = "speech.recompute"

type Container struct {
	// Controllers
	SpeechController    controller.ISpeechController
	RehearsalController controller.IRehearsalController
	WizardController    controller.IWizardController
	HealthController    controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService   service.IConsumerService
	EventAuditService *service.EventAuditService

	// WebSockets
	AnalysisStatusHandler *handler.AnalysisStatusHandler
	WebSocketHub          *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires everything. A nil db selects the in-memory store; NATS
// and Redis are optional and skipped when their URLs are empty.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Println("[WARN] Using in-memory store; data is lost on restart")
		uowFactory = memory.NewRepositoryFactory(memory.NewStore())
	}

	healthChecks := map[string]controller.HealthCheck{}
	if db != nil {
		healthChecks["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 2.5 Infrastructure
	// NATS
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(ctx, cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = pub
			c.closers = append(c.closers, pub.Close)
		}

		sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			auditLogger := logger.NewIsolatedLogger("logs/events.log")
			c.EventAuditService = service.NewEventAuditService(sub, auditLogger)
			c.closers = append(c.closers, sub.Close)
		}
	}

	// Redis
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		healthChecks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	// Sessions
	var sessionStore session.Store
	if cfg.Session.Store == "redis" && rdb != nil {
		sessionStore = redisstore.NewSessionRepository(rdb)
	} else {
		if cfg.Session.Store == "redis" {
			log.Println("[WARN] SESSION_STORE=redis but REDIS_URL is empty; sessions kept in memory")
		}
		sessionStore = memory.NewSessionRepository()
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/analysis_status.log")
	wsHub := websocket.NewHub(rdb, uuid.NewString(), wsLogger)
	go wsHub.Run(ctx)
	c.WebSocketHub = wsHub

	// 3. Services
	events := service.NewEventPublisher(natsPub, sysLogger)
	publisherService := service.NewPublisherService(recomputeTopic, pubSub)

	speechService := service.NewSpeechService(uowFactory, events, sysLogger)
	rehearsalService := service.NewRehearsalService(
		uowFactory,
		publisherService,
		events,
		media.NewCloudinaryUploader(cfg.Media.CloudName, cfg.Media.UploadPreset),
		cfg.Media.Timeout,
		sysLogger,
	)
	analysisService := service.NewAnalysisService(
		uowFactory,
		analysisengine.NewClient(cfg.Analysis.EngineURL),
		wsHub, // Hub implements StatusNotifier
		events,
		cfg.Analysis.Timeout,
		sysLogger,
	)
	wizardService := service.NewWizardService(uowFactory, speechService, rehearsalService, sessionStore, sysLogger)

	c.ConsumerService = service.NewConsumerService(pubSub, recomputeTopic, speechService, sysLogger)

	// 4. Controllers
	c.SpeechController = controller.NewSpeechController(speechService)
	c.RehearsalController = controller.NewRehearsalController(rehearsalService, analysisService)
	c.WizardController = controller.NewWizardController(wizardService, sessionStore, cfg.Session.Secret, sysLogger)
	c.HealthController = controller.NewHealthController(healthChecks)
	c.AnalysisStatusHandler = handler.NewAnalysisStatusHandler(rehearsalService, wsHub, wsLogger)

	return c
}

// StartBackground starts the recompute consumer and, when NATS is configured,
// the event audit consumer.
func (c *Container) StartBackground(ctx context.Context) error {
	if err := c.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("start recompute consumer: %w", err)
	}
	if c.EventAuditService != nil {
		if err := c.EventAuditService.Start(ctx); err != nil {
			// Auditing is not worth refusing traffic over.
			c.Logger.Warn("Container", "Event audit disabled", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
