package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"mindwell/internal/ai"
	"mindwell/internal/analysis/crisis"
	appsvc "mindwell/internal/app"
	"mindwell/internal/cache"
	"mindwell/internal/config"
	"mindwell/internal/model"
	mysqlClient "mindwell/internal/platform/mysql"
	rabbitmqClient "mindwell/internal/platform/rabbitmq"
	redisClient "mindwell/internal/platform/redis"
	"mindwell/internal/repository"
	"mindwell/internal/worker"
)

type App struct {
	Config     *config.Config
	MySQL      *gorm.DB
	Redis      *redis.Client
	MQConn     *amqp.Connection
	TurnWorker *worker.TurnPersistWorker

	Auth      *appsvc.AuthService
	Companion *appsvc.CompanionService
	Crisis    *appsvc.CrisisService

	Therapists *appsvc.TherapistService
	Resources  *appsvc.ResourceService
	Messaging  *appsvc.MessagingService

	StartedAt time.Time

	stopSweeper context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	a := &App{Config: cfg, StartedAt: time.Now()}

	a.MySQL, err = mysqlClient.New(ctx, cfg.MySQLDSN(),
		&model.User{},
		&model.ChatHistory{},
		&model.CrisisEvent{},
		&model.TherapistProfile{},
		&model.Resource{},
		&model.DirectMessage{},
	)
	if err != nil {
		return nil, err
	}

	a.Redis, err = redisClient.New(ctx, redisClient.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	historyRepo := repository.NewChatHistoryRepository(a.MySQL)
	historyCache := cache.NewHistoryCache(
		a.Redis,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	a.TurnWorker = worker.NewTurnPersistWorker(a.MQConn, historyRepo, historyCache, cfg.RabbitMQ.TurnPersistQueue)
	if err := a.TurnWorker.Start(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("start turn worker failed: %w", err)
	}

	a.wireServices(historyRepo, historyCache)

	sweepCtx, stop := context.WithCancel(context.Background())
	a.stopSweeper = stop
	a.Companion.StartSessionSweeper(sweepCtx, time.Duration(cfg.Companion.SweepIntervalSeconds)*time.Second)
	return a, nil
}

func (a *App) wireServices(historyRepo *repository.ChatHistoryRepository, historyCache *cache.HistoryCache) {
	cfg := a.Config

	historyStore := appsvc.NewChatHistoryStore(
		historyRepo,
		rabbitmqClient.NewTurnPublisher(a.MQConn, cfg.RabbitMQ.TurnPersistQueue),
		historyCache,
	)

	detector := crisis.NewDetector(map[crisis.Severity][]string{
		crisis.High:   cfg.Crisis.HighKeywords,
		crisis.Medium: cfg.Crisis.MediumKeywords,
		crisis.Low:    cfg.Crisis.LowKeywords,
	})
	a.Crisis = appsvc.NewCrisisService(detector, repository.NewCrisisEventRepository(a.MySQL), cfg.Crisis.AlertLimit)

	a.Companion = appsvc.NewCompanionService(
		ai.NewOpenAICompatibleClient(),
		historyStore,
		a.Crisis,
		cache.NewConsentStore(a.Redis),
		appsvc.CompanionOptions{
			LLM: ai.ChatConfig{
				BaseURL:     cfg.LLM.BaseURL,
				APIKey:      cfg.LLM.APIKey,
				Model:       cfg.LLM.Model,
				Temperature: cfg.LLM.Temperature,
				MaxTokens:   cfg.LLM.MaxTokens,
			},
			SystemPrompt: cfg.LLM.SystemPrompt,
			Timeout:      cfg.LLMTimeout(),
		},
	)

	userRepo := repository.NewUserRepository(a.MySQL)
	a.Therapists = appsvc.NewTherapistService(repository.NewTherapistRepository(a.MySQL), userRepo)
	a.Resources = appsvc.NewResourceService(repository.NewResourceRepository(a.MySQL))
	a.Messaging = appsvc.NewMessagingService(repository.NewDirectMessageRepository(a.MySQL), userRepo)

	a.Auth = appsvc.NewAuthService(
		userRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)
}

func (a *App) Close() error {
	var closeErr error
	if a.stopSweeper != nil {
		a.stopSweeper()
	}
	if a.TurnWorker != nil {
		a.TurnWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
