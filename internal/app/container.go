package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sandra-1136/client-calling/internal/autocall"
	"github.com/Sandra-1136/client-calling/internal/callbridge"
	bridgehosted "github.com/Sandra-1136/client-calling/internal/callbridge/hosted"
	bridgemock "github.com/Sandra-1136/client-calling/internal/callbridge/mock"
	"github.com/Sandra-1136/client-calling/internal/config"
	"github.com/Sandra-1136/client-calling/internal/infra/db"
	"github.com/Sandra-1136/client-calling/internal/infra/redis"
	"github.com/Sandra-1136/client-calling/internal/queue"
	"github.com/Sandra-1136/client-calling/internal/repository"
	pgrepo "github.com/Sandra-1136/client-calling/internal/repository/postgres"
	scyllarepo "github.com/Sandra-1136/client-calling/internal/repository/scylla"
	"github.com/Sandra-1136/client-calling/internal/runlock"
	contactsvc "github.com/Sandra-1136/client-calling/internal/service/contact"
	"github.com/Sandra-1136/client-calling/pkg/logger"
)

// Container wires together shared infrastructure dependencies.
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	Postgres *db.Postgres
	Scylla   *db.Scylla
	Redis    *redis.Client
	Kafka    *queue.Kafka

	// lazily initialised components
	components struct {
		once         sync.Once
		repositories *repositories
		services     *services
		publishers   *publishers
		bridge       callbridge.Provider
		dialer       *autocall.Engine
	}
}

type repositories struct {
	Contacts repository.ContactStore
	Attempts repository.AttemptJournal
}

type services struct {
	Contacts *contactsvc.Service
}

type publishers struct {
	Outcomes *queue.OutcomePublisher
}

// Build constructs a container for the given configuration path.
func Build(ctx context.Context, configPath string) (*Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}

	pg, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("bootstrap postgres: %w", err)
	}

	scylla, err := db.NewScylla(cfg.Scylla)
	if err != nil {
		return nil, fmt.Errorf("bootstrap scylla: %w", err)
	}

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("bootstrap redis: %w", err)
	}

	kafka, err := queue.NewKafka(cfg.Kafka)
	if err != nil {
		return nil, fmt.Errorf("bootstrap kafka: %w", err)
	}

	return &Container{
		Config:   cfg,
		Logger:   lg,
		Postgres: pg,
		Scylla:   scylla,
		Redis:    redisClient,
		Kafka:    kafka,
	}, nil
}

func (c *Container) initComponents() {
	c.components.once.Do(func() {
		repos := &repositories{
			Contacts: pgrepo.NewContactRepository(c.Postgres.DB()),
			Attempts: scyllarepo.NewAttemptJournal(c.Scylla.Session()),
		}

		pubs := &publishers{
			Outcomes: queue.NewOutcomePublisher(c.Kafka, c.Config.Kafka.OutcomeTopic),
		}

		svcs := &services{
			Contacts: contactsvc.NewService(repos.Contacts, repos.Attempts),
		}

		var bridge callbridge.Provider
		if c.Config.CallBridge.ProviderName == "hosted" && c.Config.CallBridge.Endpoint != "" {
			bridge = bridgehosted.NewProvider(c.Config.CallBridge)
		} else {
			bridge = bridgemock.NewProvider(c.Config.CallBridge)
		}

		lease := runlock.New(c.Redis.Inner(), c.Config.Dialer.LockKey, c.Config.Dialer.LockTTL)

		dialerCfg := autocall.Config{
			PreRollDelay:    c.Config.Dialer.PreRollDelay,
			InterCallDelay:  c.Config.Dialer.InterCallDelay,
			InterRoundDelay: c.Config.Dialer.InterRoundDelay,
			AttemptTimeout:  c.Config.Dialer.AttemptTimeout,
		}
		dialer := autocall.New(context.Background(), repos.Contacts, bridge, pubs.Outcomes, lease, dialerCfg, c.Logger)

		c.components.repositories = repos
		c.components.publishers = pubs
		c.components.services = svcs
		c.components.bridge = bridge
		c.components.dialer = dialer
	})
}

// Repositories exposes initialized repositories.
func (c *Container) Repositories() *repositories {
	c.initComponents()
	return c.components.repositories
}

// Services exposes initialized services.
func (c *Container) Services() *services {
	c.initComponents()
	return c.components.services
}

// Publishers exposes Kafka publishers.
func (c *Container) Publishers() *publishers {
	c.initComponents()
	return c.components.publishers
}

// Dialer exposes the auto-call engine.
func (c *Container) Dialer() *autocall.Engine {
	c.initComponents()
	return c.components.dialer
}

// Close releases all held resources.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.components.dialer != nil {
		c.components.dialer.Stop(ctx)
	}
	if c.components.publishers != nil && c.components.publishers.Outcomes != nil {
		if err := c.components.publishers.Outcomes.Close(); err != nil {
			errs = append(errs, fmt.Errorf("outcome publisher close: %w", err))
		}
	}
	if c.Kafka != nil {
		if err := c.Kafka.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka close: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if c.Scylla != nil {
		if err := c.Scylla.Close(); err != nil {
			errs = append(errs, fmt.Errorf("scylla close: %w", err))
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres close: %w", err))
		}
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// EnsureTopics ensures required Kafka topics exist.
func (c *Container) EnsureTopics(ctx context.Context) error {
	return c.Kafka.EnsureTopics(ctx, []string{c.Config.Kafka.OutcomeTopic}, 12, 1)
}
