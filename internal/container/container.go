package container

import (
	"pollroom/internal/archive"
	"pollroom/internal/config"
	"pollroom/internal/poll"
	"pollroom/internal/session"
	"pollroom/pkg/logger"
	"pollroom/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	Hub         *session.Hub
	Archive     *archive.Service
	Polls       *poll.Service
	Coordinator *session.Coordinator
}

// New creates a new dependency injection container
func New(cfg *config.Config, log *logger.Logger) (*Container, error) {
	// Redis is optional: the archive falls back to memory without it.
	var redisClient *redis.Client
	var store archive.Store
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, archiving to memory")
			store = archive.NewMemoryStore(cfg.HistoryLimit)
		} else {
			redisClient = client
			store = archive.NewRedisStore(client, cfg.HistoryLimit)
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, archiving to memory")
		store = archive.NewMemoryStore(cfg.HistoryLimit)
	}

	hub := session.NewHub(log)
	archiveSvc := archive.NewService(store, cfg.HistoryLimit, log)
	polls := poll.NewService(hub, archiveSvc, cfg.DefaultDuration, log)
	coordinator := session.NewCoordinator(hub, polls, archiveSvc, log)

	return &Container{
		Config:      cfg,
		Logger:      log,
		RedisClient: redisClient,
		Hub:         hub,
		Archive:     archiveSvc,
		Polls:       polls,
		Coordinator: coordinator,
	}, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}
