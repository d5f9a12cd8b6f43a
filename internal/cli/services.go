package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/cache"
	"expensetracker/internal/config"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
)

// localProfileCacheSize bounds the in-process profile cache.
const localProfileCacheSize = 1000

// ServiceOptions selects the optional parts of the service graph.
type ServiceOptions struct {
	// Events publishes expense changes when AMQP_URL is set.
	Events bool
}

// Services is the wired service graph of one process.
type Services struct {
	Backend  backend.Backend
	Expenses *services.ExpenseService
	Profiles *services.ProfileService

	closers []func() error
}

// BuildServices opens the configured backend, profile cache and event
// publisher and wires the expense and profile services on top.
func BuildServices(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ServiceOptions) (*Services, error) {
	s := &Services{}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	s.Backend = res.Backend
	if res.Cleanup != nil {
		s.closers = append(s.closers, res.Cleanup)
	}

	profileCache, err := s.profileCache(ctx, cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	// A nil *amqp.Client must not reach the service as a non-nil interface.
	var events services.EventPublisher
	if opts.Events {
		if cfg.AMQPURL == "" {
			logger.WithComponent(log.ComponentAMQP).Warn("AMQP_URL not set, expense events are disabled")
		} else {
			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("connect amqp: %w", err)
			}
			s.closers = append(s.closers, client.Close)
			events = client
			logger.WithComponent(log.ComponentAMQP).Info("Expense events enabled", "exchange", cfg.AMQPExchange)
		}
	}

	s.Profiles = services.NewProfileService(res.Backend.Users, profileCache).WithLogger(logger)
	s.Expenses = services.NewExpenseService(res.Backend.Expenses, s.Profiles, events).WithLogger(logger)
	return s, nil
}

// profileCache picks Redis when REDIS_URL is set and an in-process LRU
// otherwise. A zero TTL disables caching.
func (s *Services) profileCache(ctx context.Context, cfg *config.Config, logger *log.Logger) (services.ProfileCache, error) {
	if cfg.ProfileCacheTTL == 0 {
		return nil, nil
	}
	if cfg.RedisURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		client, err := cache.DialRedis(dialCtx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		logger.WithComponent(log.ComponentCache).Info("Using Redis profile cache", "ttl", cfg.ProfileCacheTTL)
		return cache.NewRedisProfileCache(client, cfg.ProfileCacheTTL), nil
	}

	local := cache.NewLocalProfileCache(localProfileCacheSize, cfg.ProfileCacheTTL)
	manager := cache.NewManager()
	manager.Register(local)
	manager.StartCleanup(cfg.ProfileCacheTTL)
	s.closers = append(s.closers, func() error {
		manager.Stop()
		return nil
	})
	return local, nil
}

// Close releases every resource in reverse order of acquisition.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
