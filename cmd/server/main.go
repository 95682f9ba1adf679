package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"selfid/internal/identity/claims"
	"selfid/internal/identity/executor"
	"selfid/internal/identity/facade"
	"selfid/internal/identity/keyring"
	jwttoken "selfid/internal/jwt_token"
	"selfid/internal/notify"
	notifykafka "selfid/internal/notify/kafka"
	notifymemory "selfid/internal/notify/store/memory"
	notifypostgres "selfid/internal/notify/store/postgres"
	"selfid/internal/platform/config"
	"selfid/internal/platform/httpserver"
	"selfid/internal/platform/logger"
	"selfid/internal/platform/metrics"
	"selfid/internal/platform/postgres"
	platformredis "selfid/internal/platform/redis"
	httptransport "selfid/internal/transport/http"
	id "selfid/pkg/domain"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the registry services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Notification journal: postgres when configured, memory otherwise.
	var journal notify.Store = notifymemory.New()
	if cfg.PostgresDSN != "" {
		pgJournal, err := notifypostgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("opening notification journal", "error", err)
			os.Exit(1)
		}
		defer pgJournal.Close()
		journal = pgJournal
	}

	publisherOpts := []notify.Option{notify.WithAsyncBuffer(256)}
	if len(cfg.KafkaBrokers) > 0 {
		topic := cfg.KafkaTopic
		if topic == "" {
			topic = notifykafka.DefaultTopic
		}
		sink, err := notifykafka.NewSink(ctx, cfg.KafkaBrokers, topic)
		if err != nil {
			log.Error("connecting kafka sink", "error", err)
			os.Exit(1)
		}
		publisherOpts = append(publisherOpts, notify.WithSink(sink))
	}
	publisher := notify.NewPublisher(journal, log, publisherOpts...)
	defer publisher.Close()

	// Claim store backend.
	var claimStore claims.Store
	switch cfg.ClaimsBackend {
	case "redis":
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil || redisClient == nil {
			log.Error("connecting redis claim store", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		claimStore = claims.NewRedisStore(redisClient.Client)
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil || pool == nil {
			log.Error("connecting postgres claim store", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		claimStore, err = claims.NewPostgresStore(ctx, pool)
		if err != nil {
			log.Error("preparing postgres claim store", "error", err)
			os.Exit(1)
		}
	default:
		claimStore = claims.NewInMemoryStore()
	}

	keyService := keyring.NewService(keyring.NewInMemoryStore(), publisher, log)

	var invoker executor.Invoker = executor.NewLogInvoker(log)
	if cfg.InvokerURL != "" {
		invoker = executor.NewHTTPInvoker(cfg.InvokerURL)
	}
	execService := executor.NewService(executor.NewInMemoryStore(), invoker, keyService, publisher, log, cfg.ActionThreshold)
	claimService := claims.NewService(claimStore, keyService, publisher, log)

	owner, err := id.ParseAddress(cfg.OwnerAddress)
	if err != nil {
		log.Error("invalid owner address", "error", err)
		os.Exit(1)
	}
	if err := keyService.SeedOwner(ctx, owner, id.KeyTypeECDSA); err != nil {
		log.Error("seeding owner key", "error", err)
		os.Exit(1)
	}

	identity := facade.New(owner, keyService, claimService, execService)
	tokens := jwttoken.NewService(cfg.JWTSigningKey, "selfid", "selfid-api")

	router := httptransport.NewRouter(httptransport.Deps{
		Identity: identity,
		Tokens:   tokens,
		Logger:   log,
		Metrics:  m,
	})
	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting selfid", "addr", cfg.Addr, "claims_backend", cfg.ClaimsBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
