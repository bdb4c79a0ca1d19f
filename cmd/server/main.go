// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages. Infrastructure is
// optional: without Postgres/Redis/Kafka the process runs on in-memory
// stores, which is the dev and test mode.
package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"ecotrace/internal/audit"
	"ecotrace/internal/oauth/authenticator"
	oauthhandler "ecotrace/internal/oauth/handler"
	"ecotrace/internal/oauth/metrics"
	oauthservice "ecotrace/internal/oauth/service"
	"ecotrace/internal/oauth/store/accesstoken"
	clientstore "ecotrace/internal/oauth/store/client"
	grantstore "ecotrace/internal/oauth/store/grant"
	transactionstore "ecotrace/internal/oauth/store/transaction"
	userstore "ecotrace/internal/oauth/store/user"
	"ecotrace/internal/oauth/token"
	"ecotrace/internal/platform/config"
	"ecotrace/internal/platform/httpserver"
	"ecotrace/internal/platform/kafka"
	"ecotrace/internal/platform/logger"
	"ecotrace/internal/platform/middleware"
	"ecotrace/internal/platform/postgres"
	platformredis "ecotrace/internal/platform/redis"
	"ecotrace/internal/session"
	sessionstore "ecotrace/internal/session/store"
)

const grantSweepInterval = 5 * time.Minute

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	signingKey, err := loadSigningKey(cfg, log)
	if err != nil {
		return err
	}

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Stores fall back to memory when their backend is not configured.
	var (
		clients      oauthservice.ClientStore
		users        oauthservice.UserStore
		grants       oauthservice.GrantStore
		accessTokens *accesstoken.Postgres
		bearer       session.BearerResolver
		tokenStore   token.AccessTokenStore
	)
	if db != nil {
		clients = clientstore.NewPostgres(db)
		users = userstore.NewPostgres(db)
		grants = grantstore.NewPostgres(db)
		accessTokens = accesstoken.NewPostgres(db)
		bearer = accessTokens
		tokenStore = accessTokens
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		clients = clientstore.NewMemory()
		users = userstore.NewMemory()
		grants = grantstore.NewMemory()
		memoryTokens := accesstoken.NewMemory()
		bearer = memoryTokens
		tokenStore = memoryTokens
	}

	var transactions oauthservice.TransactionStore
	var sessions session.Store
	if redisClient != nil {
		transactions = transactionstore.NewRedis(redisClient.Client, cfg.TransactionTTL)
		sessions = sessionstore.NewRedis(redisClient.Client, cfg.SessionTTL)
	} else {
		log.Warn("REDIS_URL not set, using in-memory transaction and session stores")
		transactions = transactionstore.NewMemory(cfg.TransactionTTL)
		sessions = sessionstore.NewMemory(cfg.SessionTTL)
	}

	auditPublisher, closeAudit, err := buildAuditPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	userDirectory, ok := users.(session.UserDirectory)
	if !ok {
		return errors.New("user store does not support email lookup")
	}

	flowMetrics := metrics.New()
	issuer := token.NewIssuer(cfg.Issuer, signingKey, tokenStore)
	flow := oauthservice.New(
		clients,
		users,
		transactions,
		grants,
		issuer,
		authenticator.New(clients),
		oauthservice.WithLogger(log),
		oauthservice.WithMetrics(flowMetrics),
		oauthservice.WithAuditPublisher(auditPublisher),
		oauthservice.WithGrantTTL(cfg.GrantTTL),
	)

	sessionService := session.New(userDirectory, sessions,
		session.WithLogger(log),
		session.WithAuditPublisher(auditPublisher),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(session.NewResolver(sessionService, bearer).Middleware)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	oauthhandler.New(flow, log).Register(router)
	session.NewHandler(sessionService, cfg.SessionTTL).Register(router)

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)
	metricsSrv := httpserver.New(cfg.MetricsAddr, metricsRouter)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		log.Info("starting metrics server", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		ticker := time.NewTicker(grantSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := flow.SweepExpiredGrants(ctx); err != nil {
					log.Error("grant sweep failed", "error", err)
				}
			}
		}
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return metricsSrv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func loadSigningKey(cfg config.Config, log *slog.Logger) (*rsa.PrivateKey, error) {
	if cfg.PrivateKeyPEM != "" {
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
		if err != nil {
			return nil, err
		}
		return key, nil
	}
	log.Warn("OIDC_PRIVATE_KEY not set, generating an ephemeral signing key")
	if cfg.PublicKeyPEM != "" {
		log.Warn("OIDC_PUBLIC_KEY is set but does not match the ephemeral key")
	}
	return rsa.GenerateKey(rand.Reader, 2048)
}

func buildAuditPublisher(ctx context.Context, cfg config.Config, log *slog.Logger) (*audit.Publisher, func(), error) {
	if len(cfg.KafkaSeeds) == 0 {
		log.Warn("KAFKA_SEEDS not set, audit events go to the log only")
		return audit.NewPublisher(audit.NewLogSink(log)), func() {}, nil
	}
	producer, err := kafka.NewProducer(ctx, cfg.KafkaSeeds, cfg.KafkaAuditTopic)
	if err != nil {
		return nil, nil, err
	}
	return audit.NewPublisher(audit.NewKafkaSink(producer)), producer.Close, nil
}
