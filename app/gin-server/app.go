package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yoockh/futureself/config"
	"github.com/yoockh/futureself/internal/api/handlers"
	"github.com/yoockh/futureself/internal/api/routes"
	"github.com/yoockh/futureself/internal/apiclient"
	"github.com/yoockh/futureself/internal/cache"
	"github.com/yoockh/futureself/internal/events"
	"github.com/yoockh/futureself/internal/logger"
	"github.com/yoockh/futureself/internal/services"
	"github.com/yoockh/futureself/internal/session"
	"github.com/yoockh/futureself/internal/workers"
)

const shutdownTimeout = 10 * time.Second

type bus interface {
	events.Bus
	events.Queue
}

type app struct {
	cfg *config.Settings
	log *logrus.Logger

	redis *redis.Client
	store cache.Store
	bus   bus
	jobs  <-chan events.ReportJob

	api *apiclient.Client
	obs *services.PrometheusObserver
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithOutput(os.Stdout, cfg.LogLevel, !cfg.IsProduction())

	a := &app{cfg: cfg, log: log}

	if cfg.RedisAddr != "" {
		rdb, err := config.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		a.redis = rdb
		a.store = cache.NewRedisCache(rdb)
		a.bus = events.NewRedisBus(rdb)
		log.Info("redis connected")
	} else {
		mem := events.NewMemoryBus(64)
		a.store = cache.NewMemoryCache(0, session.StatusKeyPrefix)
		a.bus = mem
		a.jobs = mem.Jobs()
		log.Warn("REDIS_ADDR not set, running on in-memory state")
	}

	opts := []apiclient.Option{apiclient.WithTimeout(cfg.APITimeout)}
	if cfg.APIToken != "" {
		opts = append(opts, apiclient.WithBearerToken(cfg.APIToken))
	}
	a.api, err = apiclient.New(cfg.APIBaseURL, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.obs, err = services.NewPrometheusObserver("futureself", prometheus.DefaultRegisterer)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *app) engine() *gin.Engine {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	statuses := session.NewStore(a.store, a.cfg.TokenTTL)
	tokens := session.NewIssuer(a.cfg.JWTSecret, a.cfg.JWTIssuer, a.cfg.JWTAudience, a.cfg.TokenTTL)

	userSvc := services.NewUserService(a.api, statuses, tokens, a.cfg.TokenTTL)
	qSvc := services.NewQuestionnaireService(a.api, a.store, a.cfg.DraftTTL, a.obs, a.log)
	profileSvc := services.NewProfileService(a.api, a.obs, a.log)
	chatSvc := services.NewChatService(a.api, a.store, a.bus, a.bus,
		services.ChatServiceConfig{TurnCap: a.cfg.MaxChatMessages}, a.obs, a.log)
	reportSvc := services.NewReportService(a.api, a.store)

	r := routes.NewEngine(a.log, a.cfg.CORSOrigins)
	routes.RegisterRoutes(r, routes.Deps{
		Tokens:        tokens,
		Statuses:      statuses,
		Session:       handlers.NewSessionHandler(userSvc, statuses),
		Questionnaire: handlers.NewQuestionnaireHandler(qSvc, statuses),
		Profile:       handlers.NewProfileHandler(profileSvc, statuses),
		Chat:          handlers.NewChatHandler(chatSvc),
		Report:        handlers.NewReportHandler(reportSvc),
		WS:            handlers.NewWSHandler(chatSvc, reportSvc, a.bus, a.cfg.CORSOrigins, a.log),
		Metrics:       promhttp.Handler(),
	})
	return r
}

func (a *app) pool() *workers.ReportWorkerPool {
	hostname, _ := os.Hostname()
	return &workers.ReportWorkerPool{
		Redis:          a.redis,
		Jobs:           a.jobs,
		API:            a.api,
		Publisher:      a.bus,
		Cache:          a.store,
		NumWorkers:     a.cfg.ReportWorkers,
		PollInterval:   a.cfg.ReportPollInterval,
		PollTimeout:    a.cfg.ReportPollTimeout,
		Logger:         a.log,
		ConsumerPrefix: hostname,
	}
}

// Serve runs the HTTP server until ctx ends. In-memory runs always start
// the workers since nothing else can drain the job channel.
func (a *app) Serve(ctx context.Context, withWorker bool) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.WithField("port", a.cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if withWorker || a.redis == nil {
		g.Go(func() error { return a.pool().Run(gctx) })
	}

	err := g.Wait()
	a.log.Info("server stopped")
	return err
}

// Work runs only the report workers.
func (a *app) Work(ctx context.Context) error {
	return a.pool().Run(ctx)
}
