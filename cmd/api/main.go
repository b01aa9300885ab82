package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	httpadp "loanshare/internal/adapter/http"
	"loanshare/internal/adapter/middleware"
	"loanshare/internal/adapter/repository/mysql"
	"loanshare/internal/config"
	"loanshare/internal/domain/event"
	"loanshare/internal/domain/tick"
	"loanshare/internal/infrastructure/cache"
	"loanshare/internal/infrastructure/db"
	"loanshare/internal/infrastructure/events"
	"loanshare/internal/infrastructure/metrics"
	"loanshare/internal/infrastructure/ticks"
	"loanshare/internal/platform/logger"
	"loanshare/internal/usecase/approval"
	"loanshare/internal/usecase/bundle"
	"loanshare/internal/usecase/ledger"
	"loanshare/internal/usecase/loan"
	"loanshare/internal/usecase/runner"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if err := db.Migrate(gdb, mysql.Models()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	sinks := events.Multi{events.NewLogSink(log)}
	opts := []runner.Option{runner.WithRecorder(m), runner.WithLogger(log)}
	var mutating []echo.MiddlewareFunc
	if cfg.RedisEnabled {
		rdb, err := cache.OpenRedis(ctx, cfg)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		sinks = append(sinks, events.NewStreamSink(rdb, cfg.EventStream))
		opts = append(opts, runner.WithLocker(cache.NewRedisLocker(rdb, cfg.LockTTL())))
		mutating = append(mutating, middleware.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL(), log))
	}
	opts = append(opts, runner.WithSink(event.Sink(sinks)))

	src, manual, closeTicks, err := tickSource(ctx, cfg)
	if err != nil {
		return fmt.Errorf("tick source: %w", err)
	}
	defer closeTicks()

	rn := runner.New(mysql.NewGormUoW(gdb), opts...)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.RequestLogger(log), echomw.Recover(), middleware.Metrics(m))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))
	httpadp.Register(e, httpadp.Handlers{
		Base:    httpadp.NewHandler(src, manual),
		Loans:   httpadp.NewLoanHandler(loan.NewUsecase(rn, src), cfg.NativeDecimals),
		Bundles: httpadp.NewBundleHandler(bundle.NewUsecase(rn, src), cfg.NativeDecimals),
		Ledger:  httpadp.NewLedgerHandler(ledger.NewUsecase(rn), approval.NewUsecase(rn), cfg.NativeDecimals),
	}, mutating...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.AppPort
		log.Info("listening", "addr", addr, "db", cfg.DBDriver, "ticks", cfg.TickSource, "redis", cfg.RedisEnabled)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// tickSource builds the configured source. manual is non-nil only for the
// manual source.
func tickSource(ctx context.Context, cfg *config.Config) (tick.Source, *ticks.Manual, func(), error) {
	noop := func() {}
	switch cfg.TickSource {
	case "manual":
		m := ticks.NewManual(0)
		return m, m, noop, nil
	case "chain":
		c, closeFn, err := ticks.DialChain(ctx, cfg.ChainRPCURL)
		if err != nil {
			return nil, nil, noop, err
		}
		return c, nil, closeFn, nil
	default:
		return ticks.NewClock(time.Unix(cfg.TickGenesis, 0), cfg.TickInterval), nil, noop, nil
	}
}
