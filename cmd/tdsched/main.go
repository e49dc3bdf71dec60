package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/analytics"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/api"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/circuitbreaker"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/config"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/dispatcher"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/janitor"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/metrics"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/scheduler"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/store/postgres"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/transport/channel"

	_ "github.com/lib/pq"
)

// Build-time variables set via -ldflags
var (
	version = "dev"
	commit  = "unknown"
)

const (
	exitSuccess       = 0
	exitRuntimeError  = 1
	exitInvalidConfig = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitRuntimeError)
	}

	cmd := os.Args[1]

	switch cmd {
	case "serve":
		os.Exit(runServe())
	case "validate":
		os.Exit(runValidate())
	case "config":
		os.Exit(runConfig())
	case "version":
		os.Exit(runVersion())
	case "--help", "-h", "help":
		printUsage()
		os.Exit(exitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(exitRuntimeError)
	}
}

func printUsage() {
	fmt.Println(`tdsched - truth-or-dare push notification scheduler

Usage:
  tdsched <command>

Commands:
  serve      Start the API server and delivery loop
  validate   Validate configuration (no connections made)
  config     Print effective configuration as JSON (secrets masked)
  version    Print version information

Environment Variables:
  DATABASE_URL              PostgreSQL connection string (required)
  PUSH_SERVER_KEY           Push provider server key (required)
  PUSH_ENDPOINT             Push provider endpoint (default: FCM legacy send)
  PUSH_TIMEOUT              Per-request provider timeout (default: "10s")
  DEFAULT_TOPIC             Topic used when a request omits one (default: "truth-dare-all")
  REDIS_ADDR                Redis address for delivery analytics (optional)
  HTTP_ADDR                 HTTP server address (default: ":8080")
  CYCLE_INTERVAL            Delivery scan interval (default: "60s")
  HISTORY_PAGE_LIMIT        Default /history page size (default: "100")

  DB_OP_TIMEOUT             Database operation timeout (default: "5s")
  DB_MAX_OPEN_CONNS         Max open database connections (default: "25")
  DB_MAX_IDLE_CONNS         Max idle database connections (default: "5")
  DB_CONN_MAX_LIFETIME      Max connection lifetime (default: "30m")
  DB_CONN_MAX_IDLE_TIME     Max connection idle time (default: "5m")

  HTTP_SHUTDOWN_TIMEOUT     Graceful HTTP shutdown timeout (default: "10s")

  METRICS_ENABLED           Enable Prometheus metrics (default: "false")
  METRICS_PATH              Metrics endpoint path (default: "/metrics")
  METRICS_ADDR              Metrics server address (default: ":9090")

  JANITOR_ENABLED           Enable sent-schedule retention sweeps (default: "false")
  JANITOR_INTERVAL          How often to sweep (default: "1h")
  JANITOR_RETENTION         How long sent schedules are kept (default: "720h")
  JANITOR_BATCH_SIZE        Max rows removed per sweep (default: "500")

  CIRCUIT_BREAKER_THRESHOLD Consecutive provider failures before fast-fail (default: "0" = off)
  CIRCUIT_BREAKER_COOLDOWN  Open-state cooldown before a probe (default: "2m")`)
}

func runServe() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		return exitRuntimeError
	}
	defer db.Close()

	// Configure connection pool
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	log.Printf("tdsched: db pool configured (max_open=%d, max_idle=%d, max_lifetime=%s, max_idle_time=%s)",
		cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		return exitRuntimeError
	}

	store := postgres.New(db, cfg.DBOpTimeout)

	schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer schemaCancel()
	if err := store.EnsureSchema(schemaCtx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to ensure schema: %v\n", err)
		return exitRuntimeError
	}

	// Initialize metrics sink (optional)
	var metricsSink *metrics.PrometheusSink
	var metricsServer *http.Server

	if cfg.MetricsEnabled {
		metricsSink = metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
		log.Printf("tdsched: metrics enabled (addr=%s, path=%s)", cfg.MetricsAddr, cfg.MetricsPath)

		// Start metrics HTTP server on separate port
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.MetricsPath, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: metricsMux,
		}
		go func() {
			log.Printf("tdsched: metrics server listening on %s", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("tdsched: metrics server error: %v", err)
			}
		}()
	} else {
		log.Println("tdsched: METRICS_ENABLED not set; metrics disabled")
	}

	sender := dispatcher.NewHTTPPushSender(cfg.PushEndpoint, cfg.PushServerKey).
		WithTimeout(cfg.PushTimeout)

	disp := dispatcher.New(store, sender)
	if metricsSink != nil {
		disp = disp.WithMetrics(metricsSink)
	}

	if cfg.CircuitBreakerThreshold > 0 {
		breaker := circuitbreaker.New(cfg.CircuitBreakerThreshold, cfg.CircuitBreakerCooldown)
		disp = disp.WithBreaker(breaker)
		log.Printf("tdsched: circuit breaker enabled (threshold=%d, cooldown=%s)",
			cfg.CircuitBreakerThreshold, cfg.CircuitBreakerCooldown)
	}

	// Wire analytics if Redis is configured
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		sink := analytics.NewRedisSink(redisClient, 0)
		disp = disp.WithAnalytics(sink)
		log.Printf("tdsched: analytics enabled (redis=%s)", cfg.RedisAddr)
	} else {
		log.Println("tdsched: REDIS_ADDR not set; analytics disabled")
	}

	// Waker lets the API poke the delivery loop on schedule writes
	var wakerOpts []channel.Option
	if metricsSink != nil {
		wakerOpts = append(wakerOpts, channel.WithMetrics(metricsSink))
	}
	waker := channel.NewWaker(wakerOpts...)

	sched := scheduler.New(
		scheduler.Config{CycleInterval: cfg.CycleInterval},
		store,
		disp,
	).WithWakeChannel(waker.Channel())
	if metricsSink != nil {
		sched = sched.WithMetrics(metricsSink)
	}

	apiHandler := api.NewHandler(store, disp, cfg.DefaultTopic).
		WithWaker(waker).
		WithHealthChecker(db).
		WithHistoryLimit(cfg.HistoryPageLimit)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: apiHandler,
	}

	go func() {
		log.Printf("tdsched: http server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("tdsched: http server error: %v", err)
		}
	}()

	// Separate contexts for the scheduler and janitor enable ordered shutdown.
	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())

	var schedulerWg sync.WaitGroup
	var janitorWg sync.WaitGroup
	var cancelJanitor context.CancelFunc

	schedulerWg.Add(1)
	go func() {
		defer schedulerWg.Done()
		sched.Run(schedulerCtx)
	}()

	if cfg.JanitorEnabled {
		var janitorCtx context.Context
		janitorCtx, cancelJanitor = context.WithCancel(context.Background())
		jan := janitor.New(
			janitor.Config{
				Interval:  cfg.JanitorInterval,
				Retention: cfg.JanitorRetention,
				BatchSize: cfg.JanitorBatchSize,
			},
			store,
		)
		if metricsSink != nil {
			jan = jan.WithMetrics(metricsSink)
		}
		janitorWg.Add(1)
		go func() {
			defer janitorWg.Done()
			jan.Run(janitorCtx)
		}()
	} else {
		log.Println("tdsched: JANITOR_ENABLED not set; retention sweeps disabled")
	}

	log.Printf("tdsched: started (cycle=%s, http=%s, topic=%s)", cfg.CycleInterval, cfg.HTTPAddr, cfg.DefaultTopic)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig

	log.Printf("tdsched: received signal %v, shutting down", received)

	// Phase 1: Stop the delivery loop (in-flight cycle finishes first)
	log.Println("tdsched: stopping scheduler...")
	cancelScheduler()
	schedulerWg.Wait()
	log.Println("tdsched: scheduler stopped")

	// Phase 2: Stop the janitor
	if cancelJanitor != nil {
		log.Println("tdsched: stopping janitor...")
		cancelJanitor()
		janitorWg.Wait()
		log.Println("tdsched: janitor stopped")
	}

	// Phase 3: Stop HTTP server with graceful shutdown
	log.Println("tdsched: stopping http server...")
	httpShutdownCtx, httpShutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer httpShutdownCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		log.Printf("tdsched: http server shutdown error: %v", err)
	}
	log.Println("tdsched: http server stopped")

	// Phase 4: Stop metrics server if running (with same timeout)
	if metricsServer != nil {
		log.Println("tdsched: stopping metrics server...")
		metricsShutdownCtx, metricsShutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer metricsShutdownCancel()
		if err := metricsServer.Shutdown(metricsShutdownCtx); err != nil {
			log.Printf("tdsched: metrics server shutdown error: %v", err)
		}
		log.Println("tdsched: metrics server stopped")
	}

	log.Println("tdsched: stopped")
	return exitSuccess
}

func runValidate() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitInvalidConfig
	}

	fmt.Println("configuration valid")
	return exitSuccess
}

func runConfig() int {
	cfg := config.Load()

	data, err := cfg.MaskedJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal config: %v\n", err)
		return exitRuntimeError
	}

	fmt.Println(string(data))
	return exitSuccess
}

func runVersion() int {
	fmt.Printf("tdsched version %s (commit: %s)\n", version, commit)
	return exitSuccess
}
