package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"minerpro-backend/internal/chat"
	"minerpro-backend/internal/faq"
	"minerpro-backend/internal/featureflags"
	"minerpro-backend/internal/llm"
	"minerpro-backend/internal/llm/gateway"
	"minerpro-backend/internal/profiles"
	"minerpro-backend/internal/services/health"
	"minerpro-backend/internal/shared/config"
	"minerpro-backend/internal/shared/metrics"
	"minerpro-backend/internal/shared/server/middleware"
	"minerpro-backend/internal/shared/server/respond"
	"minerpro-backend/internal/shared/storage/db"
	"minerpro-backend/internal/squads"
	"minerpro-backend/internal/usage"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(cfg.Env),
		middleware.RateLimit(pollRateLimits()),
	)

	healthSvc := health.NewService()
	sqlDB := openDatabase(cfg, healthSvc)
	redisClient := openRedis(cfg, healthSvc)
	b := buildBackends(cfg, sqlDB, redisClient)
	log.Printf("backends: ledger=%s profiles=%s", b.ledgerName, b.storeName)

	tierFor := profiles.TierLookup(b.profiles)

	var llmClient llm.Client
	if gw, err := gateway.NewClient(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayModel); err != nil {
		log.Printf("gateway client unavailable, using placeholder: %v", err)
		llmClient = llm.PlaceholderClient{}
	} else {
		llmClient = gw
	}

	usageSvc := usage.NewService(b.ledger)
	usageHandler := usage.NewHandler(usageSvc, tierFor)
	faqHandler := faq.NewHandler(faq.NewService(llmClient), usageHandler)
	chatHandler := chat.NewHandler(llmClient, usageHandler)
	flagChecker := featureflags.NewChecker(b.flags)
	squadHandler := squads.NewHandler(squads.NewService(b.squads), flagChecker)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		payload, ok := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, payload)
	})
	api.GET("/metrics", metrics.Handler())
	registerMeRoutes(api, tierFor)
	usageHandler.RegisterRoutes(api)
	faqHandler.RegisterRoutes(api)
	chatHandler.RegisterRoutes(api)
	squadHandler.RegisterRoutes(api)
	if cfg.Env == "dev" {
		dev := api.Group("/dev")
		usageHandler.RegisterDevRoutes(dev)
		dev.GET("/flags", func(c *gin.Context) {
			flags, err := flagChecker.ListAll(c.Request.Context())
			if err != nil {
				respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list flags", nil)
				return
			}
			if flags == nil {
				flags = []featureflags.Flag{}
			}
			respond.JSON(c, http.StatusOK, gin.H{"flags": flags})
		})
	}

	return r
}

// backends bundles the storage handles behind every feature package.
type backends struct {
	ledger     usage.Ledger
	ledgerName string
	storeName  string
	profiles   profiles.Repo
	squads     squads.Repo
	flags      featureflags.Repo
}

// buildBackends selects storage per concern. The ledger prefers redis over
// postgres over memory, but profiles, squads, and flags always live in
// postgres when a database handle exists: the ledger choice must never
// downgrade tier lookups to the memory repo.
func buildBackends(cfg config.Config, sqlDB *sql.DB, redisClient *redis.Client) backends {
	b := backends{}
	switch {
	case redisClient != nil:
		b.ledger = usage.NewRedisLedger(redisClient, cfg.LedgerRetention)
		b.ledgerName = "redis"
	case sqlDB != nil:
		b.ledger = usage.NewPGLedger(sqlDB)
		b.ledgerName = "postgres"
	default:
		b.ledger = usage.NewMemoryLedger()
		b.ledgerName = "memory"
	}
	if sqlDB != nil {
		b.storeName = "postgres"
		b.profiles = &profiles.PGRepo{DB: sqlDB}
		b.squads = &squads.PGRepo{DB: sqlDB}
		b.flags = &featureflags.PGRepo{DB: sqlDB}
	} else {
		b.storeName = "memory"
		b.profiles = profiles.NewMemoryRepo()
		b.squads = squads.NewMemoryRepo()
		b.flags = featureflags.NewMemoryRepo()
	}
	return b
}

// openDatabase connects and migrates when DATABASE_URL is configured,
// returning nil (with a log line) on any failure.
func openDatabase(cfg config.Config, healthSvc *health.Service) *sql.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	conn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		log.Printf("failed to connect database, falling back to memory stores: %v", err)
		return nil
	}
	if err := db.RunMigrations(context.Background(), conn); err != nil {
		log.Printf("failed to run migrations, falling back to memory stores: %v", err)
		return nil
	}
	healthSvc.AddCheck("database", func(ctx context.Context) error {
		return conn.PingContext(ctx)
	})
	return conn
}

func openRedis(cfg config.Config, healthSvc *health.Service) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("invalid REDIS_URL, ignoring redis: %v", err)
		return nil
	}
	client := redis.NewClient(opts)
	healthSvc.AddCheck("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return client
}

// pollRateLimits throttles the cheap read endpoints per client so a polling
// dashboard cannot hammer the ledger. Admission for chat and faq is handled
// by the quota service, not here.
func pollRateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"USAGE_POLL": {Rate: 0.5, Burst: 30},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodGet && c.FullPath() == "/api/v1/usage" {
				return "USAGE_POLL"
			}
			return ""
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
