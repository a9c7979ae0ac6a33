package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"rental/internal/auth"
	"rental/internal/blob"
	"rental/internal/db"
	"rental/internal/domain/settings"
	"rental/internal/domain/storage"
	"rental/internal/dossier"
	"rental/internal/mailer"
	"rental/internal/outreach"
	"rental/internal/pricing"
	"rental/internal/ratelimiter"
	"rental/internal/reference"
	"rental/internal/snapshot"
	"rental/migrations"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %d\n", key, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %t\n", key, fallback)
		return fallback
	}
	return b
}

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	return ratelimiter.Config{
		RequestsPerTimeFrame: getInt("RATELIMITER_REQUESTS_COUNT", 20),
		TimeFrame:            time.Minute,
		Enabled:              getBool("RATE_LIMITER_ENABLED", true),
	}
}

// NewLogger creates a new zap logger with color. LOG_LEVEL picks the level.
func NewLogger(levelName string) (*zap.SugaredLogger, error) {
	level := zapcore.InfoLevel
	if levelName != "" {
		if err := level.UnmarshalText([]byte(levelName)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", levelName, err)
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level)

	return zap.New(core).Sugar(), nil
}

var version = "1.0.0"

//	@title			Rental API
//	@description	Direct booking, dossier and back office API for a single holiday rental.

//	@contact.name	API Support

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	loc, err := time.LoadLocation(getEnv("PROPERTY_TIMEZONE", "UTC"))
	if err != nil {
		log.Fatalf("Invalid PROPERTY_TIMEZONE: %v", err)
	}

	cfg := config{
		addr:        getEnv("ADDR", ":8080"),
		env:         getEnv("ENV", "development"),
		frontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		apiURL:      getEnv("EXTERNAL_URL", "localhost:8080"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    int32(getInt("DB_MAX_CONNS", 10)),
			maxIdleTime: getEnv("DB_MAX_IDLE_TIME", "15m"),
			migrate:     getBool("DB_AUTO_MIGRATE", false),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret:          os.Getenv("AUTH_TOKEN_SECRET"),
				refreshSecret:   os.Getenv("AUTH_TOKEN_REFRESH_SECRET"),
				accessTokenExp:  time.Hour * 12,
				refreshTokenExp: time.Hour * 24 * 14,
				iss:             "rental",
				aud:             "rental-admin",
			},
		},
		redis: redisConfig{
			addr:     os.Getenv("REDIS_ADDR"),
			password: os.Getenv("REDIS_PASSWORD"),
			db:       getInt("REDIS_DB", 0),
			ttl:      10 * time.Minute,
		},
		property: propertyConfig{
			name:          getEnv("PROPERTY_NAME", "Holiday Rental"),
			ownerWhatsApp: os.Getenv("OWNER_WHATSAPP"),
			ownerEmail:    os.Getenv("OWNER_EMAIL"),
			location:      loc,
			referenceSalt: getEnv("REFERENCE_SALT", "rental"),
			cloudinaryURL: os.Getenv("CLOUDINARY_URL"),
		},
		rateLimiter: LoadRateLimiterConfig(),
	}

	logger, err := NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if cfg.auth.token.secret == "" || cfg.auth.token.refreshSecret == "" {
		logger.Fatal("AUTH_TOKEN_SECRET and AUTH_TOKEN_REFRESH_SECRET must be set")
	}

	// Database
	pool, err := db.New(cfg.db.addr, cfg.db.maxConns, cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	if cfg.db.migrate {
		applied, err := db.Migrate(context.Background(), pool, migrations.FS)
		if err != nil {
			logger.Fatal(err)
		}
		logger.Infow("migrations applied", "files", applied)
	}

	store := storage.NewContainer(pool)

	// Snapshot cache
	var cache snapshot.Cache = snapshot.NewMemory()
	if cfg.redis.addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redis.addr,
			Password: cfg.redis.password,
			DB:       cfg.redis.db,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Fatalw("redis unreachable", "addr", cfg.redis.addr, "error", err)
		}
		defer rdb.Close()
		cache = snapshot.NewRedis(rdb, "rental")
		logger.Infow("snapshot cache on redis", "addr", cfg.redis.addr)
	}
	views := snapshot.NewViews(cache, cfg.redis.ttl, logger)

	// Blob store
	var blobs blob.Store
	if cfg.property.cloudinaryURL != "" {
		cld, err := cloudinary.NewFromURL(cfg.property.cloudinaryURL)
		if err != nil {
			logger.Fatal(err)
		}
		blobs = blob.NewCloudinary(cld)
	} else {
		if cfg.env == "production" {
			logger.Fatal("CLOUDINARY_URL must be set in production")
		}
		logger.Warn("CLOUDINARY_URL not set, contract files are kept in memory")
		blobs = blob.NewMemory()
	}

	refs, err := reference.New(cfg.property.referenceSalt)
	if err != nil {
		logger.Fatal(err)
	}

	drafter := mailer.NewDrafter(cfg.property.name, cfg.property.ownerEmail)
	outreachLinks := outreach.New(outreach.Config{
		PropertyName:  cfg.property.name,
		OwnerWhatsApp: cfg.property.ownerWhatsApp,
		OwnerEmail:    cfg.property.ownerEmail,
		FrontendURL:   cfg.frontendURL,
		Currency:      getEnv("CURRENCY", settings.Defaults().Currency),
	}, drafter)

	service := dossier.NewService(dossier.Config{
		Policy:   pricing.DefaultPolicy(),
		Location: cfg.property.location,
	}, store.Bookings, store, blobs, views, logger)

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)
	stop := make(chan struct{})
	defer close(stop)
	go rateLimiter.Run(stop)

	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.refreshSecret,
		cfg.auth.token.aud,
		cfg.auth.token.iss,
		cfg.auth.token.accessTokenExp,
		cfg.auth.token.refreshTokenExp,
	)

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         store,
		dossier:       service,
		views:         views,
		outreach:      outreachLinks,
		refs:          refs,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		s := pool.Stat()
		return map[string]any{
			"total_conns":    s.TotalConns(),
			"idle_conns":     s.IdleConns(),
			"acquired_conns": s.AcquiredConns(),
			"max_conns":      s.MaxConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
