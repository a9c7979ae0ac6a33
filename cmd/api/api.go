package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rental/docs" //this is required to generate swagger docs
	"rental/internal/auth"
	"rental/internal/domain/storage"
	"rental/internal/dossier"
	"rental/internal/outreach"
	"rental/internal/ratelimiter"
	"rental/internal/reference"
	"rental/internal/snapshot"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	dossier       *dossier.Service
	views         *snapshot.Views
	outreach      *outreach.Outreach
	refs          *reference.Encoder
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	frontendURL string
	auth        authConfig
	redis       redisConfig
	property    propertyConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	refreshSecret   string
	secret          string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
	aud             string
}

type basicConfig struct {
	user string
	pass string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
	migrate     bool
}

type redisConfig struct {
	addr     string
	password string
	db       int
	ttl      time.Duration
}

type propertyConfig struct {
	name          string
	ownerWhatsApp string
	ownerEmail    string
	location      *time.Location
	referenceSalt string
	cloudinaryURL string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	allowed := []string{"https://*", "http://*"}
	if app.config.frontendURL != "" && app.config.env == "production" {
		allowed = []string{app.config.frontendURL}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/authentication", func(r chi.Router) {
			r.With(app.RateLimiterMiddleware).Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
		})

		// Public booking flow
		r.Get("/availability", app.availabilityHandler)
		r.Get("/pricing", app.pricingHandler)
		r.Post("/quote", app.quoteHandler)
		r.Post("/selection", app.selectionHandler)
		r.With(app.RateLimiterMiddleware).Post("/bookings", app.createBookingHandler)
		r.With(app.RateLimiterMiddleware).Post("/contact", app.createContactMessageHandler)

		r.Route("/dossier/{token}", func(r chi.Router) {
			r.Use(app.OptionalAdminMiddleware)
			r.Get("/", app.getDossierHandler)
			r.With(app.RateLimiterMiddleware).Post("/signed-contract", app.uploadSignedContractHandler)
			r.Post("/review", app.submitReviewHandler)
			r.Get("/share", app.shareDossierHandler)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(app.AdminAuthMiddleware)
			r.Post("/logout", app.logoutHandler)
			r.Get("/dashboard", app.getDashboardHandler)

			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", app.listBookingsHandler)
				r.Get("/reference/{reference}", app.getBookingByReferenceHandler)
				r.Route("/{bookingID}", func(r chi.Router) {
					r.Get("/", app.getBookingHandler)
					r.Delete("/", app.deleteBookingHandler)
					r.Put("/status", app.saveStatusHandler)
					r.Put("/gates/{gate}", app.setGateHandler)
					r.Put("/dates", app.amendDatesHandler)
					r.Put("/payment-notes", app.updatePaymentNotesHandler)
					r.Post("/contract", app.uploadContractHandler)
					r.Get("/files", app.contractFilesHandler)
					r.Get("/outreach", app.outreachLinksHandler)
					r.Get("/draft", app.emailDraftHandler)
				})
			})

			r.Route("/blocked-dates", func(r chi.Router) {
				r.Get("/", app.listBlockedDatesHandler)
				r.Post("/", app.createBlockedDateHandler)
				r.Delete("/{blockID}", app.deleteBlockedDateHandler)
			})

			r.Route("/pricing-rules", func(r chi.Router) {
				r.Get("/", app.listPricingRulesHandler)
				r.Post("/", app.createPricingRuleHandler)
				r.Put("/{ruleID}", app.updatePricingRuleHandler)
				r.Delete("/{ruleID}", app.deletePricingRuleHandler)
			})

			r.Get("/settings", app.getSettingsHandler)
			r.Put("/settings", app.updateSettingsHandler)

			r.Route("/messages", func(r chi.Router) {
				r.Get("/", app.listMessagesHandler)
				r.Put("/{messageID}/read", app.markMessageReadHandler)
				r.Delete("/{messageID}", app.deleteMessageHandler)
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
