package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FIT-CONTRACTS/internal"
	"FIT-CONTRACTS/internal/app"
	"FIT-CONTRACTS/internal/config"
	"FIT-CONTRACTS/internal/gelf"
	"FIT-CONTRACTS/internal/handlers"
	"FIT-CONTRACTS/internal/processor"
	"FIT-CONTRACTS/internal/services"
	"FIT-CONTRACTS/internal/storage"
	"FIT-CONTRACTS/internal/templates"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.GELFAddr != "" {
		w, err := gelf.New(cfg.Logging.GELFAddr, cfg.Logging.Facility)
		if err != nil {
			log.Printf("Warning: GELF logging disabled: %v", err)
		} else {
			defer w.Close()
			log.SetOutput(io.MultiWriter(os.Stderr, w))
			gin.DefaultWriter = io.MultiWriter(os.Stdout, w)
		}
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, err := internal.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if db == nil {
		log.Println("Warning: no database configured, registrations and activity logs are not stored")
	}

	store, err := app.NewObjectStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if store == nil {
		log.Printf("Warning: no object storage configured, contracts are kept in %s", cfg.Storage.LocalFallbackDir)
	}

	catalog, err := templates.Load(cfg.Storage.TemplateCatalog)
	if err != nil {
		log.Fatalf("Failed to load template catalog: %v", err)
	}
	templateService := services.NewTemplateService(store, catalog, cfg.Storage.TemplateDir)

	engine := processor.NewPDFCPUEngine()
	assembler := services.NewContractAssembler(templateService, processor.NewFiller(engine, nil))
	uploader := storage.NewUploader(store, cfg.Storage.LocalFallbackDir)

	mailer, err := app.NewMailer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize mailer: %v", err)
	}
	notifier, err := services.NewNotifier(mailer, services.NotifierConfig{
		From:            cfg.Email.From,
		OwnerEmail:      cfg.Email.OwnerEmail,
		BusinessName:    cfg.Email.BusinessName,
		AttachDocuments: cfg.Email.AttachDocuments,
	})
	if err != nil {
		log.Fatalf("Failed to initialize notifier: %v", err)
	}

	var summaries *services.SummaryService
	if cfg.Gotenberg.URL != "" {
		summaries, err = services.NewSummaryService(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout, cfg.Email.BusinessName)
		if err != nil {
			log.Printf("Warning: registration summaries disabled: %v", err)
			summaries = nil
		}
	}

	var payments *services.PaymentService
	if cfg.Stripe.SecretKey != "" {
		payments = services.NewPaymentService(services.PaymentConfig{
			SecretKey:  cfg.Stripe.SecretKey,
			Currency:   cfg.Stripe.Currency,
			SuccessURL: cfg.Stripe.SuccessURL,
			CancelURL:  cfg.Stripe.CancelURL,
		})
	} else {
		log.Println("Warning: STRIPE_SECRET_KEY not set, checkout is disabled")
	}

	publisher, err := app.NewPublisher(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	registrations := services.NewRegistrationService(db)
	activityLogs := services.NewActivityLogService(db)

	delivery := services.NewDeliveryService(services.DeliveryDeps{
		Payments:       payments,
		RequirePayment: cfg.Stripe.RequirePayment,
		Assembler:      assembler,
		Uploader:       uploader,
		Notifier:       notifier,
		Summaries:      summaries,
		Registrations:  registrations,
		Publisher:      publisher,
	})

	var sweeper *storage.FallbackSweeper
	if store != nil {
		sweeper = storage.NewFallbackSweeper(store, cfg.Storage.LocalFallbackDir, cfg.Storage.SweepInterval)
		sweeper.OnUploaded = func(ctx context.Context, key, url string) {
			if err := registrations.MarkRemote(ctx, key, url); err != nil {
				log.Printf("Warning: failed to mark %s as uploaded: %v", key, err)
			}
		}
		sweeper.Start()
	}

	r := handlers.NewRouter(handlers.RouterConfig{
		AllowOrigins:       cfg.Server.AllowOrigins,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		MaxUploadMB:        cfg.Server.MaxUploadMB,
		AdminSecret:        cfg.Admin.JWTSecret,
	}, handlers.RouterDeps{
		Delivery:      delivery,
		Payments:      payments,
		Templates:     templateService,
		Engine:        engine,
		Registrations: registrations,
		ActivityLogs:  activityLogs,
		Store:         store,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown handling
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if sweeper != nil {
		sweeper.Stop()
	}
	if err := publisher.Close(); err != nil {
		log.Printf("Warning: failed to close event publisher: %v", err)
	}
	if store != nil {
		store.Close()
	}
	if err := internal.CloseDB(db); err != nil {
		log.Printf("Warning: failed to close database: %v", err)
	}
}
