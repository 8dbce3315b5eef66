package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/monocle-dev/devboard/internal/auth"
	"github.com/monocle-dev/devboard/internal/config"
	"github.com/monocle-dev/devboard/internal/logging"
	"github.com/monocle-dev/devboard/internal/mail"
	"github.com/monocle-dev/devboard/internal/router"
	"github.com/monocle-dev/devboard/internal/scheduler"
	"github.com/monocle-dev/devboard/internal/services"
	"github.com/monocle-dev/devboard/internal/store"
	"github.com/monocle-dev/devboard/internal/store/gormstore"
	"github.com/monocle-dev/devboard/internal/store/memstore"
	"github.com/monocle-dev/devboard/internal/store/mongostore"
	"github.com/sirupsen/logrus"
)

func main() {
	dotEnvErr := config.LoadDotEnv()

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger, logCloser, err := logging.New(cfg.Log)

	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}

	defer logCloser.Close()

	if dotEnvErr != nil {
		logger.Info(".env file not loaded, using process environment")
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server exited with error")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store)

	if err != nil {
		return err
	}

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := st.Close(closeCtx); err != nil {
			logger.WithError(err).Warn("Failed to close store")
		}
	}()

	logger.WithField("driver", cfg.Store.Driver).Info("Store ready")

	tokens, err := auth.NewJWT(cfg.Tokens.AccessSecret, cfg.Tokens.RefreshSecret, cfg.Tokens.AccessTTL, cfg.Tokens.RefreshTTL)

	if err != nil {
		return err
	}

	mailer, err := newMailer(cfg.Mail, logger)

	if err != nil {
		return err
	}

	identity := services.NewIdentityService(
		st,
		auth.NewBcryptHasher(0),
		tokens,
		auth.NewOneTimeTokens(cfg.Tokens.OneTimeTTL),
		mailer,
		mail.Links{FrontendURL: cfg.FrontendURL},
		logger,
	)

	policy := services.Policy{
		TaskListRequiresMembership:   cfg.Policy.TaskListRequiresMembership,
		NoteCreateRequiresMembership: cfg.Policy.NoteCreateRequiresMembership,
	}

	members := services.NewMembershipService(st)

	r := router.NewRouter(router.Deps{
		Store:          st,
		Identity:       identity,
		Projects:       services.NewProjectService(st, members, logger),
		Tasks:          services.NewTaskService(st, members, policy),
		Notes:          services.NewNoteService(st, members, policy),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	jobs := scheduler.NewScheduler(logger)
	jobs.Start(scheduler.TokenSweepJob(identity, cfg.TokenSweepInterval, logger))
	defer jobs.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		logger.Infof("Listening on :%s", cfg.Port)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return gormstore.Open(cfg.DatabaseURL)
	case config.DriverMongo:
		return mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func newMailer(cfg config.MailConfig, logger logrus.FieldLogger) (mail.Sender, error) {
	if !cfg.Enabled() {
		logger.Warn("MAIL_HOST not set, outgoing mail will only be logged")
		return mail.LogSender{Logger: logger}, nil
	}

	smtp, err := mail.NewSMTPSender(cfg, mail.NewRenderer(cfg))

	if err != nil {
		return nil, err
	}

	return mail.NewBreakerSender(smtp, logger), nil
}
