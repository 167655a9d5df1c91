// Package server initializes and runs the oneiromind web application.
// It opens storage, applies migrations, builds the AI collaborators and the
// image store, and serves HTTP until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/oneiromind/internal/dbx"
	"github.com/dmitrijs2005/oneiromind/internal/logging"
	"github.com/dmitrijs2005/oneiromind/internal/server/ai"
	"github.com/dmitrijs2005/oneiromind/internal/server/config"
	"github.com/dmitrijs2005/oneiromind/internal/server/images"
	"github.com/dmitrijs2005/oneiromind/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/oneiromind/internal/server/services"
	"github.com/dmitrijs2005/oneiromind/internal/server/web"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *dbx.DB
	handler *web.Handler
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if c.EphemeralSecret {
		logger.Warn(ctx, "secret key not configured, using a random one; sessions end on restart")
	}

	db, err := dbx.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewSQLRepositoryManager(db.Dialect).WithLogger(logger)
	if err := rm.RunMigrations(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	collaborators, err := ai.Build(ctx, c, logger.With("module", "ai"))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("collaborators: %w", err)
	}

	store, err := images.New(ctx, c.ImageStore, images.S3Config{
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
		PresignTTL:   c.S3PresignTTL,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("image store: %w", err)
	}

	us := services.NewUserService(db.DB, rm, c)
	cs := services.NewChatService(db.DB, rm)
	conv := services.NewConversationService(cs, us, collaborators, store, logger.With("module", "conversation"))

	h, err := web.NewHandler(web.Deps{
		Users:        us,
		Chats:        cs,
		Conversation: conv,
		Images:       store,
		Logger:       logger,
		SecretKey:    c.SecretKey,
		TokenTTL:     c.AccessTokenValidityDuration,
		Timezone:     c.DisplayTimezone,
		Ping:         db.PingContext,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, db: db, handler: h}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// drainTimeout lets an in-flight submit_message finish its collaborator call
// before the database is closed.
func (app *App) drainTimeout() time.Duration {
	return app.config.CollaboratorTimeout + web.ShutdownTimeout
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := web.NewHTTPServer(app.config.HTTPAddr, app.logger, app.handler.Routes()).
		WithShutdownTimeout(app.drainTimeout())
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
