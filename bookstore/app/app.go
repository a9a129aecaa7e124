package app

import (
	"context"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Astemirdum/bookstore/bookstore/config"
	"github.com/Astemirdum/bookstore/bookstore/internal/browse"
	"github.com/Astemirdum/bookstore/bookstore/internal/catalog"
	"github.com/Astemirdum/bookstore/bookstore/internal/controller"
	"github.com/Astemirdum/bookstore/bookstore/internal/events"
	"github.com/Astemirdum/bookstore/bookstore/internal/handler"
	"github.com/Astemirdum/bookstore/bookstore/internal/repository"
	"github.com/Astemirdum/bookstore/bookstore/internal/server"
	"github.com/Astemirdum/bookstore/bookstore/internal/service"
	"github.com/Astemirdum/bookstore/bookstore/migrations"
	"github.com/Astemirdum/bookstore/pkg/database"
	"github.com/Astemirdum/bookstore/pkg/kafka"
	"github.com/Astemirdum/bookstore/pkg/logger"
	"github.com/IBM/sarama"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// App owns the process-wide resources shared by the HTTP API and the
// terminal front-end.
type App struct {
	Log *zap.Logger

	cfg       config.Config
	db        *sqlx.DB
	catalog   *catalog.Client
	history   *repository.History
	reviews   *repository.Reviews
	publisher events.Publisher
}

func New(ctx context.Context, cfg config.Config, name string) (*App, error) {
	log := logger.NewLogger(cfg.Log, name)

	db, err := database.NewDB(ctx, cfg.Database, migrations.MigrationFiles, log)
	if err != nil {
		return nil, errors.Wrap(err, "db init")
	}

	var producer sarama.SyncProducer
	if cfg.Kafka.Enabled() {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			// events are optional, the bookstore works without them
			log.Warn("kafka.NewProducer", zap.Error(err))
			producer = nil
		}
	}

	publisher := events.NewPublisher(producer, log)
	if producer != nil {
		publisher = events.NewQueue(publisher, cfg.Kafka.Buffer, log)
	}

	return &App{
		Log:       log,
		cfg:       cfg,
		db:        db,
		catalog:   catalog.NewClient(log, cfg.Catalog),
		history:   repository.NewHistory(db, cfg.History, log),
		reviews:   repository.NewReviews(db, log),
		publisher: publisher,
	}, nil
}

func (a *App) Service() *service.Service {
	return service.NewService(a.Log, a.cfg.Catalog.APIKey, a.catalog, a.history, a.reviews, a.publisher)
}

// Deps wires the screen controllers to the same stores the API uses.
func (a *App) Deps() controller.Deps {
	return controller.Deps{
		APIKey:    a.cfg.Catalog.APIKey,
		Catalog:   a.catalog,
		History:   a.history,
		Reviews:   a.reviews,
		Publisher: a.publisher,
		Pool:      a.cfg.Worker,
	}
}

func (a *App) Close() {
	if err := a.publisher.Close(); err != nil {
		a.Log.Warn("publisher close", zap.Error(err))
	}
	if err := a.db.Close(); err != nil {
		a.Log.Warn("db close", zap.Error(err))
	}
	_ = a.Log.Sync()
}

// Run serves the HTTP API until SIGINT or SIGTERM.
func Run(cfg config.Config) {
	a, err := New(context.Background(), cfg, "bookstore")
	if err != nil {
		logger.NewLogger(cfg.Log, "bookstore").Fatal("app init", zap.Error(err))
	}
	log := a.Log
	if cfg.Catalog.APIKey == "" {
		log.Warn("CATALOG_API_KEY is empty, the catalog will reject requests")
	}

	h := handler.New(a.Service(), log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	a.Close()
	log.Info("Graceful shutdown finished")
}

// BrowseHelp lists the commands of the terminal front-end.
const BrowseHelp = browse.Help

// Browse runs the terminal front-end on in/out until the user quits.
func Browse(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	a, err := New(ctx, cfg, "browse")
	if err != nil {
		return err
	}
	defer a.Close()
	return browse.New(in, out, a.Deps(), a.Log).Run(ctx)
}

// Migrate applies command (up, down or status) without starting anything else.
func Migrate(ctx context.Context, cfg config.Config, command string) error {
	log := logger.NewLogger(cfg.Log, "migrate")
	defer func() { _ = log.Sync() }()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return database.Migrate(ctx, db, cfg.Database, migrations.MigrationFiles, command, log)
}
