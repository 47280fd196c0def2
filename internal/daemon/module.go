package daemon

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/typez/typezd/internal/bus"
	"github.com/typez/typezd/internal/lock"
	"github.com/typez/typezd/internal/logging"
	"github.com/typez/typezd/internal/profile"
	"github.com/typez/typezd/internal/service"
	"github.com/typez/typezd/internal/store"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile    string
	SocketPath string // optional override for testing; empty = use default
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideIdentity,
			provideChats,
			provideGroups,
			provideContacts,
			provideSearch,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.Profile), p.Profile)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.Profile)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Strings("ids", result.Applied))
	} else {
		logger.Info("migrations up to date")
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideIdentity(db *store.DB, logger *zap.Logger) *service.Identity {
	return service.NewIdentity(db, logger)
}

func provideChats(db *store.DB, b *bus.Bus, logger *zap.Logger) *service.Chats {
	return service.NewChats(db, b, logger)
}

func provideGroups(db *store.DB, b *bus.Bus, logger *zap.Logger) *service.Groups {
	return service.NewGroups(db, b, logger)
}

func provideContacts(db *store.DB, b *bus.Bus, logger *zap.Logger) *service.Contacts {
	return service.NewContacts(db, b, logger)
}

func provideSearch(db *store.DB, logger *zap.Logger) *service.Search {
	return service.NewSearch(db, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *store.DB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
