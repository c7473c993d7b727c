package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/numberhero/internal/catalog"
	"github.com/robalobadob/numberhero/internal/config"
	"github.com/robalobadob/numberhero/internal/database"
	"github.com/robalobadob/numberhero/internal/engine"
	"github.com/robalobadob/numberhero/internal/httpserver"
	"github.com/robalobadob/numberhero/internal/store"
	"github.com/robalobadob/numberhero/internal/tracing"
)

func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE:  a.runServe,
	}
}

// backends holds the catalog and session store chosen by config.
type backends struct {
	catalog catalog.Catalog
	store   store.Store
	db      *sql.DB
}

func (b *backends) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// openBackends opens SQLite or memory storage and loads the seed catalog.
func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	seed, err := catalog.LoadSeed(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}

	b := &backends{}
	var base catalog.Catalog
	switch cfg.SessionStore {
	case config.StoreMemory:
		base = catalog.NewMemory()
		b.store = store.NewMemoryStore()
	default:
		db, err := database.OpenAndMigrate(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		b.db = db
		base = catalog.NewSQLite(db)
		b.store = store.NewSQLiteStore(db)
	}

	n, err := catalog.Seed(ctx, base, seed)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	log.Info().Int("associations", n).Str("store", cfg.SessionStore).Msg("catalog loaded")

	b.catalog = catalog.NewCached(base, cfg.CatalogCacheTTL)
	return b, nil
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	cfg := a.cfg
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	eng := engine.New(b.catalog, b.store, engine.WithTracer(tp.Tracer()))
	srv := httpserver.New(eng, b.catalog, httpserver.Options{
		ClientOrigin: cfg.ClientOrigin,
		JWTSecret:    cfg.JWTSecret,
	})

	log.Info().Str("port", cfg.Port).Bool("tracing", tp.Enabled()).Msg("starting numberhero")
	return srv.Start(":" + cfg.Port)
}
