package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	httphandler "github.com/ogurasousui/talent-explorer/internal/adapters/http/handler"
	"github.com/ogurasousui/talent-explorer/internal/adapters/http/middleware"
	pgrepo "github.com/ogurasousui/talent-explorer/internal/adapters/repository/postgres"
	sqliterepo "github.com/ogurasousui/talent-explorer/internal/adapters/repository/sqlite"
	"github.com/ogurasousui/talent-explorer/internal/core/employee"
	"github.com/ogurasousui/talent-explorer/internal/platform/config"
	pg "github.com/ogurasousui/talent-explorer/internal/platform/db/postgres"
	"github.com/ogurasousui/talent-explorer/internal/platform/db/sqlite"
	"github.com/ogurasousui/talent-explorer/internal/platform/server"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.EffectivePath(""))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var (
		employeeSvc *employee.Service
		pinger      server.Pinger
	)

	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite database: %v", err)
		}
		defer closeDB(db)

		employeeSvc = employee.NewService(sqliterepo.NewEmployeeRepository(db), nil)
		pinger = server.PingerFunc(db.PingContext)
	default:
		dbPool, err := pg.NewPool(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("failed to initialize database pool: %v", err)
		}
		defer dbPool.Close()

		employeeSvc = employee.NewService(pgrepo.NewEmployeeRepository(dbPool), pg.NewTransactionManager(dbPool))
		pinger = dbPool
	}

	api := httphandler.NewAPIMux(httphandler.NewEmployeeHTTPHandler(employeeSvc))
	httpServer := server.NewHTTP(cfg.Server.ListenAddr, middleware.AccessLog(log.Printf, middleware.Brotli(api)))

	checker := server.NewHealthChecker(pinger, cfg.Server.HealthCheckInterval, log.Printf)
	grpcServer := server.New(cfg.Server.GRPCListenAddr, checker)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("employee API listening on %s (driver=%s)", cfg.Server.ListenAddr, cfg.Database.Driver)
		return httpServer.Run(gctx)
	})
	g.Go(func() error {
		log.Printf("gRPC health server listening on %s", cfg.Server.GRPCListenAddr)
		return grpcServer.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
	log.Printf("server stopped")
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Printf("failed to close database: %v", err)
	}
}
