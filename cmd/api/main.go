package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskgrid.org/internal/audit"
	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/httpapi"
	"taskgrid.org/internal/notify"
	"taskgrid.org/internal/obs"
	"taskgrid.org/internal/store/pg"
	"taskgrid.org/internal/task"
	"taskgrid.org/internal/tenant"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	dsn := os.Getenv("TASKGRID_PG_DSN")
	if dsn == "" {
		log.Fatal("missing TASKGRID_PG_DSN")
	}
	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	accounts := auth.NewService(store)
	auditor := audit.NewRecorder(store)
	tenants := tenant.NewService(store, auditor)
	resolver := tenant.NewResolver(store, accounts)
	hub := notify.NewHub()
	notices := notify.NewService(store, hub)
	tasks := task.NewService(store, store, store, store, auditor, notices)

	probe := httpapi.ReadyProbe{DB: store.DB()}
	api := httpapi.New(httpapi.Config{
		ReadyProbe: probe,
		Version:    version,
		Accounts:   accounts,
		Tenants:    tenants,
		Resolver:   resolver,
		Tasks:      tasks,
		Auditor:    auditor,
		Notices:    notices,
		Hub:        hub,
	})

	addr := os.Getenv("TASKGRID_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	rootCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if grpcAddr := os.Getenv("TASKGRID_GRPC_ADDR"); grpcAddr != "" {
		go func() {
			if err := httpapi.ServeGRPCHealth(rootCtx, grpcAddr, probe); err != nil {
				log.Printf("grpc health: %v", err)
			}
		}()
	}

	log.Printf("Starting taskgrid-api %s on %s", version, addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = store.Close()
	log.Println("Stopped")
}
