package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetflow/config"
	"fleetflow/engine"
	"fleetflow/fleetstate"
	"fleetflow/messaging"
	"fleetflow/notify"
	"fleetflow/store"
	"fleetflow/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "fleetflow.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("fleetflowd", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("fleetflow: database open (%s)", cfg.Database.Driver)

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	var redisStore *fleetstate.RedisStore
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("fleetflow: redis not available (%v), running without cache", err)
	} else {
		log.Printf("fleetflow: redis connected (%s)", cfg.Redis.Address)
		redisStore = fleetstate.NewRedisStore(redisClient)
	}
	cancel()
	defer redisClient.Close()

	// Fleet state manager
	fleetStateMgr := fleetstate.NewManager(db, redisStore)
	if redisStore != nil {
		if err := fleetStateMgr.SyncRedisFromSQL(); err != nil {
			log.Printf("fleetflow: redis sync from SQL: %v", err)
		}
	}

	// Messaging client
	msgClient := messaging.NewClient(&cfg.Messaging)
	if err := msgClient.Connect(); err != nil {
		log.Printf("fleetflow: messaging connect failed (%v)", err)
	} else {
		log.Printf("fleetflow: messaging connected (%s)", cfg.Messaging.Backend)
	}
	defer msgClient.Close()

	// Notifications
	notifier := notify.NewService(&cfg.Notify)

	// Engine
	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: *configPath,
		DB:         db,
		FleetState: fleetStateMgr,
		MsgClient:  msgClient,
		Notifier:   notifier,
	})
	eng.Start()
	defer eng.Stop()

	// Outbox drainer (outbound fleet events)
	drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.Messaging.OutboxDrainInterval)
	drainer.Start()
	defer drainer.Stop()

	// Web server
	handler, stopWeb := www.NewRouter(eng)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("fleetflow: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("fleetflow: ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("fleetflow: shutting down...")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("fleetflow: stopped")
}
