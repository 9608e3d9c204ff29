package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"gatekeeper/internal/audit"
	auditMemory "gatekeeper/internal/audit/store/memory"
	auditPostgres "gatekeeper/internal/audit/store/postgres"
	"gatekeeper/internal/checkin/committer"
	"gatekeeper/internal/checkin/directory"
	"gatekeeper/internal/checkin/locker"
	"gatekeeper/internal/checkin/stats"
	lockStore "gatekeeper/internal/checkin/store/lock"
	participantStore "gatekeeper/internal/checkin/store/participant"
	recordStore "gatekeeper/internal/checkin/store/record"
	"gatekeeper/internal/dispatch"
	"gatekeeper/internal/importer"
	"gatekeeper/internal/platform/config"
	"gatekeeper/internal/platform/httpserver"
	"gatekeeper/internal/platform/logger"
	"gatekeeper/internal/platform/metrics"
	"gatekeeper/internal/platform/postgres"
	platformRedis "gatekeeper/internal/platform/redis"
	sessionStore "gatekeeper/internal/session/store"
	"gatekeeper/internal/session/workflow"
	"gatekeeper/internal/token"
	httptransport "gatekeeper/internal/transport/http"
)

const auditBuffer = 256

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services; everything here is construction order.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.PostgresURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("no postgres url configured, using in-memory stores")
	}

	var (
		locks        locker.Store
		records      recordStore.Store
		participants participantStore.Store
		auditLog     audit.Store
	)
	if db != nil {
		locks = lockStore.NewPostgres(db)
		records = recordStore.NewPostgres(db)
		participants = participantStore.NewPostgres(db)
		auditLog = auditPostgres.New(db)
	} else {
		locks = lockStore.NewInMemory()
		records = recordStore.NewInMemory()
		participants = participantStore.NewInMemory()
		auditLog = auditMemory.NewInMemoryStore()
	}

	var sessions sessionStore.Store
	if cfg.Redis.URL != "" {
		rdb, err := platformRedis.New(cfg.Redis)
		if err != nil {
			log.Error("redis connect failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		sessions = sessionStore.NewRedis(rdb.Client, 0)
	} else {
		sessions = sessionStore.NewInMemory()
	}

	mx := metrics.New()

	var publisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAuditTopic, log)
		if err != nil {
			log.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		defer kp.Close()
		publisher = kp
	}
	recorder := audit.NewRecorder(auditBuffer, log)
	worker := audit.NewWorker(auditLog, recorder.Inbox(), log, publisher)

	lockMgr, err := locker.New(locks, cfg.LockTTL, locker.WithLogger(log), locker.WithMetrics(mx))
	if err != nil {
		log.Error("locker init failed", "error", err)
		os.Exit(1)
	}
	cmt, err := committer.New(records, lockMgr, recorder, committer.WithLogger(log), committer.WithMetrics(mx))
	if err != nil {
		log.Error("committer init failed", "error", err)
		os.Exit(1)
	}
	dir, err := directory.New(participants, cfg.SearchResultLimit)
	if err != nil {
		log.Error("directory init failed", "error", err)
		os.Exit(1)
	}
	statsSvc, err := stats.New(participants, records)
	if err != nil {
		log.Error("stats init failed", "error", err)
		os.Exit(1)
	}
	sessionFlow, err := workflow.New(sessions, dir, lockMgr, cmt,
		workflow.WithLogger(log), workflow.WithAuditor(recorder))
	if err != nil {
		log.Error("workflow init failed", "error", err)
		os.Exit(1)
	}
	importFlow, err := importer.New(participants,
		importer.WithLogger(log), importer.WithAuditor(recorder), importer.WithMetrics(mx))
	if err != nil {
		log.Error("importer init failed", "error", err)
		os.Exit(1)
	}

	guard := dispatch.NewGuard(cfg.OperatorIDs, cfg.AdminIDs)
	dispatcher, err := dispatch.New(guard, sessionFlow, importFlow,
		dispatch.WithLogger(log), dispatch.WithAuditor(recorder), dispatch.WithMetrics(mx))
	if err != nil {
		log.Error("dispatcher init failed", "error", err)
		os.Exit(1)
	}

	tokens := token.NewService(cfg.JWTSigningKey, "gatekeeper")
	handler := httptransport.New(dispatcher, guard, statsSvc, auditLog, tokens, log)
	srv := httpserver.New(cfg.Addr, handler.Router())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting gatekeeper", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("gatekeeper stopped")
}
