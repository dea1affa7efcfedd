package main

import (
	"database/sql"
	"net/http"
	"os"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/attestation"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/casino"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/chain"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/config"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/handlers/event"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/handlers/game"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/handlers/house"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/handlers/job"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/handlers/mysql"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/handlers/play"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/middleware/logger"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/middleware/payment"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/handler/slogpretty"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/sl"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/oracle"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/repository"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const (
	jobQueueSize   = 128
	workerPoolSize = 4
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting server...", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	operator, err := solana.PrivateKeyFromBase58(cfg.Chain.OperatorKey)
	if err != nil {
		log.Error("Failed to parse operator key", sl.Err(err))
		os.Exit(1)
	}

	programID, err := solana.PublicKeyFromBase58(cfg.Chain.ProgramID)
	if err != nil {
		log.Error("Failed to parse program id", sl.Err(err))
		os.Exit(1)
	}

	oracleProgramID, err := solana.PublicKeyFromBase58(cfg.Chain.OracleProgramID)
	if err != nil {
		log.Error("Failed to parse oracle program id", sl.Err(err))
		os.Exit(1)
	}

	queuePubkey, err := solana.PublicKeyFromBase58(cfg.Chain.Queue)
	if err != nil {
		log.Error("Failed to parse oracle queue", sl.Err(err))
		os.Exit(1)
	}

	chainClient := chain.New(log, rpc.New(cfg.Chain.RPCEndpoint), operator, cfg.Chain.ConfirmInterval, cfg.Chain.ConfirmTimeout)

	oracleClient := oracle.NewRPCClient(log, chainClient, oracleProgramID, operator.PublicKey())

	coordinator := oracle.NewCoordinator(log, oracleClient, chainClient, oracle.PollPolicy{
		Interval:       cfg.Oracle.PollInterval,
		MaxAttempts:    cfg.Oracle.MaxAttempts,
		AttemptTimeout: cfg.Oracle.AttemptTimeout,
	})

	ledger, err := casino.NewProgramLedger(log, chainClient, programID)
	if err != nil {
		log.Error("Failed to init ledger", sl.Err(err))
		os.Exit(1)
	}

	orchestrator := casino.NewOrchestrator(log, coordinator, ledger, chainClient, queuePubkey)

	attestationService := attestation.NewService(log)

	gateway, err := payment.NewGateway(log, chainClient, cfg.Payment, cfg.Chain.Network)
	if err != nil {
		log.Error("Failed to init payment gateway", sl.Err(err))
		os.Exit(1)
	}

	db, err := sql.Open("mysql", cfg.Database.DSN)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	if err = db.Ping(); err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	handler := mysql.New(db)

	gameRepo := repository.NewGameRepository(*handler)
	attestationRepo := repository.NewAttestationRepository(*handler)

	conn, _, err := websocket.DefaultDialer.Dial(cfg.WSServer.URL, nil)
	if err != nil {
		log.Error("Failed to connect to ws hub", sl.Err(err))
		os.Exit(1)
	}
	defer conn.Close()

	pusher := event.NewSettlementPusher(log, conn)

	queue := make(job.JobQueue, jobQueueSize)
	pool := job.NewWorkerPool(workerPoolSize, queue)
	pool.Start()

	playHandler := play.NewPlay(log, orchestrator, attestationService, cfg.Chain.Network, programID, queue, pusher, gameRepo, attestationRepo)
	statsHandler := house.NewStats(log, ledger)
	getGame := game.NewGet(log, gameRepo, attestationRepo)
	getAttestation := game.NewGetAttestation(log, attestationRepo)
	verify := game.NewVerify(log, attestationService)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Get("/house/stats", statsHandler.New())
	router.Get("/games/{uuid}", getGame.New())
	router.Get("/games/{uuid}/attestation", getAttestation.New())
	router.Post("/attestations/verify", verify.New())

	router.Group(func(r chi.Router) {
		r.Use(gateway.Gate)
		r.Post("/play", playHandler.New())
	})

	log.Info("Server started", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	if err = srv.ListenAndServe(); err != nil {
		log.Error("Server failed", sl.Err(err))
	}

	log.Error("Server stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlogLogger()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlogLogger() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
