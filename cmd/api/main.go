package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/ovaphlow/brainvault/service-idea-core/internal/auth"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/enrich"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/idea"
	idearepo "github.com/ovaphlow/brainvault/service-idea-core/internal/idea/repo"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/router"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/transform"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/user"
	userrepo "github.com/ovaphlow/brainvault/service-idea-core/internal/user/repo"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/voice"
	"github.com/ovaphlow/brainvault/service-idea-core/pkg/blobstore"
	"github.com/ovaphlow/brainvault/service-idea-core/pkg/database"
	"github.com/ovaphlow/brainvault/service-idea-core/pkg/genai"
	genaiopenai "github.com/ovaphlow/brainvault/service-idea-core/pkg/genai/openai"
	"github.com/ovaphlow/brainvault/service-idea-core/pkg/speech"
	speechopenai "github.com/ovaphlow/brainvault/service-idea-core/pkg/speech/openai"
	"github.com/ovaphlow/brainvault/service-idea-core/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-idea-core")

	// init db
	cfg := database.ConfigFromEnv()
	sqlDB, err := database.Connect(cfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	// wrap with sqlx for convenience in repos/services
	sqlxDB := sqlx.NewDb(sqlDB, "postgres")
	defer sqlxDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ideaRepo := idearepo.NewRepo(sqlxDB)
	userRepo := userrepo.NewRepo(sqlxDB)
	if err := ideaRepo.EnsureTable(ctx); err != nil {
		sugar.Fatalf("ensure ideas table: %v", err)
	}
	if err := userRepo.EnsureTable(ctx); err != nil {
		sugar.Fatalf("ensure users table: %v", err)
	}

	// generation providers; an empty chain means local fallbacks only
	generators := genaiopenai.ChainFromEnv()
	for _, g := range generators {
		sugar.Infow("generation provider configured", "provider", g.Name())
	}

	// optional audio backends; concrete nils must not leak into interfaces
	var transcriber speech.Transcriber
	if c := speechopenai.FromEnv(); c != nil {
		transcriber = c
		sugar.Info("transcription backend configured")
	}
	var blobs blobstore.Store
	if s := blobstore.FromEnv(ctx); s != nil {
		blobs = s
		sugar.Info("audio archival configured")
	}

	// enrichment runs on a bounded worker pool off the request path
	var classifier genai.Generator
	if len(generators) > 0 {
		classifier = generators[0]
	}
	analyzer := enrich.NewAnalyzer(classifier, sugar)
	dispatcher := enrich.NewDispatcher(analyzer, ideaRepo, sugar, 2, 64)
	defer dispatcher.Close()

	ideaSvc := idea.NewService(ideaRepo, dispatcher, sugar)
	userSvc := user.NewService(userRepo, ideaSvc, sugar)
	transformSvc := transform.NewService(ideaSvc, generators, sugar)
	voiceSvc := voice.NewService(transcriber, blobs, sugar)

	verifier := auth.NewVerifier(auth.ConfigFromEnv(), sugar)

	handler := router.RegisterRoutes(sugar, sqlxDB, verifier, router.Handlers{
		Ideas:     idea.NewHandler(ideaSvc, sugar),
		Users:     user.NewHandler(userSvc, sugar),
		Transform: transform.NewHandler(transformSvc, sugar),
		Voice:     voice.NewHandler(voiceSvc, sugar),
	})

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	sugar.Infow("service is running; press Ctrl+C to stop", "addr", addr)

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// stop intake, then let in-flight enrichment jobs drain via the deferred Close
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
