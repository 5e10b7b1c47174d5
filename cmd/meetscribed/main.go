package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nvall/meetscribe/internal/chunkstore"
	"github.com/nvall/meetscribe/internal/config"
	"github.com/nvall/meetscribe/internal/gdrive"
	"github.com/nvall/meetscribe/internal/llm"
	"github.com/nvall/meetscribe/internal/persist"
	"github.com/nvall/meetscribe/internal/server"
	"github.com/nvall/meetscribe/internal/session"
	"github.com/nvall/meetscribe/internal/summarize"
	"github.com/nvall/meetscribe/internal/transcribe"
)

func main() {
	log.Println("meetscribe: starting")

	configPath := flag.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, warnings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	for _, w := range warnings {
		log.Printf("warning: %s", w)
	}

	chunks := chunkstore.New(cfg.RecordingsDir)

	local, err := persist.NewLocalStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}
	defer func() { _ = local.Close() }()

	var remote session.RemoteStore
	if cfg.RemoteSaveURL != "" {
		remote = persist.NewRemote(cfg.RemoteSaveURL)
	}

	var backend transcribe.Backend
	switch cfg.Transcriber {
	case "deepgram":
		if cfg.DeepgramAPIKey != "" {
			backend = transcribe.NewDeepgram(cfg.DeepgramAPIKey, cfg.DeepgramModel)
		}
	default:
		if cfg.AssemblyAIAPIKey != "" {
			backend = transcribe.NewAssemblyAI(cfg.AssemblyAIAPIKey,
				transcribe.WithAssemblyAIPolling(cfg.MaxPolls, cfg.ParsedPollInterval()))
		}
	}
	if backend == nil {
		log.Printf("warning: no transcription backend, relying on client transcripts only")
	}

	summarizer := summarize.New(cfg.SummaryModel, func(provider, model string) (llm.Client, error) {
		return llm.NewClient(provider, cfg.SummaryAPIKey(provider), model)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var uploader session.TranscriptUploader
	if cfg.GDriveFolderID != "" {
		syncer, syncErr := gdrive.NewSyncer(ctx, cfg.GoogleCredentialsFile, cfg.GDriveFolderID)
		if syncErr != nil {
			log.Printf("warning: gdrive sync disabled: %v", syncErr)
		} else {
			uploader = syncer
		}
	}

	registry := session.NewRegistry()
	coord := session.NewCoordinator(session.Deps{
		Registry:        registry,
		Chunks:          chunks,
		Transcriber:     transcribe.NewChunkTranscriber(chunks, backend),
		Summarizer:      summarizer,
		Remote:          remote,
		Local:           local,
		Uploader:        uploader,
		PublicBaseURL:   cfg.PublicBaseURL,
		FinalizeTimeout: cfg.ParsedFinalizeTimeout(),
	})

	handler := server.Handler(coord, local, chunks, server.StatusHooks{
		ActiveSessions: registry.ActiveCount,
		Warnings:       func() []string { return warnings },
	})

	httpServer := &http.Server{Addr: cfg.Addr, Handler: handler}
	go func() {
		log.Printf("meetscribe: listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("meetscribe: shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}

	// Let in-flight finalizations land their summaries before exit.
	coord.Wait()
	log.Println("meetscribe: stopped")
}
