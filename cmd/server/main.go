package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chadiek/talkpdf/internal/call"
	"github.com/chadiek/talkpdf/internal/chat"
	"github.com/chadiek/talkpdf/internal/config"
	"github.com/chadiek/talkpdf/internal/docs"
	"github.com/chadiek/talkpdf/internal/httpserver"
	"github.com/chadiek/talkpdf/internal/infra/storage"
	"github.com/chadiek/talkpdf/internal/llm"
	"github.com/chadiek/talkpdf/internal/store"
	"github.com/chadiek/talkpdf/internal/transcribe"
	"github.com/chadiek/talkpdf/internal/voice"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	sessionStore := openSessionStore(cfg)
	chatMgr := chat.NewManager(sessionStore, nil)

	gemini := llm.NewGeminiClient(cfg.GeminiKey, cfg.GeminiModel)
	docsSvc := docs.NewService(docs.NewHTTPExtractor(cfg.ExtractorURL), gemini)
	go cleanupDocs(rootCtx, docsSvc)

	audioStore, audioDir := openAudioStorage(rootCtx, cfg)

	murf := voice.NewMurfClient(cfg.MurfKey, audioStore)
	var provider voice.Provider = murf
	if cfg.DeepgramKey != "" {
		speaker := voice.NewDeepgramSpeaker(cfg.DeepgramKey, cfg.DeepgramModel)
		provider = voice.NewFallbackProvider(murf, voice.NewSpeakerProvider(speaker, audioStore))
	}
	catalog := voice.NewCatalog(murf)
	catalog.Default = cfg.DefaultVoiceID
	gateway := voice.NewGateway(catalog, provider)
	gateway.SpeedScale = cfg.VoiceSpeed

	transcriber := transcribe.NewAssemblyAIClient(cfg.AssemblyAIKey)
	answerer := httpserver.NewAnswerer(gemini, docsSvc)
	calls := call.NewManager(call.NewChain(transcriber, answerer, gateway), cfg.PipelineTimeout)

	srv := httpserver.New(httpserver.Deps{
		Chat:        chatMgr,
		Docs:        docsSvc,
		LLM:         gemini,
		Transcriber: transcriber,
		Gateway:     gateway,
		Catalog:     catalog,
		Calls:       calls,
		AudioDir:    audioDir,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           srv.Echo,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	if active := calls.Active(); active != nil {
		active.EndCall()
	}
	rootCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}

func openSessionStore(cfg config.Config) chat.Store {
	var (
		s   chat.Store
		err error
	)
	switch cfg.StoreDriver {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s, err = store.Open(store.DriverRedis, store.WithRedisClient(client))
	case "memory":
		s, err = store.Open(store.DriverMemory)
	default:
		s, err = store.Open(store.DriverFile, store.WithPath(cfg.StorePath))
	}
	if err != nil {
		log.Fatalf("open session store %q: %v", cfg.StoreDriver, err)
	}
	return s
}

// openAudioStorage returns the synthesized-audio store and, for the local
// driver, the directory to serve statically.
func openAudioStorage(ctx context.Context, cfg config.Config) (storage.Storage, string) {
	if cfg.AudioStorage == "supabase" {
		s, err := storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
		if err != nil {
			log.Fatalf("open supabase storage: %v", err)
		}
		return s, ""
	}
	s, err := storage.NewLocalDirStorage(cfg.AudioDir)
	if err != nil {
		log.Fatalf("open local audio storage: %v", err)
	}
	s.StartCleanup(ctx, time.Hour, 24*time.Hour)
	return s, s.Dir()
}

// cleanupDocs drops extracted document text that has not been used in a day.
func cleanupDocs(ctx context.Context, svc *docs.Service) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := svc.CleanupOld(24 * time.Hour); n > 0 {
				log.Printf("docs: cleaned up %d stale documents", n)
			}
		}
	}
}
