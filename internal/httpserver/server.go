// Package httpserver exposes the REST and websocket surface: document
// upload, chat, synthesis, transcription, the session store and the live
// push-to-talk call endpoint.
package httpserver

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/chadiek/talkpdf/internal/call"
	"github.com/chadiek/talkpdf/internal/chat"
	"github.com/chadiek/talkpdf/internal/docs"
	"github.com/chadiek/talkpdf/internal/llm"
	"github.com/chadiek/talkpdf/internal/voice"
)

// ChatLLM generates chat answers. llm.GeminiClient satisfies it.
type ChatLLM interface {
	Chat(ctx context.Context, message, docContext, language string, history []llm.Turn) (string, error)
}

// Transcriber converts uploaded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioBytes []byte, language string) (string, error)
}

// Deps bundles the services the HTTP layer fronts.
type Deps struct {
	Chat        *chat.Manager
	Docs        *docs.Service
	LLM         ChatLLM
	Transcriber Transcriber
	Gateway     *voice.Gateway
	Catalog     *voice.Catalog
	Calls       *call.Manager

	// AudioDir, when set, is served statically under /audio and backs
	// playback of local audio references during calls.
	AudioDir string
}

// Server bundles the router and its dependencies.
type Server struct {
	Echo *echo.Echo
	deps Deps
}

// New constructs the HTTP server with all routes registered.
func New(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{Echo: e, deps: deps}

	e.GET("/healthz", s.handleHealth)
	e.GET("/languages", s.handleLanguages)
	e.GET("/voices", s.handleVoices)

	e.POST("/upload-pdf", s.handleUploadPDF)
	e.POST("/chat", s.handleChat)
	e.POST("/voice-chat", s.handleVoiceChat)
	e.POST("/synthesize-voice", s.handleSynthesizeVoice)
	e.POST("/transcribe-audio", s.handleTranscribeAudio)
	e.POST("/call-with-pdf", s.handleCallWithPDF)

	e.POST("/sessions", s.handleCreateSession)
	e.GET("/sessions", s.handleListSessions)
	e.GET("/sessions/active", s.handleActiveSession)
	e.GET("/sessions/:id", s.handleGetSession)
	e.POST("/sessions/:id/activate", s.handleActivateSession)
	e.DELETE("/sessions/:id", s.handleDeleteSession)

	e.GET("/ws/call", s.handleCallSocket)

	if deps.AudioDir != "" {
		e.Static("/audio", deps.AudioDir)
	}

	return s
}
