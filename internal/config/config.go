package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string

	// Answer generation (Gemini)
	GeminiKey   string
	GeminiModel string

	// Remote voice synthesis (Murf)
	MurfKey        string
	DefaultVoiceID string
	VoiceSpeed     float64

	// Transcription (AssemblyAI prerecorded)
	AssemblyAIKey string

	// Alternate synthesis path (Deepgram speak)
	DeepgramKey   string
	DeepgramModel string

	// Document extraction collaborator
	ExtractorURL string

	// Session persistence: "file" (default), "redis" or "memory"
	StoreDriver string
	StorePath   string
	RedisAddr   string

	// Synthesized audio storage: "local" (default) or "supabase"
	AudioStorage   string
	AudioDir       string
	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	// Bound timeout for one call-turn pipeline run
	PipelineTimeout time.Duration
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set - answer generation will not work")
	}
	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-1.5-flash"
	}

	murfKey := os.Getenv("MURF_API_KEY")
	if murfKey == "" {
		log.Println("Warning: MURF_API_KEY not set - remote synthesis will report no audio")
	}
	voiceID := os.Getenv("DEFAULT_VOICE_ID")
	if voiceID == "" {
		voiceID = "en-US-julia"
	}
	speed := 1.0
	if v := os.Getenv("VOICE_SPEED"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			speed = f
		}
	}

	assemblyAIKey := os.Getenv("ASSEMBLYAI_API_KEY")
	if assemblyAIKey == "" {
		log.Println("Warning: ASSEMBLYAI_API_KEY not set - transcription will not work")
	}

	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	if deepgramKey == "" {
		log.Println("Warning: DEEPGRAM_API_KEY not set - alternate synthesis path disabled")
	}
	deepgramModel := os.Getenv("DEEPGRAM_MODEL")

	extractorURL := os.Getenv("EXTRACTOR_URL")
	if extractorURL == "" {
		log.Println("Warning: EXTRACTOR_URL not set - document upload will not work")
	}

	storeDriver := os.Getenv("SESSION_STORE")
	if storeDriver == "" {
		storeDriver = "file"
	}
	storePath := os.Getenv("SESSION_STORE_PATH")
	if storePath == "" {
		storePath = "sessions.json"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	audioStorage := os.Getenv("AUDIO_STORAGE")
	if audioStorage == "" {
		audioStorage = "local"
	}
	audioDir := os.Getenv("AUDIO_DIR")
	if audioDir == "" {
		audioDir = "audio_files"
	}

	pipelineTimeout := 60 * time.Second
	if v := os.Getenv("PIPELINE_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pipelineTimeout = time.Duration(n) * time.Second
		}
	}

	log.Printf("config: HTTP_ADDRESS=%s SESSION_STORE=%s AUDIO_STORAGE=%s", addr, storeDriver, audioStorage)
	return Config{
		HTTPAddress:     addr,
		GeminiKey:       geminiKey,
		GeminiModel:     geminiModel,
		MurfKey:         murfKey,
		DefaultVoiceID:  voiceID,
		VoiceSpeed:      speed,
		AssemblyAIKey:   assemblyAIKey,
		DeepgramKey:     deepgramKey,
		DeepgramModel:   deepgramModel,
		ExtractorURL:    extractorURL,
		StoreDriver:     storeDriver,
		StorePath:       storePath,
		RedisAddr:       redisAddr,
		AudioStorage:    audioStorage,
		AudioDir:        audioDir,
		SupabaseURL:     os.Getenv("SUPABASE_URL"),
		SupabaseKey:     os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket:  os.Getenv("SUPABASE_BUCKET"),
		PipelineTimeout: pipelineTimeout,
	}
}
