// Package config centralises all environment configuration for the
// server. It should be imported only by `cmd/server` (and test code).
// Business-logic layers receive an already-built Config instance via
// dependency-injection and never read the environment themselves.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime option the server needs.
// Keep it flat and simple—prefer primitive types over embedding structs.
type Config struct {
	// Network
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Chat completion
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	ChatModel       string
	ChatTemperature float64

	// Embeddings
	EmbeddingProvider  string // "vertex" | "local"
	EmbeddingDimension int
	EmbeddingModel     string
	ProjectID          string
	Location           string

	// Vector store
	VectorBackend string // "qdrant" | "mongo" | "memory"
	QdrantURL     string
	QdrantAPIKey  string
	MongoURI      string
	DBName        string

	// External services
	GitHubToken string

	// Indexing & retrieval tuning
	ChunkMin       int
	ChunkMax       int
	MaxFiles       int
	RelevantFiles  int
	RelevantChunks int
	MaxSteps       int
}

// Load parses the environment (and an optional .env file) into Config.
// It terminates the process on missing critical variables so
// mis-configurations fail fast.
func Load() Config {
	// godotenv.Load() is a no-op if .env doesn't exist—safe in production.
	_ = godotenv.Load()

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  getDuration("READ_TIMEOUT_SEC", 10),
		WriteTimeout: getDuration("WRITE_TIMEOUT_SEC", 0),

		OpenAIAPIKey:    must("OPENAI_API_KEY"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ChatModel:       getEnv("CHAT_MODEL", "gpt-3.5-turbo"),
		ChatTemperature: getFloat("CHAT_TEMPERATURE", 0.7),

		EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "local"),
		EmbeddingDimension: getInt("EMBEDDING_DIMENSION", 384),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-005"),
		ProjectID:          os.Getenv("GCP_PROJECT_ID"),
		Location:           getEnv("GCP_LOCATION", "us-central1"),

		VectorBackend: getEnv("VECTOR_BACKEND", "qdrant"),
		QdrantURL:     getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:  os.Getenv("QDRANT_API_KEY"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		DBName:        getEnv("MONGODB_DB", "repoquery"),

		GitHubToken: os.Getenv("GITHUB_TOKEN"),

		ChunkMin:       getInt("CHUNK_MIN", 300),
		ChunkMax:       getInt("CHUNK_MAX", 400),
		MaxFiles:       getInt("MAX_FILES", 1000),
		RelevantFiles:  getInt("RELEVANT_FILES", 3),
		RelevantChunks: getInt("RELEVANT_CHUNKS", 2),
		MaxSteps:       getInt("MAX_CONVERSATION_STEPS", 10),
	}

	if cfg.EmbeddingProvider == "vertex" && cfg.ProjectID == "" {
		log.Fatalf("env var GCP_PROJECT_ID is required when EMBEDDING_PROVIDER=vertex")
	}
	if cfg.VectorBackend == "mongo" && cfg.MongoURI == "" {
		log.Fatalf("env var MONGODB_URI is required when VECTOR_BACKEND=mongo")
	}
	if cfg.ChunkMin <= 0 || cfg.ChunkMax < cfg.ChunkMin {
		log.Fatalf("invalid chunk range [%d,%d]", cfg.ChunkMin, cfg.ChunkMax)
	}

	return cfg
}

// must fetches a required env var or terminates the program.
func must(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("env var %s is required", key)
	}
	return val
}

// getEnv returns env[key] if set, otherwise defaultVal.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getInt reads an integer from env, falling back to defaultVal.
func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("invalid %s=%q; using default %d", key, v, defaultVal)
	}
	return defaultVal
}

// getFloat reads a float from env, falling back to defaultVal.
func getFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid %s=%q; using default %g", key, v, defaultVal)
	}
	return defaultVal
}

// getDuration reads an integer (seconds) from env, falling back to defaultSec.
func getDuration(key string, defaultSec int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			return time.Duration(sec) * time.Second
		}
		log.Printf("invalid %s=%q; using default %ds", key, v, defaultSec)
	}
	return time.Duration(defaultSec) * time.Second
}
