// Package config holds all runtime configuration. The Config struct is
// populated from the environment exactly once at startup and passed by
// value into the components that need it; nothing re-reads the environment
// mid-flight, so resolution stays deterministic.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultVideosBucket = "videos"
	DefaultProbeRange   = 64
)

type Config struct {
	Port     int
	LogLevel string
	APIKey   string // shared inbound key; empty disables auth

	Storage StorageConfig
	Worker  WorkerConfig

	FFmpegBin string
	SentryDSN string
	DataDir   string // failure store location
}

// StorageConfig is the process-wide TransferCredentials plus the public
// fallback surface. HMAC_KEY/HMAC_SECRET and AWS_ACCESS_KEY_ID/
// AWS_SECRET_ACCESS_KEY are interchangeable inputs to the same SigV4
// signer; HMAC takes precedence when both are set.
type StorageConfig struct {
	EndpointURL     string
	Region          string
	AddressingStyle string // "virtual" or "path"
	AccessKey       string
	SecretKey       string

	PublicBaseURL string // R2_PUBLIC_BASE_URL
	PublicBucket  string // R2_PUBLIC_BUCKET; restricts the fallback when set

	VideosBucket        string
	VideosPublicBaseURL string
	VideosPublicBucket  string

	PresignTTL time.Duration
}

// HasCredentials reports whether a complete credential pair is configured.
// A partial pair counts as absent: the resolver degrades to public-fallback
// or presign-only modes, never a half-authenticated one.
func (s StorageConfig) HasCredentials() bool {
	return s.AccessKey != "" && s.SecretKey != ""
}

// WorkerConfig addresses the remote worker pool.
type WorkerConfig struct {
	Endpoint  string
	APIKey    string
	Presigned bool // default for fully-presigned dispatch
}

// FromEnv reads the recognized environment variables into a Config.
func FromEnv() Config {
	return Config{
		Port:     envInt("PORT", 8080),
		LogLevel: os.Getenv("LOG_LEVEL"),
		APIKey:   os.Getenv("API_KEY"),
		Storage: StorageConfig{
			EndpointURL:     envDefault("S3_ENDPOINT_URL", "https://storage.googleapis.com"),
			Region:          envDefault("S3_REGION", "auto"),
			AddressingStyle: envDefault("S3_ADDRESSING_STYLE", "virtual"),
			AccessKey:       firstEnv("HMAC_KEY", "AWS_ACCESS_KEY_ID"),
			SecretKey:       firstEnv("HMAC_SECRET", "AWS_SECRET_ACCESS_KEY"),

			PublicBaseURL: strings.TrimRight(os.Getenv("R2_PUBLIC_BASE_URL"), "/"),
			PublicBucket:  os.Getenv("R2_PUBLIC_BUCKET"),

			VideosBucket:        envDefault("VIDEOS_BUCKET", DefaultVideosBucket),
			VideosPublicBaseURL: strings.TrimRight(os.Getenv("VIDEOS_PUBLIC_BASE_URL"), "/"),
			VideosPublicBucket:  os.Getenv("VIDEOS_PUBLIC_BUCKET"),

			PresignTTL: time.Duration(envInt("PRESIGN_TTL_SECONDS", 3600)) * time.Second,
		},
		Worker: WorkerConfig{
			Endpoint:  os.Getenv("WORKER_ENDPOINT"),
			APIKey:    os.Getenv("WORKER_API_KEY"),
			Presigned: envBool("WORKER_PRESIGNED"),
		},
		FFmpegBin: os.Getenv("FFMPEG_BIN"),
		SentryDSN: os.Getenv("SENTRY_DSN"),
		DataDir:   envDefault("CLIPFORGE_DATA_DIR", "./data"),
	}
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
