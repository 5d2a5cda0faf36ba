package config

import (
	"os"
	"testing"
)

func setenv(t *testing.T, key, value string) {
	t.Helper()
	original, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, original)
		} else {
			os.Unsetenv(key)
		}
	})
}

func clearStorageEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"S3_ENDPOINT_URL", "S3_REGION", "S3_ADDRESSING_STYLE",
		"HMAC_KEY", "HMAC_SECRET", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"R2_PUBLIC_BASE_URL", "R2_PUBLIC_BUCKET",
		"VIDEOS_BUCKET", "VIDEOS_PUBLIC_BASE_URL", "VIDEOS_PUBLIC_BUCKET",
	} {
		setenv(t, k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearStorageEnv(t)

	cfg := FromEnv()
	if cfg.Storage.VideosBucket != DefaultVideosBucket {
		t.Errorf("VideosBucket = %q, want %q", cfg.Storage.VideosBucket, DefaultVideosBucket)
	}
	if cfg.Storage.Region != "auto" {
		t.Errorf("Region = %q, want auto", cfg.Storage.Region)
	}
	if cfg.Storage.AddressingStyle != "virtual" {
		t.Errorf("AddressingStyle = %q, want virtual", cfg.Storage.AddressingStyle)
	}
	if cfg.Storage.HasCredentials() {
		t.Error("no credentials configured, HasCredentials should be false")
	}
}

func TestFromEnvHMACPrecedence(t *testing.T) {
	clearStorageEnv(t)
	setenv(t, "AWS_ACCESS_KEY_ID", "aws-key")
	setenv(t, "AWS_SECRET_ACCESS_KEY", "aws-secret")
	setenv(t, "HMAC_KEY", "hmac-key")
	setenv(t, "HMAC_SECRET", "hmac-secret")

	cfg := FromEnv()
	if cfg.Storage.AccessKey != "hmac-key" || cfg.Storage.SecretKey != "hmac-secret" {
		t.Errorf("HMAC pair should win: got %s/%s", cfg.Storage.AccessKey, cfg.Storage.SecretKey)
	}
	if !cfg.Storage.HasCredentials() {
		t.Error("HasCredentials should be true")
	}
}

func TestPartialCredentialsCountAsAbsent(t *testing.T) {
	clearStorageEnv(t)
	setenv(t, "AWS_ACCESS_KEY_ID", "aws-key")

	cfg := FromEnv()
	if cfg.Storage.HasCredentials() {
		t.Error("a lone access key is not a usable credential pair")
	}
}

func TestFromEnvPublicBaseTrimsSlash(t *testing.T) {
	clearStorageEnv(t)
	setenv(t, "R2_PUBLIC_BASE_URL", "https://pub.example.com/")

	cfg := FromEnv()
	if cfg.Storage.PublicBaseURL != "https://pub.example.com" {
		t.Errorf("PublicBaseURL = %q", cfg.Storage.PublicBaseURL)
	}
}
