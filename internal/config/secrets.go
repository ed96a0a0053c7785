package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDir is where Docker mounts secrets.
var SecretsDir = "/run/secrets"

// ReadSecret reads a Docker secret by name.
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(SecretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// overlaySecrets replaces env-provided credentials with Docker secrets
// when a secret file exists. Missing files keep the env value.
func overlaySecrets(cfg *Config) {
	targets := map[string]*string{
		"openai_api_key":     &cfg.AI.OpenAIKey,
		"gemini_api_key":     &cfg.AI.GeminiKey,
		"elevenlabs_api_key": &cfg.Speech.APIKey,
		"db_password":        &cfg.Database.Password,
		"redis_password":     &cfg.Redis.Password,
		"jwt_secret":         &cfg.Auth.JWTSecret,
	}
	for name, field := range targets {
		if v, err := ReadSecret(name); err == nil {
			*field = v
		}
	}
}
