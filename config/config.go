package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// findEnvFile walks up from the working directory looking for name.
func findEnvFile(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find %s file", name)
		}
		dir = parent
	}
}

// loadEnvFile loads name without overriding variables already set.
func loadEnvFile(name string) error {
	path, err := findEnvFile(name)
	if err != nil {
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// LoadTestConfig loads .env.test when present and fills AppConfig. Tests never
// reach a real language model unless they set LLM_API_KEY themselves.
func LoadTestConfig() {
	if err := loadEnvFile(".env.test"); err != nil {
		os.Setenv("LLM_API_KEY", "")
		os.Setenv("GEMINI_API_KEY", "")
	}
	LoadConfig()
}
