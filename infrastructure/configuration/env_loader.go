package configuration

import (
	"os"

	"brand-publisher/infrastructure/logger"

	"github.com/joho/godotenv"
)

// LoadEnvFromFile loads KEY=VALUE pairs from one or more files (e.g., config.env, .env).
// Existing env vars are not overridden; missing files are skipped.
func LoadEnvFromFile(paths ...string) {
	present := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			present = append(present, p)
		}
	}
	if len(present) == 0 {
		logger.GetLogger().WithField("paths", paths).Info("No env files found in working directory")
		return
	}
	if err := godotenv.Load(present...); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to load env files")
		return
	}
	logger.GetLogger().WithField("files", present).Info("Loaded env files")
}
