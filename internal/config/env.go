package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
)

// envFileNames are tried in order in the working directory and next to the config file.
var envFileNames = []string{".env", ".env.local"}

// loadEnvFiles loads KEY=VALUE files into the process environment. Variables that are
// already set are never overridden, so the scheduler's environment wins over files.
func loadEnvFiles(configPath string) {
	dirs := []string{"."}
	if dir := filepath.Dir(configPath); dir != "." && dir != "" {
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		for _, name := range envFileNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := godotenv.Load(p); err != nil {
				slog.Warn("Failed to load env file", "path", p, "error", err)
				continue
			}
			slog.Debug("Loaded environment variables", "path", p)
		}
	}
}

// envRefPattern matches ${NAME} references. Bare $ text is left alone so literals
// such as block_text phrases survive expansion.
var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${NAME} with the variable's value; unset variables become "".
func expandEnv(doc string) string {
	return envRefPattern.ReplaceAllStringFunc(doc, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}
