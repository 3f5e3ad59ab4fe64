package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func initFile(t *testing.T, level string) string {
	t.Helper()
	logFile := filepath.Join(t.TempDir(), level+".log")
	cfg := FileConfig{
		Path:       logFile,
		MaxSizeMB:  10,
		MaxBackups: 1,
		MaxAgeDays: 1,
		Compress:   false,
	}
	if err := InitWithFileConfig(level, cfg, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	t.Cleanup(Reset)
	return logFile
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	Sync()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	return string(content)
}

func TestNopByDefault(t *testing.T) {
	Reset()
	if Log.Core().Enabled(-1) {
		t.Error("default logger should discard debug entries")
	}
	// Must not panic without Init
	Named("planmap").Info("edit applied")
	Sugar.Infof("tick %d", 1)
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{
			level:    "error",
			expected: []string{"ERROR"},
			excluded: []string{"WARN", "INFO", "DEBUG"},
		},
		{
			level:    "warn",
			expected: []string{"ERROR", "WARN"},
			excluded: []string{"INFO", "DEBUG"},
		},
		{
			level:    "info",
			expected: []string{"ERROR", "WARN", "INFO"},
			excluded: []string{"DEBUG"},
		},
		{
			level:    "debug",
			expected: []string{"ERROR", "WARN", "INFO", "DEBUG"},
			excluded: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := initFile(t, tt.level)

			// Log at all levels
			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")

			logContent := readLog(t, logFile)

			// Check expected levels are present
			for _, exp := range tt.expected {
				if !strings.Contains(logContent, exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}

			// Check excluded levels are not present
			for _, exc := range tt.excluded {
				if strings.Contains(logContent, exc) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestNamed(t *testing.T) {
	logFile := initFile(t, "debug")

	Named("navigation").Debug("door paths cached")

	logContent := readLog(t, logFile)
	// The logger name is its own column, not part of the message.
	if !strings.Contains(logContent, " navigation ") {
		t.Errorf("expected component name in log output, got %q", logContent)
	}
	if !strings.Contains(logContent, "door paths cached") {
		t.Errorf("expected message in log output, got %q", logContent)
	}
}

func TestUnknownLevelIsInfo(t *testing.T) {
	logFile := initFile(t, "verbose")

	Debug("hidden")
	Info("shown")

	logContent := readLog(t, logFile)
	if strings.Contains(logContent, "hidden") {
		t.Error("debug entry logged at default level")
	}
	if !strings.Contains(logContent, "shown") {
		t.Error("info entry missing at default level")
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/cellblock.log")

	if cfg.Path != "/tmp/cellblock.log" {
		t.Errorf("expected path /tmp/cellblock.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 50 {
		t.Errorf("expected MaxSizeMB 50, got %d", cfg.MaxSizeMB)
	}
	if cfg.MaxBackups != 3 {
		t.Errorf("expected MaxBackups 3, got %d", cfg.MaxBackups)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}
