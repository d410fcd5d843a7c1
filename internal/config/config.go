// Package config holds the viper defaults and the settings derived from them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const AppName = "readaloud"

// Settings is the resolved configuration of one run
type Settings struct {
	Engine        string
	Rate          int
	HeadingPause  time.Duration
	SentencePause time.Duration
	VoiceCacheTTL time.Duration
	VoiceCacheDir string
	GoogleRPM     int
	LogLevel      string
}

func SetDefaults() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tts.engine", "auto") // Auto-select best engine
	v.SetDefault("tts.rate", 150)
	v.SetDefault("playback.heading_pause", 500*time.Millisecond)
	v.SetDefault("playback.sentence_pause", 100*time.Millisecond)
	v.SetDefault("voices.cache_ttl", 24*time.Hour)
	v.SetDefault("voices.cache_dir", "")
	v.SetDefault("export.google_rpm", 60)
	v.SetDefault("log.level", "warn")
}

// Load reads an optional .env file, then the config file and READALOUD_*
// environment variables. An explicit configFile must exist; otherwise a
// missing config file is not an error.
func Load(configFile string) error {
	return load(viper.GetViper(), configFile)
}

func load(v *viper.Viper, configFile string) error {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("No .env file loaded, using process environment")
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		for _, dir := range configDirs() {
			v.AddConfigPath(dir)
		}
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if used := v.ConfigFileUsed(); used != "" {
		logrus.WithField("path", used).Debug("Using configuration file")
	}
	return nil
}

// configDirs lists config file locations, most specific first
func configDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "."+AppName))
	}

	scope := gap.NewScope(gap.User, AppName)
	if scoped, err := scope.ConfigDirs(); err == nil {
		dirs = append(dirs, scoped...)
	} else {
		logrus.WithError(err).Debug("Could not resolve user config directories")
	}

	return append(dirs, ".")
}

// Current returns the settings from the global viper instance
func Current() Settings {
	return fromViper(viper.GetViper())
}

func fromViper(v *viper.Viper) Settings {
	return Settings{
		Engine:        v.GetString("tts.engine"),
		Rate:          v.GetInt("tts.rate"),
		HeadingPause:  v.GetDuration("playback.heading_pause"),
		SentencePause: v.GetDuration("playback.sentence_pause"),
		VoiceCacheTTL: v.GetDuration("voices.cache_ttl"),
		VoiceCacheDir: v.GetString("voices.cache_dir"),
		GoogleRPM:     v.GetInt("export.google_rpm"),
		LogLevel:      v.GetString("log.level"),
	}
}

// CacheDir returns where cached voice lists and synthesized audio live. The
// configured directory wins, then the per-user cache directory, the home
// directory and finally the working directory.
func (s Settings) CacheDir() string {
	if s.VoiceCacheDir != "" {
		return s.VoiceCacheDir
	}

	if dir, err := gap.NewScope(gap.User, AppName).CacheDir(); err == nil {
		return dir
	}

	if cacheDir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cacheDir, AppName)
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "."+AppName, "cache")
	}

	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, "cache")
	}

	return "cache"
}

// ConfigureLogging applies the log level; verbose forces debug.
func ConfigureLogging(level string, verbose bool) error {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
		return nil
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.SetLevel(logrus.WarnLevel)
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)
	return nil
}
