// Package config loads timeline settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/pipelined/timeline/log"
	"github.com/pipelined/timeline/signal"
)

// Devices supported by the CLI.
const (
	DevicePortaudio = "portaudio"
	DeviceOto       = "oto"
)

// Config stores the application configuration.
type Config struct {
	SampleRate    int
	NumChannels   int
	Chunk         time.Duration
	Device        string
	FFmpegPath    string
	ExportBitRate int // kbps
	Log           log.Config
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as positive int or returns a
// default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return intVal
		}
	}
	return fallback
}

// Load loads .env files, the one in current directory if none passed, and
// reads configuration from the environment. Existing environment variables
// take precedence over files. Missing files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	device := getEnv("TIMELINE_DEVICE", DevicePortaudio)
	if device != DevicePortaudio && device != DeviceOto {
		return nil, errors.New("unknown TIMELINE_DEVICE: " + device)
	}
	return &Config{
		SampleRate:    getEnvInt("TIMELINE_SAMPLE_RATE", signal.DefaultFormat.SampleRate),
		NumChannels:   getEnvInt("TIMELINE_CHANNELS", signal.DefaultFormat.NumChannels),
		Chunk:         time.Duration(getEnvInt("TIMELINE_CHUNK_MS", 50)) * time.Millisecond,
		Device:        device,
		FFmpegPath:    getEnv("FFMPEG_PATH", "ffmpeg"),
		ExportBitRate: getEnvInt("TIMELINE_EXPORT_BITRATE", 320),
		Log: log.Config{
			Level:      getEnv("TIMELINE_LOG_LEVEL", "info"),
			File:       os.Getenv("TIMELINE_LOG_FILE"),
			MaxSize:    getEnvInt("TIMELINE_LOG_MAX_SIZE", 10),
			MaxBackups: getEnvInt("TIMELINE_LOG_MAX_BACKUPS", 3),
			MaxAge:     getEnvInt("TIMELINE_LOG_MAX_AGE", 28),
			Compress:   true,
		},
	}, nil
}

// Format returns project format.
func (c *Config) Format() signal.Format {
	return signal.Format{
		SampleRate:  c.SampleRate,
		NumChannels: c.NumChannels,
		BitDepth:    signal.BitDepth16,
	}
}
