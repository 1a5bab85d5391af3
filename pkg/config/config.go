package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system.
// This should be called once at application startup.
func Init() error {
	once.Do(func() {
		setDefaults()

		viper.SetEnvPrefix("DEMODROP")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)

		if err := viper.ReadInConfig(); err != nil {
			// Missing config file is fine, defaults and env vars apply
			if !os.IsNotExist(err) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
		}

		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// GetConfig returns the current configuration as a struct.
// Init() must be called before using this.
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// Get returns a config value by key using Viper directly
func Get(key string) any {
	return viper.Get(key)
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1<<20)

	viper.SetDefault("database.path", "./data/engine.db")
	viper.SetDefault("database.verbose", false)

	viper.SetDefault("cache.path", "./data/waveform-cache")

	viper.SetDefault("fetch.timeout", 30*time.Second)
	viper.SetDefault("fetch.max_bytes", int64(500*1024*1024))

	viper.SetDefault("waveform.resolution", 250)

	viper.SetDefault("processing.poll_interval", 3*time.Second)
	viper.SetDefault("processing.soft_timeout", 12*time.Second)
	viper.SetDefault("processing.hard_timeout", 60*time.Second)

	viper.SetDefault("upload.max_file_bytes", int64(200*1024*1024))
	viper.SetDefault("upload.chunk_bytes", int64(5*1024*1024))

	viper.SetDefault("storage.endpoint", "localhost:9000")
	viper.SetDefault("storage.bucket", "demodrop-tracks")
	viper.SetDefault("storage.use_ssl", false)
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	if viper.GetString("database.path") == "" {
		fmt.Println("Warning: No database path configured")
	}

	// Auto-correct invalid waveform resolution
	if viper.GetInt("waveform.resolution") <= 0 {
		viper.Set("waveform.resolution", 250)
	}

	// Auto-correct poll timings: soft deadline must not exceed the hard one
	if viper.GetDuration("processing.poll_interval") <= 0 {
		viper.Set("processing.poll_interval", 3*time.Second)
	}
	if viper.GetDuration("processing.hard_timeout") < viper.GetDuration("processing.soft_timeout") {
		viper.Set("processing.hard_timeout", 60*time.Second)
	}

	if viper.GetInt64("upload.chunk_bytes") <= 0 {
		viper.Set("upload.chunk_bytes", int64(5*1024*1024))
	}

	return nil
}
