package config

import "time"

// Config represents the complete engine configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Waveform   WaveformConfig   `mapstructure:"waveform"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

// DatabaseConfig contains sqlite settings for track and job records
type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	Verbose bool   `mapstructure:"verbose"`
}

// CacheConfig contains the persistent waveform cache settings
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// FetchConfig contains settings for fetching precomputed peaks and media
type FetchConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxBytes int64         `mapstructure:"max_bytes"`
}

// WaveformConfig contains waveform resolution settings
type WaveformConfig struct {
	Resolution int `mapstructure:"resolution"`
}

// ProcessingConfig contains transcoding status poll settings
type ProcessingConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	SoftTimeout  time.Duration `mapstructure:"soft_timeout"`
	HardTimeout  time.Duration `mapstructure:"hard_timeout"`
}

// UploadConfig contains chunked upload limits
type UploadConfig struct {
	MaxFileBytes int64 `mapstructure:"max_file_bytes"`
	ChunkBytes   int64 `mapstructure:"chunk_bytes"`
}

// StorageConfig contains object storage (MinIO) settings
type StorageConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Bucket        string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}
