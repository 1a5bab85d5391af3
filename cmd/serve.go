package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/demodrop/engine/api"
	"github.com/demodrop/engine/api/types"
	"github.com/demodrop/engine/internal/database"
	"github.com/demodrop/engine/internal/models"
	"github.com/demodrop/engine/internal/services/analysis"
	"github.com/demodrop/engine/internal/services/jobs"
	"github.com/demodrop/engine/internal/services/tracks"
	"github.com/demodrop/engine/internal/services/upload"
	"github.com/demodrop/engine/internal/services/waveformcache"
	"github.com/demodrop/engine/internal/services/waveformdata"
	"github.com/demodrop/engine/pkg/config"
	"github.com/demodrop/engine/pkg/fetch"
	"github.com/spf13/cobra"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the engine server",
	Long: `Start the Demodrop Engine server with the configured settings.

The server resolves waveform peaks, reports transcoding progress and
accepts chunked uploads over HTTP.

Example:
  demodrop-engine serve
  demodrop-engine serve --port 9090
  demodrop-engine serve --host 0.0.0.0 --port 8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if serverHost == "" {
		serverHost = cfg.Server.Host
	}
	if serverPort == 0 {
		serverPort = cfg.Server.Port
	}

	db, err := database.Initialize(cfg.Database.Path, cfg.Database.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(&models.Track{}, &models.ProcessingJob{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	cache, err := waveformcache.Open(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to open waveform cache: %w", err)
	}
	defer cache.Close()

	fetcher := fetch.NewClient(fetch.Options{
		Timeout:   cfg.Fetch.Timeout,
		MaxSize:   cfg.Fetch.MaxBytes,
		UserAgent: "DemodropEngine/" + Version,
	})

	deps := &types.Dependencies{
		DB:        db,
		Cache:     cache,
		Tracks:    tracks.NewService(tracks.NewRepository(db.DB)),
		Jobs:      jobs.NewService(jobs.NewRepository(db.DB)),
		Waveforms: waveformdata.NewStore(cache, fetcher, analysis.NewAnalyzer(), cfg.Waveform.Resolution),
	}

	store, err := upload.NewMinioStore(upload.MinioConfig{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		Bucket:        cfg.Storage.Bucket,
		UseSSL:        cfg.Storage.UseSSL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		log.Printf("[ERROR] Object storage unavailable, uploads disabled: %v", err)
	} else {
		deps.Uploads = upload.NewPipeline(store, upload.Config{
			MaxFileBytes: cfg.Upload.MaxFileBytes,
			ChunkBytes:   cfg.Upload.ChunkBytes,
		})
	}

	address := fmt.Sprintf("%s:%d", serverHost, serverPort)
	server := api.NewServer(address)
	server.SetDependencies(deps)

	if err := server.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	log.Printf("Starting Demodrop Engine server on %s", address)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		log.Printf("Received signal %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Printf("Server stopped")
	return nil
}
