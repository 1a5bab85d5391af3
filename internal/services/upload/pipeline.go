// Package upload moves audio files into object storage, splitting large
// files into chunks and validating everything it can before the first byte
// leaves the machine.
package upload

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultMaxFileBytes is the upload ceiling
	DefaultMaxFileBytes = 200 << 20
	// DefaultChunkBytes is the chunk size for large uploads
	DefaultChunkBytes = 5 << 20
)

// allowedExtensions is the audio allow-list; the value marks lossy formats
// that need an explicit confirmation before uploading.
var allowedExtensions = map[string]bool{
	".wav":  false,
	".aiff": false,
	".aif":  false,
	".flac": false,
	".mp3":  true,
	".ogg":  true,
	".oga":  true,
	".aac":  true,
	".m4a":  true,
}

// Config configures the pipeline; zero fields fall back to the defaults
type Config struct {
	MaxFileBytes int64
	ChunkBytes   int64
}

// File describes an upload candidate. LossyConfirmed records that the
// caller has acknowledged the lossy-source advisory.
type File struct {
	Name           string
	Size           int64
	ContentType    string
	Reader         io.Reader
	LossyConfirmed bool
}

// Receipt reports a completed upload
type Receipt struct {
	URL        string `json:"url"`
	Key        string `json:"key"`
	ChunkCount int    `json:"chunk_count"`
}

// Pipeline validates and uploads audio files to an ObjectStore
type Pipeline struct {
	store ObjectStore
	cfg   Config
}

// NewPipeline builds an upload pipeline over store
func NewPipeline(store ObjectStore, cfg Config) *Pipeline {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	if cfg.ChunkBytes <= 0 {
		cfg.ChunkBytes = DefaultChunkBytes
	}
	return &Pipeline{store: store, cfg: cfg}
}

// Validate runs every pre-network check: size ceiling, format allow-list
// and the lossy-source advisory. Upload calls it internally; the API layer
// also calls it directly to drive the confirmation flow.
func (p *Pipeline) Validate(file File) error {
	if file.Size > p.cfg.MaxFileBytes {
		return &FileTooLargeError{Size: file.Size, Limit: p.cfg.MaxFileBytes}
	}

	ext := strings.ToLower(path.Ext(file.Name))
	lossy, ok := allowedExtensions[ext]
	if !ok {
		if !strings.HasPrefix(strings.ToLower(file.ContentType), "audio/") {
			return &UnsupportedFormatError{Name: file.Name, ContentType: file.ContentType}
		}
		// Unknown extension but an audio content type: treat as lossy,
		// the transcoder will sort it out
		lossy = true
	}

	if lossy && !file.LossyConfirmed {
		return &ConfirmationRequiredError{Format: strings.TrimPrefix(ext, ".")}
	}

	return nil
}

// Upload validates file and moves it into object storage. Files up to one
// chunk go up in a single shot; larger files are split into sequential
// chunks and composed server-side. onProgress receives a monotonically
// non-decreasing fraction in [0,1], reaching 1 only after the store has
// confirmed the final object.
func (p *Pipeline) Upload(ctx context.Context, file File, onProgress func(float64)) (*Receipt, error) {
	if err := p.Validate(file); err != nil {
		return nil, err
	}

	progress := newProgressGate(onProgress)
	key := fmt.Sprintf("tracks/%s%s", uuid.New().String(), strings.ToLower(path.Ext(file.Name)))

	if file.Size <= p.cfg.ChunkBytes {
		if err := p.store.Put(ctx, key, file.Reader, file.Size, file.ContentType); err != nil {
			return nil, fmt.Errorf("uploading %s: %w", file.Name, err)
		}
		progress.report(1)
		log.Printf("[DEBUG] Uploaded %s as %s in a single shot", file.Name, key)
		return &Receipt{URL: p.store.URL(key), Key: key, ChunkCount: 1}, nil
	}

	return p.uploadChunked(ctx, file, key, progress)
}

func (p *Pipeline) uploadChunked(ctx context.Context, file File, key string, progress *progressGate) (*Receipt, error) {
	total := int((file.Size + p.cfg.ChunkBytes - 1) / p.cfg.ChunkBytes)
	chunkKeys := make([]string, 0, total)

	cleanup := func() {
		for _, chunkKey := range chunkKeys {
			if err := p.store.Delete(context.Background(), chunkKey); err != nil {
				log.Printf("[ERROR] Failed to clean up chunk %s: %v", chunkKey, err)
			}
		}
	}

	var sent int64
	for i := 0; i < total; i++ {
		size := p.cfg.ChunkBytes
		if remaining := file.Size - sent; remaining < size {
			size = remaining
		}

		chunkKey := fmt.Sprintf("%s.chunks/%04d", key, i)
		err := p.store.Put(ctx, chunkKey, io.LimitReader(file.Reader, size), size, file.ContentType)
		if err != nil {
			cleanup()
			return nil, &ChunkUploadError{Chunk: i + 1, Total: total, Cause: err}
		}

		chunkKeys = append(chunkKeys, chunkKey)
		sent += size
		// Hold back the last sliver until the compose confirms
		progress.report(0.99 * float64(sent) / float64(file.Size))
	}

	if err := p.store.Compose(ctx, key, chunkKeys, file.ContentType); err != nil {
		cleanup()
		return nil, fmt.Errorf("assembling %s: %w", file.Name, err)
	}
	cleanup()

	progress.report(1)
	log.Printf("[DEBUG] Uploaded %s as %s in %d chunks", file.Name, key, total)
	return &Receipt{URL: p.store.URL(key), Key: key, ChunkCount: total}, nil
}

// progressGate enforces the monotonic progress contract
type progressGate struct {
	fn   func(float64)
	last float64
}

func newProgressGate(fn func(float64)) *progressGate {
	return &progressGate{fn: fn}
}

func (g *progressGate) report(fraction float64) {
	if g.fn == nil {
		return
	}
	if fraction < g.last {
		return
	}
	g.last = fraction
	g.fn(fraction)
}
