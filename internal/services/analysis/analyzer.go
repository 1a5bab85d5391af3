// Package analysis produces waveform peaks by decoding playable media on
// the client side, for tracks that have no precomputed peaks document.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// Format identifies a decodable media format
type Format string

const (
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatOGG     Format = "ogg"
	FormatUnknown Format = "unknown"
)

// ErrUnsupportedFormat is returned when no decoder handles the media
var ErrUnsupportedFormat = fmt.Errorf("unsupported media format")

// maxDecodeBytes bounds how much media is buffered for decoding
const maxDecodeBytes = 100 * 1024 * 1024

// DetectFormat picks a decoder format from the URL extension, falling back
// to the response content type. Ambiguous streams default to MP3, the
// platform's transcode target.
func DetectFormat(url, contentType string) Format {
	path := strings.ToLower(url)
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}

	switch {
	case strings.HasSuffix(path, ".wav"):
		return FormatWAV
	case strings.HasSuffix(path, ".mp3"):
		return FormatMP3
	case strings.HasSuffix(path, ".ogg"), strings.HasSuffix(path, ".oga"):
		return FormatOGG
	}

	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch ct {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return FormatWAV
	case "audio/mpeg", "audio/mp3":
		return FormatMP3
	case "audio/ogg", "application/ogg", "audio/vorbis":
		return FormatOGG
	}

	if strings.HasPrefix(ct, "audio/") {
		return FormatMP3
	}

	return FormatUnknown
}

// Analyzer decodes media streams and downsamples them to display peaks
type Analyzer struct{}

// NewAnalyzer creates a new analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze decodes r as the given format and returns a fixed-length peaks
// array with values normalized to [0,1].
func (a *Analyzer) Analyze(ctx context.Context, r io.Reader, format Format, resolution int) ([]float64, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("invalid resolution: %d", resolution)
	}

	samples, _, err := decode(ctx, r, format)
	if err != nil {
		return nil, err
	}

	return Downsample(samples, resolution), nil
}

// Duration decodes r and returns the media length in seconds
func (a *Analyzer) Duration(ctx context.Context, r io.Reader, format Format) (float64, error) {
	samples, sampleRate, err := decode(ctx, r, format)
	if err != nil {
		return 0, err
	}
	if sampleRate <= 0 {
		return 0, fmt.Errorf("decoder reported sample rate %d", sampleRate)
	}
	return float64(len(samples)) / float64(sampleRate), nil
}

func decode(ctx context.Context, r io.Reader, format Format) ([]float64, int, error) {
	var samples []float64
	var sampleRate int
	var err error

	switch format {
	case FormatWAV:
		samples, sampleRate, err = decodeWAV(r)
	case FormatMP3:
		samples, sampleRate, err = decodeMP3(ctx, r)
	case FormatOGG:
		samples, sampleRate, err = decodeOGG(ctx, r)
	default:
		return nil, 0, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, 0, err
	}
	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("decoded stream contained no samples")
	}

	return samples, sampleRate, nil
}

// decodeWAV decodes a WAV stream to mono samples in [-1,1].
// go-audio/wav needs a seeker, so the stream is buffered in memory first.
func decodeWAV(r io.Reader) ([]float64, int, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxDecodeBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("buffering wav stream: %w", err)
	}

	decoder := wav.NewDecoder(bytes.NewReader(raw))
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("wav stream contained no PCM data")
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float64, 0, frames)
	for f := 0; f < frames; f++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[f*channels+c]) / scale
		}
		samples = append(samples, sum/float64(channels))
	}

	return samples, buf.Format.SampleRate, nil
}

// decodeMP3 decodes an MP3 stream to mono samples in [-1,1].
// go-mp3 always emits 16-bit little-endian stereo.
func decodeMP3(ctx context.Context, r io.Reader) ([]float64, int, error) {
	decoder, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding mp3: %w", err)
	}

	var samples []float64
	buf := make([]byte, 16384)
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		n, err := decoder.Read(buf)
		for i := 0; i+3 < n; i += 4 {
			left := int16(uint16(buf[i]) | uint16(buf[i+1])<<8)
			right := int16(uint16(buf[i+2]) | uint16(buf[i+3])<<8)
			samples = append(samples, (float64(left)+float64(right))/2/32768.0)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading mp3 frames: %w", err)
		}
	}

	return samples, int(decoder.SampleRate()), nil
}

// decodeOGG decodes an Ogg Vorbis stream to mono samples in [-1,1]
func decodeOGG(ctx context.Context, r io.Reader) ([]float64, int, error) {
	decoder, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding ogg: %w", err)
	}

	channels := decoder.Channels()
	if channels <= 0 {
		channels = 1
	}

	var samples []float64
	buf := make([]float32, 4096*channels)
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		n, err := decoder.Read(buf)
		for f := 0; f+channels <= n; f += channels {
			var sum float64
			for c := 0; c < channels; c++ {
				sum += float64(buf[f+c])
			}
			samples = append(samples, sum/float64(channels))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading ogg frames: %w", err)
		}
	}

	return samples, decoder.SampleRate(), nil
}

// Downsample buckets samples into resolution segments, taking the absolute
// peak of each bucket and normalizing against the loudest bucket so the
// result spans [0,1].
func Downsample(samples []float64, resolution int) []float64 {
	peaks := make([]float64, resolution)
	if len(samples) == 0 {
		return peaks
	}

	perBucket := float64(len(samples)) / float64(resolution)
	var maxPeak float64

	for i := 0; i < resolution; i++ {
		start := int(float64(i) * perBucket)
		end := int(float64(i+1) * perBucket)
		if end > len(samples) {
			end = len(samples)
		}
		if start >= end {
			continue
		}

		var peak float64
		for _, s := range samples[start:end] {
			if abs := math.Abs(s); abs > peak {
				peak = abs
			}
		}
		peaks[i] = peak
		if peak > maxPeak {
			maxPeak = peak
		}
	}

	if maxPeak > 0 {
		for i := range peaks {
			peaks[i] /= maxPeak
		}
	}

	return peaks
}
