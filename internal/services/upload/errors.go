package upload

import "fmt"

// FileTooLargeError is returned before any network traffic when the file
// exceeds the upload ceiling.
type FileTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file is %s, the upload limit is %s", humanBytes(e.Size), humanBytes(e.Limit))
}

// UnsupportedFormatError is returned for files outside the audio allow-list
type UnsupportedFormatError struct {
	Name        string
	ContentType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s (%s) is not a supported audio format", e.Name, e.ContentType)
}

// ConfirmationRequiredError is returned before any bytes move when the
// source format is lossy; the caller must confirm to proceed.
type ConfirmationRequiredError struct {
	Format string
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("%s is a lossy format; confirmation is required before uploading", e.Format)
}

// ChunkUploadError reports a failed chunk; previously uploaded chunks of
// the attempt have already been cleaned up.
type ChunkUploadError struct {
	Chunk int
	Total int
	Cause error
}

func (e *ChunkUploadError) Error() string {
	return fmt.Sprintf("uploading chunk %d of %d: %v", e.Chunk, e.Total, e.Cause)
}

func (e *ChunkUploadError) Unwrap() error {
	return e.Cause
}

func humanBytes(n int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1fGB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%.1fMB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1fKB", float64(n)/kb)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
