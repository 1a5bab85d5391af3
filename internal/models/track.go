package models

import (
	"gorm.io/gorm"
)

// Track represents an uploaded demo track and its candidate playback URLs
type Track struct {
	gorm.Model
	Title            string           `json:"title" gorm:"not null"`
	OwnerID          string           `json:"owner_id" gorm:"index"`
	OriginalFormat   string           `json:"original_format"`
	WavURL           string           `json:"wav_url,omitempty"`
	TranscodedURL    string           `json:"transcoded_url,omitempty"`
	CompressedURL    string           `json:"compressed_url,omitempty"`
	OriginalURL      string           `json:"original_url,omitempty"`
	WaveformURL      string           `json:"waveform_url,omitempty"` // precomputed peaks document
	ProcessingStatus ProcessingStatus `json:"processing_status" gorm:"default:'pending'"`
}

// PlayableURL selects the single active playback URL by fixed priority:
// an uncompressed WAV plays immediately without waiting for transcoding,
// then the transcoded rendition, the compressed rendition, and finally
// the original upload.
func (t *Track) PlayableURL() string {
	switch {
	case t.WavURL != "":
		return t.WavURL
	case t.TranscodedURL != "":
		return t.TranscodedURL
	case t.CompressedURL != "":
		return t.CompressedURL
	default:
		return t.OriginalURL
	}
}

// HasLosslessPlayback reports whether the active playback URL is a
// losslessly-decodable source
func (t *Track) HasLosslessPlayback() bool {
	return t.WavURL != ""
}

// TableName specifies the table name for GORM
func (Track) TableName() string {
	return "tracks"
}
