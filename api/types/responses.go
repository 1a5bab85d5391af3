package types

// Status constants for API responses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// BaseResponse contains fields common to all API responses
type BaseResponse struct {
	Status  string `json:"status"`            // One of the Status constants above
	Message string `json:"message,omitempty"` // Human-readable message
}

// WaveformResponse carries resolved peaks and where they came from
type WaveformResponse struct {
	BaseResponse
	TrackID    uint      `json:"track_id"`
	Peaks      []float64 `json:"peaks"`
	Resolution int       `json:"resolution"`
	Provenance string    `json:"provenance"` // cached | precomputed | analyzed | synthetic
	Advisory   string    `json:"advisory,omitempty"`
}

// UploadResponse reports a stored upload
type UploadResponse struct {
	BaseResponse
	URL        string `json:"url"`
	Key        string `json:"key"`
	ChunkCount int    `json:"chunk_count"`
	TrackID    uint   `json:"track_id,omitempty"`
}

// UploadAdvisoryResponse asks the caller to confirm a lossy source upload
type UploadAdvisoryResponse struct {
	BaseResponse
	ConfirmationRequired bool   `json:"confirmation_required"`
	Format               string `json:"format"`
}

// ProcessingStatusResponse reports transcoding progress for a track
type ProcessingStatusResponse struct {
	BaseResponse
	TrackID  uint   `json:"track_id"`
	JobID    uint   `json:"job_id"`
	State    string `json:"state"`
	Progress int    `json:"progress"` // 0-100
	Error    string `json:"error,omitempty"`
	Forced   bool   `json:"forced,omitempty"` // set on soft-deadline forced refreshes
}

// TrackResponse carries a track with its selected playable rendition
type TrackResponse struct {
	BaseResponse
	Track       interface{} `json:"track"`
	PlayableURL string      `json:"playable_url"`
	Lossless    bool        `json:"lossless"`
}
