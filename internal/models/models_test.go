package models

import "testing"

func TestTrackPlayableURL(t *testing.T) {
	tests := []struct {
		name  string
		track Track
		want  string
	}{
		{
			name: "wav wins over everything",
			track: Track{
				WavURL:        "https://cdn.example.com/a.wav",
				TranscodedURL: "https://cdn.example.com/a.m4a",
				CompressedURL: "https://cdn.example.com/a.mp3",
				OriginalURL:   "https://cdn.example.com/a.flac",
			},
			want: "https://cdn.example.com/a.wav",
		},
		{
			name: "transcoded before compressed",
			track: Track{
				TranscodedURL: "https://cdn.example.com/a.m4a",
				CompressedURL: "https://cdn.example.com/a.mp3",
				OriginalURL:   "https://cdn.example.com/a.flac",
			},
			want: "https://cdn.example.com/a.m4a",
		},
		{
			name: "compressed before original",
			track: Track{
				CompressedURL: "https://cdn.example.com/a.mp3",
				OriginalURL:   "https://cdn.example.com/a.flac",
			},
			want: "https://cdn.example.com/a.mp3",
		},
		{
			name: "original as last resort",
			track: Track{
				OriginalURL: "https://cdn.example.com/a.flac",
			},
			want: "https://cdn.example.com/a.flac",
		},
		{
			name:  "no URLs at all",
			track: Track{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.track.PlayableURL(); got != tt.want {
				t.Errorf("PlayableURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProcessingStatusProgress(t *testing.T) {
	tests := []struct {
		status ProcessingStatus
		want   int
	}{
		{StatusPending, 10},
		{StatusQueued, 25},
		{StatusProcessing, 60},
		{StatusCompleted, 100},
		{StatusFailed, 0},
	}

	for _, tt := range tests {
		if got := tt.status.Progress(); got != tt.want {
			t.Errorf("%s.Progress() = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestProcessingStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from ProcessingStatus
		to   ProcessingStatus
		want bool
	}{
		{"forward pending to queued", StatusPending, StatusQueued, true},
		{"forward queued to processing", StatusQueued, StatusProcessing, true},
		{"forward processing to completed", StatusProcessing, StatusCompleted, true},
		{"skip ahead pending to completed", StatusPending, StatusCompleted, true},
		{"same state is allowed", StatusProcessing, StatusProcessing, true},
		{"backwards is rejected", StatusProcessing, StatusQueued, false},
		{"any active state may fail", StatusProcessing, StatusFailed, true},
		{"completed cannot fail", StatusCompleted, StatusFailed, false},
		{"failed retries to queued", StatusFailed, StatusQueued, true},
		{"failed cannot jump to completed", StatusFailed, StatusCompleted, false},
		{"unknown status rejected", StatusPending, ProcessingStatus("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestProcessingStatusTerminal(t *testing.T) {
	for _, s := range []ProcessingStatus{StatusPending, StatusQueued, StatusProcessing} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []ProcessingStatus{StatusCompleted, StatusFailed} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}
