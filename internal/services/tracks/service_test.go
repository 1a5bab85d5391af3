package tracks

import (
	"context"
	"errors"
	"testing"

	"github.com/demodrop/engine/internal/models"
)

// mockTrackRepository implements TrackRepository in memory
type mockTrackRepository struct {
	tracks map[uint]*models.Track
	nextID uint
}

func newMockTrackRepository() *mockTrackRepository {
	return &mockTrackRepository{tracks: make(map[uint]*models.Track), nextID: 1}
}

func (m *mockTrackRepository) CreateTrack(ctx context.Context, track *models.Track) error {
	track.ID = m.nextID
	m.nextID++
	m.tracks[track.ID] = track
	return nil
}

func (m *mockTrackRepository) UpdateTrack(ctx context.Context, track *models.Track) error {
	if _, ok := m.tracks[track.ID]; !ok {
		return ErrTrackNotFound
	}
	m.tracks[track.ID] = track
	return nil
}

func (m *mockTrackRepository) GetTrackByID(ctx context.Context, id uint) (*models.Track, error) {
	track, ok := m.tracks[id]
	if !ok {
		return nil, ErrTrackNotFound
	}
	return track, nil
}

func (m *mockTrackRepository) ListTracksByOwner(ctx context.Context, ownerID string, page, limit int) ([]models.Track, int64, error) {
	var out []models.Track
	for _, track := range m.tracks {
		if track.OwnerID == ownerID {
			out = append(out, *track)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockTrackRepository) SetProcessingStatus(ctx context.Context, trackID uint, status models.ProcessingStatus) error {
	track, ok := m.tracks[trackID]
	if !ok {
		return ErrTrackNotFound
	}
	track.ProcessingStatus = status
	return nil
}

func (m *mockTrackRepository) SetRenditionURLs(ctx context.Context, trackID uint, wavURL, transcodedURL, compressedURL string) error {
	track, ok := m.tracks[trackID]
	if !ok {
		return ErrTrackNotFound
	}
	track.WavURL = wavURL
	track.TranscodedURL = transcodedURL
	track.CompressedURL = compressedURL
	return nil
}

func (m *mockTrackRepository) SetWaveformURL(ctx context.Context, trackID uint, waveformURL string) error {
	track, ok := m.tracks[trackID]
	if !ok {
		return ErrTrackNotFound
	}
	track.WaveformURL = waveformURL
	return nil
}

func (m *mockTrackRepository) DeleteTrack(ctx context.Context, id uint) error {
	if _, ok := m.tracks[id]; !ok {
		return ErrTrackNotFound
	}
	delete(m.tracks, id)
	return nil
}

func TestCreateTrackValidation(t *testing.T) {
	svc := NewService(newMockTrackRepository())

	if err := svc.CreateTrack(context.Background(), &models.Track{OwnerID: "u1"}); err == nil {
		t.Error("track without a title should be rejected")
	}
	if err := svc.CreateTrack(context.Background(), &models.Track{Title: "Demo"}); err == nil {
		t.Error("track without an owner should be rejected")
	}

	track := &models.Track{Title: "Demo", OwnerID: "u1", OriginalURL: "https://cdn/demo.mp3"}
	if err := svc.CreateTrack(context.Background(), track); err != nil {
		t.Fatalf("CreateTrack() error: %v", err)
	}
	if track.ProcessingStatus != models.StatusPending {
		t.Errorf("new track status = %s, want pending", track.ProcessingStatus)
	}
}

func TestPlayableSelectsBestRendition(t *testing.T) {
	repo := newMockTrackRepository()
	svc := NewService(repo)

	track := &models.Track{
		Title:         "Demo",
		OwnerID:       "u1",
		OriginalURL:   "https://cdn/orig.aiff",
		CompressedURL: "https://cdn/comp.mp3",
	}
	if err := svc.CreateTrack(context.Background(), track); err != nil {
		t.Fatal(err)
	}

	playable, err := svc.Playable(context.Background(), track.ID)
	if err != nil {
		t.Fatalf("Playable() error: %v", err)
	}
	if playable.PlayableURL != "https://cdn/comp.mp3" {
		t.Errorf("playable = %q, want the compressed rendition", playable.PlayableURL)
	}
	if playable.Lossless {
		t.Error("compressed rendition should not be flagged lossless")
	}

	// Once the WAV lands it wins
	if err := svc.AttachRenditions(context.Background(), track.ID, "https://cdn/a.wav", "https://cdn/a.mp3", "https://cdn/comp.mp3"); err != nil {
		t.Fatal(err)
	}
	playable, err = svc.Playable(context.Background(), track.ID)
	if err != nil {
		t.Fatal(err)
	}
	if playable.PlayableURL != "https://cdn/a.wav" {
		t.Errorf("playable = %q, want the WAV rendition", playable.PlayableURL)
	}
	if !playable.Lossless {
		t.Error("WAV rendition should be flagged lossless")
	}
}

func TestPlayableWithoutRenditions(t *testing.T) {
	repo := newMockTrackRepository()
	svc := NewService(repo)

	track := &models.Track{Title: "Demo", OwnerID: "u1"}
	if err := svc.CreateTrack(context.Background(), track); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Playable(context.Background(), track.ID); err == nil {
		t.Error("track without any rendition should not resolve a playable URL")
	}
}

func TestDeleteTrackEnforcesOwnership(t *testing.T) {
	repo := newMockTrackRepository()
	svc := NewService(repo)

	track := &models.Track{Title: "Demo", OwnerID: "u1", OriginalURL: "https://cdn/x.mp3"}
	if err := svc.CreateTrack(context.Background(), track); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteTrack(context.Background(), track.ID, "intruder"); err == nil {
		t.Error("delete by a non-owner should fail")
	}
	if err := svc.DeleteTrack(context.Background(), track.ID, "u1"); err != nil {
		t.Errorf("delete by the owner failed: %v", err)
	}
	if _, err := svc.GetTrack(context.Background(), track.ID); !errors.Is(err, ErrTrackNotFound) {
		t.Error("track should be gone after delete")
	}
}

func TestMarkProcessingStatusRejectsUnknown(t *testing.T) {
	repo := newMockTrackRepository()
	svc := NewService(repo)

	track := &models.Track{Title: "Demo", OwnerID: "u1"}
	if err := svc.CreateTrack(context.Background(), track); err != nil {
		t.Fatal(err)
	}

	if err := svc.MarkProcessingStatus(context.Background(), track.ID, "exploded"); err == nil {
		t.Error("unknown status should be rejected")
	}
	if err := svc.MarkProcessingStatus(context.Background(), track.ID, models.StatusProcessing); err != nil {
		t.Errorf("valid status rejected: %v", err)
	}
}
