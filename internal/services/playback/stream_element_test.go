package playback

import (
	"bytes"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/demodrop/engine/internal/services/analysis"
	"github.com/demodrop/engine/pkg/fetch"
)

// tinyWAV builds a mono 16-bit PCM WAV with the given number of silent
// samples at 44100Hz.
func tinyWAV(samples int) []byte {
	data := make([]byte, samples*2)
	var buf bytes.Buffer

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(44100))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(44100*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	return buf.Bytes()
}

func TestStreamElementLoadAndFinish(t *testing.T) {
	// 2205 samples at 44100Hz is a 50ms track
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(tinyWAV(2205))
	}))
	defer server.Close()

	client := fetch.NewClient(fetch.Options{Timeout: 5 * time.Second})
	elem := NewStreamElement(client, analysis.NewAnalyzer())
	defer elem.Close()

	events := make(chan Event, 16)
	elem.Subscribe(func(ev Event) { events <- ev })
	elem.Load(server.URL + "/track.wav")

	var loaded Event
	deadline := time.After(5 * time.Second)
	for loaded.Kind != EventLoaded {
		select {
		case ev := <-events:
			if ev.Kind == EventError {
				t.Fatalf("load failed: %v", ev.Err)
			}
			loaded = ev
		case <-deadline:
			t.Fatal("timed out waiting for the loaded event")
		}
	}

	if loaded.Duration < 0.04 || loaded.Duration > 0.06 {
		t.Errorf("duration = %v, want ~0.05", loaded.Duration)
	}

	if err := elem.Play(); err != nil {
		t.Fatalf("Play() error: %v", err)
	}

	for {
		select {
		case ev := <-events:
			if ev.Kind == EventEnded {
				if got := elem.Position(); got != loaded.Duration {
					t.Errorf("position at end = %v, want %v", got, loaded.Duration)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for the ended event")
		}
	}
}

func TestStreamElementUnknownFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("not audio"))
	}))
	defer server.Close()

	client := fetch.NewClient(fetch.Options{Timeout: 5 * time.Second})
	elem := NewStreamElement(client, analysis.NewAnalyzer())
	defer elem.Close()

	events := make(chan Event, 16)
	elem.Subscribe(func(ev Event) { events <- ev })
	elem.Load(server.URL + "/blob.bin")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == EventError {
				return
			}
			if ev.Kind == EventLoaded {
				t.Fatal("unknown format should not load")
			}
		case <-deadline:
			t.Fatal("timed out waiting for the error event")
		}
	}
}

func TestStreamElementSeekWhilePaused(t *testing.T) {
	elem := NewStreamElement(fetch.NewClient(fetch.Options{}), analysis.NewAnalyzer())
	defer elem.Close()

	elem.mu.Lock()
	elem.duration = 120
	elem.mu.Unlock()

	elem.SetPosition(30)
	if got := elem.Position(); got != 30 {
		t.Errorf("position = %v, want 30", got)
	}

	// Clamped to duration
	elem.SetPosition(500)
	if got := elem.Position(); got != 120 {
		t.Errorf("position = %v, want clamped to 120", got)
	}
}
