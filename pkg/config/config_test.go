package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	setDefaults()

	if got := viper.GetInt("waveform.resolution"); got != 250 {
		t.Errorf("waveform.resolution = %d, want 250", got)
	}
	if got := viper.GetDuration("processing.poll_interval"); got != 3*time.Second {
		t.Errorf("processing.poll_interval = %v, want 3s", got)
	}
	if got := viper.GetDuration("processing.soft_timeout"); got != 12*time.Second {
		t.Errorf("processing.soft_timeout = %v, want 12s", got)
	}
	if got := viper.GetDuration("processing.hard_timeout"); got != 60*time.Second {
		t.Errorf("processing.hard_timeout = %v, want 60s", got)
	}
	if got := viper.GetInt64("upload.max_file_bytes"); got != 200*1024*1024 {
		t.Errorf("upload.max_file_bytes = %d, want 200MB", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func()
		wantErr bool
		check   func(t *testing.T)
	}{
		{
			name: "defaults are valid",
			setup: func() {
				setDefaults()
			},
			wantErr: false,
		},
		{
			name: "invalid port rejected",
			setup: func() {
				setDefaults()
				viper.Set("server.port", -1)
			},
			wantErr: true,
		},
		{
			name: "zero resolution auto-corrected",
			setup: func() {
				setDefaults()
				viper.Set("waveform.resolution", 0)
			},
			wantErr: false,
			check: func(t *testing.T) {
				if got := viper.GetInt("waveform.resolution"); got != 250 {
					t.Errorf("resolution = %d, want 250 after auto-correct", got)
				}
			},
		},
		{
			name: "hard timeout below soft timeout auto-corrected",
			setup: func() {
				setDefaults()
				viper.Set("processing.soft_timeout", 12*time.Second)
				viper.Set("processing.hard_timeout", 5*time.Second)
			},
			wantErr: false,
			check: func(t *testing.T) {
				if got := viper.GetDuration("processing.hard_timeout"); got != 60*time.Second {
					t.Errorf("hard_timeout = %v, want 60s after auto-correct", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()
			tt.setup()

			err := validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t)
			}
		})
	}
}

func TestEnvOverride(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	os.Setenv("DEMODROP_SERVER_PORT", "9090")
	defer os.Unsetenv("DEMODROP_SERVER_PORT")

	setDefaults()
	viper.SetEnvPrefix("DEMODROP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if got := viper.GetInt("server.port"); got != 9090 {
		t.Errorf("server.port = %d, want 9090 from environment", got)
	}
}
