package types

import (
	"github.com/demodrop/engine/internal/database"
	"github.com/demodrop/engine/internal/services/jobs"
	"github.com/demodrop/engine/internal/services/tracks"
	"github.com/demodrop/engine/internal/services/upload"
	"github.com/demodrop/engine/internal/services/waveformcache"
	"github.com/demodrop/engine/internal/services/waveformdata"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB        *database.DB
	Cache     *waveformcache.Cache
	Tracks    tracks.TrackService
	Jobs      jobs.Service
	Waveforms *waveformdata.Store
	Uploads   *upload.Pipeline
}
