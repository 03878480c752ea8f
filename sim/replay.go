package sim

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"go.viam.com/simviz/contact"
	"go.viam.com/simviz/logging"
	"go.viam.com/simviz/rimage"
)

// Sample is one recorded plant state.
type Sample struct {
	Time  float64   `json:"t"`
	State []float64 `json:"x"`
	// Depth is a 16 bit grayscale PNG. Relative paths are relative to the samples file.
	Depth    string                 `json:"depth,omitempty"`
	Contacts *contact.StaticResults `json:"contacts,omitempty"`
}

// ReplayPlant plays back recorded samples. At time t it holds the latest sample at or before t, or the
// first sample when t is earlier than every sample.
type ReplayPlant struct {
	samples            []Sample
	dir                string
	depthUnitsPerMeter float64
	current            int
	depth              *rimage.DepthMap
	depthFile          string
	logger             logging.Logger
}

// NewReplayPlant sorts samples by time. Depth files are read on demand relative to dir.
func NewReplayPlant(samples []Sample, dir string, depthUnitsPerMeter float64, logger logging.Logger) (*ReplayPlant, error) {
	if len(samples) == 0 {
		return nil, errors.New("no samples to replay")
	}
	samples = append([]Sample(nil), samples...)
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Time < samples[j].Time })
	return &ReplayPlant{
		samples:            samples,
		dir:                dir,
		depthUnitsPerMeter: depthUnitsPerMeter,
		logger:             logger,
	}, nil
}

// ReadReplayPlant reads a JSON array of samples from path.
func ReadReplayPlant(path string, depthUnitsPerMeter float64, logger logging.Logger) (*ReplayPlant, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading samples")
	}
	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, errors.Wrapf(err, "parsing samples in %q", path)
	}
	return NewReplayPlant(samples, filepath.Dir(path), depthUnitsPerMeter, logger)
}

// LastTime returns the time of the last sample.
func (rp *ReplayPlant) LastTime() float64 {
	return rp.samples[len(rp.samples)-1].Time
}

// Advance implements Plant. Time only moves forward: a t earlier than the held sample keeps it.
func (rp *ReplayPlant) Advance(t float64) error {
	for rp.current+1 < len(rp.samples) && rp.samples[rp.current+1].Time <= t+timeEpsilon {
		rp.current++
	}
	return rp.loadDepth()
}

func (rp *ReplayPlant) loadDepth() error {
	fn := rp.samples[rp.current].Depth
	if fn == "" || fn == rp.depthFile {
		return nil
	}
	if !filepath.IsAbs(fn) {
		fn = filepath.Join(rp.dir, fn)
	}
	dm, err := rimage.ReadDepthMapFile(fn, rp.depthUnitsPerMeter)
	if err != nil {
		return err
	}
	rp.depth = dm
	rp.depthFile = rp.samples[rp.current].Depth
	rp.logger.Debugw("loaded depth image", "file", fn, "width", dm.Width(), "height", dm.Height())
	return nil
}

// State implements Plant.
func (rp *ReplayPlant) State() []float64 {
	return rp.samples[rp.current].State
}

// ContactResults implements Plant. Samples without contacts report none.
func (rp *ReplayPlant) ContactResults() contact.Results {
	if c := rp.samples[rp.current].Contacts; c != nil {
		return c
	}
	return &contact.StaticResults{}
}

// DepthImage implements Plant. It is the most recent depth image seen, nil until one is loaded.
func (rp *ReplayPlant) DepthImage() *rimage.DepthMap {
	return rp.depth
}
