package contact

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Tick is one recorded publish, as written by WriteJSONL.
type Tick struct {
	Time     float64 `json:"t"`
	Contacts []Info  `json:"contacts"`
}

// Ticks returns the recorded history as one Tick per publish.
func (l *Logger) Ticks() []Tick {
	ticks := make([]Tick, len(l.sampleTimes))
	for i, t := range l.sampleTimes {
		ticks[i] = Tick{Time: t, Contacts: l.data[i]}
	}
	return ticks
}

// WriteJSONL writes one JSON object per tick, one per line.
func (l *Logger) WriteJSONL(w io.Writer) (err error) {
	bw := bufio.NewWriter(w)
	defer func() {
		err = multierr.Combine(err, bw.Flush())
	}()
	enc := json.NewEncoder(bw)
	for i, tick := range l.Ticks() {
		if err := enc.Encode(tick); err != nil {
			return errors.Wrapf(err, "writing contact tick %d", i)
		}
	}
	return nil
}

// ReadJSONL reads back what WriteJSONL wrote.
func ReadJSONL(r io.Reader) ([]Tick, error) {
	var ticks []Tick
	dec := json.NewDecoder(r)
	for {
		var tick Tick
		if err := dec.Decode(&tick); err != nil {
			if errors.Is(err, io.EOF) {
				return ticks, nil
			}
			return nil, errors.Wrapf(err, "reading contact tick %d", len(ticks))
		}
		if tick.Contacts == nil {
			tick.Contacts = []Info{}
		}
		ticks = append(ticks, tick)
	}
}

// NewRotatingFileWriter returns a writer for contact dumps that rotates the file at path once it grows
// past 100MB, keeping a few compressed backups.
func NewRotatingFileWriter(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 3,
		Compress:   true,
	}
}
