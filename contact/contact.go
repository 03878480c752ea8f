// Package contact records the contact forces a physics step reports, one entry per publish tick.
package contact

import (
	"github.com/golang/geo/r3"

	"go.viam.com/simviz/logging"
	"go.viam.com/simviz/referenceframe"
)

// Info is one contact between two collision elements. Point and Force are in the world frame.
// GeneralizedForce is the generalized contact force of the whole tree at the tick the contact was seen.
type Info struct {
	Element1         referenceframe.ElementID `json:"element_id_1"`
	Element2         referenceframe.ElementID `json:"element_id_2"`
	Point            r3.Vector                `json:"application_point"`
	Force            r3.Vector                `json:"force"`
	GeneralizedForce []float64                `json:"generalized_force"`
}

// Results is what a physics step reports about contacts.
type Results interface {
	NumContacts() int
	// ContactInfo returns contact i. Its GeneralizedForce is ignored.
	ContactInfo(i int) Info
	GeneralizedContactForce() []float64
}

// StaticResults is a fixed set of contacts.
type StaticResults struct {
	Contacts    []Info    `json:"contacts"`
	Generalized []float64 `json:"generalized_force"`
}

// NumContacts implements Results.
func (sr *StaticResults) NumContacts() int {
	return len(sr.Contacts)
}

// ContactInfo implements Results.
func (sr *StaticResults) ContactInfo(i int) Info {
	return sr.Contacts[i]
}

// GeneralizedContactForce implements Results.
func (sr *StaticResults) GeneralizedContactForce() []float64 {
	return sr.Generalized
}

// Logger is an append-only history of contact results. SampleTimes, NumContacts and Data always have one
// entry per Publish, including ticks without contacts.
//
// A Logger is driven by a single simulation loop and is not safe for concurrent use.
type Logger struct {
	logger      logging.Logger
	sampleTimes []float64
	numContacts []int
	data        [][]Info
}

// NewLogger returns an empty history.
func NewLogger(logger logging.Logger) *Logger {
	return &Logger{logger: logger}
}

// Publish records the contacts of the tick at time t. Every contact gets its own copy of the generalized
// force so later steps can't change recorded data.
func (l *Logger) Publish(t float64, results Results) {
	n := 0
	if results != nil {
		n = results.NumContacts()
	}
	l.sampleTimes = append(l.sampleTimes, t)
	l.numContacts = append(l.numContacts, n)

	tick := make([]Info, 0, n)
	for i := 0; i < n; i++ {
		info := results.ContactInfo(i)
		info.GeneralizedForce = append([]float64(nil), results.GeneralizedContactForce()...)
		tick = append(tick, info)
	}
	l.data = append(l.data, tick)
	if l.logger != nil {
		l.logger.Debugw("recorded contacts", "t", t, "num_contacts", n)
	}
}

// SampleTimes returns the time of every tick.
func (l *Logger) SampleTimes() []float64 {
	return l.sampleTimes
}

// NumContacts returns the contact count of every tick.
func (l *Logger) NumContacts() []int {
	return l.numContacts
}

// Data returns the contacts of every tick.
func (l *Logger) Data() [][]Info {
	return l.data
}

// Len returns the number of recorded ticks.
func (l *Logger) Len() int {
	return len(l.sampleTimes)
}

// BodyPairs resolves the element ids of contacts to the indices of the bodies involved, using a map such as
// Tree.CollisionElementToBodyIndex. Unknown elements resolve to -1.
func BodyPairs(contacts []Info, elementToBody map[referenceframe.ElementID]int) [][2]int {
	lookup := func(id referenceframe.ElementID) int {
		if b, ok := elementToBody[id]; ok {
			return b
		}
		return -1
	}
	pairs := make([][2]int, len(contacts))
	for i, c := range contacts {
		pairs[i] = [2]int{lookup(c.Element1), lookup(c.Element2)}
	}
	return pairs
}
