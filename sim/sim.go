// Package sim drives a plant through fixed simulated time steps and publishes its state to periodic
// publishers such as the camera visualizer and the contact logger.
package sim

import (
	"context"

	"go.viam.com/simviz/contact"
	"go.viam.com/simviz/rimage"
)

// Plant is the simulated system being observed.
type Plant interface {
	// Advance moves the plant to simulated time t. Times passed to Advance never decrease.
	Advance(t float64) error
	// State is the tree state: positions followed by velocities.
	State() []float64
	ContactResults() contact.Results
	// DepthImage is the latest depth image of the plant's camera, in meters.
	DepthImage() *rimage.DepthMap
}

// Context is what a publisher sees on a tick.
type Context struct {
	Time  float64
	plant Plant
}

// NewContext returns the context of plant at simulated time t.
func NewContext(t float64, plant Plant) *Context {
	return &Context{Time: t, plant: plant}
}

// State returns the plant state.
func (c *Context) State() []float64 {
	return c.plant.State()
}

// ContactResults returns the plant's contacts.
func (c *Context) ContactResults() contact.Results {
	return c.plant.ContactResults()
}

// DepthImage returns the plant's depth image.
func (c *Context) DepthImage() *rimage.DepthMap {
	return c.plant.DepthImage()
}

// Publisher observes the plant without changing it.
type Publisher interface {
	Publish(ctx context.Context, sc *Context) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, sc *Context) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, sc *Context) error {
	return f(ctx, sc)
}
