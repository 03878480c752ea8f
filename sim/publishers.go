package sim

import (
	"context"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/simviz/contact"
	"go.viam.com/simviz/viz"
)

// Names of the systems in the camera visualization diagram.
const (
	PlantSystem            = "plant"
	CameraSystem           = "camera"
	CameraVisualizerSystem = "camera meshcat visualization"
	ContactLoggerSystem    = "contact logger"
)

// NewContactPublisher records the plant's contacts on every tick.
func NewContactPublisher(cl *contact.Logger) Publisher {
	return PublisherFunc(func(ctx context.Context, sc *Context) error {
		cl.Publish(sc.Time, sc.ContactResults())
		return nil
	})
}

// NewCameraPublisher draws the plant's depth image through cv.
func NewCameraPublisher(cv *viz.CameraVisualizer) Publisher {
	return PublisherFunc(func(ctx context.Context, sc *Context) error {
		depth := sc.DepthImage()
		if depth == nil {
			return errors.Errorf("no depth image at t=%v", sc.Time)
		}
		return cv.Publish(ctx, sc.Time, depth, sc.State())
	})
}

// CameraVisualizationDiagram describes a plant observed by a camera visualizer and a contact logger.
func CameraVisualizationDiagram() *Diagram {
	d := NewDiagram("camera visualization")
	for _, s := range []string{PlantSystem, CameraSystem, CameraVisualizerSystem, ContactLoggerSystem} {
		goutils.UncheckedError(d.AddSystem(s))
	}
	for _, c := range []Connection{
		{PlantSystem, "state", CameraSystem, "state"},
		{CameraSystem, "depth_image", CameraVisualizerSystem, "depth_image"},
		{PlantSystem, "state", CameraVisualizerSystem, "state"},
		{PlantSystem, "contact_results", ContactLoggerSystem, "contact_results"},
	} {
		goutils.UncheckedError(d.Connect(c.From, c.FromPort, c.To, c.ToPort))
	}
	return d
}
