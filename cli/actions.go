package cli

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"

	"go.viam.com/simviz/contact"
	"go.viam.com/simviz/depthcloud"
	"go.viam.com/simviz/logging"
	"go.viam.com/simviz/pointcloud"
	"go.viam.com/simviz/referenceframe"
	"go.viam.com/simviz/rimage"
	"go.viam.com/simviz/scene"
	"go.viam.com/simviz/sim"
	"go.viam.com/simviz/utils"
	"go.viam.com/simviz/viz"
)

func printf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(w, format+"\n", a...)
}

// commandLogger is the logger of one command together with the log files it writes to.
type commandLogger struct {
	logging.Logger
	files []*lumberjack.Logger
}

// newLogger builds the logger of a command from the global flags.
func newLogger(c *cli.Context) *commandLogger {
	level := logging.INFO
	if c.Bool(generalFlagDebug) {
		level = logging.DEBUG
	}
	logger := &commandLogger{Logger: logging.NewLoggerWithAppenders("simviz", level, logging.NewStdoutAppender())}
	if fn := c.String(generalFlagLogFile); fn != "" {
		logger.addFile(fn)
	}
	return logger
}

// addFile also writes logs to fn. A file already written to is not added again.
func (logger *commandLogger) addFile(fn string) {
	for _, f := range logger.files {
		if f.Filename == fn {
			return
		}
	}
	appender, rotator := logging.NewFileAppender(fn)
	logger.AddAppender(appender)
	logger.files = append(logger.files, rotator)
}

// Close closes the log files. Writes to them are not buffered.
func (logger *commandLogger) Close() error {
	var errs error
	for _, f := range logger.files {
		errs = multierr.Append(errs, f.Close())
	}
	return errs
}

// loadScene reads the scene config, starts its log file and assembles its tree.
func loadScene(c *cli.Context, logger *commandLogger) (*scene.Config, *referenceframe.Tree, error) {
	cfg, err := scene.Read(c.String(generalFlagConfig), logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile != "" {
		logger.addFile(cfg.ResolvePath(cfg.LogFile))
	}
	tree := referenceframe.NewTree()
	if err := scene.Assemble(tree, cfg, logger); err != nil {
		return nil, nil, err
	}
	return cfg, tree, nil
}

func requireCamera(cfg *scene.Config) error {
	if cfg.Camera == nil {
		return errors.New("scene has no camera")
	}
	return nil
}

// parsePositions parses comma or space separated numbers. An empty string gives n zeros.
func parsePositions(s string, n int) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return make([]float64, n), nil
	}
	q, err := utils.SpaceDelimitedStringToFloatSlice(strings.ReplaceAll(s, ",", " "))
	if err != nil {
		return nil, err
	}
	if len(q) != n {
		return nil, referenceframe.NewIncorrectPositionsError(len(q), n)
	}
	return q, nil
}

// InfoAction prints the coordinates and bodies of a scene.
func InfoAction(c *cli.Context) (retErr error) {
	logger := newLogger(c)
	defer func() {
		retErr = multierr.Combine(retErr, logger.Close())
	}()
	_, tree, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	return tree.WriteInfo(c.App.Writer)
}

// IndicesAction prints the position indices of the requested joints and of everything else.
func IndicesAction(c *cli.Context) (retErr error) {
	logger := newLogger(c)
	defer func() {
		retErr = multierr.Combine(retErr, logger.Close())
	}()
	_, tree, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	controlled, other, err := referenceframe.ExtractPositionIndices(tree, c.StringSlice(indicesFlagJoint))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "controlled: %v", controlled)
	printf(c.App.Writer, "other: %v", other)
	return nil
}

// ProjectAction projects one depth image of the scene camera at the given joint positions.
func ProjectAction(c *cli.Context) (retErr error) {
	logger := newLogger(c)
	defer func() {
		retErr = multierr.Combine(retErr, logger.Close())
	}()
	cfg, tree, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	if err := requireCamera(cfg); err != nil {
		return err
	}
	q, err := parsePositions(c.String(projectFlagQ), tree.NumPositions())
	if err != nil {
		return err
	}
	dm, err := rimage.ReadDepthMapFile(c.String(projectFlagDepth), cfg.Camera.DepthScale())
	if err != nil {
		return err
	}

	projector, err := cfg.Camera.Projector()
	if err != nil {
		return err
	}
	frame, err := cfg.Camera.FrameIndex(tree)
	if err != nil {
		return err
	}
	cache, err := tree.DoKinematics(q)
	if err != nil {
		return err
	}
	cloud, err := projector.Project(dm, &depthcloud.TreeBodyToWorld{Tree: tree, Cache: cache, Frame: frame})
	if err != nil {
		return err
	}
	printf(c.App.Writer, "projected %d points", cloud.Size())

	if out := c.String(projectFlagOut); out != "" {
		pcdType := pointcloud.PCDBinary
		if c.Bool(projectFlagASCII) {
			pcdType = pointcloud.PCDAscii
		}
		if err := pointcloud.WriteToPCDFile(cloud, out, pcdType); err != nil {
			return err
		}
		printf(c.App.Writer, "wrote %s", out)
	}

	if address := c.String(projectFlagViz); address != "" {
		client, err := viz.NewClient(address, logger)
		if err != nil {
			return err
		}
		defer func() {
			retErr = multierr.Combine(retErr, client.Close())
		}()
		cv, err := scene.NewCameraVisualizer(c.Context, cfg.Camera, tree, client, logger)
		if err != nil {
			return err
		}
		// the visualizer takes the whole state; velocities don't matter for drawing
		x := append(q, make([]float64, tree.NumVelocities())...)
		if err := cv.Publish(c.Context, 0, dm, x); err != nil {
			return err
		}
		printf(c.App.Writer, "sent %s to %s", cv.PointsPath(), address)
	}
	return nil
}

// ServeAction runs the in-memory scene service until interrupted.
func ServeAction(c *cli.Context) (retErr error) {
	logger := newLogger(c)
	defer func() {
		retErr = multierr.Combine(retErr, logger.Close())
	}()
	server := viz.NewServer(logger)
	if dir := c.String(serveFlagPCDDir); dir != "" {
		sink, err := viz.NewPCDSink(dir, logger)
		if err != nil {
			return err
		}
		server.Mirror(sink)
	}
	lis, err := net.Listen("tcp", c.String(serveFlagAddr))
	if err != nil {
		return errors.Wrapf(err, "listening on %s", c.String(serveFlagAddr))
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Serve(ctx, lis)
}

// DiagramAction renders the camera visualization diagram.
func DiagramAction(c *cli.Context) error {
	out := c.String(diagramFlagOut)
	if err := sim.RenderWithGraphviz(sim.CameraVisualizationDiagram(), out); err != nil {
		return err
	}
	printf(c.App.Writer, "wrote %s", out)
	return nil
}

// ReplayAction plays recorded samples through the scene's camera visualizer and a contact logger.
func ReplayAction(c *cli.Context) (retErr error) {
	logger := newLogger(c)
	defer func() {
		retErr = multierr.Combine(retErr, logger.Close())
	}()
	cfg, tree, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	depthScale := scene.DefaultDepthUnitsPerMeter
	if cfg.Camera != nil {
		depthScale = cfg.Camera.DepthScale()
	}
	plant, err := sim.ReadReplayPlant(c.String(replayFlagSamples), depthScale, logger)
	if err != nil {
		return err
	}
	step := c.Float64(replayFlagStep)
	loop, err := sim.NewLoop(plant, step, logger, sim.WithRealTimeRate(c.Float64(replayFlagRealTime)))
	if err != nil {
		return err
	}

	contacts := contact.NewLogger(logger.Sublogger("contacts"))
	if err := loop.AddPublisher(sim.ContactLoggerSystem, step, sim.NewContactPublisher(contacts)); err != nil {
		return err
	}
	if cfg.Camera != nil {
		sink, closeSink, err := cfg.Visualizer.NewSink(logger)
		if err != nil {
			return err
		}
		defer func() {
			retErr = multierr.Combine(retErr, closeSink())
		}()
		cv, err := scene.NewCameraVisualizer(c.Context, cfg.Camera, tree, sink, logger.Sublogger("camera"))
		if err != nil {
			return err
		}
		if err := loop.AddPublisher(sim.CameraVisualizerSystem, cfg.Camera.Period(), sim.NewCameraPublisher(cv)); err != nil {
			return err
		}
	}

	duration := c.Float64(replayFlagDuration)
	if !c.IsSet(replayFlagDuration) {
		duration = plant.LastTime()
	}
	if err := loop.Run(c.Context, duration); err != nil {
		return err
	}
	printf(c.App.Writer, "replayed %d ticks", contacts.Len())

	if cfg.ContactLog != "" {
		w := contact.NewRotatingFileWriter(cfg.ResolvePath(cfg.ContactLog))
		defer func() {
			retErr = multierr.Combine(retErr, w.Close())
		}()
		if err := contacts.WriteJSONL(w); err != nil {
			return err
		}
		printf(c.App.Writer, "wrote contacts to %s", cfg.ResolvePath(cfg.ContactLog))
	}
	return nil
}
