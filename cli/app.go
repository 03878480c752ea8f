// Package cli contains the simviz command line: assembling scenes, projecting depth images, serving and
// rendering the scene, and replaying recorded simulations.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/simviz/sim"
	"go.viam.com/simviz/viz"
)

const (
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"
	generalFlagConfig  = "config"

	indicesFlagJoint = "joint"

	projectFlagDepth = "depth"
	projectFlagQ     = "q"
	projectFlagOut   = "out"
	projectFlagViz   = "viz"
	projectFlagASCII = "ascii"

	serveFlagAddr   = "addr"
	serveFlagPCDDir = "pcd-dir"

	diagramFlagOut = "out"

	replayFlagSamples  = "samples"
	replayFlagDuration = "duration"
	replayFlagStep     = "step"
	replayFlagRealTime = "real-time-rate"
)

var configFlag = &cli.StringFlag{
	Name:     generalFlagConfig,
	Aliases:  []string{"c"},
	Required: true,
	Usage:    "load the scene from `FILE`",
}

var app = &cli.App{
	Name:            "simviz",
	Usage:           "inspect and visualize simulated robot scenes",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:  generalFlagLogFile,
			Usage: "also write logs to `FILE`, rotated as it grows",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "info",
			Usage:     "print the generalized coordinates and bodies of a scene",
			UsageText: "simviz info --config <scene.json5>",
			Flags:     []cli.Flag{configFlag},
			Action:    InfoAction,
		},
		{
			Name:      "indices",
			Usage:     "split the position vector into controlled and other coordinates",
			UsageText: "simviz indices --config <scene.json5> --joint <name> [--joint <name> ...]",
			Flags: []cli.Flag{
				configFlag,
				&cli.StringSliceFlag{
					Name:     indicesFlagJoint,
					Required: true,
					Usage:    "name of a controlled joint",
				},
			},
			Action: IndicesAction,
		},
		{
			Name:      "project",
			Usage:     "project a depth image from the scene camera into a world frame point cloud",
			UsageText: "simviz project --config <scene.json5> --depth <depth.png> [--q <positions>] [--out <cloud.pcd>] [--viz <address>]",
			Flags: []cli.Flag{
				configFlag,
				&cli.StringFlag{
					Name:     projectFlagDepth,
					Required: true,
					Usage:    "16 bit grayscale depth `PNG`",
				},
				&cli.StringFlag{
					Name:  projectFlagQ,
					Usage: "comma or space separated joint positions, zeros if unset",
				},
				&cli.StringFlag{
					Name:  projectFlagOut,
					Usage: "write the cloud to this PCD `FILE`",
				},
				&cli.StringFlag{
					Name:  projectFlagViz,
					Usage: "send the cloud to the scene service at `ADDRESS`, e.g. " + viz.DefaultAddress,
				},
				&cli.BoolFlag{
					Name:  projectFlagASCII,
					Usage: "write an ascii PCD file instead of a binary one",
				},
			},
			Action: ProjectAction,
		},
		{
			Name:  "serve",
			Usage: "run an in-memory scene service",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  serveFlagAddr,
					Value: viz.DefaultAddress,
					Usage: "address to listen on",
				},
				&cli.StringFlag{
					Name:  serveFlagPCDDir,
					Usage: "also mirror every point cloud received into PCD files in `DIR`",
				},
			},
			Action: ServeAction,
		},
		{
			Name:  "diagram",
			Usage: "render the camera visualization system diagram with graphviz",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  diagramFlagOut,
					Value: sim.DefaultDiagramFile,
					Usage: "output `FILE`; .png, .svg and .jpg render images, anything else gets DOT text",
				},
			},
			Action: DiagramAction,
		},
		{
			Name:      "replay",
			Usage:     "replay recorded plant samples through the camera visualizer and contact logger",
			UsageText: "simviz replay --config <scene.json5> --samples <samples.json> [--duration <seconds>]",
			Flags: []cli.Flag{
				configFlag,
				&cli.StringFlag{
					Name:     replayFlagSamples,
					Required: true,
					Usage:    "JSON `FILE` of recorded samples",
				},
				&cli.Float64Flag{
					Name:  replayFlagDuration,
					Usage: "simulated seconds to replay, the last sample time if unset",
				},
				&cli.Float64Flag{
					Name:  replayFlagStep,
					Value: 0.001,
					Usage: "simulation time step in seconds",
				},
				&cli.Float64Flag{
					Name:  replayFlagRealTime,
					Usage: "pace simulated time at this multiple of wall time, as fast as possible if 0",
				},
			},
			Action: ReplayAction,
		},
	},
}

// NewApp returns the simviz app writing to out and errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
