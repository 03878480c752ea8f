package referenceframe

import (
	"encoding/xml"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	spatial "go.viam.com/simviz/spatialmath"
	"go.viam.com/simviz/utils"
)

// Supported joint types. URDF and SDF share the names.
const (
	FixedJoint      = "fixed"
	RevoluteJoint   = "revolute"
	ContinuousJoint = "continuous"
	PrismaticJoint  = "prismatic"
)

// Supported collision geometry types.
const (
	BoxType      = "box"
	SphereType   = "sphere"
	CylinderType = "cylinder"
	MeshType     = "mesh"
)

// NewUnsupportedJointTypeError is used when a model declares a joint type the tree cannot represent.
func NewUnsupportedJointTypeError(jointType string) error {
	return errors.Errorf("unsupported joint type detected: %q", jointType)
}

var errNoGeometry = errors.New("couldn't parse xml: no geometry defined")

// urdfCollision is a struct which details the XML used in a URDF collision geometry.
type urdfCollision struct {
	XMLName  xml.Name  `xml:"collision"`
	Name     string    `xml:"name,attr"`
	Origin   *urdfPose `xml:"origin"`
	Geometry struct {
		Box *struct {
			Size string `xml:"size,attr"` // "x y z" format, in meters
		} `xml:"box,omitempty"`
		Sphere *struct {
			Radius float64 `xml:"radius,attr"`
		} `xml:"sphere,omitempty"`
		Cylinder *struct {
			Radius float64 `xml:"radius,attr"`
			Length float64 `xml:"length,attr"`
		} `xml:"cylinder,omitempty"`
		Mesh *struct {
			Filename string `xml:"filename,attr"`
		} `xml:"mesh,omitempty"`
	} `xml:"geometry"`
}

func (c *urdfCollision) toGeometry() (Geometry, error) {
	g := c.Geometry
	switch {
	case g.Box != nil:
		dims, err := utils.ParseVector3(g.Box.Size)
		if err != nil {
			return Geometry{}, err
		}
		return Geometry{Type: BoxType, Size: r3.Vector{X: dims[0], Y: dims[1], Z: dims[2]}}, nil
	case g.Sphere != nil:
		return Geometry{Type: SphereType, Radius: g.Sphere.Radius}, nil
	case g.Cylinder != nil:
		return Geometry{Type: CylinderType, Radius: g.Cylinder.Radius, Length: g.Cylinder.Length}, nil
	case g.Mesh != nil:
		return Geometry{Type: MeshType, Filename: g.Mesh.Filename}, nil
	default:
		return Geometry{}, errNoGeometry
	}
}

type urdfPose struct {
	RPY string `xml:"rpy,attr"` // Fixed frame angle "r p y" format, in radians
	XYZ string `xml:"xyz,attr"` // "x y z" format, in meters
}

// Parse returns the pose, or the identity when the element was omitted.
func (p *urdfPose) Parse() (spatial.Pose, error) {
	if p == nil {
		return spatial.NewZeroPose(), nil
	}
	return NewPoseFromXYZRPY(p.XYZ, p.RPY)
}

type urdfAxis struct {
	XYZ string `xml:"xyz,attr"`
}

// Parse returns the joint axis. URDF defaults an omitted axis to +X.
func (a *urdfAxis) Parse() (r3.Vector, error) {
	if a == nil || a.XYZ == "" {
		return r3.Vector{X: 1}, nil
	}
	v, err := utils.ParseVector3(a.XYZ)
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
}

type urdfLimit struct {
	Lower  float64 `xml:"lower,attr"` // translation limits are in meters, revolute limits are in radians
	Upper  float64 `xml:"upper,attr"`
	Effort float64 `xml:"effort,attr"`
}

// NewPoseFromXYZRPY parses "x y z" and "r p y" strings as found in URDF origins. Either may be empty.
func NewPoseFromXYZRPY(xyz, rpy string) (spatial.Pose, error) {
	pt, err := utils.ParseVector3(xyz)
	if err != nil {
		return nil, err
	}
	angles, err := utils.ParseVector3(rpy)
	if err != nil {
		return nil, err
	}
	return spatial.NewPose(
		r3.Vector{X: pt[0], Y: pt[1], Z: pt[2]},
		&spatial.EulerAngles{Roll: angles[0], Pitch: angles[1], Yaw: angles[2]},
	), nil
}

// newJointFrame builds the motion frame for a single joint of the given type.
func newJointFrame(name, jointType string, axis r3.Vector, lim *urdfLimit) (Frame, error) {
	limit := unboundedLimit()
	if lim != nil && lim.Lower < lim.Upper {
		limit = Limit{Min: lim.Lower, Max: lim.Upper}
	}
	switch jointType {
	case FixedJoint:
		return NewZeroStaticFrame(name), nil
	case RevoluteJoint:
		return NewRotationalFrame(name, axis, limit)
	case ContinuousJoint:
		return NewRotationalFrame(name, axis, unboundedLimit())
	case PrismaticJoint:
		return NewTranslationalFrame(name, axis, limit)
	default:
		return nil, NewUnsupportedJointTypeError(jointType)
	}
}

// attachment resolves the body and pose models are attached at. A nil frame means the world origin.
func attachment(attach *NamedFrame) (int, spatial.Pose) {
	if attach == nil {
		return 0, spatial.NewZeroPose()
	}
	pose := attach.Pose
	if pose == nil {
		pose = spatial.NewZeroPose()
	}
	return attach.Body, pose
}

// addFloatingBase attaches a model's root body at origin (expressed in the parent body) through a joint of the
// requested floating base type.
func addFloatingBase(
	t *Tree, name string, parent int, origin spatial.Pose, base FloatingBaseType, model int,
) (int, error) {
	return t.AddBody(name, parent, &Joint{
		Name:     "base",
		Frame:    NewFloatingFrame("base", base),
		Origin:   origin,
		Floating: base != Fixed,
	}, model)
}
