package referenceframe

import (
	"encoding/xml"
	"os"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	spatial "go.viam.com/simviz/spatialmath"
	"go.viam.com/simviz/utils"
)

// SDFConfig represents the supported subset of a Simulation Description Format document: models, either at
// the top level or inside a world.
type SDFConfig struct {
	XMLName xml.Name   `xml:"sdf"`
	Version string     `xml:"version,attr"`
	Models  []SDFModel `xml:"model"`
	World   *struct {
		Models []SDFModel `xml:"model"`
	} `xml:"world"`
}

// SDFModel is a `<model>`. Its pose is relative to the frame it is attached to.
type SDFModel struct {
	Name   string     `xml:"name,attr"`
	Pose   string     `xml:"pose"`
	Links  []SDFLink  `xml:"link"`
	Joints []SDFJoint `xml:"joint"`
}

// SDFLink is a `<link>`. Its pose is relative to the model frame.
type SDFLink struct {
	Name       string         `xml:"name,attr"`
	Pose       string         `xml:"pose"`
	Collisions []sdfCollision `xml:"collision"`
}

// SDFJoint is a `<joint>`. Its pose is relative to the child link frame and its axis is expressed in the
// joint frame.
type SDFJoint struct {
	Name   string `xml:"name,attr"`
	Type   string `xml:"type,attr"`
	Parent string `xml:"parent"`
	Child  string `xml:"child"`
	Pose   string `xml:"pose"`
	Axis   *struct {
		XYZ   string `xml:"xyz"`
		Limit *struct {
			Lower  *float64 `xml:"lower"`
			Upper  *float64 `xml:"upper"`
			Effort *float64 `xml:"effort"`
		} `xml:"limit"`
	} `xml:"axis"`
}

type sdfCollision struct {
	Name     string `xml:"name,attr"`
	Pose     string `xml:"pose"`
	Geometry struct {
		Box *struct {
			Size string `xml:"size"`
		} `xml:"box"`
		Sphere *struct {
			Radius float64 `xml:"radius"`
		} `xml:"sphere"`
		Cylinder *struct {
			Radius float64 `xml:"radius"`
			Length float64 `xml:"length"`
		} `xml:"cylinder"`
		Mesh *struct {
			URI string `xml:"uri"`
		} `xml:"mesh"`
	} `xml:"geometry"`
}

func (c *sdfCollision) toGeometry() (Geometry, error) {
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
		return Geometry{Type: MeshType, Filename: strings.TrimSpace(g.Mesh.URI)}, nil
	default:
		return Geometry{}, errNoGeometry
	}
}

// ParseSDFPose parses an SDF "x y z roll pitch yaw" pose. An empty string is the identity.
func ParseSDFPose(s string) (spatial.Pose, error) {
	vals, err := utils.SpaceDelimitedStringToFloatSlice(s)
	if err != nil {
		return nil, err
	}
	switch len(vals) {
	case 0:
		return spatial.NewZeroPose(), nil
	case 6:
		return spatial.NewPose(
			r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]},
			&spatial.EulerAngles{Roll: vals[3], Pitch: vals[4], Yaw: vals[5]},
		), nil
	default:
		return nil, errors.Errorf("expected 6 values in SDF pose but got %d in %q", len(vals), s)
	}
}

// AddModelsFromSDFFile reads an SDF file and adds every model in it to the tree. See AddModelsFromSDFString.
func AddModelsFromSDFFile(t *Tree, filename string, base FloatingBaseType, attach *NamedFrame) ([]int, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read SDF file")
	}
	return AddModelsFromSDFString(t, xmlData, base, attach)
}

// AddModelsFromSDFString adds every model of an SDF document to the tree, each as its own model instance,
// and returns the instance ids in document order. Root links of each model are attached at attach through a
// joint of the given floating base type.
func AddModelsFromSDFString(t *Tree, xmlData []byte, base FloatingBaseType, attach *NamedFrame) ([]int, error) {
	if len(xmlData) == 0 {
		return nil, ErrNoModelInformation
	}
	sdf := &SDFConfig{}
	if err := xml.Unmarshal(xmlData, sdf); err != nil {
		return nil, errors.Wrap(err, "failed to convert SDF data to equivalent SDFConfig struct")
	}
	models := sdf.Models
	if sdf.World != nil {
		models = append(models, sdf.World.Models...)
	}
	if len(models) == 0 {
		return nil, ErrNoModelInformation
	}

	ids := make([]int, 0, len(models))
	for i := range models {
		id, err := addSDFModel(t, &models[i], base, attach)
		if err != nil {
			return nil, errors.Wrapf(err, "SDF model %q", models[i].Name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func addSDFModel(t *Tree, m *SDFModel, base FloatingBaseType, attach *NamedFrame) (int, error) {
	attachBody, attachPose := attachment(attach)
	modelPose, err := ParseSDFPose(m.Pose)
	if err != nil {
		return -1, err
	}
	// pose of the model frame in the attachment body
	modelInBody := spatial.Compose(attachPose, modelPose)

	linkPoses := make(map[string]spatial.Pose, len(m.Links))
	for _, l := range m.Links {
		p, err := ParseSDFPose(l.Pose)
		if err != nil {
			return -1, err
		}
		linkPoses[l.Name] = p
	}

	childJoint := make(map[string]*SDFJoint, len(m.Joints))
	jointsByParent := make(map[string][]*SDFJoint, len(m.Joints))
	for i := range m.Joints {
		j := &m.Joints[i]
		if _, ok := linkPoses[j.Child]; !ok {
			return -1, NewFrameMissingError(j.Child)
		}
		if _, ok := linkPoses[j.Parent]; !ok && j.Parent != World {
			return -1, NewFrameMissingError(j.Parent)
		}
		childJoint[j.Child] = j
		jointsByParent[j.Parent] = append(jointsByParent[j.Parent], j)
	}

	model := t.AddModelInstance()
	bodyOf := make(map[string]int, len(m.Links))
	queue := make([]string, 0, len(m.Links))
	for _, l := range m.Links {
		if _, ok := childJoint[l.Name]; ok {
			continue
		}
		idx, err := addFloatingBase(t, l.Name, attachBody, spatial.Compose(modelInBody, linkPoses[l.Name]), base, model)
		if err != nil {
			return -1, err
		}
		bodyOf[l.Name] = idx
		queue = append(queue, l.Name)
	}
	for _, j := range jointsByParent[World] {
		// the world side of the joint is the attachment body, with the model frame at modelInBody
		idx, err := addSDFJoint(t, j, attachBody, modelInBody, linkPoses[j.Child], model)
		if err != nil {
			return -1, err
		}
		bodyOf[j.Child] = idx
		queue = append(queue, j.Child)
	}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		modelInParent := spatial.PoseInverse(linkPoses[parent])
		for _, j := range jointsByParent[parent] {
			idx, err := addSDFJoint(t, j, bodyOf[parent], modelInParent, linkPoses[j.Child], model)
			if err != nil {
				return -1, err
			}
			bodyOf[j.Child] = idx
			queue = append(queue, j.Child)
		}
	}
	if len(bodyOf) != len(m.Links) {
		return -1, errors.New("model has links that are not connected to the root")
	}

	for _, l := range m.Links {
		for i := range l.Collisions {
			c := &l.Collisions[i]
			geometry, err := c.toGeometry()
			if err != nil {
				return -1, err
			}
			pose, err := ParseSDFPose(c.Pose)
			if err != nil {
				return -1, err
			}
			if _, err := t.AddCollisionElement(bodyOf[l.Name], c.Name, pose, geometry); err != nil {
				return -1, err
			}
		}
	}
	return model, nil
}

// addSDFJoint appends the child link of j. modelInParent is the pose of the model frame in the parent body,
// childInModel the pose of the child link in the model frame.
func addSDFJoint(
	t *Tree, j *SDFJoint, parent int, modelInParent, childInModel spatial.Pose, model int,
) (int, error) {
	jointInChild, err := ParseSDFPose(j.Pose)
	if err != nil {
		return -1, err
	}
	axis := r3.Vector{X: 1}
	var lim *urdfLimit
	actuated := false
	if j.Axis != nil {
		if j.Axis.XYZ != "" {
			v, err := utils.ParseVector3(j.Axis.XYZ)
			if err != nil {
				return -1, err
			}
			axis = r3.Vector{X: v[0], Y: v[1], Z: v[2]}
		}
		if l := j.Axis.Limit; l != nil {
			lim = &urdfLimit{}
			if l.Lower != nil {
				lim.Lower = *l.Lower
			}
			if l.Upper != nil {
				lim.Upper = *l.Upper
			}
			if l.Effort != nil {
				lim.Effort = *l.Effort
				actuated = *l.Effort > 0
			}
		}
	}
	frame, err := newJointFrame(j.Name, j.Type, axis, lim)
	if err != nil {
		return -1, err
	}
	jointInModel := spatial.Compose(childInModel, jointInChild)
	return t.AddBody(j.Child, parent, &Joint{
		Name:        j.Name,
		Frame:       frame,
		Origin:      spatial.Compose(modelInParent, jointInModel),
		ChildOffset: spatial.PoseInverse(jointInChild),
		Actuated:    actuated && j.Type != FixedJoint,
	}, model)
}
