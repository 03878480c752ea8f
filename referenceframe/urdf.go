package referenceframe

import (
	"encoding/xml"
	"os"

	"github.com/pkg/errors"

	spatial "go.viam.com/simviz/spatialmath"
)

// URDFConfig represents all supported fields in a Universal Robot Description Format (URDF) file.
type URDFConfig struct {
	XMLName       xml.Name           `xml:"robot"`
	Name          string             `xml:"name,attr"`
	Links         []URDFLink         `xml:"link"`
	Joints        []URDFJoint        `xml:"joint"`
	Frames        []URDFFrame        `xml:"frame"`
	Transmissions []URDFTransmission `xml:"transmission"`
}

// URDFLink is a struct which details the XML used in a URDF link element.
type URDFLink struct {
	XMLName   xml.Name        `xml:"link"`
	Name      string          `xml:"name,attr"`
	Collision []urdfCollision `xml:"collision"`
}

// URDFJointLink names the parent or child link of a joint.
type URDFJointLink struct {
	Link string `xml:"link,attr"`
}

// URDFJoint is a struct which details the XML used in a URDF joint element.
type URDFJoint struct {
	XMLName xml.Name      `xml:"joint"`
	Name    string        `xml:"name,attr"`
	Type    string        `xml:"type,attr"`
	Parent  URDFJointLink `xml:"parent"`
	Child   URDFJointLink `xml:"child"`
	Origin  *urdfPose     `xml:"origin,omitempty"`
	Axis    *urdfAxis     `xml:"axis,omitempty"`
	Limit   *urdfLimit    `xml:"limit,omitempty"`
}

// URDFFrame is the `<frame name link xyz rpy/>` extension element declaring a named frame fixed in a link.
type URDFFrame struct {
	Name string `xml:"name,attr"`
	Link string `xml:"link,attr"`
	XYZ  string `xml:"xyz,attr"`
	RPY  string `xml:"rpy,attr"`
}

// URDFTransmission marks the joint it drives as actuated.
type URDFTransmission struct {
	Name  string `xml:"name,attr"`
	Joint struct {
		Name string `xml:"name,attr"`
	} `xml:"joint"`
}

// AddModelFromURDFFile reads a URDF file and adds its robot to the tree. See AddModelFromURDFString.
func AddModelFromURDFFile(t *Tree, filename string, base FloatingBaseType, attach *NamedFrame) (int, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return -1, errors.Wrap(err, "failed to read URDF file")
	}
	return AddModelFromURDFString(t, xmlData, base, attach)
}

// AddModelFromURDFString adds the robot described by xmlData to the tree and returns its model instance id.
// The root link is attached at attach (the world origin when nil) through a joint of the given floating base
// type. Joints whose parent link is "world" are attached at attach directly.
func AddModelFromURDFString(t *Tree, xmlData []byte, base FloatingBaseType, attach *NamedFrame) (int, error) {
	// empty data probably means that the read URDF has no actionable information
	if len(xmlData) == 0 {
		return -1, ErrNoModelInformation
	}
	urdf := &URDFConfig{}
	if err := xml.Unmarshal(xmlData, urdf); err != nil {
		return -1, errors.Wrap(err, "failed to convert URDF data to equivalent URDFConfig struct")
	}

	attachBody, attachPose := attachment(attach)
	actuated := make(map[string]bool, len(urdf.Transmissions))
	for _, tr := range urdf.Transmissions {
		actuated[tr.Joint.Name] = true
	}

	links := make(map[string]*URDFLink, len(urdf.Links))
	for i := range urdf.Links {
		if urdf.Links[i].Name == World {
			continue
		}
		if _, ok := links[urdf.Links[i].Name]; ok {
			return -1, errors.Errorf("URDF %q declares link %q twice", urdf.Name, urdf.Links[i].Name)
		}
		links[urdf.Links[i].Name] = &urdf.Links[i]
	}

	childJoint := make(map[string]*URDFJoint, len(urdf.Joints))
	jointsByParent := make(map[string][]*URDFJoint, len(urdf.Joints))
	for i := range urdf.Joints {
		j := &urdf.Joints[i]
		if _, ok := links[j.Child.Link]; !ok {
			return -1, NewFrameMissingError(j.Child.Link)
		}
		if _, ok := links[j.Parent.Link]; !ok && j.Parent.Link != World {
			return -1, NewFrameMissingError(j.Parent.Link)
		}
		if _, ok := childJoint[j.Child.Link]; ok {
			return -1, errors.Errorf("link %q has more than one parent joint", j.Child.Link)
		}
		childJoint[j.Child.Link] = j
		jointsByParent[j.Parent.Link] = append(jointsByParent[j.Parent.Link], j)
	}

	model := t.AddModelInstance()
	bodyOf := make(map[string]int, len(links))
	queue := make([]string, 0, len(links))

	// Roots in document order, then everything hanging off the world, then breadth first.
	for _, l := range urdf.Links {
		if _, ok := links[l.Name]; !ok {
			continue
		}
		if _, ok := childJoint[l.Name]; ok {
			continue
		}
		idx, err := addFloatingBase(t, l.Name, attachBody, attachPose, base, model)
		if err != nil {
			return -1, err
		}
		bodyOf[l.Name] = idx
		queue = append(queue, l.Name)
	}
	for _, j := range jointsByParent[World] {
		idx, err := addURDFJoint(t, j, attachBody, attachPose, actuated[j.Name], model)
		if err != nil {
			return -1, err
		}
		bodyOf[j.Child.Link] = idx
		queue = append(queue, j.Child.Link)
	}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, j := range jointsByParent[parent] {
			idx, err := addURDFJoint(t, j, bodyOf[parent], spatial.NewZeroPose(), actuated[j.Name], model)
			if err != nil {
				return -1, err
			}
			bodyOf[j.Child.Link] = idx
			queue = append(queue, j.Child.Link)
		}
	}
	if len(bodyOf) != len(links) {
		return -1, errors.Errorf("URDF %q has links that are not connected to the root", urdf.Name)
	}

	for _, l := range urdf.Links {
		idx, ok := bodyOf[l.Name]
		if !ok {
			continue
		}
		for i := range l.Collision {
			c := &l.Collision[i]
			geometry, err := c.toGeometry()
			if err != nil {
				return -1, err
			}
			pose, err := c.Origin.Parse()
			if err != nil {
				return -1, err
			}
			if _, err := t.AddCollisionElement(idx, c.Name, pose, geometry); err != nil {
				return -1, err
			}
		}
	}

	for _, f := range urdf.Frames {
		idx, ok := bodyOf[f.Link]
		if !ok {
			return -1, NewFrameMissingError(f.Link)
		}
		pose, err := NewPoseFromXYZRPY(f.XYZ, f.RPY)
		if err != nil {
			return -1, err
		}
		if _, err := t.AddFrame(&NamedFrame{Name: f.Name, Body: idx, Pose: pose, ModelInstance: model}); err != nil {
			return -1, err
		}
	}
	return model, nil
}

// addURDFJoint appends the child link of j. In URDF the child link frame is the joint frame, so the joint
// origin (prefixed by the attachment pose for world joints) is the only offset.
func addURDFJoint(t *Tree, j *URDFJoint, parent int, prefix spatial.Pose, actuated bool, model int) (int, error) {
	axis, err := j.Axis.Parse()
	if err != nil {
		return -1, err
	}
	frame, err := newJointFrame(j.Name, j.Type, axis, j.Limit)
	if err != nil {
		return -1, err
	}
	origin, err := j.Origin.Parse()
	if err != nil {
		return -1, err
	}
	return t.AddBody(j.Child.Link, parent, &Joint{
		Name:     j.Name,
		Frame:    frame,
		Origin:   spatial.Compose(prefix, origin),
		Actuated: actuated && j.Type != FixedJoint,
	}, model)
}
