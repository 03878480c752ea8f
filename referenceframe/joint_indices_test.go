package referenceframe

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	spatial "go.viam.com/simviz/spatialmath"
)

// planarFrame is a two input frame translating in x and y.
type planarFrame struct {
	name string
}

func (pf *planarFrame) Name() string { return pf.name }

func (pf *planarFrame) DoF() []Limit { return []Limit{unboundedLimit(), unboundedLimit()} }

func (pf *planarFrame) Transform(input []Input) (spatial.Pose, error) {
	if len(input) != 2 {
		return nil, NewIncorrectDoFError(len(input), 2)
	}
	return spatial.NewPoseFromPoint(r3.Vector{X: input[0].Value, Y: input[1].Value}), nil
}

func abTree(t *testing.T) *Tree {
	t.Helper()
	tree := NewTree()
	a, err := tree.AddBody("link_a", 0, &Joint{Name: "a", Frame: &planarFrame{name: "a"}}, 0)
	test.That(t, err, test.ShouldBeNil)
	rot, err := NewRotationalFrame("b", r3.Vector{Z: 1}, unboundedLimit())
	test.That(t, err, test.ShouldBeNil)
	_, err = tree.AddBody("link_b", a, &Joint{Name: "b", Frame: rot}, 0)
	test.That(t, err, test.ShouldBeNil)
	return tree
}

func TestExtractPositionIndices(t *testing.T) {
	tree := abTree(t)
	test.That(t, tree.NumPositions(), test.ShouldEqual, 3)

	t.Run("one joint", func(t *testing.T) {
		controlled, other, err := ExtractPositionIndices(tree, []string{"a"})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, controlled, test.ShouldResemble, []int{0, 1})
		test.That(t, other, test.ShouldResemble, []int{2})
	})

	t.Run("request order does not matter", func(t *testing.T) {
		controlled, other, err := ExtractPositionIndices(tree, []string{"b", "a"})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, controlled, test.ShouldResemble, []int{0, 1, 2})
		test.That(t, other, test.ShouldBeEmpty)
	})

	t.Run("nothing requested", func(t *testing.T) {
		controlled, other, err := ExtractPositionIndices(tree, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, controlled, test.ShouldBeEmpty)
		test.That(t, other, test.ShouldResemble, []int{0, 1, 2})
	})

	t.Run("duplicate names", func(t *testing.T) {
		controlled, _, err := ExtractPositionIndices(tree, []string{"b", "b"})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, controlled, test.ShouldResemble, []int{2})
	})

	t.Run("unknown joint", func(t *testing.T) {
		_, _, err := ExtractPositionIndices(tree, []string{"c"})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, ErrJointsNotFound), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "c")

		_, _, err = ExtractPositionIndices(tree, []string{"a", "c"})
		test.That(t, errors.Cause(err), test.ShouldEqual, ErrJointsNotFound)
	})
}
