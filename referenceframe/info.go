package referenceframe

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// CollisionElementToBodyIndex maps every collision element id to the index of the body that owns it.
func (t *Tree) CollisionElementToBodyIndex() map[ElementID]int {
	m := make(map[ElementID]int, len(t.elements))
	for _, b := range t.bodies {
		for _, id := range b.CollisionIDs {
			m[id] = b.Index
		}
	}
	return m
}

// WriteInfo prints the position coordinates and bodies of the tree followed by the actuator count.
func (t *Tree) WriteInfo(w io.Writer) error {
	var err error
	printf := func(format string, args ...interface{}) {
		_, e := fmt.Fprintf(w, format, args...)
		err = multierr.Append(err, e)
	}
	for i := 0; i < t.NumPositions(); i++ {
		printf("%d %s\n", i, t.PositionName(i))
	}
	printf("-----------------\n")
	for _, b := range t.bodies {
		printf("%d %s\n", b.Index, b.Name)
	}
	printf("Number of actuators: %d\n", t.NumActuators())
	return err
}
