package referenceframe

import (
	"github.com/samber/lo"
)

// ExtractPositionIndices splits the tree's position indices into those owned by the named joints and all the
// others. Both lists keep the tree's ordering. Every requested name must match a joint; duplicates in names
// are ignored.
func ExtractPositionIndices(t *Tree, names []string) (controlled, other []int, err error) {
	requested := lo.SliceToMap(names, func(name string) (string, struct{}) { return name, struct{}{} })
	matched := make(map[string]struct{}, len(requested))

	controlled = []int{}
	other = []int{}
	for _, j := range t.Joints() {
		if _, ok := requested[j.Name]; ok {
			matched[j.Name] = struct{}{}
			controlled = append(controlled, j.PositionIndices()...)
			continue
		}
		other = append(other, j.PositionIndices()...)
	}

	if len(matched) != len(requested) {
		missing := lo.Filter(lo.Uniq(names), func(name string, _ int) bool {
			_, ok := matched[name]
			return !ok
		})
		return nil, nil, NewMissingJointsError(missing)
	}
	return controlled, other, nil
}
