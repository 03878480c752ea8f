package utils

import (
	"fmt"

	"github.com/pkg/errors"
)

// NewConfigValidationError returns an error specifying a config validation error at the given path.
func NewConfigValidationError(path string, err error) error {
	return errors.Wrapf(err, "error validating %q", path)
}

// NewConfigValidationFieldRequiredError returns an error specifying that a field was required
// at the given path.
func NewConfigValidationFieldRequiredError(path, field string) error {
	return NewConfigValidationError(path, errors.Errorf("%q is required", field))
}

// JoinPath joins config validation path segments the way nested config paths are reported.
func JoinPath(path string, field string, idx ...int) string {
	if len(idx) > 0 {
		field = fmt.Sprintf("%s.%d", field, idx[0])
	}
	if path == "" {
		return field
	}
	return path + "." + field
}
