package sessionseal

import "github.com/pkg/errors"

// ErrConfiguration is returned when a Handler is constructed with an invalid
// or unsupported configuration, e.g. entropy below the minimum length or an
// unknown cipher or hash identifier. Configuration is validated once, at
// construction; operations never re-validate it.
var ErrConfiguration = errors.New("invalid configuration")

func configError(format string, args ...interface{}) error {
	return errors.WithMessagef(ErrConfiguration, format, args...)
}
