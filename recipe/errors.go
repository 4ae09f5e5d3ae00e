package recipe

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrReadFailed is returned when the recipe file cannot be read.
	ErrReadFailed = zerr.New("failed to read recipe")

	// ErrParseFailed is returned when the recipe file is not valid YAML of the expected shape.
	ErrParseFailed = zerr.New("failed to parse recipe")

	// ErrInvalidName is returned when the recipe name is not a valid package name.
	ErrInvalidName = zerr.New("invalid recipe name")

	// ErrInvalidVersion is returned when the recipe version is not a valid version.
	ErrInvalidVersion = zerr.New("invalid recipe version")

	// ErrUnknownSetting is returned when a recipe declares a setting isp does not know.
	ErrUnknownSetting = zerr.New("unknown setting")

	// ErrUnknownGenerator is returned when a recipe enables an unsupported generator.
	ErrUnknownGenerator = zerr.New("unknown generator")

	// ErrInvalidRequirement is returned when a requirement is not a valid name/version pin.
	ErrInvalidRequirement = zerr.New("invalid requirement")

	// ErrDuplicateRequirement is returned when a package is required more than once.
	ErrDuplicateRequirement = zerr.New("duplicate requirement")

	// ErrInvalidOption is returned when an option key or value is malformed.
	ErrInvalidOption = zerr.New("invalid option")

	// ErrOptionNamespace is returned when an option matches none of the required packages.
	ErrOptionNamespace = zerr.New("option does not apply to any required package")

	// ErrInvalidCopyRule is returned when a copy rule's pattern or directories are malformed.
	ErrInvalidCopyRule = zerr.New("invalid copy rule")
)

// annotate attaches key=value to sentinel, leaving sentinel in the chain so
// errors.Is still matches it.
func annotate(sentinel error, key string, value any) error {
	return zerr.With(zerr.Wrap(sentinel, ""), key, value)
}

// wrapAs reports cause as an instance of sentinel.
func wrapAs(cause, sentinel error) error {
	return fmt.Errorf("%w: %w", sentinel, cause)
}
