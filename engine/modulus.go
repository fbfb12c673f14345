package engine

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Slider bounds used by interactive front ends. The engine itself accepts
// any modulus >= MinModulus.
const (
	MinModulus = 1
	MaxModulus = 500
)

// ErrInvalidModulus is returned for a modulus below MinModulus or text that
// does not parse as one.
var ErrInvalidModulus = errors.New("invalid modulus")

func invalidModulus(n int) error {
	return errors.Wrapf(ErrInvalidModulus, "%d is below %d", n, MinModulus)
}

// ParseModulus parses user text into a modulus.
func ParseModulus(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.Wrap(ErrInvalidModulus, "empty input")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidModulus, "parse %q", s)
	}
	if n < MinModulus {
		return 0, invalidModulus(n)
	}
	return n, nil
}

// ClampModulus bounds n to the slider range [MinModulus, MaxModulus].
func ClampModulus(n int) int {
	if n < MinModulus {
		return MinModulus
	}
	if n > MaxModulus {
		return MaxModulus
	}
	return n
}
