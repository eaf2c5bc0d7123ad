package component

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/c360/flowkit/errors"
)

var versionPattern = regexp.MustCompile(`^\s*\d+\s*\.\s*\d+\s*\.\s*\d+\s*$`)

// Version is a major.minor.revision triple. Parts are never negative.
type Version struct {
	Major    int
	Minor    int
	Revision int
}

// NewVersion builds a Version, clamping negative parts to zero
func NewVersion(major, minor, revision int) Version {
	return Version{
		Major:    max(major, 0),
		Minor:    max(minor, 0),
		Revision: max(revision, 0),
	}
}

// ParseVersion parses "MAJOR.MINOR.REVISION". Spaces around each part are accepted.
func ParseVersion(s string) (Version, error) {
	if !versionPattern.MatchString(s) {
		return Version{}, errors.WrapInvalid(
			fmt.Errorf("%q: %w", s, errors.ErrInvalidVersion), "Version", "ParseVersion", "version format check")
	}

	parts := strings.Split(s, ".")
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Version{}, errors.WrapInvalid(
				fmt.Errorf("%q: %w", s, errors.ErrInvalidVersion), "Version", "ParseVersion", "version part conversion")
		}
		nums[i] = n
	}

	return NewVersion(nums[0], nums[1], nums[2]), nil
}

// MustParseVersion is ParseVersion for literals known to be valid
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns "major.minor.revision"
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// Compare returns -1, 0 or 1 as v is lower, equal or greater than o
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpInt(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpInt(v.Minor, o.Minor)
	default:
		return cmpInt(v.Revision, o.Revision)
	}
}

// IsZero reports whether v is 0.0.0
func (v Version) IsZero() bool {
	return v == Version{}
}

// MarshalText encodes the version as "major.minor.revision"
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText decodes a version written by MarshalText
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MaxVersion returns the greatest version, or false if none is given
func MaxVersion(versions ...Version) (Version, bool) {
	if len(versions) == 0 {
		return Version{}, false
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if best.Compare(v) < 0 {
			best = v
		}
	}
	return best, true
}

// MinVersion returns the lowest version, or false if none is given
func MinVersion(versions ...Version) (Version, bool) {
	if len(versions) == 0 {
		return Version{}, false
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if best.Compare(v) > 0 {
			best = v
		}
	}
	return best, true
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
