package envshader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"backdrop-engine/core"
	"backdrop-engine/math"
)

// ErrInvalidProfile is returned for values outside the three profiles.
var ErrInvalidProfile = errors.New("envshader: invalid color profile")

// Profile selects the channel remap applied after the blur.
type Profile int32

const (
	// Profile0 pushes bright reds into blue and scales red/green by the blue mask.
	Profile0 Profile = iota
	// Profile1 pushes bright reds into blue and caps red/green by the blue mask.
	Profile1
	// Profile2 triples every channel.
	Profile2

	profileCount
)

// DefaultProfile is the profile selected at startup.
const DefaultProfile = Profile1

// NewProfile validates an integer profile value.
func NewProfile(v int) (Profile, error) {
	if v < 0 || v >= int(profileCount) {
		return DefaultProfile, fmt.Errorf("%w: %d", ErrInvalidProfile, v)
	}
	return Profile(v), nil
}

// ParseProfile accepts "0", "1", "2" and surrounding space.
func ParseProfile(s string) (Profile, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultProfile, fmt.Errorf("%w: %q", ErrInvalidProfile, s)
	}
	return NewProfile(v)
}

func (p Profile) Valid() bool {
	return p >= 0 && p < profileCount
}

func (p Profile) String() string {
	return strconv.Itoa(int(p))
}

// MarshalText lets profiles round-trip through TOML as integers in strings.
func (p Profile) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidProfile, int(p))
	}
	return []byte(p.String()), nil
}

func (p *Profile) UnmarshalText(b []byte) error {
	v, err := ParseProfile(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Remap applies the profile to c. Alpha is untouched. An invalid profile
// returns c unchanged.
func Remap(p Profile, c core.Color) core.Color {
	switch p {
	case Profile0:
		c.B = max(c.B, math.Smoothstep(0.3, 1, c.R)*10)
		mask := math.Smoothstep(0, 0.3, c.B) * 3
		c.R *= mask
		c.G *= mask
	case Profile1:
		c.B = max(c.B, math.Smoothstep(0.3, 1, c.R)*10)
		mask := math.Smoothstep(0, 0.3, c.B) * 3
		c.R = min(c.R, mask)
		c.G = min(c.G, mask)
	case Profile2:
		c.R *= 3
		c.G *= 3
		c.B *= 3
	}
	return c
}
