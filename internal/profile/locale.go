package profile

import (
	"strings"

	"github.com/jeandeaual/go-locale"
)

// DefaultForHost returns Default() with IMEMode seeded from the host's
// locale: Auto on a Japanese locale, ForceAlpha everywhere else, since a
// non-Japanese host has no IME to query in the first place.
func DefaultForHost() Profile {
	p := Default()

	loc, err := locale.GetLocale()
	if err != nil || !strings.HasPrefix(strings.ToLower(loc), "ja") {
		p.IMEMode = IMEForceAlpha
		return p
	}
	p.IMEMode = IMEAuto
	return p
}
