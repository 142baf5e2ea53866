// Package tables holds the static data the codec and patch engine
// reference but do not themselves interpret: the MKW colour-name table
// used by the \c{} escape, the Mario Kart Wii / CT-CODE / LE-CODE MID
// range tables the patch engine and text emitter use for section
// captions, and a dclib-xdump-style hex dump helper for unknown raw
// sections in text form.
package tables

// ColorTier selects how many symbolic colour names \c{} recognizes.
type ColorTier int

const (
	// ColorTierNone disables symbolic names; only raw hex codes are read/written.
	ColorTierNone ColorTier = iota
	// ColorTierBasic exposes the original game's eight basic colour names.
	ColorTierBasic
	// ColorTierFull exposes the full 23-name table, including the YOR (year) ramp.
	ColorTierFull
)

// Color is one row of the \c{} colour-name table.
type Color struct {
	Code  uint16
	Name  string
	Alias string // short alias, empty if none
	Tier  ColorTier
}

// Colors is the symbolic colour table used by the escape codec, grounded
// on the "COLOR_TAB" data in the original lib-bmg.c color name table.
var Colors = []Color{
	{0x0000, "WHITE", "", ColorTierBasic},
	{0x0001, "RED", "", ColorTierBasic},
	{0x0002, "GREEN", "", ColorTierBasic},
	{0x0003, "BLUE", "", ColorTierBasic},
	{0x0004, "YELLOW", "", ColorTierBasic},
	{0x0005, "CYAN", "", ColorTierBasic},
	{0x0006, "MAGENTA", "", ColorTierBasic},
	{0x0008, "CLEAR", "", ColorTierBasic},

	{0x0010, "YOR0", "YR0", ColorTierFull},
	{0x0011, "YOR1", "YR1", ColorTierFull},
	{0x0012, "YOR2", "YR2", ColorTierFull},
	{0x0013, "YOR3", "YR3", ColorTierFull},
	{0x0014, "YOR4", "YR4", ColorTierFull},
	{0x0015, "YOR5", "YR5", ColorTierFull},
	{0x0016, "YOR6", "YR6", ColorTierFull},
	{0x0017, "YOR7", "YR7", ColorTierFull},

	{0x0020, "RED2", "", ColorTierFull},
	{0x0021, "BLUE1", "BLUE", ColorTierFull},

	{0x0030, "YELLOW2", "", ColorTierFull},
	{0x0031, "BLUE2", "", ColorTierFull},
	{0x0032, "RED3", "", ColorTierFull},
	{0x0033, "GREEN2", "", ColorTierFull},

	{0x0040, "RED1", "RED", ColorTierFull},
}

// ColorByName resolves a \c{} name (case-sensitive, as written in text
// form) against the colours visible at tier. Returns false if the name
// isn't known or isn't visible at that tier.
func ColorByName(name string, tier ColorTier) (uint16, bool) {
	if tier == ColorTierNone {
		return 0, false
	}
	for _, c := range Colors {
		if c.Tier > tier {
			continue
		}
		if c.Name == name || c.Alias != "" && c.Alias == name {
			return c.Code, true
		}
	}
	return 0, false
}

// ColorName returns the preferred symbolic name for code at tier, or ""
// if no visible name exists (the caller should fall back to hex).
func ColorName(code uint16, tier ColorTier) string {
	if tier == ColorTierNone {
		return ""
	}
	for _, c := range Colors {
		if c.Code == code && c.Tier <= tier {
			return c.Name
		}
	}
	return ""
}
