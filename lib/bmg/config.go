package bmg

import (
	"github.com/wiidev/bmgtool/lib/bmg/encoding"
	"github.com/wiidev/bmgtool/lib/bmg/endian"
	"github.com/wiidev/bmgtool/lib/bmg/tables"
)

// CTMode selects which Mario Kart Wii engine-extension MID range the text
// scanner's Tnn/Unn track and arena aliases also address, carried as a
// tri-state rather than a bool (see SPEC_FULL.md §4, grounded on the
// original's ct_mode_t). The patch engine's range passes do not read it.
type CTMode int

const (
	CTModeOff    CTMode = iota // classic MID ranges only
	CTModeCT                   // classic + CT-CODE ranges
	CTModeCTLE                 // classic + CT-CODE + LE-CODE ranges
)

// Config is every process-wide default the original C implementation kept
// as module-level globals, gathered into one explicit struct per spec §5 —
// callers pass it to NewWithConfig rather than relying on hidden state.
type Config struct {
	// DefaultEncoding is used for newly-created stores and as the fallback
	// when a binary file's header encoding byte is not a supported
	// encoding: DecodeBinary always takes that fallback and records a
	// KindUnsupportedEncoding diagnostic; no option makes it an error.
	DefaultEncoding encoding.Encoding
	// DefaultEndian is used for newly-created stores; binary decode always
	// sniffs the real file's byte order regardless of this default.
	DefaultEndian endian.Order
	// DefaultAttrib and DefaultAttribUsed seed newly-created items'
	// attribute vectors and the store-wide default used by attribute-copy
	// and majority-vote inference.
	DefaultAttrib     [40]byte
	DefaultAttribUsed uint16
	// ForceAttrib, if true, makes every attribute-copy operation
	// unconditionally overwrite the destination's attribute vector,
	// bypassing the normal attrib_used-min merge rule.
	ForceAttrib bool
	// InfSize is the INF1 element size (4 + attrib bytes) used when
	// encoding; it must be a multiple of 4 in [4,1000].
	InfSize uint16
	// Legacy selects GameCube-style encoding (forces CP1252, a 32-byte
	// block-scaled header size field) over the modern Wii layout.
	Legacy bool
	// Alignment is the section-padding boundary used when encoding.
	// Conflated with the legacy block size in the original source; the
	// spec's design notes call that out, so this module keeps them
	// independent options (see DESIGN.md).
	Alignment uint32
	// KeepPredefinedSlots preserves MID1-derived slot assignments across
	// a decode/encode round trip instead of renumbering by sorted MID.
	KeepPredefinedSlots bool
	// CarryRawSections preserves unknown/unsupported sections verbatim.
	CarryRawSections bool
	// MaxIncludeDepth bounds `@<` recursion in the text scanner.
	MaxIncludeDepth int
	// ColorTier selects how many \c{} symbolic colour names are recognized.
	ColorTier tables.ColorTier
	// CTMode selects which MKW engine-extension MID the text scanner's
	// Tnn/Unn aliases add to the classic pair (see the CTMode type).
	CTMode CTMode
	// UseMKWMessages enables MKW-specific text emitter section captions
	// and the `Tnn`/`Unn`/`Mnn` MID aliases in the text scanner.
	UseMKWMessages bool
}

// DefaultConfig returns the configuration a freshly-created Bmg uses
// unless overridden: big-endian, CP1252, an 8-byte INF1 element (4 offset
// + 4 attribute bytes), 32-byte section alignment, include depth 10.
func DefaultConfig() Config {
	return Config{
		DefaultEncoding:     encoding.CP1252,
		DefaultEndian:       endian.Big,
		DefaultAttribUsed:   4,
		InfSize:             8,
		Alignment:           32,
		KeepPredefinedSlots: true,
		CarryRawSections:    true,
		MaxIncludeDepth:     10,
		ColorTier:           tables.ColorTierFull,
		CTMode:              CTModeOff,
		UseMKWMessages:      true,
	}
}

// Hooks bundles the MKW-specific and diagnostic callbacks the spec
// requires to be explicit, caller-supplied arguments rather than hidden
// globals (spec §5 and §6.3's hook table).
type Hooks struct {
	// TrackIndex maps a 0-based logical track slot to its MID-range
	// offset; nil means the identity mapping.
	TrackIndex func(i int) (int, bool)
	// ArenaIndex is TrackIndex's arena-range counterpart.
	ArenaIndex func(i int) (int, bool)
	// ContainerName names the current file for %n/%N FORMAT escapes and
	// the `@=` pattern directive; nil means "" (no match, no substitution).
	ContainerName func() string
	// AtHook is invoked for every unrecognized `@` directive during text
	// scan, so a host program can extend the directive grammar without
	// forking the scanner. Returning false leaves the directive ignored,
	// matching the spec's "unknown directives are ignored" rule.
	AtHook func(bmg *Bmg, line string) bool
}

func identityIndex(i int) (int, bool) { return i, true }

// DefaultHooks returns Hooks with identity track/arena indices, no
// container name, and no @-directive extension.
func DefaultHooks() Hooks {
	return Hooks{TrackIndex: identityIndex, ArenaIndex: identityIndex}
}
