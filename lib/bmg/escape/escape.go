// Package escape translates between `#BMG` text-form escape sequences and
// the in-band 0x1A opcode runs (and literal control characters) they
// represent in a message's []uint16 code-unit form.
//
// Two opcode shapes get special text-form treatment: colour (`\c{}`, group
// 0x0800, one payload word) and Unicode literal (`\u{}`, group 0x0801, two
// payload words per code point). Every other opcode round-trips through
// the generic `\z{group, payload...}` form, which preserves arbitrary
// bytes without understanding them.
package escape

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wiidev/bmgtool/lib/bmg/encoding"
	"github.com/wiidev/bmgtool/lib/bmg/tables"
	"golang.org/x/text/unicode/norm"
)

const (
	groupColor   uint16 = 0x0800
	groupUnicode uint16 = 0x0801
)

// GroupColor and GroupUnicode are the two opcode groups Scan/Emit give
// special text-form treatment; exported so other packages (the patch
// engine's UNICODE/RM-ESCAPES passes) can recognize them without
// duplicating the opcode layout.
const (
	GroupColor   = groupColor
	GroupUnicode = groupUnicode
)

// OpcodeAt decodes the opcode run starting at units[0] (which must be
// encoding.OpcodeMarker), returning its group word, payload words, and
// how many units of the slice it occupies.
func OpcodeAt(units []uint16) (group uint16, payload []uint16, width int) {
	return opcodeGroup(units)
}

// BuildOpcode assembles the internal three-part opcode representation
// for a group word and its payload; the inverse of OpcodeAt.
func BuildOpcode(group uint16, payload []uint16) []uint16 {
	return buildOpcode(group, payload)
}

// MacroFunc resolves a `\m{mid[,mid...]}` reference to the code units of
// the referenced message(s), concatenated in the order given. Scan calls
// this instead of touching any message store itself, so the scanner never
// depends on bmg's core package (avoiding an import cycle) and never
// reaches for a hidden global store.
type MacroFunc func(mids []uint32) ([]uint16, error)

// Options configures Scan and Emit.
type Options struct {
	ColorTier tables.ColorTier
	// UTF8Max is the highest code point Emit writes directly as UTF-8
	// text rather than falling back to \x{...}; 0 means the spec default
	// 0xFFFD.
	UTF8Max rune
	Macro   MacroFunc
}

func (o Options) utf8Max() rune {
	if o.UTF8Max == 0 {
		return 0xFFFD
	}
	return o.UTF8Max
}

// Scan converts `#BMG` text-form source (one message's text, already
// unwrapped from its surrounding quotes) into code units, expanding every
// escape sequence in the table the package doc describes.
func Scan(s string, opts Options) ([]uint16, error) {
	var out []uint16
	for len(s) > 0 {
		c := s[0]
		if c != '\\' {
			r, width := utf8.DecodeRuneInString(s)
			out = append(out, uint16(r))
			s = s[width:]
			continue
		}
		units, rest, err := scanOne(s, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, units...)
		s = rest
	}
	return out, nil
}

// scanOne scans a single escape sequence at the start of s, which must
// begin with a backslash, returning its units and the remainder of s.
func scanOne(s string, opts Options) ([]uint16, string, error) {
	if len(s) < 2 {
		return nil, "", fmt.Errorf("escape: dangling backslash at end of text")
	}
	switch s[1] {
	case '\\':
		return []uint16{'\\'}, s[2:], nil
	case 'n':
		return []uint16{'\n'}, s[2:], nil
	case 'r':
		return []uint16{'\r'}, s[2:], nil
	case 't':
		return []uint16{'\t'}, s[2:], nil
	case 'a':
		return []uint16{'\a'}, s[2:], nil
	case 'b':
		return []uint16{'\b'}, s[2:], nil
	case 'f':
		return []uint16{'\f'}, s[2:], nil
	case 'v':
		return []uint16{'\v'}, s[2:], nil
	case 'x':
		return scanBraced(s, 'x', func(fields []string) ([]uint16, error) {
			units := make([]uint16, 0, len(fields))
			for _, f := range fields {
				v, err := strconv.ParseUint(f, 16, 16)
				if err != nil {
					return nil, fmt.Errorf("escape: bad \\x field %q: %w", f, err)
				}
				units = append(units, uint16(v))
			}
			return units, nil
		})
	case 'u':
		return scanBraced(s, 'u', func(fields []string) ([]uint16, error) {
			payload := make([]uint16, 0, len(fields)*2)
			for _, f := range fields {
				v, err := strconv.ParseUint(f, 16, 32)
				if err != nil {
					return nil, fmt.Errorf("escape: bad \\u field %q: %w", f, err)
				}
				payload = append(payload, uint16(v>>16), uint16(v))
			}
			return buildOpcode(groupUnicode, payload), nil
		})
	case 'z':
		return scanBraced(s, 'z', func(fields []string) ([]uint16, error) {
			if len(fields) == 0 {
				return nil, fmt.Errorf("escape: \\z{} requires at least a group word")
			}
			words := make([]uint16, 0, len(fields))
			for _, f := range fields {
				v, err := strconv.ParseUint(f, 16, 16)
				if err != nil {
					return nil, fmt.Errorf("escape: bad \\z field %q: %w", f, err)
				}
				words = append(words, uint16(v))
			}
			return buildOpcode(words[0], words[1:]), nil
		})
	case 'c':
		return scanColor(s, opts.ColorTier)
	case 'm':
		return scanMacro(s, opts.Macro)
	default:
		return nil, "", fmt.Errorf("escape: unknown escape \\%c", s[1])
	}
}

// scanBraced parses `\<kind>{a,b,...}` and hands the comma-split fields to
// build, returning its result and the text remaining after the closing brace.
func scanBraced(s string, kind byte, build func(fields []string) ([]uint16, error)) ([]uint16, string, error) {
	if len(s) < 3 || s[2] != '{' {
		return nil, "", fmt.Errorf("escape: \\%c must be followed by '{...}'", kind)
	}
	end := strings.IndexByte(s[3:], '}')
	if end < 0 {
		return nil, "", fmt.Errorf("escape: \\%c{ missing closing '}'", kind)
	}
	body := s[3 : 3+end]
	rest := s[3+end+1:]
	var fields []string
	if body != "" {
		fields = strings.Split(body, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
	}
	units, err := build(fields)
	if err != nil {
		return nil, "", err
	}
	return units, rest, nil
}

func scanColor(s string, tier tables.ColorTier) ([]uint16, string, error) {
	return scanBraced(s, 'c', func(fields []string) ([]uint16, error) {
		if len(fields) != 1 {
			return nil, fmt.Errorf("escape: \\c{} takes exactly one name or hex code")
		}
		name := fields[0]
		if code, ok := tables.ColorByName(name, tier); ok {
			return buildOpcode(groupColor, []uint16{code}), nil
		}
		v, err := strconv.ParseUint(name, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("escape: unknown colour %q", name)
		}
		return buildOpcode(groupColor, []uint16{uint16(v)}), nil
	})
}

func scanMacro(s string, macro MacroFunc) ([]uint16, string, error) {
	return scanBraced(s, 'm', func(fields []string) ([]uint16, error) {
		if macro == nil {
			return nil, fmt.Errorf("escape: \\m{} used but no macro resolver was supplied")
		}
		mids := make([]uint32, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseUint(f, 16, 32)
			if err != nil {
				return nil, fmt.Errorf("escape: bad \\m MID %q: %w", f, err)
			}
			mids = append(mids, uint32(v))
		}
		return macro(mids)
	})
}

// buildOpcode assembles the internal three-part opcode representation
// (encoding.OpcodeMarker, length field, payload) from a group word and
// its payload, recording the byte count of the len(payload)+1 payload
// units (two bytes each) as the length field.
func buildOpcode(group uint16, payload []uint16) []uint16 {
	full := append([]uint16{group}, payload...)
	lenByte := byte(len(full) * 2)
	units := make([]uint16, 0, len(full)+2)
	units = append(units, encoding.OpcodeMarker, uint16(lenByte))
	units = append(units, full...)
	return units
}

// opcodeGroup returns the group word and data payload of the opcode
// starting at units[0] (which must be encoding.OpcodeMarker), and the
// number of units it occupies.
func opcodeGroup(units []uint16) (group uint16, payload []uint16, width int) {
	if len(units) < 3 {
		return 0, nil, len(units)
	}
	lenByte := byte(units[1])
	n := (int(lenByte) + 1) >> 1
	if n < 1 {
		n = 1
	}
	end := 2 + n
	if end > len(units) {
		end = len(units)
	}
	full := units[2:end]
	if len(full) == 0 {
		return 0, nil, end
	}
	return full[0], full[1:], end
}

// Emit renders code units back to `#BMG` text form, using opts.UTF8Max to
// decide when a code point is written as literal UTF-8 versus \x{...}. The
// result is run through NFC normalization so combining-character sequences
// that CP1252/Shift-JIS decode as a base rune plus a separate combining
// mark (as opposed to a single precomposed code point) come out in a
// consistent canonical form regardless of which encoding produced them.
func Emit(units []uint16, opts Options) string {
	var sb strings.Builder
	max := opts.utf8Max()
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u == encoding.OpcodeMarker {
			group, payload, width := opcodeGroup(units[i:])
			emitOpcode(&sb, group, payload, opts)
			i += width - 1
			continue
		}
		emitUnit(&sb, u, max)
	}
	return norm.NFC.String(sb.String())
}

func emitOpcode(sb *strings.Builder, group uint16, payload []uint16, opts Options) {
	switch {
	case group == groupColor && len(payload) == 1:
		name := tables.ColorName(payload[0], opts.ColorTier)
		if name != "" {
			fmt.Fprintf(sb, "\\c{%s}", name)
			return
		}
		fmt.Fprintf(sb, "\\c{%04X}", payload[0])
	case group == groupUnicode && len(payload) > 0 && len(payload)%2 == 0:
		vals := make([]string, 0, len(payload)/2)
		for j := 0; j+1 < len(payload); j += 2 {
			v := uint32(payload[j])<<16 | uint32(payload[j+1])
			vals = append(vals, fmt.Sprintf("%X", v))
		}
		fmt.Fprintf(sb, "\\u{%s}", strings.Join(vals, ","))
	default:
		words := make([]string, 0, len(payload)+1)
		words = append(words, strconv.FormatUint(uint64(group), 16))
		for _, p := range payload {
			words = append(words, strconv.FormatUint(uint64(p), 16))
		}
		fmt.Fprintf(sb, "\\z{%s}", strings.Join(words, ","))
	}
}

func emitUnit(sb *strings.Builder, u uint16, max rune) {
	switch u {
	case '\\':
		sb.WriteString(`\\`)
		return
	case '\n':
		sb.WriteString(`\n`)
		return
	case '\r':
		sb.WriteString(`\r`)
		return
	case '\t':
		sb.WriteString(`\t`)
		return
	case '\a':
		sb.WriteString(`\a`)
		return
	case '\b':
		sb.WriteString(`\b`)
		return
	case '\f':
		sb.WriteString(`\f`)
		return
	case '\v':
		sb.WriteString(`\v`)
		return
	case ' ':
		sb.WriteByte(' ')
		return
	}
	r := rune(u)
	if isUnrepresentable(r) || r > max {
		fmt.Fprintf(sb, "\\x{%X}", u)
		return
	}
	sb.WriteRune(r)
}

// isUnrepresentable reports whether r falls in a band Emit must never
// write as literal UTF-8: the surrogate range, the private-use area, and
// the two non-characters 0xFFFE/0xFFFF (spec's UTF8Max carve-out).
func isUnrepresentable(r rune) bool {
	switch {
	case r >= 0xD800 && r <= 0xDFFF:
		return true
	case r >= 0xE000 && r <= 0xF8FF:
		return true
	case r == 0xFFFE || r == 0xFFFF:
		return true
	}
	return false
}
