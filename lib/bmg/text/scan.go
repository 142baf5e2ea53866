// Package text reads and writes the `#BMG` human-readable text form: a
// magic line, a block of `@`-directives describing file-level metadata,
// and one line per message giving its MID, optional predefined slot,
// optional attribute vector, and escaped text (continued onto further
// lines with a leading "\t+").
//
// Scan and Emit delegate every escape sequence inside a message's text to
// the escape package; this package only owns the line grammar around it.
package text

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/encoding"
	"github.com/wiidev/bmgtool/lib/bmg/endian"
	"github.com/wiidev/bmgtool/lib/bmg/escape"
	"github.com/wiidev/bmgtool/lib/bmg/tables"
)

const magicLine = "#BMG"

// IncludeFunc loads the source named by an `@<` or `@>` directive's path.
// Scan never reads the filesystem itself; the host program supplies this
// so the scanner stays usable against any source (disk, embed.FS, a zip
// member) without a build tag per backend.
type IncludeFunc func(path string) (string, error)

// ScanOptions configures Scan's directive-handling collaborators.
type ScanOptions struct {
	// Include resolves `@<path` (recursive) and `@>path` (goto) targets.
	// Both directives report an error if left nil and actually used.
	Include IncludeFunc
}

// Scan parses src into b, following the text grammar. Deferred alias
// targets (the `:` op) are resolved in fixpoint rounds once the whole
// source (including any `@<` includes) has been scanned; an alias whose
// target MID still doesn't exist after a full no-progress round is
// dropped silently, matching the binary decoder's permissive posture.
func Scan(src string, b *bmg.Bmg, opts ScanOptions) error {
	s := &scanner{b: b, opts: opts, active: true}
	if err := s.scanSource(src, 0); err != nil {
		return err
	}
	s.resolveAliases()
	return nil
}

type pendingAlias struct {
	mid        bmg.Mid
	targets    []bmg.Mid
	condition  bmg.Mid
	hasSlot    bool
	slot       uint16
	haveAttrib bool
	attrib     [40]byte
	attribUsed uint16
}

type scanner struct {
	b    *bmg.Bmg
	opts ScanOptions

	active    bool
	condition bmg.Mid
	pending   []pendingAlias

	inSection   bool
	sectionName string
	sectionData []byte
}

// macro implements escape.MacroFunc against b.Macros (or b itself if no
// separate macro store is attached), per the spec's explicit-argument
// macros-store requirement.
func (s *scanner) macro(mids []uint32) ([]uint16, error) {
	store := s.b.Macros
	if store == nil {
		store = s.b
	}
	var out []uint16
	for _, mid := range mids {
		it := store.Find(mid)
		if it == nil {
			return nil, fmt.Errorf("text: macro MID %#x not found", mid)
		}
		out = append(out, it.Units...)
	}
	return out, nil
}

func (s *scanner) escOpts() escape.Options {
	return escape.Options{ColorTier: s.b.Config.ColorTier, Macro: s.macro}
}

func (s *scanner) scanSource(src string, depth int) error {
	lines := strings.Split(src, "\n")
	i := 0
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), magicLine) {
		i = 1
	}
	for i < len(lines) {
		raw := strings.TrimRight(lines[i], "\r")
		t := strings.TrimSpace(raw)

		if s.inSection {
			if strings.HasPrefix(t, "@X") {
				data, err := tables.ParseHexLine(strings.TrimSpace(t[2:]))
				if err != nil {
					return fmt.Errorf("text: line %d: %w", i+1, err)
				}
				s.sectionData = append(s.sectionData, data...)
				i++
				continue
			}
			s.finishSection()
		}

		if t == "" {
			i++
			continue
		}

		if strings.HasPrefix(t, "@") {
			terminate, err := s.directive(t, depth)
			if err != nil {
				return fmt.Errorf("text: line %d: %w", i+1, err)
			}
			i++
			if terminate {
				return nil
			}
			continue
		}

		if !s.active {
			i++
			continue
		}

		n, err := s.message(t, lines, i)
		if err != nil {
			return fmt.Errorf("text: line %d: %w", i+1, err)
		}
		i += 1 + n
	}
	s.finishSection()
	return nil
}

func (s *scanner) finishSection() {
	if !s.inSection {
		return
	}
	s.b.AddRaw(magic4(s.sectionName), s.sectionData)
	s.inSection = false
	s.sectionName = ""
	s.sectionData = nil
}

// directive handles one `@`-line. It returns terminate=true only for
// `@>`, which per the grammar ends processing of the current file.
func (s *scanner) directive(t string, depth int) (bool, error) {
	switch {
	case t == "@BMG-MID":
		s.b.HaveMID = true
		return false, nil
	case t == "@LEGACY":
		s.b.Config.Legacy = true
		return false, nil
	case strings.HasPrefix(t, "@ENDIAN"):
		val := strings.ToLower(directiveValue(t))
		order, ok := endian.ByName(val)
		if !ok {
			return false, fmt.Errorf("unknown @ENDIAN value %q", val)
		}
		s.b.Endian = order
		return false, nil
	case strings.HasPrefix(t, "@ENCODING"):
		val := directiveValue(t)
		enc, ok := encodingByName(val)
		if !ok {
			return false, fmt.Errorf("unknown @ENCODING value %q", val)
		}
		s.b.Encoding = enc
		return false, nil
	case strings.HasPrefix(t, "@INF-SIZE"):
		v, err := strconv.ParseUint(directiveValue(t), 10, 16)
		if err != nil {
			return false, fmt.Errorf("bad @INF-SIZE: %w", err)
		}
		s.b.InfSize = uint16(v)
		return false, nil
	case strings.HasPrefix(t, "@DEFAULT-ATTRIBS"):
		data, err := tables.ParseHexLine(strings.ReplaceAll(directiveValue(t), ",", " "))
		if err != nil {
			return false, fmt.Errorf("bad @DEFAULT-ATTRIBS: %w", err)
		}
		n := copy(s.b.Config.DefaultAttrib[:], data)
		s.b.Config.DefaultAttribUsed = uint16(n)
		return false, nil
	case strings.HasPrefix(t, "@UNKNOWN-INF32-0C"):
		v, err := strconv.ParseUint(directiveValue(t), 16, 32)
		if err != nil {
			return false, fmt.Errorf("bad @UNKNOWN-INF32-0C: %w", err)
		}
		s.b.Inf1Unknown0C = uint32(v)
		return false, nil
	case strings.HasPrefix(t, "@UNKNOWN-MID16-0A"):
		v, err := strconv.ParseUint(directiveValue(t), 16, 16)
		if err != nil {
			return false, fmt.Errorf("bad @UNKNOWN-MID16-0A: %w", err)
		}
		s.b.Mid1Unknown0A = uint16(v)
		return false, nil
	case strings.HasPrefix(t, "@UNKNOWN-MID32-0C"):
		v, err := strconv.ParseUint(directiveValue(t), 16, 32)
		if err != nil {
			return false, fmt.Errorf("bad @UNKNOWN-MID32-0C: %w", err)
		}
		s.b.Mid1Unknown0C = uint32(v)
		return false, nil
	case strings.HasPrefix(t, "@SECTION"):
		s.finishSection()
		s.inSection = true
		s.sectionName = strings.TrimSpace(t[len("@SECTION"):])
		s.sectionData = nil
		return false, nil
	case strings.HasPrefix(t, "@?"):
		val := strings.TrimSpace(t[2:])
		if val == "" {
			s.condition = 0
			return false, nil
		}
		mids, ok := parseMidTokens(val, s.b.Hooks, s.b.Config.UseMKWMessages, s.b.Config.CTMode)
		if !ok {
			return false, fmt.Errorf("bad @? condition MID %q", val)
		}
		s.condition = mids[0]
		return false, nil
	case strings.HasPrefix(t, "@="):
		pattern := strings.TrimSpace(t[2:])
		name := ""
		if s.b.Hooks.ContainerName != nil {
			name = s.b.Hooks.ContainerName()
		}
		matched, err := path.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("bad @= pattern %q: %w", pattern, err)
		}
		s.active = matched
		return false, nil
	case strings.HasPrefix(t, "@$"):
		return false, nil // debug print, opt-in, no in-module consumer
	case strings.HasPrefix(t, "@<"):
		p := strings.TrimSpace(t[2:])
		if depth+1 > s.b.Config.MaxIncludeDepth {
			return false, nil // silently no-op past the recursion limit
		}
		if s.opts.Include == nil {
			return false, fmt.Errorf("@< %s: no include loader configured", p)
		}
		child, err := s.opts.Include(p)
		if err != nil {
			return false, fmt.Errorf("@< %s: %w", p, err)
		}
		return false, s.scanSource(child, depth+1)
	case strings.HasPrefix(t, "@>"):
		p := strings.TrimSpace(t[2:])
		if s.opts.Include == nil {
			return false, fmt.Errorf("@> %s: no include loader configured", p)
		}
		child, err := s.opts.Include(p)
		if err != nil {
			return false, fmt.Errorf("@> %s: %w", p, err)
		}
		if err := s.scanSource(child, depth); err != nil {
			return false, err
		}
		return true, nil
	default:
		if s.b.Hooks.AtHook != nil {
			s.b.Hooks.AtHook(s.b, t)
		}
		return false, nil
	}
}

func directiveValue(t string) string {
	if i := strings.IndexByte(t, '='); i >= 0 {
		return strings.TrimSpace(t[i+1:])
	}
	return ""
}

func encodingByName(val string) (encoding.Encoding, bool) {
	if v, err := strconv.ParseUint(val, 10, 8); err == nil {
		e := encoding.Encoding(v)
		if e.Valid() {
			return e, true
		}
		return 0, false
	}
	switch strings.ToUpper(val) {
	case "CP1252", "WIN1252", "LATIN1":
		return encoding.CP1252, true
	case "UTF-16BE", "UTF16BE", "UTF16", "UTF-16":
		return encoding.UTF16BE, true
	case "SHIFT-JIS", "SHIFTJIS", "SJIS":
		return encoding.ShiftJIS, true
	case "UTF-8", "UTF8":
		return encoding.UTF8, true
	}
	return 0, false
}

// message parses one message line (mid/slot/attrib/op already trimmed of
// surrounding whitespace in t) plus any following "\t+" continuation
// lines, and returns how many extra lines (beyond t itself) it consumed.
func (s *scanner) message(t string, lines []string, idx int) (int, error) {
	midTok, rest, ok := splitToken(t)
	if !ok {
		return 0, fmt.Errorf("expected a MID")
	}
	mids, ok := parseMidTokens(midTok, s.b.Hooks, s.b.Config.UseMKWMessages, s.b.Config.CTMode)
	if !ok {
		return 0, fmt.Errorf("unrecognized MID %q", midTok)
	}
	mid := mids[0]

	rest = strings.TrimLeft(rest, " \t")
	var hasSlot bool
	var slot uint16
	if strings.HasPrefix(rest, "@") {
		tok, r2, ok := splitToken(rest[1:])
		if !ok {
			return 0, fmt.Errorf("expected a slot number after '@'")
		}
		v, err := strconv.ParseUint(tok, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("bad slot %q: %w", tok, err)
		}
		hasSlot, slot, rest = true, uint16(v), r2
	}

	rest = strings.TrimLeft(rest, " \t")
	var attrib [40]byte
	var attribUsed uint16
	haveAttrib := false
	switch {
	case strings.HasPrefix(rest, "["):
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return 0, fmt.Errorf("missing closing ']' in attribute")
		}
		a, used, err := parseAttribLanes(rest[1:end])
		if err != nil {
			return 0, err
		}
		attrib, attribUsed, haveAttrib = a, used, true
		rest = rest[end+1:]
	case strings.HasPrefix(rest, "~"):
		r2 := rest[1:]
		if strings.HasPrefix(r2, "[") {
			end := strings.IndexByte(r2, ']')
			if end < 0 {
				return 0, fmt.Errorf("missing closing ']' in '~[...]' attribute")
			}
			a, used, err := parseAttribLanes(r2[1:end])
			if err != nil {
				return 0, err
			}
			attrib, attribUsed, haveAttrib = a, used, true
			rest = r2[end+1:]
		} else {
			tok, r3, ok := splitToken(r2)
			if !ok {
				return 0, fmt.Errorf("expected hex after '~'")
			}
			a, used, err := parseAttribLanes(tok)
			if err != nil {
				return 0, fmt.Errorf("bad '~' attribute %q: %w", tok, err)
			}
			attrib, attribUsed, haveAttrib = a, used, true
			rest = r3
		}
	}

	rest = strings.TrimLeft(rest, " \t")
	if rest == "" {
		return 0, fmt.Errorf("expected '=', '/' or ':' after MID %#x", mid)
	}

	switch rest[0] {
	case '=':
		text := strings.TrimPrefix(rest[1:], " ")
		units, err := escape.Scan(text, s.escOpts())
		if err != nil {
			return 0, fmt.Errorf("mid %#x: %w", mid, err)
		}
		consumed := 0
		for idx+1+consumed < len(lines) {
			next := strings.TrimRight(lines[idx+1+consumed], "\r")
			if !strings.HasPrefix(next, "\t+") {
				break
			}
			contUnits, err := escape.Scan(next[2:], s.escOpts())
			if err != nil {
				return 0, fmt.Errorf("mid %#x continuation: %w", mid, err)
			}
			units = append(units, contUnits...)
			consumed++
		}
		for _, m := range mids {
			s.insertItem(m, units, false, hasSlot, slot, haveAttrib, attrib, attribUsed)
		}
		return consumed, nil
	case '/':
		for _, m := range mids {
			s.insertItem(m, nil, true, hasSlot, slot, haveAttrib, attrib, attribUsed)
		}
		return 0, nil
	case ':':
		ref := strings.TrimSpace(rest[1:])
		targets, ok := parseMidTokens(ref, s.b.Hooks, s.b.Config.UseMKWMessages, s.b.Config.CTMode)
		if !ok {
			return 0, fmt.Errorf("bad alias target %q", ref)
		}
		for _, m := range mids {
			s.pending = append(s.pending, pendingAlias{
				mid: m, targets: targets, condition: s.condition,
				hasSlot: hasSlot, slot: slot,
				haveAttrib: haveAttrib, attrib: attrib, attribUsed: attribUsed,
			})
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("expected '=', '/' or ':' after MID %#x", mid)
	}
}

func (s *scanner) insertItem(mid bmg.Mid, units []uint16, deleted bool, hasSlot bool, slot uint16, haveAttrib bool, attrib [40]byte, attribUsed uint16) {
	if !haveAttrib {
		attrib, attribUsed = s.b.Config.DefaultAttrib, s.b.Config.DefaultAttribUsed
	}
	s.b.Insert(&bmg.Item{
		Mid:        mid,
		Condition:  s.condition,
		HasSlot:    hasSlot,
		Slot:       slot,
		Attrib:     attrib,
		AttribUsed: attribUsed,
		Units:      units,
		Deleted:    deleted,
	})
}

// resolveAliases resolves every `:`-op alias recorded during scanning,
// in fixpoint rounds so a forward reference to another alias still
// resolves once its own target lands. An alias whose target never
// appears is dropped once a full round makes no progress.
func (s *scanner) resolveAliases() {
	pending := s.pending
	for len(pending) > 0 {
		var still []pendingAlias
		progressed := false
		for _, p := range pending {
			var src *bmg.Item
			for _, target := range p.targets {
				if it := s.b.Find(target); it != nil {
					src = it
					break
				}
			}
			if src == nil {
				still = append(still, p)
				continue
			}
			attrib, attribUsed := p.attrib, p.attribUsed
			if !p.haveAttrib {
				attrib, attribUsed = s.b.Config.DefaultAttrib, s.b.Config.DefaultAttribUsed
			}
			s.b.Insert(&bmg.Item{
				Mid:        p.mid,
				Condition:  p.condition,
				HasSlot:    p.hasSlot,
				Slot:       p.slot,
				Attrib:     attrib,
				AttribUsed: attribUsed,
				Units:      append([]uint16(nil), src.Units...),
			})
			progressed = true
		}
		if !progressed {
			break
		}
		pending = still
	}
}

// parseAttribLanes parses a "/"-separated list of hex 32-bit lane values
// into a (big-endian, text-form-only) attribute vector. This numeric
// convention is independent of the file's actual on-disk byte order: the
// text form always spells attribute lanes in big-endian hex regardless of
// Bmg.Endian, matching how Mario Kart Wii tooling conventionally writes
// them.
func parseAttribLanes(body string) ([40]byte, uint16, error) {
	var out [40]byte
	n := 0
	for _, lane := range strings.Split(body, "/") {
		lane = strings.TrimSpace(lane)
		if lane == "" {
			continue
		}
		v, err := strconv.ParseUint(lane, 16, 32)
		if err != nil {
			return out, 0, fmt.Errorf("bad attribute lane %q: %w", lane, err)
		}
		if n+4 > len(out) {
			break
		}
		endian.Big.PutUint32(out[n:], uint32(v))
		n += 4
	}
	return out, uint16(n), nil
}

// digitIndex validates an ASCII digit lo..hi and returns its zero-based
// value (d - '1'), matching ScanBMGMID's key[1]/key[2] range checks.
func digitIndex(d byte, lo, hi byte) (int, bool) {
	if d < lo || d > hi {
		return 0, false
	}
	return int(d - '1'), true
}

// parseMidTokens resolves a mid token: a bare hex MID, or (when useMKW is
// set) one of the "Tnn"/"Unn"/"Mnn" track/arena/chat aliases. A track or
// arena alias expands to the parallel set of MIDs Mario Kart Wii keeps in
// lockstep for a single logical track/arena slot: the classic Track1/Track2
// (or Arena1/Arena2) pair, plus a CT-CODE or LE-CODE MID when ctMode calls
// for it. Everything else resolves to exactly one MID.
func parseMidTokens(tok string, hooks bmg.Hooks, useMKW bool, ctMode bmg.CTMode) ([]bmg.Mid, bool) {
	if tok == "" {
		return nil, false
	}
	if useMKW && len(tok) == 3 {
		switch tok[0] {
		case 'T', 't':
			d1, ok1 := digitIndex(tok[1], '1', '8')
			d2, ok2 := digitIndex(tok[2], '1', '4')
			if ok1 && ok2 {
				off := 4*d1 + d2
				if hooks.TrackIndex != nil {
					v, ok := hooks.TrackIndex(off)
					if !ok {
						return nil, false
					}
					off = v
				}
				mids := []bmg.Mid{tables.MidTrack1Beg + uint32(off), tables.MidTrack2Beg + uint32(off)}
				switch ctMode {
				case bmg.CTModeCTLE:
					mids = append(mids, tables.MidLETrackBeg+uint32(off))
				case bmg.CTModeCT:
					mids = append(mids, tables.MidCTTrackBeg+uint32(off))
				}
				return mids, true
			}
		case 'U', 'u':
			d1, ok1 := digitIndex(tok[1], '1', '2')
			d2, ok2 := digitIndex(tok[2], '1', '5')
			if ok1 && ok2 {
				off := 5*d1 + d2
				if hooks.ArenaIndex != nil {
					v, ok := hooks.ArenaIndex(off)
					if !ok {
						return nil, false
					}
					off = v
				}
				mids := []bmg.Mid{tables.MidArena1Beg + uint32(off), tables.MidArena2Beg + uint32(off)}
				switch ctMode {
				case bmg.CTModeCTLE:
					mids = append(mids, tables.MidLEArenaBeg+uint32(off))
				case bmg.CTModeCT:
					mids = append(mids, tables.MidCTArenaBeg+uint32(off))
				}
				return mids, true
			}
		case 'M', 'm':
			if idx, err := strconv.ParseUint(tok[1:], 10, 32); err == nil {
				num := uint32(idx)
				maxChat := uint32(tables.MidTrack1Beg - tables.MidChatBeg)
				if num > 0 && num <= maxChat {
					return []bmg.Mid{tables.MidChatBeg + num - 1}, true
				}
			}
		}
	}
	hex := tok
	if strings.HasPrefix(hex, "0x") || strings.HasPrefix(hex, "0X") {
		hex = hex[2:]
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, false
	}
	return []bmg.Mid{uint32(v)}, true
}

// splitToken returns the first whitespace-delimited token in s and the
// untrimmed remainder (leading whitespace of the remainder is kept so the
// caller can tell "nothing followed" from "a space followed").
func splitToken(s string) (string, string, bool) {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return "", s, false
	}
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i:], true
	}
	return s, "", true
}

func magic4(name string) [4]byte {
	var out [4]byte
	for i := range out {
		if i < len(name) {
			out[i] = name[i]
		} else {
			out[i] = ' '
		}
	}
	return out
}
