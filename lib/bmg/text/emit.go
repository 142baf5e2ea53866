package text

import (
	"fmt"
	"strings"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/endian"
	"github.com/wiidev/bmgtool/lib/bmg/escape"
	"github.com/wiidev/bmgtool/lib/bmg/tables"
)

// wrapColumn is the soft-wrap width Emit targets for a message's escaped
// text, matching the grammar's "\t+"-continuation convention.
const wrapColumn = 72

// Emit renders b back to `#BMG` text form. The result is a valid Scan
// input; round-tripping it through Scan reproduces every item (MID,
// condition, slot, attributes, text) though not necessarily the original
// source's directive ordering, blank lines, or `@$` section captions.
func Emit(b *bmg.Bmg) string {
	var sb strings.Builder
	sb.WriteString(magicLine + "\n")
	emitDirectives(&sb, b)
	emitRawSections(&sb, b)

	eopts := escape.Options{ColorTier: b.Config.ColorTier}
	lastRange := ""
	lastCond := bmg.Mid(0)
	for _, item := range b.Items() {
		if b.Config.UseMKWMessages {
			if r, _, ok := tables.RangeOf(item.Mid); ok {
				if r.Name != lastRange {
					fmt.Fprintf(&sb, "@$ %s\n", r.Name)
					lastRange = r.Name
				}
			} else {
				lastRange = ""
			}
		}
		if item.Condition != lastCond {
			fmt.Fprintf(&sb, "@?%X\n", item.Condition)
			lastCond = item.Condition
		}
		emitItem(&sb, b, item, eopts)
	}
	return sb.String()
}

func emitDirectives(sb *strings.Builder, b *bmg.Bmg) {
	if b.Endian != nil {
		fmt.Fprintf(sb, "@ENDIAN=%s\n", b.Endian.Name())
	}
	fmt.Fprintf(sb, "@ENCODING=%s\n", b.Encoding.String())
	if b.Config.Legacy {
		sb.WriteString("@LEGACY\n")
	}
	if b.HaveMID {
		sb.WriteString("@BMG-MID\n")
	}
	if b.InfSize != 0 && b.InfSize != 8 {
		fmt.Fprintf(sb, "@INF-SIZE=%d\n", b.InfSize)
	}
	if b.Config.DefaultAttribUsed > 0 {
		fmt.Fprintf(sb, "@DEFAULT-ATTRIBS=%s\n", hexBytes(b.Config.DefaultAttrib[:b.Config.DefaultAttribUsed]))
	}
	if b.Inf1Unknown0C != 0 {
		fmt.Fprintf(sb, "@UNKNOWN-INF32-0C=%X\n", b.Inf1Unknown0C)
	}
	if b.Mid1Unknown0A != 0 && b.Mid1Unknown0A != 0x1000 {
		fmt.Fprintf(sb, "@UNKNOWN-MID16-0A=%X\n", b.Mid1Unknown0A)
	}
	if b.Mid1Unknown0C != 0 {
		fmt.Fprintf(sb, "@UNKNOWN-MID32-0C=%X\n", b.Mid1Unknown0C)
	}
}

func emitRawSections(sb *strings.Builder, b *bmg.Bmg) {
	for _, raw := range b.RawSections() {
		fmt.Fprintf(sb, "@SECTION %s\n", strings.TrimRight(string(raw.Magic[:]), " "))
		for _, line := range tables.HexDump(raw.Data) {
			fmt.Fprintf(sb, "@X %s\n", line)
		}
	}
}

func emitItem(sb *strings.Builder, b *bmg.Bmg, item *bmg.Item, eopts escape.Options) {
	fmt.Fprintf(sb, "%X", item.Mid)
	if item.HasSlot {
		fmt.Fprintf(sb, " @%d", item.Slot)
	}
	if needsAttrib(b, item) {
		fmt.Fprintf(sb, " [%s]", formatAttribLanes(item.Attrib, item.AttribUsed))
	}
	if item.Deleted {
		sb.WriteString(" /\n")
		return
	}

	text := escape.Emit(item.Units, eopts)
	segments := wrapEscaped(text, wrapColumn)
	first := segments[0]
	if strings.HasSuffix(first, " ") {
		// Scan trims the message line, so its trailing space is escaped.
		first = first[:len(first)-1] + `\x{20}`
	}
	sb.WriteString(" = ")
	sb.WriteString(first)
	sb.WriteByte('\n')
	for _, seg := range segments[1:] {
		sb.WriteString("\t+")
		sb.WriteString(seg)
		sb.WriteByte('\n')
	}
}

// needsAttrib reports whether item's attribute vector differs from the
// store's configured default, in which case Emit must spell it out
// explicitly; otherwise the bracket is omitted and Scan's own
// default-fallback reproduces it on re-read.
func needsAttrib(b *bmg.Bmg, item *bmg.Item) bool {
	if item.AttribUsed != b.Config.DefaultAttribUsed {
		return true
	}
	return item.Attrib != b.Config.DefaultAttrib
}

func formatAttribLanes(attrib [40]byte, used uint16) string {
	lanes := make([]string, 0, int(used)/4)
	for i := 0; i+4 <= int(used); i += 4 {
		lanes = append(lanes, fmt.Sprintf("%X", endian.Big.Uint32(attrib[i:])))
	}
	return strings.Join(lanes, "/")
}

func hexBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

// wrapEscaped splits an already-escaped message text into segments no
// wider than maxWidth, preferring to break right after a literal "\n"
// escape or, failing that, at a space past column 40 (spec's emitter
// design note on continuation-line wrapping).
func wrapEscaped(s string, maxWidth int) []string {
	if maxWidth <= 0 || len(s) <= maxWidth {
		return []string{s}
	}
	var lines []string
	for len(s) > maxWidth {
		limit := maxWidth
		if limit > len(s) {
			limit = len(s)
		}
		breakAt := -1
		if idx := strings.LastIndex(s[:limit], `\n`); idx >= 0 {
			breakAt = idx + 2
		} else if limit > 40 {
			if sp := strings.LastIndex(s[40:limit], " "); sp >= 0 {
				breakAt = 40 + sp + 1
			}
		}
		if breakAt <= 0 {
			breakAt = limit
		}
		lines = append(lines, s[:breakAt])
		s = s[breakAt:]
	}
	if s != "" {
		lines = append(lines, s)
	}
	return lines
}
