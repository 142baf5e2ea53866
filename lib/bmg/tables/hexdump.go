package tables

import (
	"fmt"
	"strings"
)

// BytesPerLine is the hex-dump column width used for @SECTION/@X blocks in
// text form, modelled on dclib-xdump.c's default dump width.
const BytesPerLine = 16

// HexDump renders data as uppercase hex pairs, BytesPerLine per line, with
// no offset or ASCII gutter — the `#BMG` text form only needs the bytes
// back, not a human trace, so @X lines carry hex only.
func HexDump(data []byte) []string {
	var lines []string
	for i := 0; i < len(data); i += BytesPerLine {
		end := i + BytesPerLine
		if end > len(data) {
			end = len(data)
		}
		var sb strings.Builder
		for j := i; j < end; j++ {
			if j > i {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%02X", data[j])
		}
		lines = append(lines, sb.String())
	}
	return lines
}

// ParseHexLine parses one @X line's hex-pair text back into bytes.
// Whitespace between pairs is ignored.
func ParseHexLine(line string) ([]byte, error) {
	fields := strings.Fields(line)
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		if len(f) != 2 {
			return nil, fmt.Errorf("invalid hex pair %q", f)
		}
		var b byte
		if _, err := fmt.Sscanf(f, "%02X", &b); err != nil {
			return nil, fmt.Errorf("invalid hex pair %q: %w", f, err)
		}
		out = append(out, b)
	}
	return out, nil
}
