// Package encoding translates between a BMG text payload's on-disk byte
// encoding and the core's internal 16-bit code-unit representation.
//
// Four encodings are supported, matching the byte stored at header offset
// 0x10 of a binary BMG file: CP1252 (1), UTF-16BE (2), Shift-JIS (3) and
// UTF-8 (4). Translation for CP1252 and Shift-JIS is delegated to
// golang.org/x/text, which already carries the lookup tables the original
// C implementation hand-rolled; this package only adds the BMG-specific
// framing around Nintendo's in-band 0x1A opcode escape, which is never
// itself transcoded.
package encoding

import (
	"unicode/utf8"

	"github.com/wiidev/bmgtool/lib/bmg/endian"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// Encoding identifies one of the four on-disk text encodings.
type Encoding byte

const (
	CP1252   Encoding = 1
	UTF16BE  Encoding = 2
	ShiftJIS Encoding = 3
	UTF8     Encoding = 4
)

// Valid reports whether e is one of the four documented encodings.
func (e Encoding) Valid() bool {
	return e >= CP1252 && e <= UTF8
}

// String names the encoding the way BMG diagnostics and @ENCODING directives do.
func (e Encoding) String() string {
	switch e {
	case CP1252:
		return "CP1252"
	case UTF16BE:
		return "UTF-16BE"
	case ShiftJIS:
		return "SHIFT-JIS"
	case UTF8:
		return "UTF-8"
	default:
		return "unknown"
	}
}

// OpcodeMarker is the internal code unit value that begins an in-band opcode.
//
// An opcode occupies three or more consecutive units in the internal
// representation: OpcodeMarker, a length field (the raw on-disk length
// byte, 0-255, widened to a unit), then the payload words themselves
// (ceil(length/2) of them). Storing the length field explicitly, rather
// than inferring an opcode's extent from where the message happens to
// end, is what lets a message carry an opcode followed by more text or
// by a second opcode and still round-trip; see the escape package for
// how this triple is produced from and rendered to `#BMG` text form.
const OpcodeMarker uint16 = 0x001A

// isWide reports whether e stores one code unit as two physical bytes
// natively (UTF-16BE), as opposed to the variable-width byte encodings.
func isWide(e Encoding) bool { return e == UTF16BE }

// Decode consumes data starting at offset 0 until e's terminator (a NUL
// byte for CP1252/Shift-JIS/UTF-8, a NUL 16-bit word for UTF-16BE),
// translating each character to a 16-bit code unit. It returns the
// decoded units (the terminator is not included) and the number of bytes
// consumed from data, including the terminator.
//
// 0x1A bytes (0x001A words for UTF-16BE) introduce an opaque in-band
// opcode; its bytes are copied through as raw 16-bit units rather than
// being transcoded. See the escape package for how opcodes are rendered
// to and from text form.
func Decode(data []byte, e Encoding, order endian.Order) (units []uint16, consumed int) {
	if isWide(e) {
		return decodeWide(data, order)
	}
	return decodeNarrow(data, e)
}

func decodeWide(data []byte, order endian.Order) ([]uint16, int) {
	var out []uint16
	i := 0
	for i+2 <= len(data) {
		u := order.Uint16(data[i:])
		i += 2
		if u == 0 {
			return out, i
		}
		if u == OpcodeMarker {
			if i+2 > len(data) {
				out = append(out, u)
				break
			}
			lenByte := data[i] // byte at wire offset 2: high byte of the word after the marker
			payloadUnits := int(lenByte+1) >> 1
			if payloadUnits < 1 {
				payloadUnits = 1
			}
			need := payloadUnits * 2
			if i+need > len(data) {
				need = len(data) - i
			}
			out = append(out, u, uint16(lenByte))
			for j := 0; j+2 <= need; j += 2 {
				out = append(out, order.Uint16(data[i+j:]))
			}
			i += need
			continue
		}
		out = append(out, u)
	}
	return out, i
}

func decodeNarrow(data []byte, e Encoding) ([]uint16, int) {
	var out []uint16
	i := 0
	for i < len(data) {
		b := data[i]
		if b == 0 {
			return out, i + 1
		}
		if b == 0x1A {
			i++
			if i >= len(data) {
				out = append(out, OpcodeMarker)
				break
			}
			lenByte := data[i] // total payload byte count, rounded up to even
			i++
			payloadUnits := (int(lenByte) + 1) >> 1
			need := payloadUnits * 2
			if i+need > len(data) {
				need = len(data) - i
			}
			out = append(out, OpcodeMarker, uint16(lenByte))
			for j := 0; j+2 <= need; j += 2 {
				out = append(out, endian.Big.Uint16(data[i+j:]))
			}
			i += need
			continue
		}

		r, width := decodeRune(data[i:], e)
		out = append(out, uint16(r))
		i += width
	}
	return out, i
}

// decodeRune decodes a single character at the start of b under encoding e,
// returning its Unicode code point (truncated to 16 bits; BMG messages
// never carry codepoints outside the BMP) and the number of bytes consumed.
func decodeRune(b []byte, e Encoding) (rune, int) {
	switch e {
	case CP1252:
		return rune(charmap.Windows1252.DecodeByte(b[0])), 1
	case UTF8:
		r, width := utf8.DecodeRune(b)
		if r == utf8.RuneError && width <= 1 {
			return rune(b[0]), 1
		}
		return r, width
	case ShiftJIS:
		return decodeShiftJISRune(b)
	default:
		return rune(b[0]), 1
	}
}

// shiftJISWidth returns the byte width of the Shift-JIS lead byte b[0].
func shiftJISWidth(b byte) int {
	if b >= 0x81 && b <= 0x9F || b >= 0xE0 && b <= 0xFC {
		return 2
	}
	return 1
}

func decodeShiftJISRune(b []byte) (rune, int) {
	width := shiftJISWidth(b[0])
	if width > len(b) {
		width = len(b)
	}
	dec := japanese.ShiftJIS.NewDecoder()
	utf8Bytes, err := dec.Bytes(b[:width])
	if err != nil || len(utf8Bytes) == 0 {
		return rune(b[0]), 1
	}
	r, _ := utf8.DecodeRune(utf8Bytes)
	return r, width
}

// Encode is the inverse of Decode: it renders code units back to bytes in
// encoding e (in byte order for UTF-16BE), without a trailing terminator
// (the caller appends one; see TerminatorBytes).
//
// Unencodable code points are dropped silently, matching the source
// implementation's permissive encode policy.
func Encode(units []uint16, e Encoding, order endian.Order) []byte {
	if isWide(e) {
		return encodeWide(units, order)
	}
	return encodeNarrow(units, e)
}

// encodeWide writes every unit as a native 2-byte word. UTF-16BE already
// stores one code unit per 16-bit word, so an opcode's length field (see
// OpcodeMarker) is dropped: its payload words already carry the original
// on-disk length in their first word's high byte, copied through verbatim
// since decodeWide.
func encodeWide(units []uint16, order endian.Order) []byte {
	out := make([]byte, 0, len(units)*2)
	buf := make([]byte, 2)
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u == OpcodeMarker && i+1 < len(units) {
			lenByte := byte(units[i+1])
			payloadUnits := payloadUnitCount(lenByte)
			order.PutUint16(buf, u)
			out = append(out, buf...)
			for j := 0; j < payloadUnits && i+2+j < len(units); j++ {
				order.PutUint16(buf, units[i+2+j])
				out = append(out, buf...)
			}
			i += 1 + payloadUnits
			continue
		}
		order.PutUint16(buf, u)
		out = append(out, buf...)
	}
	return out
}

// payloadUnitCount is the original source's length-byte-to-unit-count
// formula, shared by the decode and encode directions.
func payloadUnitCount(lenByte byte) int {
	n := (int(lenByte) + 1) >> 1
	if n < 1 {
		n = 1
	}
	return n
}

func encodeNarrow(units []uint16, e Encoding) []byte {
	out := make([]byte, 0, len(units))
	buf := make([]byte, 2)
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u == OpcodeMarker && i+1 < len(units) {
			lenByte := byte(units[i+1])
			payloadUnits := payloadUnitCount(lenByte)
			out = append(out, 0x1A, lenByte)
			for j := 0; j < payloadUnits && i+2+j < len(units); j++ {
				endian.Big.PutUint16(buf, units[i+2+j])
				out = append(out, buf...)
			}
			i += 1 + payloadUnits
			continue
		}
		out = append(out, encodeRune(u, e)...)
	}
	return out
}

func encodeRune(u uint16, e Encoding) []byte {
	r := rune(u)
	switch e {
	case CP1252:
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			return nil
		}
		return []byte{b}
	case UTF8:
		return utf8.AppendRune(nil, r)
	case ShiftJIS:
		enc := japanese.ShiftJIS.NewEncoder()
		b, err := enc.Bytes([]byte(string(r)))
		if err != nil {
			return nil
		}
		return b
	default:
		return []byte{byte(r)}
	}
}

// TerminatorBytes returns the on-disk terminator for encoding e: a single
// NUL byte for the byte-oriented encodings, two NUL bytes for UTF-16BE.
func TerminatorBytes(e Encoding) []byte {
	if isWide(e) {
		return []byte{0, 0}
	}
	return []byte{0}
}
