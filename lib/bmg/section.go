package bmg

import (
	"github.com/wiidev/bmgtool/lib/bmg/endian"
)

const (
	magicFile = "MESGbmg1"
	headerLen = 32

	sectionHeaderLen = 8 // magic[4] + be_size:u32

	maxPlausibleSections = 100
)

// sectionClass categorises one parsed section as the raw decoder's walk
// over the file proceeds.
type sectionClass int

const (
	classUnknown sectionClass = iota
	classInf1
	classDat1
	classMid1
	classPassthroughKnown // STR1, FLW1, FLI1: known shape, not decoded
)

func classify(magic [4]byte) sectionClass {
	switch string(magic[:]) {
	case "INF1":
		return classInf1
	case "DAT1":
		return classDat1
	case "MID1":
		return classMid1
	case "STR1", "FLW1", "FLI1":
		return classPassthroughKnown
	default:
		return classUnknown
	}
}

// rawSectionSpan is one section as found on disk, before any class-specific
// interpretation: its magic, its declared total size (header included),
// and the slice of the body between the 8-byte section header and the
// next section's start (which may be longer than the section's useful
// payload — trailing padding is preserved in Data).
type rawSectionSpan struct {
	Magic     [4]byte
	TotalSize uint32 // as declared on disk, header included
	Data      []byte // body only, TotalSize-sectionHeaderLen bytes
}

// fileHeader is the decoded 32-byte BMG file header.
type fileHeader struct {
	Order     endian.Order
	TotalSize uint32
	NSections uint32
	Encoding  byte
	Unknown15 [15]byte // header bytes 0x11..0x1F, not otherwise interpreted
}

// sniffOrder chooses big- or little-endian by checking which interpretation
// of the size/section-count fields at offsets 0x08/0x0C produces plausible
// values: total size no larger than the file, section count no larger than
// maxPlausibleSections. Spec §4.5.
func sniffOrder(data []byte) (endian.Order, bool) {
	if len(data) < headerLen {
		return nil, false
	}
	if plausibleHeader(data, endian.Big) {
		return endian.Big, true
	}
	if plausibleHeader(data, endian.Little) {
		return endian.Little, true
	}
	return nil, false
}

func plausibleHeader(data []byte, order endian.Order) bool {
	size := order.Uint32(data[8:])
	nSections := order.Uint32(data[12:])
	return size <= uint32(len(data)) && nSections <= maxPlausibleSections
}

// parseHeader decodes the 32-byte file header, having already chosen order.
func parseHeader(data []byte, order endian.Order) (fileHeader, error) {
	if len(data) < headerLen || string(data[0:8]) != magicFile {
		return fileHeader{}, wrapErr(KindInvalidMagic, "file does not start with MESGbmg1", nil)
	}
	h := fileHeader{
		Order:     order,
		TotalSize: order.Uint32(data[8:]),
		NSections: order.Uint32(data[12:]),
		Encoding:  data[16],
	}
	copy(h.Unknown15[:], data[17:32])
	return h, nil
}

// walkSections splits body (the file after the 32-byte header) into its
// declared sections, in file order. Section size fields use the same
// byte order as the header.
func walkSections(body []byte, order endian.Order) ([]rawSectionSpan, error) {
	var spans []rawSectionSpan
	i := 0
	for i+sectionHeaderLen <= len(body) {
		var magic [4]byte
		copy(magic[:], body[i:i+4])
		size := order.Uint32(body[i+4:])
		if size < sectionHeaderLen {
			return nil, wrapErr(KindTruncatedSection, "section size smaller than its own header", nil)
		}
		if i+int(size) > len(body) {
			return nil, wrapErr(KindTruncatedSection, "section extends past end of file", nil)
		}
		spans = append(spans, rawSectionSpan{
			Magic:     magic,
			TotalSize: size,
			Data:      body[i+sectionHeaderLen : i+int(size)],
		})
		i += int(size)
	}
	return spans, nil
}
