package bmg

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/wiidev/bmgtool/lib/bmg/encoding"
)

// buildMinimalFile hand-assembles a two-message, no-MID1, big-endian
// CP1252 BMG file: the same shape EncodeBinary is expected to produce for
// a store holding exactly these two items in MID order 0,1.
func buildMinimalFile() []byte {
	var inf bytes.Buffer
	binary.Write(&inf, binary.BigEndian, uint16(2)) // n_msg
	binary.Write(&inf, binary.BigEndian, uint16(8)) // inf_size
	binary.Write(&inf, binary.BigEndian, uint32(0)) // unknown_0c
	binary.Write(&inf, binary.BigEndian, uint32(1)) // item0 offset
	inf.Write([]byte{0, 0, 0, 0})                   // item0 attrib
	binary.Write(&inf, binary.BigEndian, uint32(3)) // item1 offset
	inf.Write([]byte{0, 0, 0, 0})                   // item1 attrib

	var dat bytes.Buffer
	dat.WriteByte(0)          // reserved terminator at offset 0
	dat.Write([]byte{'A', 0}) // item0
	dat.Write([]byte{'B', 0}) // item1

	var out bytes.Buffer
	out.WriteString(magicFile)
	binary.Write(&out, binary.BigEndian, uint32(96)) // total size
	binary.Write(&out, binary.BigEndian, uint32(2))  // n_sections
	out.WriteByte(byte(encoding.CP1252))
	out.Write(make([]byte, 15))

	writeSection(&out, "INF1", inf.Bytes())
	writeSection(&out, "DAT1", dat.Bytes())

	return out.Bytes()
}

func writeSection(out *bytes.Buffer, magic string, payload []byte) {
	out.WriteString(magic)
	total := sectionHeaderLen + len(payload)
	padded := total
	if rem := padded % 32; rem != 0 {
		padded += 32 - rem
	}
	binary.Write(out, binary.BigEndian, uint32(padded))
	out.Write(payload)
	out.Write(make([]byte, padded-total))
}

func TestDecodeMinimalFile(t *testing.T) {
	data := buildMinimalFile()
	if len(data) != 96 {
		t.Fatalf("test fixture itself is %d bytes, want 96", len(data))
	}

	b, err := DecodeBinary(data, DefaultConfig(), DefaultHooks())
	if err != nil {
		t.Fatalf("DecodeBinary: %v", err)
	}
	if b.Encoding != encoding.CP1252 {
		t.Fatalf("Encoding = %v, want CP1252", b.Encoding)
	}
	if b.HaveMID {
		t.Fatal("HaveMID = true, want false (no MID1 section)")
	}
	if got := b.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	it0, it1 := b.Find(0), b.Find(1)
	if it0 == nil || it1 == nil {
		t.Fatal("expected items at MID 0 and 1")
	}
	if it0.Units[0] != 'A' || it1.Units[0] != 'B' {
		t.Fatalf("decoded text wrong: item0=%v item1=%v", it0.Units, it1.Units)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data := buildMinimalFile()
	b, err := DecodeBinary(data, DefaultConfig(), DefaultHooks())
	if err != nil {
		t.Fatalf("DecodeBinary: %v", err)
	}

	out, err := b.EncodeBinary()
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round trip mismatch:\n got  %x\n want %x", out, data)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	data := buildMinimalFile()
	data[0] = 'X'
	if _, err := DecodeBinary(data, DefaultConfig(), DefaultHooks()); err == nil {
		t.Fatal("expected an error for a corrupted magic")
	}
}
