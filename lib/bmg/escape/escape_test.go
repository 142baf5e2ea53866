package escape

import (
	"reflect"
	"testing"

	"github.com/wiidev/bmgtool/lib/bmg/encoding"
	"github.com/wiidev/bmgtool/lib/bmg/tables"
)

func TestScanPlainAndControlEscapes(t *testing.T) {
	units, err := Scan(`Line1\nLine2\t!`, Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []uint16{'L', 'i', 'n', 'e', '1', '\n', 'L', 'i', 'n', 'e', '2', '\t', '!'}
	if !reflect.DeepEqual(units, want) {
		t.Fatalf("units = %v, want %v", units, want)
	}
}

func TestScanHexUnits(t *testing.T) {
	units, err := Scan(`\x{1B,5B}`, Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []uint16{0x1B, 0x5B}
	if !reflect.DeepEqual(units, want) {
		t.Fatalf("units = %v, want %v", units, want)
	}
}

func TestScanColorByName(t *testing.T) {
	units, err := Scan(`\c{RED}`, Options{ColorTier: tables.ColorTierFull})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(units) != 4 || units[0] != encoding.OpcodeMarker {
		t.Fatalf("units = %v, want a 4-unit colour opcode", units)
	}
	code, _ := tables.ColorByName("RED", tables.ColorTierFull)
	if units[3] != code {
		t.Fatalf("payload code = %#x, want %#x", units[3], code)
	}
}

func TestScanUnicodeLiteral(t *testing.T) {
	units, err := Scan(`\u{1F600}`, Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	// marker, length, group(0x0801), high, low
	if len(units) != 5 || units[0] != encoding.OpcodeMarker {
		t.Fatalf("units = %v, want a 5-unit unicode opcode", units)
	}
	got := uint32(units[3])<<16 | uint32(units[4])
	if got != 0x1F600 {
		t.Fatalf("decoded literal = %#x, want 0x1F600", got)
	}
}

func TestScanMacro(t *testing.T) {
	called := false
	units, err := Scan(`\m{2A}`, Options{Macro: func(mids []uint32) ([]uint16, error) {
		called = true
		if len(mids) != 1 || mids[0] != 0x2A {
			t.Fatalf("mids = %v, want [0x2A]", mids)
		}
		return []uint16{'h', 'i'}, nil
	}})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !called {
		t.Fatal("macro resolver was not invoked")
	}
	if !reflect.DeepEqual(units, []uint16{'h', 'i'}) {
		t.Fatalf("units = %v, want [h i]", units)
	}
}

func TestScanMacroWithoutResolverErrors(t *testing.T) {
	if _, err := Scan(`\m{1}`, Options{}); err == nil {
		t.Fatal("expected an error when \\m{} has no macro resolver")
	}
}

func TestEmitRoundTripsColorAndUnicode(t *testing.T) {
	src := `A\c{RED}B\u{1F600}C`
	units, err := Scan(src, Options{ColorTier: tables.ColorTierFull})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	got := Emit(units, Options{ColorTier: tables.ColorTierFull})
	if got != src {
		t.Fatalf("Emit(Scan(%q)) = %q, want %q", src, got, src)
	}
}

func TestEmitGenericOpcode(t *testing.T) {
	units, err := Scan(`\z{900,1,2}`, Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	got := Emit(units, Options{})
	if got != `\z{900,1,2}` {
		t.Fatalf("Emit = %q, want \\z{900,1,2}", got)
	}
}

func TestScanDanglingBackslashErrors(t *testing.T) {
	if _, err := Scan(`foo\`, Options{}); err == nil {
		t.Fatal("expected error for dangling backslash")
	}
}
