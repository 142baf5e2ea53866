package endian

import "testing"

func TestRoundTripSizes(t *testing.T) {
	sizes := []int{2, 3, 4, 5, 6, 7, 8}
	for _, order := range []Order{Big, Little} {
		for _, n := range sizes {
			b := make([]byte, n)
			var want uint64 = 0x0102030405060708 >> uint((8-n)*8)
			switch n {
			case 2:
				order.PutUint16(b, uint16(want))
				if got := uint64(order.Uint16(b)); got != want {
					t.Fatalf("%s Uint16: got %x want %x", order.Name(), got, want)
				}
			case 3:
				order.PutUint24(b, uint32(want))
				if got := uint64(order.Uint24(b)); got != want {
					t.Fatalf("%s Uint24: got %x want %x", order.Name(), got, want)
				}
			case 4:
				order.PutUint32(b, uint32(want))
				if got := uint64(order.Uint32(b)); got != want {
					t.Fatalf("%s Uint32: got %x want %x", order.Name(), got, want)
				}
			case 5:
				order.PutUint40(b, want)
				if got := order.Uint40(b); got != want {
					t.Fatalf("%s Uint40: got %x want %x", order.Name(), got, want)
				}
			case 6:
				order.PutUint48(b, want)
				if got := order.Uint48(b); got != want {
					t.Fatalf("%s Uint48: got %x want %x", order.Name(), got, want)
				}
			case 7:
				order.PutUint56(b, want)
				if got := order.Uint56(b); got != want {
					t.Fatalf("%s Uint56: got %x want %x", order.Name(), got, want)
				}
			case 8:
				order.PutUint64(b, want)
				if got := order.Uint64(b); got != want {
					t.Fatalf("%s Uint64: got %x want %x", order.Name(), got, want)
				}
			}
		}
	}
}

func TestFloatRoundTrip(t *testing.T) {
	b32 := make([]byte, 4)
	Big.PutFloat32(b32, 3.5)
	if got := Big.Float32(b32); got != 3.5 {
		t.Fatalf("Float32: got %v want 3.5", got)
	}

	b64 := make([]byte, 8)
	Little.PutFloat64(b64, -2.25)
	if got := Little.Float64(b64); got != -2.25 {
		t.Fatalf("Float64: got %v want -2.25", got)
	}
}

func TestByName(t *testing.T) {
	if o, ok := ByName("be"); !ok || o != Big {
		t.Fatalf("ByName(be) failed")
	}
	if o, ok := ByName("le"); !ok || o != Little {
		t.Fatalf("ByName(le) failed")
	}
	if _, ok := ByName("nope"); ok {
		t.Fatalf("ByName(nope) should fail")
	}
}
