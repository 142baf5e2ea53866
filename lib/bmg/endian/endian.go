// Package endian provides sized big/little-endian readers and writers for
// the odd integer widths the BMG container format uses (24, 40, 48, 56 bit
// lanes show up in vendor extensions of the INF1 attribute vector), plus the
// usual 16/32/64 bit and float widths.
//
// The rest of the bmg package is generic over the Order interface rather
// than hard-coding byte order, so a single decode/encode path serves both
// big-endian (the Wii/GameCube default) and little-endian (seen in some
// UTF-8 community tools) files.
package endian

import "math"

// Order reads and writes sized integers and floats in a fixed byte order.
type Order interface {
	Name() string

	Uint16(b []byte) uint16
	Uint24(b []byte) uint32
	Uint32(b []byte) uint32
	Uint40(b []byte) uint64
	Uint48(b []byte) uint64
	Uint56(b []byte) uint64
	Uint64(b []byte) uint64
	Float32(b []byte) float32
	Float64(b []byte) float64

	PutUint16(b []byte, v uint16)
	PutUint24(b []byte, v uint32)
	PutUint32(b []byte, v uint32)
	PutUint40(b []byte, v uint64)
	PutUint48(b []byte, v uint64)
	PutUint56(b []byte, v uint64)
	PutUint64(b []byte, v uint64)
	PutFloat32(b []byte, v float32)
	PutFloat64(b []byte, v float64)
}

// order implements Order for both byte orders; big selects which.
type order struct{ big bool }

// Big is the network/Wii-default byte order.
var Big Order = order{big: true}

// Little is the byte order used by some little-endian community tools.
var Little Order = order{big: false}

// ByName resolves "big"/"be" or "little"/"le" (case-sensitive lower) to an Order.
func ByName(name string) (Order, bool) {
	switch name {
	case "big", "be":
		return Big, true
	case "little", "le":
		return Little, true
	default:
		return nil, false
	}
}

func (o order) Name() string {
	if o.big {
		return "big"
	}
	return "little"
}

func (o order) uintN(b []byte, n int) uint64 {
	var v uint64
	if o.big {
		for i := 0; i < n; i++ {
			v = v<<8 | uint64(b[i])
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
	}
	return v
}

func (o order) putUintN(b []byte, v uint64, n int) {
	if o.big {
		for i := n - 1; i >= 0; i-- {
			b[i] = byte(v)
			v >>= 8
		}
	} else {
		for i := 0; i < n; i++ {
			b[i] = byte(v)
			v >>= 8
		}
	}
}

func (o order) Uint16(b []byte) uint16 { return uint16(o.uintN(b, 2)) }
func (o order) Uint24(b []byte) uint32 { return uint32(o.uintN(b, 3)) }
func (o order) Uint32(b []byte) uint32 { return uint32(o.uintN(b, 4)) }
func (o order) Uint40(b []byte) uint64 { return o.uintN(b, 5) }
func (o order) Uint48(b []byte) uint64 { return o.uintN(b, 6) }
func (o order) Uint56(b []byte) uint64 { return o.uintN(b, 7) }
func (o order) Uint64(b []byte) uint64 { return o.uintN(b, 8) }

func (o order) Float32(b []byte) float32 { return math.Float32frombits(o.Uint32(b)) }
func (o order) Float64(b []byte) float64 { return math.Float64frombits(o.Uint64(b)) }

func (o order) PutUint16(b []byte, v uint16) { o.putUintN(b, uint64(v), 2) }
func (o order) PutUint24(b []byte, v uint32) { o.putUintN(b, uint64(v), 3) }
func (o order) PutUint32(b []byte, v uint32) { o.putUintN(b, uint64(v), 4) }
func (o order) PutUint40(b []byte, v uint64) { o.putUintN(b, v, 5) }
func (o order) PutUint48(b []byte, v uint64) { o.putUintN(b, v, 6) }
func (o order) PutUint56(b []byte, v uint64) { o.putUintN(b, v, 7) }
func (o order) PutUint64(b []byte, v uint64) { o.putUintN(b, v, 8) }

func (o order) PutFloat32(b []byte, v float32) { o.PutUint32(b, math.Float32bits(v)) }
func (o order) PutFloat64(b []byte, v float64) { o.PutUint64(b, math.Float64bits(v)) }
