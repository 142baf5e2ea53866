package bmg

import (
	"github.com/wiidev/bmgtool/lib/bmg/encoding"
	"github.com/wiidev/bmgtool/lib/bmg/endian"
)

const (
	infHeaderLen = 8 // n_msg:u16, inf_size:u16, unknown_0c:u32
	midHeaderLen = 8 // n_msg:u16, unknown_0a:u16, unknown_0c:u32

	maxAttrib = 40 // store's attribute vector capacity
)

// rawInfItem is one INF1 element as read off disk, before it's turned
// into a store Item (its offset is still a DAT1 byte offset, not yet
// resolved to decoded text).
type rawInfItem struct {
	mid        Mid
	offset     uint32
	attrib     [maxAttrib]byte
	attribUsed uint16
}

// DecodeBinary parses a complete binary BMG file into a new store, per the
// walker/raw-decoder design: sniff byte order, split into sections,
// interpret INF1/DAT1/MID1, and carry every other section through
// untouched when cfg.CarryRawSections is set (dropping it otherwise).
// Problems that a real file can plausibly contain (oversized attribute
// vectors, truncated INF1 elements, DAT1 offsets past the section end, an
// out-of-range encoding byte) are recorded as Diagnostics and recovered
// from rather than returned as errors; an unsorted or reserved-slot MID1
// table switches the store to predefined-slot mode without a diagnostic.
// Only structurally unreadable input fails outright.
func DecodeBinary(data []byte, cfg Config, hooks Hooks) (*Bmg, error) {
	order, ok := sniffOrder(data)
	if !ok {
		return nil, wrapErr(KindInvalidMagic, "could not determine byte order from header", nil)
	}
	hdr, err := parseHeader(data, order)
	if err != nil {
		return nil, err
	}
	spans, err := walkSections(data[headerLen:], order)
	if err != nil {
		return nil, err
	}

	b := NewWithConfig(cfg, hooks)
	b.Endian = order
	b.HeaderUnknown15 = hdr.Unknown15

	enc := encoding.Encoding(hdr.Encoding)
	if !enc.Valid() {
		b.Warnf(KindUnsupportedEncoding, "header encoding byte %d out of range, falling back to %s", hdr.Encoding, cfg.DefaultEncoding)
		enc = cfg.DefaultEncoding
	}
	b.Encoding = enc

	var inf, dat, mid *rawSectionSpan
	for i := range spans {
		s := &spans[i]
		switch classify(s.Magic) {
		case classInf1:
			if inf != nil {
				b.Warnf(KindUnknown, "duplicate INF1 section ignored")
				continue
			}
			inf = s
		case classDat1:
			if dat != nil {
				b.Warnf(KindUnknown, "duplicate DAT1 section ignored")
				continue
			}
			dat = s
		case classMid1:
			if mid != nil {
				b.Warnf(KindUnknown, "duplicate MID1 section ignored")
				continue
			}
			mid = s
		default:
			if cfg.CarryRawSections {
				b.AddRaw(s.Magic, s.Data)
			}
		}
	}

	if inf == nil || dat == nil {
		return nil, wrapErr(KindTruncatedSection, "file is missing its INF1 or DAT1 section", nil)
	}
	if len(inf.Data) < infHeaderLen {
		return nil, wrapErr(KindTruncatedSection, "INF1 section shorter than its own header", nil)
	}

	nMsg := int(order.Uint16(inf.Data[0:]))
	infSize := int(order.Uint16(inf.Data[2:]))
	b.Inf1Unknown0C = order.Uint32(inf.Data[4:])
	b.InfSize = uint16(infSize)
	if infSize < 4 || infSize > 1000 {
		return nil, wrapErr(KindInfSizeOutOfRange, "INF1 element size out of the supported [4,1000] range", nil)
	}
	attribBytes := infSize - 4
	storedAttribBytes := attribBytes
	if storedAttribBytes > maxAttrib {
		b.Warnf(KindInfSizeOutOfRange, "INF1 element attribute width %d exceeds %d, trailing lanes dropped", attribBytes, maxAttrib)
		storedAttribBytes = maxAttrib
	}

	var mids []uint32
	haveMid := mid != nil
	b.HaveMID = haveMid
	if haveMid {
		if len(mid.Data) < midHeaderLen {
			return nil, wrapErr(KindTruncatedSection, "MID1 section shorter than its own header", nil)
		}
		nMid := int(order.Uint16(mid.Data[0:]))
		b.Mid1Unknown0A = order.Uint16(mid.Data[2:])
		b.Mid1Unknown0C = order.Uint32(mid.Data[4:])
		mids = make([]uint32, 0, nMid)
		off := midHeaderLen
		for i := 0; i < nMid && off+4 <= len(mid.Data); i++ {
			mids = append(mids, order.Uint32(mid.Data[off:]))
			off += 4
		}
	} else {
		b.Mid1Unknown0A = 0x1000
	}

	items := make([]rawInfItem, 0, nMsg)
	off := infHeaderLen
	for i := 0; i < nMsg; i++ {
		if off+infSize > len(inf.Data) {
			b.Warnf(KindTruncatedSection, "INF1 element %d truncated, stopping early", i)
			break
		}
		var ri rawInfItem
		ri.offset = order.Uint32(inf.Data[off:])
		copy(ri.attrib[:], inf.Data[off+4:off+4+storedAttribBytes])
		ri.attribUsed = uint16(storedAttribBytes)
		if haveMid && i < len(mids) {
			ri.mid = mids[i]
		} else {
			ri.mid = Mid(i)
		}
		items = append(items, ri)
		off += infSize
	}

	if cfg.DefaultAttribUsed == 0 {
		b.Config.DefaultAttrib, b.Config.DefaultAttribUsed = majorityAttrib(items, order, storedAttribBytes)
	}

	predefinedSlots := false
	if haveMid {
		sorted := true
		for i := 1; i < len(items); i++ {
			if items[i].mid < items[i-1].mid {
				sorted = false
				break
			}
		}
		reserved := false
		for _, it := range items {
			if it.mid == 0xFFFF && it.offset == 0 {
				reserved = true
				break
			}
		}
		predefinedSlots = !sorted || reserved
	}

	for slot, ri := range items {
		item := &Item{
			Mid:        ri.mid,
			Attrib:     ri.attrib,
			AttribUsed: ri.attribUsed,
		}
		if predefinedSlots {
			item.HasSlot = true
			item.Slot = uint16(slot)
		}
		if ri.offset == 0 {
			item.Deleted = true
		} else if int(ri.offset) < len(dat.Data) {
			units, _ := encoding.Decode(dat.Data[ri.offset:], enc, order)
			item.Units = units
		} else {
			b.Warnf(KindTruncatedSection, "item mid %#x has a DAT1 offset past end of section", ri.mid)
		}
		b.Insert(item)
	}

	return b, nil
}

// majorityAttrib infers the store's default attribute vector by taking,
// for each 4-byte lane up to n bytes, the most frequent lane value across
// every item's attribute vector (spec §4.5 step 2).
func majorityAttrib(items []rawInfItem, order endian.Order, n int) ([maxAttrib]byte, uint16) {
	var out [maxAttrib]byte
	if len(items) == 0 || n == 0 {
		return out, uint16(n)
	}
	lanes := n / 4
	for lane := 0; lane < lanes; lane++ {
		counts := make(map[uint32]int, len(items))
		var best uint32
		bestCount := 0
		for _, it := range items {
			v := order.Uint32(it.attrib[lane*4:])
			counts[v]++
			if counts[v] > bestCount {
				bestCount = counts[v]
				best = v
			}
		}
		order.PutUint32(out[lane*4:], best)
	}
	return out, uint16(n)
}
