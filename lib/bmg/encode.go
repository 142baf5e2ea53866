package bmg

import (
	"github.com/wiidev/bmgtool/lib/bmg/encoding"
	"github.com/wiidev/bmgtool/lib/bmg/endian"
)

// EncodeBinary serialises the store to a byte-exact binary BMG file,
// honoring its configured encoding, byte order, INF1 element size and
// section alignment. Slot assignment (when predefined slots are kept)
// follows the two-pass rule in the raw-encoder design: items with a
// still-valid predefined slot keep it, everything else fills the
// remaining positions in ascending MID order, and a slot collision
// demotes the later item to the second pass.
func (b *Bmg) EncodeBinary() ([]byte, error) {
	infSize := int(b.InfSize)
	if infSize == 0 {
		infSize = 8
	}
	if infSize < 4 || infSize > 1000 {
		return nil, wrapErr(KindInfSizeOutOfRange, "InfSize out of the supported [4,1000] range", nil)
	}
	attribWidth := infSize - 4

	order := b.Endian
	if order == nil {
		order = b.Config.DefaultEndian
	}
	enc := b.Encoding
	legacy := b.Config.Legacy
	if legacy {
		enc = encoding.CP1252
	}

	slots := assignSlots(b.items, b.Config.KeepPredefinedSlots)

	inf := make([]byte, infHeaderLen)
	order.PutUint16(inf[0:], uint16(len(slots)))
	order.PutUint16(inf[2:], uint16(infSize))
	order.PutUint32(inf[4:], b.Inf1Unknown0C)

	dat := make([]byte, 0, 256)
	dat = append(dat, encoding.TerminatorBytes(enc)...) // offset 0 reserved for deleted/empty sentinel

	var midBody []byte
	if b.HaveMID {
		midBody = make([]byte, midHeaderLen)
		order.PutUint16(midBody[0:], uint16(len(slots)))
		order.PutUint16(midBody[2:], b.Mid1Unknown0A)
		order.PutUint32(midBody[4:], b.Mid1Unknown0C)
	}

	for _, item := range slots {
		var offset uint32
		if !item.Deleted {
			offset = uint32(len(dat))
			dat = append(dat, encoding.Encode(item.Units, enc, order)...)
			dat = append(dat, encoding.TerminatorBytes(enc)...)
		}

		entry := make([]byte, 4, infSize)
		order.PutUint32(entry, offset)
		attrib := make([]byte, attribWidth)
		n := int(item.AttribUsed)
		if n > attribWidth {
			n = attribWidth
		}
		if n > len(item.Attrib) {
			n = len(item.Attrib)
		}
		copy(attrib[:n], item.Attrib[:n])
		entry = append(entry, attrib...)
		inf = append(inf, entry...)

		if b.HaveMID {
			buf := make([]byte, 4)
			order.PutUint32(buf, item.Mid)
			midBody = append(midBody, buf...)
		}
	}

	align := b.Config.Alignment
	if align == 0 {
		align = 32
	}

	out := make([]byte, 0, headerLen+len(inf)+len(dat)+len(midBody)+len(b.rawSections)*16)
	out = append(out, magicFile...)
	sizePos := len(out)
	out = append(out, 0, 0, 0, 0) // total size, patched below
	nSections := uint32(2 + len(b.rawSections))
	if b.HaveMID {
		nSections++
	}
	nSectionsBuf := make([]byte, 4)
	order.PutUint32(nSectionsBuf, nSections)
	out = append(out, nSectionsBuf...)
	if legacy {
		out = append(out, 0)
	} else {
		out = append(out, byte(enc))
	}
	out = append(out, b.HeaderUnknown15[:]...)

	out = appendSection(out, "INF1", inf, align, order)
	out = appendSection(out, "DAT1", dat, align, order)
	if b.HaveMID {
		out = appendSection(out, "MID1", midBody, align, order)
	}
	for _, raw := range b.rawSections {
		out = appendSection(out, string(raw.Magic[:]), raw.Data, align, order)
	}

	totalSize := uint32(len(out))
	if legacy {
		const legacyBlockSize = 32 // unit of the legacy header size field
		order.PutUint32(out[sizePos:], totalSize/legacyBlockSize)
	} else {
		order.PutUint32(out[sizePos:], totalSize)
	}

	return out, nil
}

// appendSection writes magic + be_size + payload, padded up to align
// bytes (the last section in a file need not be padded by the caller;
// appendSection pads unconditionally and the caller trims nothing since
// BMG readers tolerate trailing padding on the final section too).
func appendSection(out []byte, magic string, payload []byte, align uint32, order endian.Order) []byte {
	total := sectionHeaderLen + len(payload)
	padded := total
	if align > 0 {
		if rem := uint32(total) % align; rem != 0 {
			padded += int(align - rem)
		}
	}
	out = append(out, magic...)
	sizeBuf := make([]byte, 4)
	order.PutUint32(sizeBuf, uint32(padded))
	out = append(out, sizeBuf...)
	out = append(out, payload...)
	if pad := padded - total; pad > 0 {
		out = append(out, make([]byte, pad)...)
	}
	return out
}

// assignSlots lays out items into slot positions. When useSlots is false
// (or no item carries a predefined slot), items simply keep their sorted
// MID order. Otherwise: items with a still-unclaimed predefined slot
// within range keep it; every other item fills the remaining slots in
// ascending MID order.
func assignSlots(items []*Item, useSlots bool) []*Item {
	if !useSlots {
		return items
	}
	hasSlot := false
	for _, it := range items {
		if it.HasSlot {
			hasSlot = true
			break
		}
	}
	if !hasSlot {
		return items
	}

	n := len(items)
	slots := make([]*Item, n)
	used := make([]bool, n)
	var leftover []*Item
	for _, it := range items {
		if it.HasSlot && int(it.Slot) < n && !used[it.Slot] {
			slots[it.Slot] = it
			used[it.Slot] = true
		} else {
			leftover = append(leftover, it)
		}
	}
	li := 0
	for i := 0; i < n; i++ {
		if slots[i] == nil {
			slots[i] = leftover[li]
			li++
		}
	}
	return slots
}
