package bmg

import (
	"fmt"
	"sort"

	"github.com/wiidev/bmgtool/lib/bmg/encoding"
	"github.com/wiidev/bmgtool/lib/bmg/endian"
)

// RawSection is an unrecognized or intentionally-passed-through section
// (STR1, FLW1, FLI1, or anything this module doesn't parse), kept verbatim
// so a decode/encode round trip never drops file content the original
// game engine might still need (spec §4.2/§7, Config.CarryRawSections).
type RawSection struct {
	Magic [4]byte
	Data  []byte // full section body, magic and size field excluded
}

// Bmg is one BMG message container: a MID-sorted set of Items plus the
// file-level metadata a binary round trip must preserve.
type Bmg struct {
	Config Config
	Hooks  Hooks

	// Macros is an optional secondary store the text scanner resolves
	// `\m{}` references against; when nil, the scanner resolves them
	// against the store being scanned.
	Macros *Bmg

	items []*Item // kept sorted by Mid ascending

	rawSections []*RawSection

	HaveMID  bool
	Encoding encoding.Encoding
	Endian   endian.Order
	InfSize  uint16

	// The three header words that must round-trip unchanged even though
	// this module assigns them no behavior: INF1's unknown_0c, and MID1's
	// unknown_0a (conventionally 0x1000) and unknown_0c.
	Inf1Unknown0C uint32
	Mid1Unknown0A uint16
	Mid1Unknown0C uint32

	// HeaderUnknown15 is the file header's 15 passthrough bytes (offsets
	// 0x11-0x1F), preserved verbatim across a round trip.
	HeaderUnknown15 [15]byte

	FileName string

	Diagnostics []Diagnostic
}

// NewWithConfig returns an empty store using cfg's defaults and hooks. Passing a zero Config
// is valid but almost certainly wrong; callers should start from
// DefaultConfig.
func NewWithConfig(cfg Config, hooks Hooks) *Bmg {
	return &Bmg{
		Config:        cfg,
		Hooks:         hooks,
		Encoding:      cfg.DefaultEncoding,
		Endian:        cfg.DefaultEndian,
		InfSize:       cfg.InfSize,
		Mid1Unknown0A: 0x1000,
	}
}

// New returns an empty store using DefaultConfig and DefaultHooks.
func New() *Bmg {
	return NewWithConfig(DefaultConfig(), DefaultHooks())
}

// Len returns the number of items in the store, including deleted-sentinel entries.
func (b *Bmg) Len() int { return len(b.items) }

// Items returns the store's items in ascending MID order. The returned
// slice aliases the store's internal storage and must not be mutated by
// the caller; use Find/Insert/Delete to modify items.
func (b *Bmg) Items() []*Item { return b.items }

// search returns the index of mid in b.items, and whether it was found.
func (b *Bmg) search(mid Mid) (int, bool) {
	i := sort.Search(len(b.items), func(i int) bool { return b.items[i].Mid >= mid })
	if i < len(b.items) && b.items[i].Mid == mid {
		return i, true
	}
	return i, false
}

// Find returns the item with the given MID, or nil if none exists.
func (b *Bmg) Find(mid Mid) *Item {
	if i, ok := b.search(mid); ok {
		return b.items[i]
	}
	return nil
}

// Insert adds item to the store, replacing any existing item with the
// same MID. The store takes ownership of a clone of item; later mutation
// of the argument by the caller does not affect the stored copy.
func (b *Bmg) Insert(item *Item) *Item {
	stored := item.clone()
	i, ok := b.search(item.Mid)
	if ok {
		b.items[i] = stored
		return stored
	}
	b.items = append(b.items, nil)
	copy(b.items[i+1:], b.items[i:])
	b.items[i] = stored
	return stored
}

// InsertText is a convenience wrapper around Insert for the common case of
// inserting plain text with the store's default attributes.
func (b *Bmg) InsertText(mid Mid, units []uint16) *Item {
	return b.Insert(&Item{
		Mid:        mid,
		Attrib:     b.Config.DefaultAttrib,
		AttribUsed: b.Config.DefaultAttribUsed,
		Units:      units,
	})
}

// Delete replaces the item at mid with the explicit-empty sentinel rather
// than removing it from the store outright, so a predefined slot
// (Item.HasSlot) stays reserved for a possible later re-insert. Reports
// whether an item existed at mid.
func (b *Bmg) Delete(mid Mid) bool {
	i, ok := b.search(mid)
	if !ok {
		return false
	}
	old := b.items[i]
	b.items[i] = &Item{
		Mid:        mid,
		HasSlot:    old.HasSlot,
		Slot:       old.Slot,
		Attrib:     b.Config.DefaultAttrib,
		AttribUsed: b.Config.DefaultAttribUsed,
		Deleted:    true,
	}
	return true
}

// Remove drops the item at mid from the store entirely, forgetting any
// predefined slot it held. Unlike Delete this is not the "tombstone" the
// binary format's predefined-slot mode expects; prefer Delete unless the
// caller is certain no encoder will try to honor the old slot.
func (b *Bmg) Remove(mid Mid) bool {
	i, ok := b.search(mid)
	if !ok {
		return false
	}
	b.items = append(b.items[:i], b.items[i+1:]...)
	return true
}

// CopyAttrib copies src's attribute vector onto dst following the rule in
// the format's attribute-copy design note: ForceAttrib unconditionally
// overwrites; otherwise dst.AttribUsed becomes min(cfg.DefaultAttribUsed,
// src.AttribUsed) and only that many leading bytes are copied, and dst's
// slot is overwritten with src's slot only when src has one.
func (b *Bmg) CopyAttrib(dst, src *Item) {
	if b.Config.ForceAttrib {
		dst.Attrib = src.Attrib
		dst.AttribUsed = src.AttribUsed
	} else {
		n := b.Config.DefaultAttribUsed
		if src.AttribUsed < n {
			n = src.AttribUsed
		}
		dst.Attrib = [40]byte{}
		copy(dst.Attrib[:n], src.Attrib[:n])
		dst.AttribUsed = n
	}
	if src.HasSlot {
		dst.HasSlot = true
		dst.Slot = src.Slot
	}
}

// AddRaw appends a passthrough section, preserving the order sections
// appeared in the source file.
func (b *Bmg) AddRaw(magic [4]byte, data []byte) {
	b.rawSections = append(b.rawSections, &RawSection{Magic: magic, Data: append([]byte(nil), data...)})
}

// RawSections returns the store's passthrough sections in file order.
func (b *Bmg) RawSections() []*RawSection { return b.rawSections }

// Warnf records a non-fatal decode diagnostic.
func (b *Bmg) Warnf(kind Kind, format string, args ...any) {
	b.Diagnostics = append(b.Diagnostics, Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
}
