package bmg

// Mid is a 32-bit Message ID, the store's sort and lookup key.
type Mid = uint32

// NoSlot marks a predefined-slot-mode reserved entry: MID 0xFFFF paired
// with a null DAT1 offset (spec §3's Item.slot / §4.5's decode step 4).
const NoSlot uint16 = 0xFFFF

// Item is one live message record. Deleted items are kept in the store
// (so a predefined slot can be re-used on encode) with Deleted set and
// their attributes reset to the store default; see Bmg.Delete.
type Item struct {
	Mid Mid

	// Condition is 0 or a MID that must already exist in the destination
	// store for this item to take effect while patching (spec §4.8).
	Condition Mid

	// HasSlot/Slot record a predefined MID1 slot index; HasSlot is false
	// when the item was never pinned to a file position.
	HasSlot bool
	Slot    uint16

	Attrib     [40]byte
	AttribUsed uint16

	// Units holds the message text as 16-bit code units. In-band 0x1A
	// opcodes are preserved verbatim inside this slice (encoding.OpcodeMarker,
	// then a unit holding the on-disk length byte, then the raw payload units).
	Units []uint16

	// Deleted marks the explicit-empty sentinel produced by Bmg.Delete:
	// distinct from a legitimately empty (zero-length) message, so a
	// re-inserted MID can tell "never written" from "explicitly cleared".
	Deleted bool
}

// Len returns the message length in code units.
func (it *Item) Len() int { return len(it.Units) }

// IsEmpty reports whether the item carries no text, whether because it
// was deleted or because it was inserted with empty text.
func (it *Item) IsEmpty() bool { return it.Deleted || len(it.Units) == 0 }

// clone returns a deep copy so store mutations never alias a caller's Item.
func (it *Item) clone() *Item {
	c := *it
	if it.Units != nil {
		c.Units = append([]uint16(nil), it.Units...)
	}
	return &c
}
