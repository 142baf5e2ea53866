// Package patch implements the BMG-to-BMG merge algebra: a small set of
// named operations that combine a destination store with a source store
// (or a template/regex parameter) MID by MID. Every operation honors the
// condition-gating rule: an insert/overwrite/replace whose source item
// carries a non-zero Condition only takes effect when the destination
// already holds that MID.
package patch

import (
	"fmt"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/encoding"
	"github.com/wiidev/bmgtool/lib/bmg/escape"
)

// Op names one patch command.
type Op string

const (
	OpReplace   Op = "REPLACE"
	OpInsert    Op = "INSERT"
	OpOverwrite Op = "OVERWRITE"
	OpDelete    Op = "DELETE"
	OpMask      Op = "MASK"
	OpEqual     Op = "EQUAL"
	OpNotEqual  Op = "NOT-EQUAL"
	OpPrint     Op = "PRINT"

	OpFormat  Op = "FORMAT"
	OpRegex   Op = "REGEX"
	OpRMRegex Op = "RM-REGEX"

	OpGeneric Op = "GENERIC"
	OpID      Op = "ID"
	OpIDAll   Op = "ID-ALL"

	OpUnicode   Op = "UNICODE"
	OpRMEscapes Op = "RM-ESCAPES"

	OpCTCopy      Op = "CT-COPY"
	OpCTForceCopy Op = "CT-FORCE-COPY"
	OpCTFill      Op = "CT-FILL"
	OpLECopy      Op = "LE-COPY"
	OpLEForceCopy Op = "LE-FORCE-COPY"
	OpLEFill      Op = "LE-FILL"
	OpXCopy       Op = "X-COPY"
	OpXForceCopy  Op = "X-FORCE-COPY"
	OpXFill       Op = "X-FILL"
	OpRMFilled    Op = "RM-FILLED"
)

// Command carries every parameter any single Op might need; only the
// fields relevant to cmd.Op are read.
type Command struct {
	Op Op

	// FORMAT and PRINT.
	Template      string
	PrintFunc     func(mid bmg.Mid, rendered string)
	ContainerName func() string

	// REGEX / RM-REGEX.
	Expr    string
	Regexer Regexer

	// GENERIC.
	RefMids [3]bmg.Mid
	DstMids [3]bmg.Mid

	// ID / ID-ALL.
	Letter byte

	// CT-*/LE-*/X-* range copy and fill passes.
	FromRange         string
	ToRange           string
	FillLimit         int
	PlaceholderPrefix string
}

// cellAction is one table cell's effect on a destination entry.
type cellAction int

const (
	actKeep cellAction = iota
	actRemove
	actTakeB
	actPrint
)

type cellTable struct{ onlyA, onlyB, diff, equal cellAction }

var tableOps = map[Op]cellTable{
	OpReplace:   {actKeep, actRemove, actTakeB, actTakeB},
	OpInsert:    {actKeep, actTakeB, actKeep, actTakeB},
	OpOverwrite: {actKeep, actTakeB, actTakeB, actTakeB},
	OpDelete:    {actKeep, actRemove, actRemove, actRemove},
	OpMask:      {actRemove, actRemove, actKeep, actKeep},
	OpEqual:     {actRemove, actRemove, actRemove, actKeep},
	OpNotEqual:  {actRemove, actRemove, actKeep, actRemove},
	OpPrint:     {actKeep, actRemove, actPrint, actPrint},
}

// Apply runs cmd against dst, consulting src where the command needs a
// second store (every table op, REGEX's rescanning aside, GENERIC, and
// the CT/LE/X copy passes). src may be nil for ops that don't need one
// (FORMAT, REGEX, RM-REGEX, ID, ID-ALL, UNICODE, RM-ESCAPES, RM-FILLED,
// *-FILL).
func Apply(dst, src *bmg.Bmg, cmd Command) error {
	if t, ok := tableOps[cmd.Op]; ok {
		if src == nil {
			return fmt.Errorf("patch: %s requires a source store", cmd.Op)
		}
		return applyTable(dst, src, t, cmd)
	}

	switch cmd.Op {
	case OpFormat:
		return applyFormat(dst, cmd.Template, cmd.ContainerName)
	case OpRegex:
		return applyRegex(dst, cmd.Expr, false, cmd.Regexer)
	case OpRMRegex:
		return applyRegex(dst, cmd.Expr, true, cmd.Regexer)
	case OpGeneric:
		if src == nil {
			return fmt.Errorf("patch: GENERIC requires a source store")
		}
		return applyGeneric(dst, src, cmd.RefMids, cmd.DstMids)
	case OpID:
		applyID(dst, cmd.Letter, false)
		return nil
	case OpIDAll:
		applyID(dst, cmd.Letter, true)
		return nil
	case OpUnicode:
		applyUnicodeNormalize(dst)
		return nil
	case OpRMEscapes:
		applyRMEscapes(dst)
		return nil
	case OpCTCopy, OpCTForceCopy, OpCTFill, OpLECopy, OpLEForceCopy, OpLEFill, OpXCopy, OpXForceCopy, OpXFill:
		return applyRangeOp(dst, src, cmd)
	case OpRMFilled:
		applyRMFilled(dst)
		return nil
	}
	return fmt.Errorf("patch: unknown op %q", cmd.Op)
}

// applyTable walks the union of dst's and src's MIDs (both stores keep
// items sorted by MID, so this is a merge, not a sort) and applies the
// op's cell action to each.
func applyTable(dst, src *bmg.Bmg, t cellTable, cmd Command) error {
	dstItems := dst.Items()
	srcItems := src.Items()
	dstMids := make([]bmg.Mid, len(dstItems))
	for i, it := range dstItems {
		dstMids[i] = it.Mid
	}

	var mids []bmg.Mid
	i, j := 0, 0
	for i < len(dstMids) || j < len(srcItems) {
		switch {
		case i < len(dstMids) && (j >= len(srcItems) || dstMids[i] < srcItems[j].Mid):
			mids = append(mids, dstMids[i])
			i++
		case j < len(srcItems) && (i >= len(dstMids) || srcItems[j].Mid < dstMids[i]):
			mids = append(mids, srcItems[j].Mid)
			j++
		default:
			mids = append(mids, dstMids[i])
			i++
			j++
		}
	}

	for _, mid := range mids {
		dstItem := dst.Find(mid)
		srcItem := src.Find(mid)

		var action cellAction
		switch {
		case dstItem != nil && srcItem == nil:
			action = t.onlyA
		case dstItem == nil && srcItem != nil:
			action = t.onlyB
		default:
			if equalUnits(dstItem.Units, srcItem.Units) {
				action = t.equal
			} else {
				action = t.diff
			}
		}

		switch action {
		case actKeep:
			// leave dst's entry (or absence of one) unchanged
		case actRemove:
			dst.Remove(mid)
		case actTakeB:
			if srcItem.Condition != 0 && dst.Find(srcItem.Condition) == nil {
				continue
			}
			newItem := &bmg.Item{
				Mid:        mid,
				Condition:  srcItem.Condition,
				Attrib:     srcItem.Attrib,
				AttribUsed: srcItem.AttribUsed,
				Units:      append([]uint16(nil), srcItem.Units...),
			}
			if dstItem != nil {
				newItem.HasSlot, newItem.Slot = dstItem.HasSlot, dstItem.Slot
			}
			dst.Insert(newItem)
		case actPrint:
			if cmd.PrintFunc == nil {
				continue
			}
			printItem := dstItem
			if printItem == nil {
				printItem = srcItem
			}
			rendered, err := renderTemplate(cmd.Template, dst, printItem, cmd.ContainerName)
			if err != nil {
				return err
			}
			cmd.PrintFunc(mid, rendered)
		}
	}
	return nil
}

func equalUnits(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// applyID prepends "<letter><mid-hex>:" to every message, or only to
// non-empty ones when all is false (the ID/ID-ALL distinction).
func applyID(dst *bmg.Bmg, letter byte, all bool) {
	if letter == 0 {
		letter = 'A'
	}
	for _, it := range append([]*bmg.Item(nil), dst.Items()...) {
		if !all && it.IsEmpty() {
			continue
		}
		prefix := fmt.Sprintf("%c%X:", letter, it.Mid)
		prefixUnits := make([]uint16, 0, len(prefix))
		for _, r := range prefix {
			prefixUnits = append(prefixUnits, uint16(r))
		}
		dst.Insert(&bmg.Item{
			Mid:        it.Mid,
			Condition:  it.Condition,
			HasSlot:    it.HasSlot,
			Slot:       it.Slot,
			Attrib:     it.Attrib,
			AttribUsed: it.AttribUsed,
			Units:      append(prefixUnits, it.Units...),
		})
	}
}

// applyUnicodeNormalize turns \u{}-style Unicode-literal opcodes
// (escape.GroupUnicode) back into plain code units when the target code
// point is >= 0x20, leaving every other opcode untouched.
func applyUnicodeNormalize(dst *bmg.Bmg) {
	for _, it := range append([]*bmg.Item(nil), dst.Items()...) {
		out, changed := normalizeUnicodeOpcodes(it.Units)
		if !changed {
			continue
		}
		dst.Insert(&bmg.Item{
			Mid: it.Mid, Condition: it.Condition, HasSlot: it.HasSlot, Slot: it.Slot,
			Attrib: it.Attrib, AttribUsed: it.AttribUsed, Units: out,
		})
	}
}

func normalizeUnicodeOpcodes(units []uint16) ([]uint16, bool) {
	var out []uint16
	changed := false
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u != encoding.OpcodeMarker {
			out = append(out, u)
			continue
		}
		group, payload, width := escape.OpcodeAt(units[i:])
		if group == escape.GroupUnicode && len(payload) >= 2 {
			v := uint32(payload[0])<<16 | uint32(payload[1])
			if v >= 0x20 && v <= 0xFFFF {
				out = append(out, uint16(v))
				i += width - 1
				changed = true
				continue
			}
		}
		out = append(out, units[i:i+width]...)
		i += width - 1
	}
	return out, changed
}

// applyRMEscapes strips every in-band opcode, leaving literal text only.
func applyRMEscapes(dst *bmg.Bmg) {
	for _, it := range append([]*bmg.Item(nil), dst.Items()...) {
		var out []uint16
		for i := 0; i < len(it.Units); i++ {
			u := it.Units[i]
			if u != encoding.OpcodeMarker {
				out = append(out, u)
				continue
			}
			_, _, width := escape.OpcodeAt(it.Units[i:])
			i += width - 1
		}
		dst.Insert(&bmg.Item{
			Mid: it.Mid, Condition: it.Condition, HasSlot: it.HasSlot, Slot: it.Slot,
			Attrib: it.Attrib, AttribUsed: it.AttribUsed, Units: out,
		})
	}
}
