package patch

import (
	"fmt"
	"regexp"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/escape"
	"github.com/wiidev/bmgtool/lib/bmg/tables"
)

// applyRangeOp dispatches the CT-/LE-/X- range-parallel copy and fill
// family. The *-COPY and *-FORCE-COPY ops need both cmd.FromRange and
// cmd.ToRange; the *-FILL ops need only cmd.FromRange, naming the single
// range to fill.
func applyRangeOp(dst, src *bmg.Bmg, cmd Command) error {
	switch cmd.Op {
	case OpCTCopy, OpLECopy, OpXCopy:
		if src == nil {
			return fmt.Errorf("patch: %s requires a source store", cmd.Op)
		}
		return rangeCopy(dst, src, cmd.FromRange, cmd.ToRange, false)
	case OpCTForceCopy, OpLEForceCopy, OpXForceCopy:
		if src == nil {
			return fmt.Errorf("patch: %s requires a source store", cmd.Op)
		}
		return rangeCopy(dst, src, cmd.FromRange, cmd.ToRange, true)
	case OpCTFill, OpLEFill, OpXFill:
		return rangeFill(dst, cmd.FromRange, cmd.FillLimit, cmd.PlaceholderPrefix)
	}
	return fmt.Errorf("patch: %s is not a range op", cmd.Op)
}

func findRange(name string) (tables.Range, bool) {
	for _, r := range tables.Ranges {
		if r.Name == name {
			return r, true
		}
	}
	return tables.Range{}, false
}

// rangeCopy copies src's items in fromRangeName into dst's toRangeName,
// offset for offset, stopping at whichever range is shorter. A
// destination slot that already holds a non-empty item is left alone
// unless force is set.
func rangeCopy(dst, src *bmg.Bmg, fromRangeName, toRangeName string, force bool) error {
	from, ok := findRange(fromRangeName)
	if !ok {
		return fmt.Errorf("patch: unknown range %q", fromRangeName)
	}
	to, ok := findRange(toRangeName)
	if !ok {
		return fmt.Errorf("patch: unknown range %q", toRangeName)
	}

	n := to.End - to.Begin
	if w := from.End - from.Begin; w < n {
		n = w
	}

	for offset := uint32(0); offset < n; offset++ {
		fromMid := bmg.Mid(from.Begin + offset)
		toMid := bmg.Mid(to.Begin + offset)

		srcItem := src.Find(fromMid)
		if srcItem == nil {
			continue
		}

		existing := dst.Find(toMid)
		if existing != nil && !existing.IsEmpty() && !force {
			continue
		}
		if srcItem.Condition != 0 && dst.Find(srcItem.Condition) == nil {
			continue
		}

		newItem := &bmg.Item{
			Mid:        toMid,
			Condition:  srcItem.Condition,
			Attrib:     srcItem.Attrib,
			AttribUsed: srcItem.AttribUsed,
			Units:      append([]uint16(nil), srcItem.Units...),
		}
		if existing != nil {
			newItem.HasSlot, newItem.Slot = existing.HasSlot, existing.Slot
		}
		dst.Insert(newItem)
	}
	return nil
}

// placeholderPattern matches the synthesized text rangeFill writes, so
// RM-FILLED can find and remove it again.
var placeholderPattern = regexp.MustCompile(`^_[0-9A-Za-z]*_$`)

// rangeFill synthesizes placeholder text ("_<prefix><hex-offset>_") for
// every empty slot in rangeName, up to limit entries (0 means no limit).
func rangeFill(dst *bmg.Bmg, rangeName string, limit int, placeholderPrefix string) error {
	r, ok := findRange(rangeName)
	if !ok {
		return fmt.Errorf("patch: unknown range %q", rangeName)
	}

	filled := 0
	for mid := r.Begin; mid < r.End; mid++ {
		if limit > 0 && filled >= limit {
			break
		}
		m := bmg.Mid(mid)
		if existing := dst.Find(m); existing != nil && !existing.IsEmpty() {
			continue
		}
		text := fmt.Sprintf("_%s%X_", placeholderPrefix, mid-r.Begin)
		units, err := escape.Scan(text, escape.Options{ColorTier: dst.Config.ColorTier})
		if err != nil {
			return fmt.Errorf("patch: internal error synthesizing placeholder: %w", err)
		}
		dst.InsertText(m, units)
		filled++
	}
	return nil
}

// applyRMFilled removes every item whose rendered text matches the
// placeholder pattern rangeFill synthesizes.
func applyRMFilled(dst *bmg.Bmg) {
	for _, it := range append([]*bmg.Item(nil), dst.Items()...) {
		text := escape.Emit(it.Units, escape.Options{ColorTier: dst.Config.ColorTier})
		if placeholderPattern.MatchString(text) {
			dst.Remove(it.Mid)
		}
	}
}
