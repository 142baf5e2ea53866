package patch

import (
	"fmt"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/escape"
)

// applyGeneric looks at the three reference messages named by refMids,
// which are expected to share a common prefix and suffix around a
// per-message "variant" substring (e.g. three translations of "Press A",
// "Press B", "Press X" differing only in the button name), and writes
// that variant into the corresponding dstMids entry, carrying the
// destination's own prefix/suffix when one already exists there, or the
// reference's otherwise. This is a best-effort heuristic, not an exact
// algorithm: the spec leaves GENERIC's extraction rule loosely defined,
// and texts that don't actually share a common affix just copy straight
// through with no variant isolation.
func applyGeneric(dst, src *bmg.Bmg, refMids, dstMids [3]bmg.Mid) error {
	refTexts := [3]string{}
	for i, mid := range refMids {
		it := src.Find(mid)
		if it == nil {
			return fmt.Errorf("patch: GENERIC reference mid %#x not found in source", mid)
		}
		refTexts[i] = escape.Emit(it.Units, escape.Options{ColorTier: src.Config.ColorTier})
	}

	prefix := commonPrefix(refTexts[:])
	suffix := commonSuffix(refTexts[:], len(prefix))
	// A prefix and suffix derived independently can overlap on a short
	// reference string (e.g. "AB" with prefix "A" and suffix "B" leaves
	// no room for a variant); shrink the suffix rather than panic.
	for _, t := range refTexts {
		if over := len(prefix) + len(suffix) - len(t); over > 0 {
			suffix = suffix[over:]
		}
	}

	for i, mid := range dstMids {
		variant := refTexts[i][len(prefix) : len(refTexts[i])-len(suffix)]

		outPrefix, outSuffix := prefix, suffix
		if existing := dst.Find(mid); existing != nil {
			text := escape.Emit(existing.Units, escape.Options{ColorTier: dst.Config.ColorTier})
			if len(text) >= len(prefix)+len(suffix) {
				outPrefix = text[:len(prefix)]
				outSuffix = text[len(text)-len(suffix):]
			}
		}

		units, err := escape.Scan(outPrefix+variant+outSuffix, escape.Options{ColorTier: dst.Config.ColorTier})
		if err != nil {
			return fmt.Errorf("patch: GENERIC produced unparseable text for mid %#x: %w", mid, err)
		}
		existing := dst.Find(mid)
		item := &bmg.Item{Mid: mid, Units: units}
		if existing != nil {
			item.Condition, item.HasSlot, item.Slot = existing.Condition, existing.HasSlot, existing.Slot
			item.Attrib, item.AttribUsed = existing.Attrib, existing.AttribUsed
		} else {
			item.Attrib, item.AttribUsed = dst.Config.DefaultAttrib, dst.Config.DefaultAttribUsed
		}
		dst.Insert(item)
	}
	return nil
}

// commonPrefix returns the longest string every element of ss starts with.
func commonPrefix(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	prefix := ss[0]
	for _, s := range ss[1:] {
		n := 0
		for n < len(prefix) && n < len(s) && prefix[n] == s[n] {
			n++
		}
		prefix = prefix[:n]
	}
	return prefix
}

// commonSuffix returns the longest string every element of ss ends with,
// without overlapping back into the already-claimed prefix of length
// prefixLen.
func commonSuffix(ss []string, prefixLen int) string {
	if len(ss) == 0 {
		return ""
	}
	suffix := ss[0][prefixLen:]
	for _, s := range ss[1:] {
		body := s[prefixLen:]
		n := 0
		for n < len(suffix) && n < len(body) && suffix[len(suffix)-1-n] == body[len(body)-1-n] {
			n++
		}
		suffix = suffix[len(suffix)-n:]
	}
	return suffix
}
