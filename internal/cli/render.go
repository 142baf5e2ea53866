package cli

import (
	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/escape"
)

// renderItemText renders an item's units to escaped text using store's
// configured color tier, the same rendering the patch engine and the text
// emitter use internally.
func renderItemText(store *bmg.Bmg, it *bmg.Item) string {
	return escape.Emit(it.Units, escape.Options{ColorTier: store.Config.ColorTier})
}
