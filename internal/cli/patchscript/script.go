// Package patchscript parses and runs a line-oriented driver script over
// lib/bmg/patch's command algebra: one directive per line, naming an Op and
// whatever source file/template/range arguments that Op needs. It is the
// bmgtool CLI's convenience format for chaining several patch commands
// against one destination store; lib/bmg/patch itself has no notion of a
// script or a file format.
package patchscript

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/escape"
	"github.com/wiidev/bmgtool/lib/bmg/patch"
)

// Line is one parsed script directive.
type Line struct {
	Num int
	Cmd patch.Command
	Src string // path to the source .bmg file, "" if this op needs none
}

// Parse reads script line by line. Blank lines and lines starting with '#'
// are ignored. Each remaining line is "OP arg1 arg2 ...", with the
// arguments an Op needs documented on the Op constants below.
func Parse(script string) ([]Line, error) {
	var lines []Line
	scanner := bufio.NewScanner(strings.NewReader(script))
	num := 0
	for scanner.Scan() {
		num++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		line, err := parseLine(raw, num)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("patchscript: reading script: %w", err)
	}
	return lines, nil
}

func parseLine(raw string, num int) (Line, error) {
	op, rest := splitFirst(raw)
	cmd := patch.Command{Op: patch.Op(op)}
	line := Line{Num: num, Cmd: cmd}

	switch patch.Op(op) {
	case patch.OpReplace, patch.OpInsert, patch.OpOverwrite, patch.OpDelete,
		patch.OpMask, patch.OpEqual, patch.OpNotEqual:
		src, _ := splitFirst(rest)
		if src == "" {
			return line, fmt.Errorf("patchscript: line %d: %s requires a source file argument", num, op)
		}
		line.Src = src

	case patch.OpPrint:
		src, tmpl := splitFirst(rest)
		if src == "" {
			return line, fmt.Errorf("patchscript: line %d: PRINT requires a source file argument", num)
		}
		line.Src = src
		line.Cmd.Template = tmpl

	case patch.OpFormat:
		line.Cmd.Template = rest

	case patch.OpRegex, patch.OpRMRegex:
		line.Cmd.Expr = rest

	case patch.OpGeneric:
		src, tail := splitFirst(rest)
		if src == "" {
			return line, fmt.Errorf("patchscript: line %d: GENERIC requires a source file argument", num)
		}
		line.Src = src
		refCSV, dstCSV := splitFirst(tail)
		refs, err := parseMidTriple(refCSV)
		if err != nil {
			return line, fmt.Errorf("patchscript: line %d: %w", num, err)
		}
		dsts, err := parseMidTriple(dstCSV)
		if err != nil {
			return line, fmt.Errorf("patchscript: line %d: %w", num, err)
		}
		line.Cmd.RefMids = refs
		line.Cmd.DstMids = dsts

	case patch.OpID, patch.OpIDAll:
		letter, _ := splitFirst(rest)
		if letter != "" {
			line.Cmd.Letter = letter[0]
		}

	case patch.OpUnicode, patch.OpRMEscapes, patch.OpRMFilled:
		// no arguments

	case patch.OpCTCopy, patch.OpCTForceCopy, patch.OpLECopy, patch.OpLEForceCopy,
		patch.OpXCopy, patch.OpXForceCopy:
		src, tail := splitFirst(rest)
		if src == "" {
			return line, fmt.Errorf("patchscript: line %d: %s requires a source file argument", num, op)
		}
		line.Src = src
		from, to := splitFirst(tail)
		if from == "" || to == "" {
			return line, fmt.Errorf("patchscript: line %d: %s requires \"<from-range> <to-range>\"", num, op)
		}
		line.Cmd.FromRange = from
		line.Cmd.ToRange = to

	case patch.OpCTFill, patch.OpLEFill, patch.OpXFill:
		rangeName, tail := splitFirst(rest)
		if rangeName == "" {
			return line, fmt.Errorf("patchscript: line %d: %s requires a range name argument", num, op)
		}
		line.Cmd.FromRange = rangeName
		limitStr, prefix := splitFirst(tail)
		if limitStr != "" {
			n, err := strconv.Atoi(limitStr)
			if err != nil {
				return line, fmt.Errorf("patchscript: line %d: bad fill limit %q", num, limitStr)
			}
			line.Cmd.FillLimit = n
		}
		line.Cmd.PlaceholderPrefix = prefix

	default:
		return line, fmt.Errorf("patchscript: line %d: unknown op %q", num, op)
	}

	return line, nil
}

func parseMidTriple(csv string) ([3]bmg.Mid, error) {
	var out [3]bmg.Mid
	parts := strings.Split(csv, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("expected 3 comma-separated MIDs, got %q", csv)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 16, 32)
		if err != nil {
			return out, fmt.Errorf("bad hex mid %q: %w", p, err)
		}
		out[i] = bmg.Mid(v)
	}
	return out, nil
}

// splitFirst splits s on its first run of whitespace, returning the first
// field and the (space-trimmed) remainder. Either half may be empty.
func splitFirst(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i+1:], " \t")
}

// StoreLoader loads and caches the *bmg.Bmg a Line.Src path names.
type StoreLoader struct {
	cfg   bmg.Config
	hooks bmg.Hooks
	cache map[string]*bmg.Bmg
}

func NewStoreLoader(cfg bmg.Config, hooks bmg.Hooks) *StoreLoader {
	return &StoreLoader{cfg: cfg, hooks: hooks, cache: map[string]*bmg.Bmg{}}
}

func (l *StoreLoader) Load(path string) (*bmg.Bmg, error) {
	if store, ok := l.cache[path]; ok {
		return store, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("patchscript: reading %s: %w", path, err)
	}
	hooks := l.hooks
	hooks.ContainerName = func() string { return path }
	store, err := bmg.DecodeBinary(data, l.cfg, hooks)
	if err != nil {
		return nil, fmt.Errorf("patchscript: decoding %s: %w", path, err)
	}
	l.cache[path] = store
	return store, nil
}

// Run executes every parsed line against dst in order, consulting loader
// for any Line.Src path. filter, if non-nil, gates every command's
// per-item effect: after the command runs, any item it changed whose new
// text fails the filter is reverted to its pre-command value.
func Run(dst *bmg.Bmg, lines []Line, loader *StoreLoader, filter *Filter) error {
	for _, line := range lines {
		var src *bmg.Bmg
		if line.Src != "" {
			var err error
			src, err = loader.Load(line.Src)
			if err != nil {
				return err
			}
		}

		before := snapshot(dst)
		if err := patch.Apply(dst, src, line.Cmd); err != nil {
			return fmt.Errorf("patchscript: line %d (%s): %w", line.Num, line.Cmd.Op, err)
		}
		if err := applyFilter(dst, before, filter); err != nil {
			return fmt.Errorf("patchscript: line %d (%s): %w", line.Num, line.Cmd.Op, err)
		}
	}
	return nil
}

// snapshot captures a copy of every item, keyed by MID, so
// applyFilter can tell which items a command touched and revert the ones
// the filter rejects.
func snapshot(store *bmg.Bmg) map[bmg.Mid]*bmg.Item {
	out := make(map[bmg.Mid]*bmg.Item, store.Len())
	for _, it := range store.Items() {
		clone := *it
		clone.Units = append([]uint16(nil), it.Units...)
		out[it.Mid] = &clone
	}
	return out
}

func applyFilter(store *bmg.Bmg, before map[bmg.Mid]*bmg.Item, filter *Filter) error {
	if filter == nil {
		return nil
	}
	for _, it := range append([]*bmg.Item(nil), store.Items()...) {
		prev, existed := before[it.Mid]
		if existed && itemsEqual(prev, it) {
			continue
		}
		text := escape.Emit(it.Units, escape.Options{ColorTier: store.Config.ColorTier})
		keep, err := filter.Keep(FilterContext{Mid: it.Mid, Text: text})
		if err != nil {
			return err
		}
		if keep {
			continue
		}
		if existed {
			store.Insert(prev)
		} else {
			store.Remove(it.Mid)
		}
	}
	return nil
}

func itemsEqual(a, b *bmg.Item) bool {
	if len(a.Units) != len(b.Units) {
		return false
	}
	for i := range a.Units {
		if a.Units[i] != b.Units[i] {
			return false
		}
	}
	return a.Condition == b.Condition && a.HasSlot == b.HasSlot && a.Slot == b.Slot && a.Deleted == b.Deleted
}
