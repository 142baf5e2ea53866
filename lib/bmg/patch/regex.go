package patch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/escape"
)

// Regexer performs one pattern/replacement substitution over text. It is
// an interface rather than a bare function so callers can swap in a
// different regex flavor without touching the pipeline parser.
type Regexer interface {
	Replace(text, pattern, repl string, global, caseInsensitive bool) (string, error)
}

// stdRegexer is the default Regexer, backed by the standard library's
// RE2 engine.
type stdRegexer struct{}

func (stdRegexer) Replace(text, pattern, repl string, global, caseInsensitive bool) (string, error) {
	if caseInsensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("patch: bad regex %q: %w", pattern, err)
	}
	repl = toGoReplacement(repl)
	if global {
		return re.ReplaceAllString(text, repl), nil
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return text, nil
	}
	head := re.ReplaceAllString(text[loc[0]:loc[1]], repl)
	return text[:loc[0]] + head + text[loc[1]:], nil
}

// toGoReplacement rewrites sed-style "\1" backreferences to Go's "$1" form.
func toGoReplacement(repl string) string {
	var sb strings.Builder
	for i := 0; i < len(repl); i++ {
		if repl[i] == '\\' && i+1 < len(repl) && repl[i+1] >= '0' && repl[i+1] <= '9' {
			sb.WriteByte('$')
			sb.WriteByte(repl[i+1])
			i++
			continue
		}
		sb.WriteByte(repl[i])
	}
	return sb.String()
}

type substitution struct {
	pattern, repl           string
	global, caseInsensitive bool
}

// parsePipeline splits expr on ';' into a sequence of sed-style
// substitutions "s/pattern/repl/flags". The split on '/' is naive (it does
// not honor an escaped "\/" inside pattern or repl); a pattern needing a
// literal slash should use a character class instead. Recognized flags are
// 'g' (global, otherwise only the first match is replaced) and 'i'
// (case-insensitive).
func parsePipeline(expr string) ([]substitution, error) {
	var subs []substitution
	for _, stmt := range strings.Split(expr, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if len(stmt) < 2 || stmt[0] != 's' || stmt[1] != '/' {
			return nil, fmt.Errorf("patch: regex statement must start with \"s/\": %q", stmt)
		}
		parts := strings.Split(stmt[2:], "/")
		if len(parts) < 2 {
			return nil, fmt.Errorf("patch: malformed regex statement %q", stmt)
		}
		pattern, repl := parts[0], parts[1]
		flags := ""
		if len(parts) >= 3 {
			flags = parts[2]
		}
		subs = append(subs, substitution{
			pattern:         pattern,
			repl:            repl,
			global:          strings.ContainsRune(flags, 'g'),
			caseInsensitive: strings.ContainsRune(flags, 'i'),
		})
	}
	return subs, nil
}

// applyRegex renders each item to text, runs expr's substitution pipeline
// over it, and either re-scans the result (REGEX) or, when remove is true
// and the result is empty, deletes the item outright (RM-REGEX).
func applyRegex(dst *bmg.Bmg, expr string, remove bool, rx Regexer) error {
	if rx == nil {
		rx = stdRegexer{}
	}
	subs, err := parsePipeline(expr)
	if err != nil {
		return err
	}
	for _, it := range append([]*bmg.Item(nil), dst.Items()...) {
		text := escape.Emit(it.Units, escape.Options{ColorTier: dst.Config.ColorTier})
		for _, sub := range subs {
			text, err = rx.Replace(text, sub.pattern, sub.repl, sub.global, sub.caseInsensitive)
			if err != nil {
				return err
			}
		}
		if remove && text == "" {
			dst.Remove(it.Mid)
			continue
		}
		units, err := escape.Scan(text, escape.Options{ColorTier: dst.Config.ColorTier})
		if err != nil {
			return fmt.Errorf("patch: REGEX produced unparseable text for mid %#x: %w", it.Mid, err)
		}
		dst.Insert(&bmg.Item{
			Mid: it.Mid, Condition: it.Condition, HasSlot: it.HasSlot, Slot: it.Slot,
			Attrib: it.Attrib, AttribUsed: it.AttribUsed, Units: units,
		})
	}
	return nil
}
