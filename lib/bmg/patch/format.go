package patch

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/escape"
)

// applyFormat rewrites every destination item by rendering template
// against it and re-scanning the result as text form.
func applyFormat(dst *bmg.Bmg, template string, containerName func() string) error {
	for _, it := range append([]*bmg.Item(nil), dst.Items()...) {
		rendered, err := renderTemplate(template, dst, it, containerName)
		if err != nil {
			return err
		}
		units, err := escape.Scan(rendered, escape.Options{ColorTier: dst.Config.ColorTier})
		if err != nil {
			return fmt.Errorf("patch: FORMAT produced unparseable text for mid %#x: %w", it.Mid, err)
		}
		dst.Insert(&bmg.Item{
			Mid: it.Mid, Condition: it.Condition, HasSlot: it.HasSlot, Slot: it.Slot,
			Attrib: it.Attrib, AttribUsed: it.AttribUsed, Units: units,
		})
	}
	return nil
}

// renderTemplate expands template against item's rendered text form.
// Escapes: %s (own text, or %p1,p2s for a byte subrange), %i/%I (MID,
// hex / zero-padded hex), %n/%N (container name, full / trimmed), %l[p1[,p2]]
// (a 0-based, clamped slice of the lines between `\n` escapes; the
// parameters may also follow without brackets, as in %l1, and %l with no
// parameters means just line 0), %L like %l but substitutes the last %m
// marker position when its slice is empty, %m records a marker at the
// current output position, %M replays it only if a substitution (%s, %p,
// %i, %I, %n, %N or %l) has produced output so far.
func renderTemplate(template string, store *bmg.Bmg, item *bmg.Item, containerName func() string) (string, error) {
	text := escape.Emit(item.Units, escape.Options{ColorTier: store.Config.ColorTier})
	var lines []string // lazily split on first %l/%L

	var sb strings.Builder
	marker := ""
	producedOutput := false

	i := 0
	for i < len(template) {
		c := template[i]
		if c != '%' || i+1 >= len(template) {
			sb.WriteByte(c)
			i++
			continue
		}
		switch template[i+1] {
		case 's':
			sb.WriteString(text)
			producedOutput = true
			i += 2
		case 'p':
			params, next, err := readBracketedOrDigits(template, i+2, 's')
			if err != nil {
				return "", err
			}
			p1, p2, _ := parseTwoParams(params)
			sb.WriteString(subrange(text, p1, p2))
			producedOutput = true
			i = next
		case 'i':
			fmt.Fprintf(&sb, "%X", item.Mid)
			producedOutput = true
			i += 2
		case 'I':
			fmt.Fprintf(&sb, "%04X", item.Mid)
			producedOutput = true
			i += 2
		case 'n':
			sb.WriteString(resolveContainerName(containerName))
			producedOutput = true
			i += 2
		case 'N':
			name := resolveContainerName(containerName)
			base := path.Base(name)
			sb.WriteString(strings.TrimSuffix(base, path.Ext(base)))
			producedOutput = true
			i += 2
		case 'l':
			params, next := readParams(template, i+2)
			if lines == nil {
				lines = strings.Split(text, `\n`)
			}
			p1, p2, _ := parseTwoParams(params)
			sb.WriteString(lineSlice(lines, p1, p2))
			producedOutput = true
			i = next
		case 'L':
			params, next := readParams(template, i+2)
			if lines == nil {
				lines = strings.Split(text, `\n`)
			}
			p1, p2, _ := parseTwoParams(params)
			seg := lineSlice(lines, p1, p2)
			if seg == "" {
				seg = marker
			}
			sb.WriteString(seg)
			i = next
		case 'm':
			marker = sb.String()
			i += 2
		case 'M':
			if producedOutput {
				sb.WriteString(marker)
			}
			i += 2
		case '%':
			sb.WriteByte('%')
			i += 2
		default:
			sb.WriteByte('%')
			i++
		}
	}
	return sb.String(), nil
}

func resolveContainerName(fn func() string) string {
	if fn == nil {
		return ""
	}
	return fn()
}

// readParams reads %l/%L's optional argument list starting at
// template[i]: either a bracketed "[p1[,p2]]" form or a bare run of
// digits/commas (so "%l1" means line 1, same as "%l[1]"). Returns the
// params string (empty if neither form is present) and the index just
// past what was consumed.
func readParams(template string, i int) (string, int) {
	if i < len(template) && template[i] == '[' {
		end := strings.IndexByte(template[i:], ']')
		if end < 0 {
			return template[i+1:], len(template)
		}
		return template[i+1 : i+end], i + end + 1
	}
	start := i
	for i < len(template) && (template[i] == ',' || (template[i] >= '0' && template[i] <= '9')) {
		i++
	}
	return template[start:i], i
}

// readBracketedOrDigits reads a bare "p1,p2" run of digits/commas
// terminated by stop, used by %p1,p2s.
func readBracketedOrDigits(template string, i int, stop byte) (string, int, error) {
	start := i
	for i < len(template) && (template[i] == ',' || (template[i] >= '0' && template[i] <= '9')) {
		i++
	}
	if i >= len(template) || template[i] != stop {
		return "", i, fmt.Errorf("patch: malformed %%p...%c in template", stop)
	}
	return template[start:i], i + 1, nil
}

func parseTwoParams(s string) (p1, p2 int, hasP2 bool) {
	if s == "" {
		return 0, -1, false
	}
	parts := strings.SplitN(s, ",", 2)
	p1, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	if len(parts) == 2 {
		p2, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
		return p1, p2, true
	}
	return p1, -1, false
}

// subrange returns text[p1:p2], clamping both indices into range and
// treating a negative or out-of-range p2 as "to the end".
func subrange(text string, p1, p2 int) string {
	n := len(text)
	if p1 < 0 {
		p1 = 0
	}
	if p1 > n {
		p1 = n
	}
	if p2 < 0 || p2 > n {
		p2 = n
	}
	if p2 < p1 {
		p2 = p1
	}
	return text[p1:p2]
}

// lineSlice joins lines[p1:p2] inclusive with the `\n` escape, clamping
// both indices into range.
func lineSlice(lines []string, p1, p2 int) string {
	n := len(lines)
	if n == 0 {
		return ""
	}
	if p1 < 0 {
		p1 = 0
	}
	if p1 >= n {
		p1 = n - 1
	}
	if p2 < 0 {
		p2 = p1
	}
	if p2 >= n {
		p2 = n - 1
	}
	if p2 < p1 {
		p2 = p1
	}
	return strings.Join(lines[p1:p2+1], `\n`)
}
