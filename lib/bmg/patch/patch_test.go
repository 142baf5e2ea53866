package patch

import (
	"testing"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/escape"
	"github.com/wiidev/bmgtool/lib/bmg/tables"
)

func units(s string) []uint16 {
	out := make([]uint16, len(s))
	for i, r := range s {
		out[i] = uint16(r)
	}
	return out
}

func textOf(it *bmg.Item) string {
	if it == nil {
		return ""
	}
	return string(units2runes(it.Units))
}

func units2runes(u []uint16) []rune {
	out := make([]rune, len(u))
	for i, v := range u {
		out[i] = rune(v)
	}
	return out
}

func TestApplyReplace(t *testing.T) {
	dst := bmg.New()
	dst.InsertText(1, units("old1")) // only in dst
	dst.InsertText(2, units("same"))  // equal in both
	dst.InsertText(3, units("diff1")) // differs

	src := bmg.New()
	src.InsertText(2, units("same"))
	src.InsertText(3, units("diff2"))
	src.InsertText(4, units("new4")) // only in src

	if err := Apply(dst, src, Command{Op: OpReplace}); err != nil {
		t.Fatalf("Apply REPLACE: %v", err)
	}

	if textOf(dst.Find(1)) != "old1" {
		t.Fatalf("REPLACE should keep onlyA entry, got %q", textOf(dst.Find(1)))
	}
	if textOf(dst.Find(2)) != "same" {
		t.Fatalf("equal entry should be replaced by src's (identical) text")
	}
	if textOf(dst.Find(3)) != "diff2" {
		t.Fatalf("diff entry should take src's text, got %q", textOf(dst.Find(3)))
	}
	if it := dst.Find(4); it != nil {
		t.Fatalf("REPLACE should not insert onlyB entries, got %+v", it)
	}
}

func TestApplyInsert(t *testing.T) {
	dst := bmg.New()
	dst.InsertText(1, units("keep"))

	src := bmg.New()
	src.InsertText(1, units("ignored")) // in both stores with different text: INSERT keeps dst's
	src.InsertText(2, units("added"))

	if err := Apply(dst, src, Command{Op: OpInsert}); err != nil {
		t.Fatalf("Apply INSERT: %v", err)
	}

	if it := dst.Find(2); textOf(it) != "added" {
		t.Fatalf("INSERT should add onlyB entries, got %q", textOf(it))
	}
}

func TestApplyOverwrite(t *testing.T) {
	dst := bmg.New()
	dst.InsertText(1, units("old"))

	src := bmg.New()
	src.InsertText(1, units("new"))

	if err := Apply(dst, src, Command{Op: OpOverwrite}); err != nil {
		t.Fatalf("Apply OVERWRITE: %v", err)
	}
	if textOf(dst.Find(1)) != "new" {
		t.Fatalf("OVERWRITE should replace even equal-mid differing text, got %q", textOf(dst.Find(1)))
	}
}

func TestApplyDelete(t *testing.T) {
	dst := bmg.New()
	dst.InsertText(1, units("a"))
	dst.InsertText(2, units("b"))

	src := bmg.New()
	src.InsertText(2, units("b"))

	if err := Apply(dst, src, Command{Op: OpDelete}); err != nil {
		t.Fatalf("Apply DELETE: %v", err)
	}
	if it := dst.Find(1); it == nil || textOf(it) != "a" {
		t.Fatalf("DELETE should keep onlyA entries, got %+v", it)
	}
	if it := dst.Find(2); it != nil {
		t.Fatalf("DELETE should remove entries present in src, got %+v", it)
	}
}

func TestApplyConditionGating(t *testing.T) {
	dst := bmg.New()
	// gate mid 0x10 absent -> conditioned insert at mid 2 should be skipped
	src := bmg.New()
	gated := &bmg.Item{Mid: 2, Condition: 0x10, Units: units("gated")}
	src.Insert(gated)

	if err := Apply(dst, src, Command{Op: OpInsert}); err != nil {
		t.Fatalf("Apply INSERT: %v", err)
	}
	if it := dst.Find(2); it != nil {
		t.Fatalf("conditioned insert should be gated off when condition mid is absent, got %+v", it)
	}

	dst.InsertText(0x10, units("gate"))
	if err := Apply(dst, src, Command{Op: OpInsert}); err != nil {
		t.Fatalf("Apply INSERT (gated open): %v", err)
	}
	if textOf(dst.Find(2)) != "gated" {
		t.Fatalf("conditioned insert should apply once the condition mid exists")
	}
}

func TestApplyMaskEqualNotEqual(t *testing.T) {
	mkStores := func() (*bmg.Bmg, *bmg.Bmg) {
		dst := bmg.New()
		dst.InsertText(1, units("same"))
		dst.InsertText(2, units("diffA"))
		dst.InsertText(3, units("onlyDst"))
		src := bmg.New()
		src.InsertText(1, units("same"))
		src.InsertText(2, units("diffB"))
		return dst, src
	}

	dst, src := mkStores()
	if err := Apply(dst, src, Command{Op: OpMask}); err != nil {
		t.Fatal(err)
	}
	if textOf(dst.Find(1)) != "same" {
		t.Fatalf("MASK should keep an equal entry present on both sides, got %q", textOf(dst.Find(1)))
	}
	if textOf(dst.Find(2)) != "diffA" {
		t.Fatalf("MASK should keep dst's own text on a diff present on both sides, got %q", textOf(dst.Find(2)))
	}
	if it := dst.Find(3); it != nil {
		t.Fatalf("MASK should drop an entry only present in dst, got %+v", it)
	}

	dst, src = mkStores()
	if err := Apply(dst, src, Command{Op: OpEqual}); err != nil {
		t.Fatal(err)
	}
	if textOf(dst.Find(1)) != "same" {
		t.Fatalf("EQUAL should keep equal entries")
	}
	if it := dst.Find(2); it != nil {
		t.Fatalf("EQUAL should drop differing entries, got %+v", it)
	}

	dst, src = mkStores()
	if err := Apply(dst, src, Command{Op: OpNotEqual}); err != nil {
		t.Fatal(err)
	}
	if it := dst.Find(1); it != nil {
		t.Fatalf("NOT-EQUAL should drop equal entries, got %+v", it)
	}
	if textOf(dst.Find(2)) != "diffA" {
		t.Fatalf("NOT-EQUAL should keep differing entries")
	}
}

func TestApplyPrint(t *testing.T) {
	dst := bmg.New()
	dst.InsertText(1, units("hello"))
	src := bmg.New()
	src.InsertText(1, units("world"))

	var got []string
	cmd := Command{
		Op:       OpPrint,
		Template: "%i:%s",
		PrintFunc: func(mid bmg.Mid, rendered string) {
			got = append(got, rendered)
		},
	}
	if err := Apply(dst, src, cmd); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "1:hello" {
		t.Fatalf("PRINT output = %v, want [\"1:hello\"]", got)
	}
	if textOf(dst.Find(1)) != "hello" {
		t.Fatalf("PRINT must not mutate the destination store")
	}
}

func TestApplyFormat(t *testing.T) {
	dst := bmg.New()
	dst.InsertText(0x10, units("hi"))

	err := Apply(dst, nil, Command{
		Op:            OpFormat,
		Template:      "[%I] %n: %s",
		ContainerName: func() string { return "/tmp/messages.bmg" },
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "[0010] /tmp/messages.bmg: hi"
	if got := textOf(dst.Find(0x10)); got != want {
		t.Fatalf("FORMAT output = %q, want %q", got, want)
	}
}

func TestApplyFormatLineSlice(t *testing.T) {
	dst := bmg.New()
	dst.InsertText(1, units("first\nsecond\nthird"))

	if err := Apply(dst, nil, Command{Op: OpFormat, Template: "%l[1]"}); err != nil {
		t.Fatal(err)
	}
	if got := textOf(dst.Find(1)); got != "second" {
		t.Fatalf("%%l[1] = %q, want %q", got, "second")
	}
}

func TestApplyRegexGlobal(t *testing.T) {
	dst := bmg.New()
	dst.InsertText(1, units("foo bar foo"))

	if err := Apply(dst, nil, Command{Op: OpRegex, Expr: "s/foo/baz/g"}); err != nil {
		t.Fatal(err)
	}
	if got := textOf(dst.Find(1)); got != "baz bar baz" {
		t.Fatalf("REGEX global replace = %q", got)
	}
}

func TestApplyRMRegexDeletesWhenEmptied(t *testing.T) {
	dst := bmg.New()
	dst.InsertText(1, units("deleteme"))
	dst.InsertText(2, units("keepme"))

	err := Apply(dst, nil, Command{Op: OpRMRegex, Expr: "s/deleteme//g"})
	if err != nil {
		t.Fatal(err)
	}
	if it := dst.Find(1); it != nil {
		t.Fatalf("RM-REGEX should remove an item emptied by the substitution, got %+v", it)
	}
	if textOf(dst.Find(2)) != "keepme" {
		t.Fatalf("RM-REGEX should leave unrelated items alone")
	}
}

func TestApplyGeneric(t *testing.T) {
	src := bmg.New()
	src.InsertText(1, units("Press A to jump"))
	src.InsertText(2, units("Press B to jump"))
	src.InsertText(3, units("Press X to jump"))

	dst := bmg.New()
	cmd := Command{
		Op:      OpGeneric,
		RefMids: [3]bmg.Mid{1, 2, 3},
		DstMids: [3]bmg.Mid{10, 11, 12},
	}
	if err := Apply(dst, src, cmd); err != nil {
		t.Fatal(err)
	}
	if got := textOf(dst.Find(10)); got != "Press A to jump" {
		t.Fatalf("GENERIC dst 10 = %q", got)
	}
	if got := textOf(dst.Find(12)); got != "Press X to jump" {
		t.Fatalf("GENERIC dst 12 = %q", got)
	}
}

func TestApplyIDOnlyNonEmpty(t *testing.T) {
	dst := bmg.New()
	dst.InsertText(1, units("hi"))
	dst.Insert(&bmg.Item{Mid: 2}) // empty

	if err := Apply(dst, nil, Command{Op: OpID, Letter: 'Z'}); err != nil {
		t.Fatal(err)
	}
	if got := textOf(dst.Find(1)); got != "Z1:hi" {
		t.Fatalf("ID should prefix non-empty messages, got %q", got)
	}
	if it := dst.Find(2); !it.IsEmpty() {
		t.Fatalf("ID should leave empty messages alone, got %+v", it)
	}
}

func TestApplyIDAllIncludesEmpty(t *testing.T) {
	dst := bmg.New()
	dst.Insert(&bmg.Item{Mid: 5})

	if err := Apply(dst, nil, Command{Op: OpIDAll, Letter: 'A'}); err != nil {
		t.Fatal(err)
	}
	if got := textOf(dst.Find(5)); got != "A5:" {
		t.Fatalf("ID-ALL should prefix even an empty message, got %q", got)
	}
}

func TestApplyUnicodeNormalize(t *testing.T) {
	dst := bmg.New()
	// \u{48} is 'H', decimal 0x48 = 72, well above the 0x20 floor.
	scanned, err := escape.Scan(`\u{48}i`, escape.Options{})
	if err != nil {
		t.Fatal(err)
	}
	dst.Insert(&bmg.Item{Mid: 1, Units: scanned})

	if err := Apply(dst, nil, Command{Op: OpUnicode}); err != nil {
		t.Fatal(err)
	}
	if got := textOf(dst.Find(1)); got != "Hi" {
		t.Fatalf("UNICODE normalize = %q, want %q", got, "Hi")
	}
}

func TestApplyRMEscapesStripsOpcodes(t *testing.T) {
	dst := bmg.New()
	scanned, err := escape.Scan(`A\c{1}B`, escape.Options{})
	if err != nil {
		t.Fatal(err)
	}
	dst.Insert(&bmg.Item{Mid: 1, Units: scanned})

	if err := Apply(dst, nil, Command{Op: OpRMEscapes}); err != nil {
		t.Fatal(err)
	}
	if got := textOf(dst.Find(1)); got != "AB" {
		t.Fatalf("RM-ESCAPES = %q, want %q", got, "AB")
	}
}

func TestApplyRangeCopyAndFill(t *testing.T) {
	src := bmg.New()
	src.InsertText(tables.MidTrack1Beg, units("Track0"))
	src.InsertText(tables.MidTrack1Beg+1, units("Track1"))

	dst := bmg.New()
	cmd := Command{Op: OpCTCopy, FromRange: "TRACK1", ToRange: "CT-TRACK"}
	if err := Apply(dst, src, cmd); err != nil {
		t.Fatal(err)
	}
	if got := textOf(dst.Find(tables.MidCTTrackBeg)); got != "Track0" {
		t.Fatalf("range copy offset 0 = %q", got)
	}
	if got := textOf(dst.Find(tables.MidCTTrackBeg + 1)); got != "Track1" {
		t.Fatalf("range copy offset 1 = %q", got)
	}

	if err := Apply(dst, nil, Command{Op: OpCTFill, FromRange: "CT-TRACK", FillLimit: 1, PlaceholderPrefix: "ct"}); err != nil {
		t.Fatal(err)
	}
	filled := dst.Find(tables.MidCTTrackBeg + 2)
	if filled == nil {
		t.Fatal("expected CT-FILL to synthesize a placeholder at offset 2")
	}
	if got := textOf(filled); got != "_ct2_" {
		t.Fatalf("placeholder text = %q, want %q", got, "_ct2_")
	}

	applyRMFilled(dst)
	if it := dst.Find(tables.MidCTTrackBeg + 2); it != nil {
		t.Fatalf("RM-FILLED should remove the synthesized placeholder, got %+v", it)
	}
	if got := textOf(dst.Find(tables.MidCTTrackBeg)); got != "Track0" {
		t.Fatalf("RM-FILLED must not touch real content, got %q", got)
	}
}
