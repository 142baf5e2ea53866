package patchscript

import (
	"reflect"
	"testing"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/escape"
	"github.com/wiidev/bmgtool/lib/bmg/patch"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr bool
		check   func(t *testing.T, lines []Line)
	}{
		{
			name:   "comments and blank lines are skipped",
			script: "# a comment\n\n   \nREPLACE ref.bmg\n",
			check: func(t *testing.T, lines []Line) {
				if len(lines) != 1 {
					t.Fatalf("len(lines) = %d, want 1", len(lines))
				}
				if lines[0].Num != 4 {
					t.Errorf("Num = %d, want 4 (comment/blank lines still count)", lines[0].Num)
				}
			},
		},
		{
			name:   "table op carries source path",
			script: "OVERWRITE translations.bmg",
			check: func(t *testing.T, lines []Line) {
				if lines[0].Cmd.Op != patch.OpOverwrite || lines[0].Src != "translations.bmg" {
					t.Errorf("got %+v", lines[0])
				}
			},
		},
		{
			name:    "table op missing source is an error",
			script:  "OVERWRITE",
			wantErr: true,
		},
		{
			name:   "PRINT carries source and template",
			script: "PRINT ref.bmg %I: %s",
			check: func(t *testing.T, lines []Line) {
				if lines[0].Src != "ref.bmg" || lines[0].Cmd.Template != "%I: %s" {
					t.Errorf("got %+v", lines[0])
				}
			},
		},
		{
			name:    "PRINT missing source is an error",
			script:  "PRINT",
			wantErr: true,
		},
		{
			name:   "FORMAT takes the whole remainder as template",
			script: "FORMAT [%I] %s",
			check: func(t *testing.T, lines []Line) {
				if lines[0].Cmd.Op != patch.OpFormat || lines[0].Cmd.Template != "[%I] %s" {
					t.Errorf("got %+v", lines[0])
				}
			},
		},
		{
			name:   "REGEX carries the expression verbatim",
			script: "REGEX s/foo/bar/",
			check: func(t *testing.T, lines []Line) {
				if lines[0].Cmd.Op != patch.OpRegex || lines[0].Cmd.Expr != "s/foo/bar/" {
					t.Errorf("got %+v", lines[0])
				}
			},
		},
		{
			name:   "RM-REGEX carries the expression verbatim",
			script: "RM-REGEX foo.*",
			check: func(t *testing.T, lines []Line) {
				if lines[0].Cmd.Op != patch.OpRMRegex || lines[0].Cmd.Expr != "foo.*" {
					t.Errorf("got %+v", lines[0])
				}
			},
		},
		{
			name:   "GENERIC parses source and both hex mid triples",
			script: "GENERIC ref.bmg 1,2,3 10,20,30",
			check: func(t *testing.T, lines []Line) {
				want := patch.Command{
					Op:      patch.OpGeneric,
					RefMids: [3]bmg.Mid{1, 2, 3},
					DstMids: [3]bmg.Mid{0x10, 0x20, 0x30},
				}
				if lines[0].Src != "ref.bmg" || !reflect.DeepEqual(lines[0].Cmd, want) {
					t.Errorf("got %+v", lines[0])
				}
			},
		},
		{
			name:    "GENERIC missing source is an error",
			script:  "GENERIC",
			wantErr: true,
		},
		{
			name:    "GENERIC bad mid triple is an error",
			script:  "GENERIC ref.bmg 1,2 10,20,30",
			wantErr: true,
		},
		{
			name:   "ID with a letter",
			script: "ID T",
			check: func(t *testing.T, lines []Line) {
				if lines[0].Cmd.Op != patch.OpID || lines[0].Cmd.Letter != 'T' {
					t.Errorf("got %+v", lines[0])
				}
			},
		},
		{
			name:   "ID-ALL with no letter",
			script: "ID-ALL",
			check: func(t *testing.T, lines []Line) {
				if lines[0].Cmd.Op != patch.OpIDAll || lines[0].Cmd.Letter != 0 {
					t.Errorf("got %+v", lines[0])
				}
			},
		},
		{
			name:   "no-arg ops parse with no fields set",
			script: "UNICODE",
			check: func(t *testing.T, lines []Line) {
				if lines[0].Cmd.Op != patch.OpUnicode {
					t.Errorf("got %+v", lines[0])
				}
			},
		},
		{
			name:   "RM-FILLED is a no-arg op",
			script: "RM-FILLED",
			check: func(t *testing.T, lines []Line) {
				if lines[0].Cmd.Op != patch.OpRMFilled {
					t.Errorf("got %+v", lines[0])
				}
			},
		},
		{
			name:   "CT-COPY parses source and both ranges",
			script: "CT-COPY ref.bmg 0x1000-0x1fff 0x2000",
			check: func(t *testing.T, lines []Line) {
				if lines[0].Src != "ref.bmg" || lines[0].Cmd.FromRange != "0x1000-0x1fff" || lines[0].Cmd.ToRange != "0x2000" {
					t.Errorf("got %+v", lines[0])
				}
			},
		},
		{
			name:    "CT-FORCE-COPY missing ranges is an error",
			script:  "CT-FORCE-COPY ref.bmg 0x1000-0x1fff",
			wantErr: true,
		},
		{
			name:   "LE-FILL parses range, limit and placeholder prefix",
			script: "LE-FILL 0x3000-0x3fff 16 ???",
			check: func(t *testing.T, lines []Line) {
				if lines[0].Cmd.FromRange != "0x3000-0x3fff" || lines[0].Cmd.FillLimit != 16 || lines[0].Cmd.PlaceholderPrefix != "???" {
					t.Errorf("got %+v", lines[0])
				}
			},
		},
		{
			name:   "X-FILL with just a range, no limit or prefix",
			script: "X-FILL 0x4000-0x4fff",
			check: func(t *testing.T, lines []Line) {
				if lines[0].Cmd.FromRange != "0x4000-0x4fff" || lines[0].Cmd.FillLimit != 0 || lines[0].Cmd.PlaceholderPrefix != "" {
					t.Errorf("got %+v", lines[0])
				}
			},
		},
		{
			name:    "unknown op is an error",
			script:  "FROBNICATE ref.bmg",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := Parse(tt.script)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.script, err, tt.wantErr)
			}
			if err == nil && tt.check != nil {
				tt.check(t, lines)
			}
		})
	}
}

func TestRunWithFilter(t *testing.T) {
	dst := bmg.New()
	dst.Insert(&bmg.Item{Mid: 1, Units: mustScan(t, "keep me")})
	dst.Insert(&bmg.Item{Mid: 2, Units: mustScan(t, "drop me")})

	src := bmg.New()
	src.Insert(&bmg.Item{Mid: 1, Units: mustScan(t, "KEEP ME")})
	src.Insert(&bmg.Item{Mid: 2, Units: mustScan(t, "DROP ME")})

	loader := NewStoreLoader(bmg.DefaultConfig(), bmg.DefaultHooks())
	loader.cache["src.bmg"] = src

	filter, err := NewFilter(`mid == 1`)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}

	lines := []Line{{Num: 1, Cmd: patch.Command{Op: patch.OpOverwrite}, Src: "src.bmg"}}
	if err := Run(dst, lines, loader, filter); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got1 := dst.Find(1)
	if got1 == nil || emitText(got1) != "KEEP ME" {
		t.Errorf("mid 1 should have been overwritten, got %+v", got1)
	}
	got2 := dst.Find(2)
	if got2 == nil || emitText(got2) != "drop me" {
		t.Errorf("mid 2 should have been reverted by the filter, got %+v", got2)
	}
}

func mustScan(t *testing.T, text string) []uint16 {
	t.Helper()
	units, err := escape.Scan(text, escape.Options{})
	if err != nil {
		t.Fatalf("escape.Scan(%q): %v", text, err)
	}
	return units
}

func emitText(it *bmg.Item) string {
	return escape.Emit(it.Units, escape.Options{})
}
