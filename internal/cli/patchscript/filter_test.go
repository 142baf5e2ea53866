package patchscript

import "testing"

func TestNewFilter(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		wantErr    bool
	}{
		{"empty means keep everything", "", false},
		{"true literal", "true", false},
		{"mid comparison", "mid > 0x4000", false},
		{"text length check", "len(text) == 0", false},
		{"combined", "mid >= 0x1000 and len(text) > 0", false},
		{"unknown field", "nope == 1", true},
		{"syntax error", "mid >", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFilter(tt.expression)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFilter(%q) error = %v, wantErr %v", tt.expression, err, tt.wantErr)
			}
		})
	}
}

func TestFilterKeep(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		ctx        FilterContext
		want       bool
	}{
		{"nil filter keeps everything", "", FilterContext{}, true},
		{"mid above threshold", "mid > 0x4000", FilterContext{Mid: 0x5000}, true},
		{"mid below threshold", "mid > 0x4000", FilterContext{Mid: 0x100}, false},
		{"empty text", "len(text) == 0", FilterContext{Text: ""}, true},
		{"nonempty text", "len(text) == 0", FilterContext{Text: "hi"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.expression)
			if err != nil {
				t.Fatalf("NewFilter: %v", err)
			}
			got, err := f.Keep(tt.ctx)
			if err != nil {
				t.Fatalf("Keep: %v", err)
			}
			if got != tt.want {
				t.Errorf("Keep(%+v) = %v, want %v", tt.ctx, got, tt.want)
			}
		})
	}
}
