package patchscript

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// FilterContext is the environment a --filter expression runs against, one
// evaluation per item a patch command is about to change.
type FilterContext struct {
	Mid  uint32 `expr:"mid"`
	Text string `expr:"text"`
}

// Filter gates which items a patch command's effect is kept for. It is a
// CLI-level convenience layered on top of the patch engine's own
// condition-MID gating, not a replacement for it: the engine always runs
// unconditionally, and Filter decides afterward whether to keep or revert
// each item it touched.
type Filter struct {
	program *vm.Program
}

// NewFilter compiles expression, e.g. "mid > 0x4000" or "len(text) == 0".
// An empty expression means "keep everything".
func NewFilter(expression string) (*Filter, error) {
	if expression == "" {
		return nil, nil
	}
	program, err := expr.Compile(expression, expr.Env(FilterContext{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("patchscript: invalid --filter expression: %w", err)
	}
	return &Filter{program: program}, nil
}

// Keep reports whether ctx passes the filter. A nil Filter keeps everything.
func (f *Filter) Keep(ctx FilterContext) (bool, error) {
	if f == nil {
		return true, nil
	}
	result, err := expr.Run(f.program, ctx)
	if err != nil {
		return false, fmt.Errorf("patchscript: filter evaluation failed: %w", err)
	}
	return result.(bool), nil
}
