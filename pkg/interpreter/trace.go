package interpreter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/ForkKILLET/fkio/pkg/runtime"
)

// tracer writes the debug step trace:
//
//	[desc:step] <indent><NodeType> <index>:<subIndex> <sourceLineSlice>
//	[desc:step] <indent>→ <value>
//
// ANSI color is enabled only when the sink is a terminal.
type tracer struct {
	w     io.Writer
	color bool
}

const (
	ansiReset = "\x1b[0m"
	ansiDim   = "\x1b[2m"
	ansiCyan  = "\x1b[36m"
	ansiGreen = "\x1b[32m"
)

func newTracer(w io.Writer) *tracer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &tracer{w: w, color: color}
}

func (t *tracer) paint(code, s string) string {
	if !t.color {
		return s
	}
	return code + s + ansiReset
}

func (t *tracer) step(x *Execution, f *Frame) {
	indent := strings.Repeat("  ", x.State.Stack.Len()-1)
	fmt.Fprintf(t.w, "%s %s%s %d:%d %s\n",
		t.paint(ansiDim, fmt.Sprintf("[%s:%d]", x.Desc, x.steps)),
		indent,
		t.paint(ansiCyan, f.Node.Type()),
		f.Index, f.SubIndex,
		t.paint(ansiDim, sourceSlice(x.source, f)),
	)
}

func (t *tracer) ret(x *Execution, f *Frame, v any) {
	indent := strings.Repeat("  ", x.State.Stack.Len())
	fmt.Fprintf(t.w, "%s %s%s %s\n",
		t.paint(ansiDim, fmt.Sprintf("[%s:%d]", x.Desc, x.steps)),
		indent,
		t.paint(ansiGreen, "→"),
		displayRet(v),
	)
}

func displayRet(v any) string {
	switch rv := v.(type) {
	case nil:
		return "undefined"
	case runtime.Value:
		return runtime.Display(rv)
	case *scopeRef:
		return "<ref " + rv.name + ">"
	case *memberRef:
		return "<ref ." + rv.key + ">"
	case *calleeRef:
		return "<callee>"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// sourceSlice renders the first line of the node's source span, truncated.
func sourceSlice(source []byte, f *Frame) string {
	span := f.Node.Span()
	if span.End <= span.Start {
		return ""
	}
	start, end := span.Start, span.End
	if start < 0 || end > len(source) {
		return ""
	}
	text := string(source[start:end])
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx] + "…"
	}
	const max = 40
	if len(text) > max {
		text = text[:max] + "…"
	}
	return text
}
