package interpreter_test

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/ForkKILLET/fkio/pkg/interpreter"
	"github.com/ForkKILLET/fkio/pkg/runtime"
)

func newRuntime(t *testing.T) (*interpreter.Runtime, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	rt := interpreter.NewRuntime(interpreter.Options{Stdout: &buf})
	t.Cleanup(rt.Close)
	return rt, &buf
}

func runSource(t *testing.T, source string) string {
	t.Helper()
	rt, buf := newRuntime(t)
	exec, err := rt.Execute(source, interpreter.ExecOptions{Desc: "test"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := exec.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	return buf.String()
}

func runSourceErr(t *testing.T, source string) error {
	t.Helper()
	rt, _ := newRuntime(t)
	exec, err := rt.Execute(source, interpreter.ExecOptions{Desc: "test"})
	if err != nil {
		return err
	}
	return exec.Wait()
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestArithmeticAndPrecedence(t *testing.T) {
	out := runSource(t, `console.log(1 + 2 * 3, (1 + 2) * 3, 2 ** 10, 7 % 3)`)
	if got := strings.TrimSpace(out); got != "7 9 1024 1" {
		t.Fatalf("got %q", got)
	}
}

func TestStringConcatAndComparison(t *testing.T) {
	out := runSource(t, `
		console.log('a' + 'b' + 1)
		console.log('a' < 'b', 2 < 10, '2' < '10')
	`)
	got := lines(out)
	if got[0] != "ab1" {
		t.Fatalf("concat: %q", got[0])
	}
	if got[1] != "true true false" {
		t.Fatalf("comparisons: %q", got[1])
	}
}

func TestVariableScoping(t *testing.T) {
	out := runSource(t, `
		let x = 1
		{
			let x = 2
			console.log(x)
		}
		console.log(x)
	`)
	got := lines(out)
	if got[0] != "2" || got[1] != "1" {
		t.Fatalf("got %v", got)
	}
}

func TestTDZViolation(t *testing.T) {
	err := runSourceErr(t, `console.log(a); let a = 1`)
	var tdz *runtime.UninitializedReadError
	if !errors.As(err, &tdz) {
		t.Fatalf("expected UninitializedReadError, got %v", err)
	}
	if tdz.Name != "a" {
		t.Fatalf("expected binding a, got %q", tdz.Name)
	}
}

func TestUndefinedIdentifier(t *testing.T) {
	err := runSourceErr(t, `nope()`)
	var undef *runtime.UndefinedIdentifierError
	if !errors.As(err, &undef) {
		t.Fatalf("expected UndefinedIdentifierError, got %v", err)
	}
}

func TestShortCircuit(t *testing.T) {
	out := runSource(t, `
		let n = 0
		false && (n = 1)
		true || (n = 2)
		0 ?? (n = 3)
		console.log(n)
		console.log(null ?? 'fallback')
	`)
	got := lines(out)
	if got[0] != "0" {
		t.Fatalf("short-circuited operands must not evaluate, n = %q", got[0])
	}
	if got[1] != "fallback" {
		t.Fatalf("?? must take the right on nullish left, got %q", got[1])
	}
}

func TestLogicalAssignmentOperators(t *testing.T) {
	out := runSource(t, `
		let a = 0
		let calls = 0
		const bump = () => { calls = calls + 1; return 9 }
		a ||= bump()
		a &&= 5
		a ??= bump()
		console.log(a, calls)
	`)
	if got := strings.TrimSpace(out); got != "5 1" {
		t.Fatalf("got %q", got)
	}
}

func TestEvaluationOrder(t *testing.T) {
	out := runSource(t, `
		const log = []
		const note = v => { log.push(v); return v }
		const o = { m: x => x }
		o[note('callee') && 'm'](note('arg'))
		console.log(log.join(','))
	`)
	if got := strings.TrimSpace(out); got != "arg,callee" {
		t.Fatalf("arguments must evaluate before the callee resolves, got %q", got)
	}
}

func TestLoopsAndBreakContinue(t *testing.T) {
	out := runSource(t, `
		let sum = 0
		for (let i = 0; i < 10; i++) {
			if (i % 2 === 0) continue
			if (i > 7) break
			sum += i
		}
		console.log(sum)

		let w = 0
		while (w < 3) w += 1
		console.log(w)

		let d = 0
		do { d += 1 } while (false)
		console.log(d)
	`)
	got := lines(out)
	if got[0] != "16" { // 1+3+5+7
		t.Fatalf("for loop: got %q", got[0])
	}
	if got[1] != "3" {
		t.Fatalf("while loop: got %q", got[1])
	}
	if got[2] != "1" {
		t.Fatalf("do-while must run the body first: got %q", got[2])
	}
}

func TestLeibnizPi(t *testing.T) {
	out := runSource(t, `
		const calc = N => { let s=0, d=1, g=1; for (let i=0;i<N;i++){ s+=g/d; d+=2; g*=-1 } return s*4 }
		console.log('%d', calc(100000))
	`)
	got, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		t.Fatalf("output %q is not a number: %v", out, err)
	}
	if math.Abs(got-math.Pi) > 1e-4 {
		t.Fatalf("got %v, want within 1e-4 of pi", got)
	}
}

func TestClosureCapture(t *testing.T) {
	out := runSource(t, `
		const counter = () => {
			let n = 0
			return () => { n += 1; return n }
		}
		const c = counter()
		c(); c()
		console.log(c())
	`)
	if got := strings.TrimSpace(out); got != "3" {
		t.Fatalf("closure must capture its defining scope by reference, got %q", got)
	}
}

func TestPerIterationLoopBinding(t *testing.T) {
	out := runSource(t, `
		const fns = []
		for (let i = 0; i < 3; i++) fns.push(() => i)
		console.log(fns[0](), fns[1](), fns[2]())
	`)
	if got := strings.TrimSpace(out); got != "0 1 2" {
		t.Fatalf("loop closures must see per-iteration bindings, got %q", got)
	}
}

func TestThisBinding(t *testing.T) {
	out := runSource(t, `
		const o = { x: 7, get(){ return this.x } }
		console.log(o.get())
	`)
	if got := strings.TrimSpace(out); got != "7" {
		t.Fatalf("got %q", got)
	}
}

func TestArrowInheritsThis(t *testing.T) {
	out := runSource(t, `
		const o = {
			x: 3,
			get() {
				const f = () => this.x
				return f()
			}
		}
		console.log(o.get())
	`)
	if got := strings.TrimSpace(out); got != "3" {
		t.Fatalf("arrow must inherit this from the enclosing call, got %q", got)
	}
}

func TestObjectsArraysAndSpread(t *testing.T) {
	out := runSource(t, `
		const base = { a: 1, b: 2 }
		const merged = { ...base, b: 3, ['c' + 'd']: 4 }
		console.log(JSON.stringify(merged))
		const xs = [1, ...[2, 3], 4]
		console.log(xs.length, xs[2])
	`)
	got := lines(out)
	if got[0] != `{"a":1,"b":3,"cd":4}` {
		t.Fatalf("object spread: got %q", got[0])
	}
	if got[1] != "4 3" {
		t.Fatalf("array spread: got %q", got[1])
	}
}

func TestOptionalChaining(t *testing.T) {
	out := runSource(t, `
		const o = { inner: { v: 1 } }
		console.log(o.inner?.v, o.missing?.v, o.missing?.fn?.())
	`)
	if got := strings.TrimSpace(out); got != "1 undefined undefined" {
		t.Fatalf("got %q", got)
	}
}

func TestFunctionsAndRestParams(t *testing.T) {
	out := runSource(t, `
		function sum(first, ...rest) {
			let total = first
			for (let i = 0; i < rest.length; i++) total += rest[i]
			return total
		}
		console.log(sum(1, 2, 3, 4))
		console.log(sum.name, typeof sum)
	`)
	got := lines(out)
	if got[0] != "10" {
		t.Fatalf("rest params: got %q", got[0])
	}
	if got[1] != "sum function" {
		t.Fatalf("function introspection: got %q", got[1])
	}
}

func TestNamedFunctionFromDeclarator(t *testing.T) {
	out := runSource(t, `
		const f = () => 1
		console.log(f.name)
	`)
	if got := strings.TrimSpace(out); got != "f" {
		t.Fatalf("declarator must name the function, got %q", got)
	}
}

func TestUpdateExpressions(t *testing.T) {
	out := runSource(t, `
		let n = 5
		console.log(n++, n, ++n, n--, --n)
	`)
	if got := strings.TrimSpace(out); got != "5 6 7 7 5" {
		t.Fatalf("got %q", got)
	}
}

func TestTernaryAndTypeof(t *testing.T) {
	out := runSource(t, `
		console.log(1 ? 'yes' : 'no', typeof 1, typeof 'x', typeof undefined, typeof null)
	`)
	if got := strings.TrimSpace(out); got != "yes number string undefined object" {
		t.Fatalf("got %q", got)
	}
}

func TestNewAndInstanceof(t *testing.T) {
	out := runSource(t, `
		function Point(x, y) { this.x = x; this.y = y }
		const p = new Point(1, 2)
		console.log(p.x, p.y, p instanceof Point)
		const q = new Promise(r => r(1))
		console.log(q instanceof Promise)
	`)
	got := lines(out)
	if got[0] != "1 2 true" {
		t.Fatalf("constructor: got %q", got[0])
	}
	if got[1] != "true" {
		t.Fatalf("promise instanceof: got %q", got[1])
	}
}

func TestUnsupportedOperator(t *testing.T) {
	err := runSourceErr(t, `const o = { x: 1 }; delete o.x`)
	var unsup *interpreter.UnsupportedOperatorError
	if !errors.As(err, &unsup) {
		t.Fatalf("expected UnsupportedOperatorError, got %v", err)
	}
	if unsup.Operator != "delete" {
		t.Fatalf("expected delete, got %q", unsup.Operator)
	}
}

func TestJSONGlobalRoundTrip(t *testing.T) {
	out := runSource(t, `
		const x = { a: [1, 2, { b: 'c' }], n: null }
		const y = JSON.parse(JSON.stringify(x))
		console.log(JSON.stringify(y) === JSON.stringify(x))
	`)
	if got := strings.TrimSpace(out); got != "true" {
		t.Fatalf("got %q", got)
	}
}

func TestConsoleFormatting(t *testing.T) {
	out := runSource(t, `
		console.log('%s scored %d points (%f avg)', 'ada', 42, 1.5)
		console.log('plain', { k: 1 }, [1, 2])
	`)
	got := lines(out)
	if got[0] != "ada scored 42 points (1.5 avg)" {
		t.Fatalf("format: %q", got[0])
	}
	if got[1] != "plain { k: 1 } [ 1, 2 ]" {
		t.Fatalf("display: %q", got[1])
	}
}
