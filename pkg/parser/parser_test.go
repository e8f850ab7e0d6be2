package parser

import (
	"errors"
	"testing"

	"github.com/ForkKILLET/fkio/pkg/ast"
)

func parseOne(t *testing.T, source string) ast.Statement {
	t.Helper()
	prog, err := Parse([]byte(source))
	if err != nil {
		t.Fatalf("parse %q: %v", source, err)
	}
	if len(prog.Body) != 1 {
		t.Fatalf("expected one statement, got %d", len(prog.Body))
	}
	return prog.Body[0]
}

func parseExpr(t *testing.T, source string) ast.Expression {
	t.Helper()
	stmt, ok := parseOne(t, source).(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected expression statement for %q", source)
	}
	return stmt.Expression
}

func TestParseVariableDeclaration(t *testing.T) {
	stmt, ok := parseOne(t, "let x = 1, y").(*ast.VariableDeclaration)
	if !ok {
		t.Fatalf("expected VariableDeclaration")
	}
	if stmt.Kind != "let" {
		t.Fatalf("kind = %q", stmt.Kind)
	}
	if len(stmt.Declarations) != 2 {
		t.Fatalf("expected 2 declarators, got %d", len(stmt.Declarations))
	}
	if stmt.Declarations[0].ID.Name != "x" {
		t.Fatalf("first declarator = %q", stmt.Declarations[0].ID.Name)
	}
	if num, ok := stmt.Declarations[0].Init.(*ast.NumericLiteral); !ok || num.Value != 1 {
		t.Fatalf("first initializer = %#v", stmt.Declarations[0].Init)
	}
	if stmt.Declarations[1].Init != nil {
		t.Fatalf("second declarator must have no initializer")
	}
}

func TestParseBinaryExpression(t *testing.T) {
	expr, ok := parseExpr(t, "1 + 2 * 3").(*ast.BinaryExpression)
	if !ok {
		t.Fatalf("expected BinaryExpression")
	}
	if expr.Operator != "+" {
		t.Fatalf("operator = %q", expr.Operator)
	}
	right, ok := expr.Right.(*ast.BinaryExpression)
	if !ok || right.Operator != "*" {
		t.Fatalf("precedence lost: %#v", expr.Right)
	}
}

func TestParseLogicalOperatorsFoldIntoBinary(t *testing.T) {
	for _, op := range []string{"&&", "||", "??"} {
		expr, ok := parseExpr(t, "a "+op+" b").(*ast.BinaryExpression)
		if !ok {
			t.Fatalf("%s: expected BinaryExpression", op)
		}
		if expr.Operator != op {
			t.Fatalf("operator = %q, want %q", expr.Operator, op)
		}
	}
}

func TestParseArrowFunction(t *testing.T) {
	expr, ok := parseExpr(t, "async (a, ...rest) => a").(*ast.ArrowFunctionExpression)
	if !ok {
		t.Fatalf("expected ArrowFunctionExpression")
	}
	if !expr.Async {
		t.Fatalf("async flag lost")
	}
	if len(expr.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(expr.Params))
	}
	if _, ok := expr.Params[1].(*ast.RestElement); !ok {
		t.Fatalf("expected rest element, got %s", expr.Params[1].Type())
	}
	if _, ok := expr.Body.(*ast.Identifier); !ok {
		t.Fatalf("expected expression body, got %s", expr.Body.Type())
	}
}

func TestParseSingleParamArrow(t *testing.T) {
	expr, ok := parseExpr(t, "x => x * 2").(*ast.ArrowFunctionExpression)
	if !ok {
		t.Fatalf("expected ArrowFunctionExpression")
	}
	if len(expr.Params) != 1 {
		t.Fatalf("expected 1 param, got %d", len(expr.Params))
	}
}

func TestParseMemberAndCall(t *testing.T) {
	expr, ok := parseExpr(t, "o.m(1, ...xs)").(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected CallExpression")
	}
	member, ok := expr.Callee.(*ast.MemberExpression)
	if !ok || member.Computed {
		t.Fatalf("expected non-computed member callee: %#v", expr.Callee)
	}
	if len(expr.Arguments) != 2 {
		t.Fatalf("expected 2 arguments, got %d", len(expr.Arguments))
	}
	if _, ok := expr.Arguments[1].(*ast.SpreadElement); !ok {
		t.Fatalf("expected spread argument")
	}
}

func TestParseOptionalChain(t *testing.T) {
	expr, ok := parseExpr(t, "o?.p").(*ast.MemberExpression)
	if !ok {
		t.Fatalf("expected MemberExpression")
	}
	if !expr.Optional {
		t.Fatalf("optional flag lost")
	}
	if expr.Type() != "OptionalMemberExpression" {
		t.Fatalf("type = %q", expr.Type())
	}

	sub, ok := parseExpr(t, "a?.[0]").(*ast.MemberExpression)
	if !ok || !sub.Computed || !sub.Optional {
		t.Fatalf("expected optional computed member, got %#v", sub)
	}
}

func TestParseAwait(t *testing.T) {
	expr, ok := parseExpr(t, "await p").(*ast.AwaitExpression)
	if !ok {
		t.Fatalf("expected AwaitExpression")
	}
	if _, ok := expr.Argument.(*ast.Identifier); !ok {
		t.Fatalf("argument = %#v", expr.Argument)
	}
}

func TestParseForHeader(t *testing.T) {
	stmt, ok := parseOne(t, "for (let i = 0; i < 3; i++) {}").(*ast.ForStatement)
	if !ok {
		t.Fatalf("expected ForStatement")
	}
	if _, ok := stmt.Init.(*ast.VariableDeclaration); !ok {
		t.Fatalf("init = %#v", stmt.Init)
	}
	if _, ok := stmt.Test.(*ast.BinaryExpression); !ok {
		t.Fatalf("test = %#v", stmt.Test)
	}
	if _, ok := stmt.Update.(*ast.UpdateExpression); !ok {
		t.Fatalf("update = %#v", stmt.Update)
	}

	bare, ok := parseOne(t, "for (;;) break").(*ast.ForStatement)
	if !ok {
		t.Fatalf("expected ForStatement")
	}
	if bare.Init != nil || bare.Test != nil || bare.Update != nil {
		t.Fatalf("empty header must leave clauses nil: %#v", bare)
	}
}

func TestParseUpdatePrefix(t *testing.T) {
	pre, ok := parseExpr(t, "++n").(*ast.UpdateExpression)
	if !ok || !pre.Prefix {
		t.Fatalf("expected prefix update, got %#v", pre)
	}
	post, ok := parseExpr(t, "n--").(*ast.UpdateExpression)
	if !ok || post.Prefix {
		t.Fatalf("expected postfix update, got %#v", post)
	}
	if post.Operator != "--" {
		t.Fatalf("operator = %q", post.Operator)
	}
}

func TestParseStringEscapes(t *testing.T) {
	expr, ok := parseExpr(t, `'a\nbA'`).(*ast.StringLiteral)
	if !ok {
		t.Fatalf("expected StringLiteral")
	}
	if expr.Value != "a\nbA" {
		t.Fatalf("value = %q", expr.Value)
	}
}

func TestParseNumberForms(t *testing.T) {
	cases := map[string]float64{
		"42":    42,
		"4.25":  4.25,
		"1e3":   1000,
		"0xff":  255,
		"0b101": 5,
		"1_000": 1000,
	}
	for src, want := range cases {
		expr, ok := parseExpr(t, src).(*ast.NumericLiteral)
		if !ok {
			t.Fatalf("%s: expected NumericLiteral", src)
		}
		if expr.Value != want {
			t.Fatalf("%s = %v, want %v", src, expr.Value, want)
		}
	}
}

func TestParseObjectForms(t *testing.T) {
	expr, ok := parseExpr(t, "x = { a: 1, b, m() { return 1 }, ...rest }").(*ast.AssignmentExpression)
	if !ok {
		t.Fatalf("expected AssignmentExpression")
	}
	obj, ok := expr.Right.(*ast.ObjectExpression)
	if !ok {
		t.Fatalf("expected ObjectExpression, got %#v", expr.Right)
	}
	if len(obj.Properties) != 4 {
		t.Fatalf("expected 4 members, got %d", len(obj.Properties))
	}
	if _, ok := obj.Properties[0].(*ast.ObjectProperty); !ok {
		t.Fatalf("member 0: %s", obj.Properties[0].Type())
	}
	short, ok := obj.Properties[1].(*ast.ObjectProperty)
	if !ok || !short.Shorthand {
		t.Fatalf("member 1 must be shorthand")
	}
	if _, ok := obj.Properties[2].(*ast.ObjectMethod); !ok {
		t.Fatalf("member 2: %s", obj.Properties[2].Type())
	}
	if _, ok := obj.Properties[3].(*ast.SpreadElement); !ok {
		t.Fatalf("member 3: %s", obj.Properties[3].Type())
	}
}

func TestParseSpans(t *testing.T) {
	source := "let value = 10"
	prog, err := Parse([]byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	span := prog.Body[0].Span()
	if span.Start != 0 || span.End != len(source) {
		t.Fatalf("span = %+v", span)
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse([]byte("let x = ;"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Location.Line == 0 {
		t.Fatalf("expected a located error, got %+v", parseErr)
	}
}

func TestParseUnsupportedConstructs(t *testing.T) {
	for _, src := range []string{
		"`template ${x}`",
		"class A {}",
		"try { x() } catch (e) {}",
		"for (const v of xs) {}",
	} {
		if _, err := Parse([]byte(src)); err == nil {
			t.Fatalf("%s: expected an error", src)
		}
	}
}
