package parser

import (
	"testing"

	"github.com/ForkKILLET/fkio/pkg/ast"
)

func TestParseJSONProgram(t *testing.T) {
	data := []byte(`{
		"type": "Program",
		"start": 0, "end": 14,
		"body": [
			{
				"type": "VariableDeclaration",
				"kind": "const",
				"declarations": [
					{
						"type": "VariableDeclarator",
						"id": { "type": "Identifier", "name": "x" },
						"init": {
							"type": "LogicalExpression",
							"operator": "??",
							"left": { "type": "NullLiteral" },
							"right": { "type": "NumericLiteral", "value": 5 }
						}
					}
				]
			}
		]
	}`)
	prog, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(prog.Body) != 1 {
		t.Fatalf("expected one statement")
	}
	decl := prog.Body[0].(*ast.VariableDeclaration)
	if decl.Kind != "const" || decl.Declarations[0].ID.Name != "x" {
		t.Fatalf("declaration shape: %#v", decl)
	}
	bin, ok := decl.Declarations[0].Init.(*ast.BinaryExpression)
	if !ok || bin.Operator != "??" {
		t.Fatalf("LogicalExpression must fold into BinaryExpression, got %#v", decl.Declarations[0].Init)
	}
}

func TestParseJSONFileWrapper(t *testing.T) {
	data := []byte(`{
		"type": "File",
		"program": { "type": "Program", "body": [
			{ "type": "ExpressionStatement", "expression": {
				"type": "BinaryExpression",
				"operator": "|>",
				"left": { "type": "NumericLiteral", "value": 1 },
				"right": { "type": "Identifier", "name": "inc" }
			} }
		] }
	}`)
	prog, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	expr := prog.Body[0].(*ast.ExpressionStatement).Expression.(*ast.BinaryExpression)
	if expr.Operator != "|>" {
		t.Fatalf("pipeline operator lost: %q", expr.Operator)
	}
}

func TestParseJSONArrayHoles(t *testing.T) {
	data := []byte(`{
		"type": "Program",
		"body": [
			{ "type": "ExpressionStatement", "expression": {
				"type": "ArrayExpression",
				"elements": [
					{ "type": "NumericLiteral", "value": 1 },
					null,
					{ "type": "NumericLiteral", "value": 3 }
				]
			} }
		]
	}`)
	prog, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	arr := prog.Body[0].(*ast.ExpressionStatement).Expression.(*ast.ArrayExpression)
	if len(arr.Elements) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(arr.Elements))
	}
	if arr.Elements[1] != nil {
		t.Fatalf("hole must decode to nil")
	}
}

func TestParseJSONAsyncArrow(t *testing.T) {
	data := []byte(`{
		"type": "Program",
		"body": [
			{ "type": "ExpressionStatement", "expression": {
				"type": "ArrowFunctionExpression",
				"async": true,
				"params": [ { "type": "Identifier", "name": "ms" } ],
				"body": {
					"type": "AwaitExpression",
					"argument": { "type": "Identifier", "name": "ms" }
				}
			} }
		]
	}`)
	prog, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	arrow := prog.Body[0].(*ast.ExpressionStatement).Expression.(*ast.ArrowFunctionExpression)
	if !arrow.Async {
		t.Fatalf("async flag lost")
	}
	if _, ok := arrow.Body.(*ast.AwaitExpression); !ok {
		t.Fatalf("body = %#v", arrow.Body)
	}
}

func TestParseJSONRejectsUnknownNode(t *testing.T) {
	data := []byte(`{ "type": "Program", "body": [ { "type": "WithStatement" } ] }`)
	if _, err := ParseJSON(data); err == nil {
		t.Fatalf("expected an error for unsupported node")
	}
}

func TestParseJSONSpans(t *testing.T) {
	data := []byte(`{
		"type": "Program",
		"body": [
			{ "type": "ExpressionStatement", "start": 0, "end": 3, "expression": {
				"type": "Identifier", "name": "abc", "start": 0, "end": 3
			} }
		]
	}`)
	prog, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if span := prog.Body[0].Span(); span.Start != 0 || span.End != 3 {
		t.Fatalf("span = %+v", span)
	}
}
