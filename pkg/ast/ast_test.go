package ast

import "testing"

func TestNodeTypes(t *testing.T) {
	cases := map[Node]string{
		Prog():                       "Program",
		Block():                      "BlockStatement",
		Ident("x"):                   "Identifier",
		Member(Ident("o"), "p"):      "MemberExpression",
		OptMember(Ident("o"), "p"):   "OptionalMemberExpression",
		Call(Ident("f")):             "CallExpression",
		OptCall(Ident("f")):          "OptionalCallExpression",
		Await(Ident("p")):            "AwaitExpression",
		Bin("+", Num(1), Num(2)):     "BinaryExpression",
		Arrow(Params("x"), Num(1), false): "ArrowFunctionExpression",
	}
	for node, want := range cases {
		if got := node.Type(); got != want {
			t.Fatalf("Type() = %q, want %q", got, want)
		}
	}
}

func TestSetSpan(t *testing.T) {
	n := Ident("x")
	SetSpan(n, Span{Start: 3, End: 4})
	if span := n.Span(); span.Start != 3 || span.End != 4 {
		t.Fatalf("span = %+v", span)
	}
}

func TestLetHelper(t *testing.T) {
	decl := Let("x", Num(1))
	if decl.Kind != "let" || len(decl.Declarations) != 1 {
		t.Fatalf("unexpected declaration: %#v", decl)
	}
	if decl.Declarations[0].ID.Name != "x" {
		t.Fatalf("binding = %q", decl.Declarations[0].ID.Name)
	}
}
