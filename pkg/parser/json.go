package parser

import (
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/ForkKILLET/fkio/pkg/ast"
)

// ParseJSON decodes a Babel-style JSON AST into the engine AST. Host tools
// that already run a JavaScript parser hand the engine its output through
// this front end; it accepts the same node set the evaluator supports, plus
// LogicalExpression, which folds into BinaryExpression.
func ParseJSON(data []byte) (*ast.Program, error) {
	var raw map[string]any
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parser: decode json ast: %w", err)
	}
	node, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	prog, ok := node.(*ast.Program)
	if !ok {
		return nil, fmt.Errorf("parser: json ast root is %s, want Program", node.Type())
	}
	return prog, nil
}

func decodeNode(raw map[string]any) (ast.Node, error) {
	typ, _ := raw["type"].(string)
	var (
		node ast.Node
		err  error
	)
	switch typ {
	case "Program", "File":
		node, err = decodeProgram(raw)
	case "BlockStatement", "ExpressionStatement", "VariableDeclaration", "IfStatement",
		"ForStatement", "WhileStatement", "DoWhileStatement", "BreakStatement",
		"ContinueStatement", "ReturnStatement", "FunctionDeclaration", "EmptyStatement":
		node, err = decodeStatement(raw, typ)
	default:
		node, err = decodeExpressionNode(raw, typ)
	}
	if err != nil {
		return nil, err
	}
	if node != nil {
		ast.SetSpan(node, decodeSpan(raw))
	}
	return node, nil
}

func decodeSpan(raw map[string]any) ast.Span {
	start, _ := raw["start"].(float64)
	end, _ := raw["end"].(float64)
	return ast.Span{Start: int(start), End: int(end)}
}

func childMap(raw map[string]any, key string) (map[string]any, bool) {
	m, ok := raw[key].(map[string]any)
	return m, ok
}

func childList(raw map[string]any, key string) []any {
	l, _ := raw[key].([]any)
	return l
}

func decodeChild(raw map[string]any, key string) (ast.Node, error) {
	m, ok := childMap(raw, key)
	if !ok {
		return nil, nil
	}
	return decodeNode(m)
}

func decodeExpr(raw map[string]any, key string) (ast.Expression, error) {
	node, err := decodeChild(raw, key)
	if err != nil || node == nil {
		return nil, err
	}
	expr, ok := node.(ast.Expression)
	if !ok {
		return nil, fmt.Errorf("parser: %s is %s, want expression", key, node.Type())
	}
	return expr, nil
}

func decodeStmt(raw map[string]any, key string) (ast.Statement, error) {
	node, err := decodeChild(raw, key)
	if err != nil || node == nil {
		return nil, err
	}
	stmt, ok := node.(ast.Statement)
	if !ok {
		return nil, fmt.Errorf("parser: %s is %s, want statement", key, node.Type())
	}
	return stmt, nil
}

func decodeStmtList(raw map[string]any, key string) ([]ast.Statement, error) {
	items := childList(raw, key)
	out := make([]ast.Statement, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := m["type"].(string); t == "EmptyStatement" || t == "ImportDeclaration" {
			continue
		}
		node, err := decodeNode(m)
		if err != nil {
			return nil, err
		}
		stmt, ok := node.(ast.Statement)
		if !ok {
			return nil, fmt.Errorf("parser: %s entry is %s, want statement", key, node.Type())
		}
		out = append(out, stmt)
	}
	return out, nil
}

func decodeProgram(raw map[string]any) (ast.Node, error) {
	// Babel wraps the program in a File node.
	if prog, ok := childMap(raw, "program"); ok {
		return decodeNode(prog)
	}
	body, err := decodeStmtList(raw, "body")
	if err != nil {
		return nil, err
	}
	return &ast.Program{Body: body}, nil
}

func decodeStatement(raw map[string]any, typ string) (ast.Node, error) {
	switch typ {
	case "BlockStatement":
		body, err := decodeStmtList(raw, "body")
		if err != nil {
			return nil, err
		}
		return &ast.BlockStatement{Body: body}, nil
	case "ExpressionStatement":
		expr, err := decodeExpr(raw, "expression")
		if err != nil {
			return nil, err
		}
		return &ast.ExpressionStatement{Expression: expr}, nil
	case "VariableDeclaration":
		kind, _ := raw["kind"].(string)
		decl := &ast.VariableDeclaration{Kind: kind}
		for _, item := range childList(raw, "declarations") {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			id, err := decodeIdentifier(m, "id")
			if err != nil {
				return nil, err
			}
			init, err := decodeExpr(m, "init")
			if err != nil {
				return nil, err
			}
			d := &ast.VariableDeclarator{ID: id, Init: init}
			ast.SetSpan(d, decodeSpan(m))
			decl.Declarations = append(decl.Declarations, d)
		}
		return decl, nil
	case "IfStatement":
		test, err := decodeExpr(raw, "test")
		if err != nil {
			return nil, err
		}
		consequent, err := decodeStmt(raw, "consequent")
		if err != nil {
			return nil, err
		}
		alternate, err := decodeStmt(raw, "alternate")
		if err != nil {
			return nil, err
		}
		return &ast.IfStatement{Test: test, Consequent: consequent, Alternate: alternate}, nil
	case "ForStatement":
		init, err := decodeChild(raw, "init")
		if err != nil {
			return nil, err
		}
		test, err := decodeExpr(raw, "test")
		if err != nil {
			return nil, err
		}
		update, err := decodeExpr(raw, "update")
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(raw, "body")
		if err != nil {
			return nil, err
		}
		return &ast.ForStatement{Init: init, Test: test, Update: update, Body: body}, nil
	case "WhileStatement":
		test, err := decodeExpr(raw, "test")
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(raw, "body")
		if err != nil {
			return nil, err
		}
		return &ast.WhileStatement{Test: test, Body: body}, nil
	case "DoWhileStatement":
		body, err := decodeStmt(raw, "body")
		if err != nil {
			return nil, err
		}
		test, err := decodeExpr(raw, "test")
		if err != nil {
			return nil, err
		}
		return &ast.DoWhileStatement{Body: body, Test: test}, nil
	case "BreakStatement":
		return &ast.BreakStatement{}, nil
	case "ContinueStatement":
		return &ast.ContinueStatement{}, nil
	case "ReturnStatement":
		arg, err := decodeExpr(raw, "argument")
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStatement{Argument: arg}, nil
	case "FunctionDeclaration":
		id, err := decodeIdentifier(raw, "id")
		if err != nil {
			return nil, err
		}
		params, err := decodeParams(raw)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(raw, "body")
		if err != nil {
			return nil, err
		}
		async, _ := raw["async"].(bool)
		return &ast.FunctionDeclaration{ID: id, Params: params, Body: body, Async: async}, nil
	case "EmptyStatement":
		return &ast.BlockStatement{}, nil
	default:
		return nil, fmt.Errorf("parser: unsupported json node %q", typ)
	}
}

func decodeExpressionNode(raw map[string]any, typ string) (ast.Node, error) {
	switch typ {
	case "Identifier":
		name, _ := raw["name"].(string)
		return ast.Ident(name), nil
	case "ThisExpression":
		return ast.This(), nil
	case "StringLiteral":
		value, _ := raw["value"].(string)
		return ast.Str(value), nil
	case "NumericLiteral":
		value, _ := raw["value"].(float64)
		return ast.Num(value), nil
	case "BooleanLiteral":
		value, _ := raw["value"].(bool)
		return ast.Bool(value), nil
	case "NullLiteral":
		return ast.Null(), nil
	case "RegExpLiteral":
		pattern, _ := raw["pattern"].(string)
		flags, _ := raw["flags"].(string)
		return ast.Regex(pattern, flags), nil
	case "MemberExpression", "OptionalMemberExpression":
		object, err := decodeExpr(raw, "object")
		if err != nil {
			return nil, err
		}
		property, err := decodeExpr(raw, "property")
		if err != nil {
			return nil, err
		}
		computed, _ := raw["computed"].(bool)
		return &ast.MemberExpression{
			Object:   object,
			Property: property,
			Computed: computed,
			Optional: typ == "OptionalMemberExpression",
		}, nil
	case "UnaryExpression":
		op, _ := raw["operator"].(string)
		arg, err := decodeExpr(raw, "argument")
		if err != nil {
			return nil, err
		}
		return ast.Unary(op, arg), nil
	case "BinaryExpression", "LogicalExpression":
		op, _ := raw["operator"].(string)
		left, err := decodeExpr(raw, "left")
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(raw, "right")
		if err != nil {
			return nil, err
		}
		return ast.Bin(op, left, right), nil
	case "ConditionalExpression":
		test, err := decodeExpr(raw, "test")
		if err != nil {
			return nil, err
		}
		consequent, err := decodeExpr(raw, "consequent")
		if err != nil {
			return nil, err
		}
		alternate, err := decodeExpr(raw, "alternate")
		if err != nil {
			return nil, err
		}
		return ast.Cond(test, consequent, alternate), nil
	case "AssignmentExpression":
		op, _ := raw["operator"].(string)
		left, err := decodeExpr(raw, "left")
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(raw, "right")
		if err != nil {
			return nil, err
		}
		return ast.Assign(op, left, right), nil
	case "UpdateExpression":
		op, _ := raw["operator"].(string)
		prefix, _ := raw["prefix"].(bool)
		arg, err := decodeExpr(raw, "argument")
		if err != nil {
			return nil, err
		}
		return ast.Update(op, arg, prefix), nil
	case "ObjectExpression":
		obj := &ast.ObjectExpression{}
		for _, item := range childList(raw, "properties") {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			prop, err := decodeObjectMember(m)
			if err != nil {
				return nil, err
			}
			obj.Properties = append(obj.Properties, prop)
		}
		return obj, nil
	case "ArrayExpression":
		arr := &ast.ArrayExpression{}
		for _, item := range childList(raw, "elements") {
			if item == nil {
				arr.Elements = append(arr.Elements, nil)
				continue
			}
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			node, err := decodeNode(m)
			if err != nil {
				return nil, err
			}
			expr, ok := node.(ast.Expression)
			if !ok {
				return nil, fmt.Errorf("parser: array element is %s", node.Type())
			}
			arr.Elements = append(arr.Elements, expr)
		}
		return arr, nil
	case "SpreadElement":
		arg, err := decodeExpr(raw, "argument")
		if err != nil {
			return nil, err
		}
		return ast.Spread(arg), nil
	case "CallExpression", "OptionalCallExpression":
		callee, err := decodeExpr(raw, "callee")
		if err != nil {
			return nil, err
		}
		args, err := decodeExprList(raw, "arguments")
		if err != nil {
			return nil, err
		}
		return &ast.CallExpression{
			Callee:    callee,
			Arguments: args,
			Optional:  typ == "OptionalCallExpression",
		}, nil
	case "NewExpression":
		callee, err := decodeExpr(raw, "callee")
		if err != nil {
			return nil, err
		}
		args, err := decodeExprList(raw, "arguments")
		if err != nil {
			return nil, err
		}
		return &ast.NewExpression{Callee: callee, Arguments: args}, nil
	case "FunctionExpression":
		fn := &ast.FunctionExpression{}
		if id, ok := childMap(raw, "id"); ok {
			ident, err := decodeIdentifierMap(id)
			if err != nil {
				return nil, err
			}
			fn.ID = ident
		}
		params, err := decodeParams(raw)
		if err != nil {
			return nil, err
		}
		fn.Params = params
		body, err := decodeStmt(raw, "body")
		if err != nil {
			return nil, err
		}
		fn.Body = body
		fn.Async, _ = raw["async"].(bool)
		return fn, nil
	case "ArrowFunctionExpression":
		params, err := decodeParams(raw)
		if err != nil {
			return nil, err
		}
		body, err := decodeChild(raw, "body")
		if err != nil {
			return nil, err
		}
		async, _ := raw["async"].(bool)
		return &ast.ArrowFunctionExpression{Params: params, Body: body, Async: async}, nil
	case "AwaitExpression":
		arg, err := decodeExpr(raw, "argument")
		if err != nil {
			return nil, err
		}
		return ast.Await(arg), nil
	case "ParenthesizedExpression":
		return decodeChild(raw, "expression")
	default:
		return nil, fmt.Errorf("parser: unsupported json node %q", typ)
	}
}

func decodeObjectMember(raw map[string]any) (ast.Node, error) {
	typ, _ := raw["type"].(string)
	switch typ {
	case "ObjectProperty", "Property":
		key, err := decodeExpr(raw, "key")
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(raw, "value")
		if err != nil {
			return nil, err
		}
		computed, _ := raw["computed"].(bool)
		shorthand, _ := raw["shorthand"].(bool)
		prop := &ast.ObjectProperty{Key: key, Value: value, Computed: computed, Shorthand: shorthand}
		ast.SetSpan(prop, decodeSpan(raw))
		return prop, nil
	case "ObjectMethod":
		key, err := decodeExpr(raw, "key")
		if err != nil {
			return nil, err
		}
		params, err := decodeParams(raw)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(raw, "body")
		if err != nil {
			return nil, err
		}
		computed, _ := raw["computed"].(bool)
		async, _ := raw["async"].(bool)
		method := &ast.ObjectMethod{Key: key, Computed: computed, Params: params, Body: body, Async: async}
		ast.SetSpan(method, decodeSpan(raw))
		return method, nil
	case "SpreadElement":
		arg, err := decodeExpr(raw, "argument")
		if err != nil {
			return nil, err
		}
		sp := ast.Spread(arg)
		ast.SetSpan(sp, decodeSpan(raw))
		return sp, nil
	default:
		return nil, fmt.Errorf("parser: unsupported object member %q", typ)
	}
}

func decodeExprList(raw map[string]any, key string) ([]ast.Expression, error) {
	items := childList(raw, key)
	out := make([]ast.Expression, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		node, err := decodeNode(m)
		if err != nil {
			return nil, err
		}
		expr, ok := node.(ast.Expression)
		if !ok {
			return nil, fmt.Errorf("parser: %s entry is %s, want expression", key, node.Type())
		}
		out = append(out, expr)
	}
	return out, nil
}

func decodeParams(raw map[string]any) ([]ast.Node, error) {
	items := childList(raw, "params")
	out := make([]ast.Node, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := m["type"].(string)
		switch typ {
		case "Identifier":
			name, _ := m["name"].(string)
			ident := ast.Ident(name)
			ast.SetSpan(ident, decodeSpan(m))
			out = append(out, ident)
		case "RestElement":
			inner, ok := childMap(m, "argument")
			if !ok {
				return nil, fmt.Errorf("parser: rest element without argument")
			}
			ident, err := decodeIdentifierMap(inner)
			if err != nil {
				return nil, err
			}
			rest := &ast.RestElement{Argument: ident}
			ast.SetSpan(rest, decodeSpan(m))
			out = append(out, rest)
		default:
			return nil, fmt.Errorf("parser: unsupported parameter pattern %q", typ)
		}
	}
	return out, nil
}

func decodeIdentifier(raw map[string]any, key string) (*ast.Identifier, error) {
	m, ok := childMap(raw, key)
	if !ok {
		return nil, nil
	}
	return decodeIdentifierMap(m)
}

func decodeIdentifierMap(m map[string]any) (*ast.Identifier, error) {
	if typ, _ := m["type"].(string); typ != "Identifier" {
		return nil, fmt.Errorf("parser: expected Identifier, got %q", typ)
	}
	name, _ := m["name"].(string)
	ident := ast.Ident(name)
	ast.SetSpan(ident, decodeSpan(m))
	return ident, nil
}
