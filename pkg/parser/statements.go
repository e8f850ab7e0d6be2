package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/ForkKILLET/fkio/pkg/ast"
)

func (ctx *parseContext) parseStatement(node *sitter.Node) (ast.Statement, error) {
	switch node.Kind() {
	case "expression_statement":
		expr, err := ctx.parseExpression(node.NamedChild(0))
		if err != nil {
			return nil, err
		}
		return spanned(ctx, node, &ast.ExpressionStatement{Expression: expr}), nil
	case "lexical_declaration", "variable_declaration":
		return ctx.parseVariableDeclaration(node)
	case "statement_block":
		return ctx.parseBlock(node)
	case "if_statement":
		return ctx.parseIf(node)
	case "for_statement":
		return ctx.parseFor(node)
	case "while_statement":
		test, err := ctx.parseExpression(unwrapParens(node.ChildByFieldName("condition")))
		if err != nil {
			return nil, err
		}
		body, err := ctx.parseStatement(node.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		return spanned(ctx, node, &ast.WhileStatement{Test: test, Body: body}), nil
	case "do_statement":
		body, err := ctx.parseStatement(node.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		test, err := ctx.parseExpression(unwrapParens(node.ChildByFieldName("condition")))
		if err != nil {
			return nil, err
		}
		return spanned(ctx, node, &ast.DoWhileStatement{Body: body, Test: test}), nil
	case "break_statement":
		if node.ChildByFieldName("label") != nil {
			return nil, fmt.Errorf("parser: labeled break is not supported")
		}
		return spanned(ctx, node, &ast.BreakStatement{}), nil
	case "continue_statement":
		if node.ChildByFieldName("label") != nil {
			return nil, fmt.Errorf("parser: labeled continue is not supported")
		}
		return spanned(ctx, node, &ast.ContinueStatement{}), nil
	case "return_statement":
		var arg ast.Expression
		if child := node.NamedChild(0); child != nil && !isIgnorableNode(child) {
			parsed, err := ctx.parseExpression(child)
			if err != nil {
				return nil, err
			}
			arg = parsed
		}
		return spanned(ctx, node, &ast.ReturnStatement{Argument: arg}), nil
	case "function_declaration":
		return ctx.parseFunctionDeclaration(node)
	case "empty_statement", "comment":
		return nil, nil
	default:
		return nil, fmt.Errorf("parser: unsupported statement %q", node.Kind())
	}
}

func (ctx *parseContext) parseBlock(node *sitter.Node) (*ast.BlockStatement, error) {
	body := make([]ast.Statement, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if isIgnorableNode(child) {
			continue
		}
		stmt, err := ctx.parseStatement(child)
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			body = append(body, stmt)
		}
	}
	return spanned(ctx, node, &ast.BlockStatement{Body: body}), nil
}

func (ctx *parseContext) parseVariableDeclaration(node *sitter.Node) (*ast.VariableDeclaration, error) {
	kind := "var"
	for _, k := range []string{"let", "const"} {
		if hasKeywordChild(node, k) {
			kind = k
		}
	}
	decl := &ast.VariableDeclaration{Kind: kind}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			return nil, fmt.Errorf("parser: declarator without a name")
		}
		if nameNode.Kind() != "identifier" {
			return nil, fmt.Errorf("parser: unsupported declaration pattern %q", nameNode.Kind())
		}
		d := &ast.VariableDeclarator{
			ID: spanned(ctx, nameNode, ast.Ident(ctx.text(nameNode))),
		}
		if valueNode := child.ChildByFieldName("value"); valueNode != nil {
			init, err := ctx.parseExpression(valueNode)
			if err != nil {
				return nil, err
			}
			d.Init = init
		}
		ast.SetSpan(d, ctx.span(child))
		decl.Declarations = append(decl.Declarations, d)
	}
	ast.SetSpan(decl, ctx.span(node))
	return decl, nil
}

func (ctx *parseContext) parseIf(node *sitter.Node) (*ast.IfStatement, error) {
	test, err := ctx.parseExpression(unwrapParens(node.ChildByFieldName("condition")))
	if err != nil {
		return nil, err
	}
	consequent, err := ctx.parseStatement(node.ChildByFieldName("consequence"))
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStatement{Test: test, Consequent: consequent}
	if alt := node.ChildByFieldName("alternative"); alt != nil {
		// else_clause wraps the actual statement.
		inner := alt
		if alt.Kind() == "else_clause" {
			inner = alt.NamedChild(0)
		}
		if inner != nil {
			alternate, err := ctx.parseStatement(inner)
			if err != nil {
				return nil, err
			}
			stmt.Alternate = alternate
		}
	}
	ast.SetSpan(stmt, ctx.span(node))
	return stmt, nil
}

// parseFor maps the grammar's header, where the condition slot is an
// expression_statement and absent clauses are empty statements.
func (ctx *parseContext) parseFor(node *sitter.Node) (*ast.ForStatement, error) {
	stmt := &ast.ForStatement{}

	if init := node.ChildByFieldName("initializer"); init != nil {
		switch init.Kind() {
		case "lexical_declaration", "variable_declaration":
			decl, err := ctx.parseVariableDeclaration(init)
			if err != nil {
				return nil, err
			}
			stmt.Init = decl
		case "expression_statement":
			expr, err := ctx.parseExpression(init.NamedChild(0))
			if err != nil {
				return nil, err
			}
			stmt.Init = expr
		case "empty_statement":
		default:
			return nil, fmt.Errorf("parser: unsupported for initializer %q", init.Kind())
		}
	}

	if cond := node.ChildByFieldName("condition"); cond != nil && cond.Kind() != "empty_statement" {
		inner := cond
		if cond.Kind() == "expression_statement" {
			inner = cond.NamedChild(0)
		}
		test, err := ctx.parseExpression(inner)
		if err != nil {
			return nil, err
		}
		stmt.Test = test
	}

	if inc := node.ChildByFieldName("increment"); inc != nil {
		update, err := ctx.parseExpression(inc)
		if err != nil {
			return nil, err
		}
		stmt.Update = update
	}

	body, err := ctx.parseStatement(node.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	ast.SetSpan(stmt, ctx.span(node))
	return stmt, nil
}

func (ctx *parseContext) parseFunctionDeclaration(node *sitter.Node) (*ast.FunctionDeclaration, error) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil, fmt.Errorf("parser: function declaration without a name")
	}
	params, err := ctx.parseParams(node.ChildByFieldName("parameters"))
	if err != nil {
		return nil, err
	}
	body, err := ctx.parseStatement(node.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	return spanned(ctx, node, &ast.FunctionDeclaration{
		ID:     spanned(ctx, nameNode, ast.Ident(ctx.text(nameNode))),
		Params: params,
		Body:   body,
		Async:  hasKeywordChild(node, "async"),
	}), nil
}

func (ctx *parseContext) parseParams(node *sitter.Node) ([]ast.Node, error) {
	if node == nil {
		return nil, nil
	}
	if node.Kind() == "identifier" {
		// Single bare arrow parameter.
		return []ast.Node{spanned(ctx, node, ast.Ident(ctx.text(node)))}, nil
	}
	params := make([]ast.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if isIgnorableNode(child) {
			continue
		}
		switch child.Kind() {
		case "identifier":
			params = append(params, spanned(ctx, child, ast.Ident(ctx.text(child))))
		case "rest_pattern":
			inner := child.NamedChild(0)
			if inner == nil || inner.Kind() != "identifier" {
				return nil, fmt.Errorf("parser: unsupported rest pattern")
			}
			params = append(params, spanned(ctx, child, ast.Rest(ctx.text(inner))))
		default:
			return nil, fmt.Errorf("parser: unsupported parameter pattern %q", child.Kind())
		}
	}
	return params, nil
}

func unwrapParens(node *sitter.Node) *sitter.Node {
	for node != nil && node.Kind() == "parenthesized_expression" {
		node = node.NamedChild(0)
	}
	return node
}
