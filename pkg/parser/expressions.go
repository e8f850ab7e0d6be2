package parser

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/ForkKILLET/fkio/pkg/ast"
)

func (ctx *parseContext) parseExpression(node *sitter.Node) (ast.Expression, error) {
	if node == nil {
		return nil, fmt.Errorf("parser: missing expression")
	}
	switch node.Kind() {
	case "parenthesized_expression":
		return ctx.parseExpression(node.NamedChild(0))
	case "identifier":
		return spanned(ctx, node, ast.Ident(ctx.text(node))), nil
	case "undefined":
		return spanned(ctx, node, ast.Ident("undefined")), nil
	case "this":
		return spanned(ctx, node, ast.This()), nil
	case "number":
		return ctx.parseNumber(node)
	case "string":
		value, err := unquoteString(ctx.text(node))
		if err != nil {
			return nil, err
		}
		return spanned(ctx, node, ast.Str(value)), nil
	case "template_string":
		return nil, fmt.Errorf("parser: template literals are not supported")
	case "true":
		return spanned(ctx, node, ast.Bool(true)), nil
	case "false":
		return spanned(ctx, node, ast.Bool(false)), nil
	case "null":
		return spanned(ctx, node, ast.Null()), nil
	case "regex":
		pattern := ctx.text(node.ChildByFieldName("pattern"))
		flags := ctx.text(node.ChildByFieldName("flags"))
		return spanned(ctx, node, ast.Regex(pattern, flags)), nil
	case "binary_expression":
		return ctx.parseBinary(node)
	case "unary_expression":
		arg, err := ctx.parseExpression(node.ChildByFieldName("argument"))
		if err != nil {
			return nil, err
		}
		op := ctx.text(node.ChildByFieldName("operator"))
		return spanned(ctx, node, ast.Unary(op, arg)), nil
	case "update_expression":
		return ctx.parseUpdate(node)
	case "assignment_expression":
		left, err := ctx.parseExpression(node.ChildByFieldName("left"))
		if err != nil {
			return nil, err
		}
		right, err := ctx.parseExpression(node.ChildByFieldName("right"))
		if err != nil {
			return nil, err
		}
		return spanned(ctx, node, ast.Assign("=", left, right)), nil
	case "augmented_assignment_expression":
		left, err := ctx.parseExpression(node.ChildByFieldName("left"))
		if err != nil {
			return nil, err
		}
		right, err := ctx.parseExpression(node.ChildByFieldName("right"))
		if err != nil {
			return nil, err
		}
		op := ctx.text(node.ChildByFieldName("operator"))
		return spanned(ctx, node, ast.Assign(op, left, right)), nil
	case "ternary_expression":
		test, err := ctx.parseExpression(node.ChildByFieldName("condition"))
		if err != nil {
			return nil, err
		}
		consequent, err := ctx.parseExpression(node.ChildByFieldName("consequence"))
		if err != nil {
			return nil, err
		}
		alternate, err := ctx.parseExpression(node.ChildByFieldName("alternative"))
		if err != nil {
			return nil, err
		}
		return spanned(ctx, node, ast.Cond(test, consequent, alternate)), nil
	case "member_expression":
		return ctx.parseMember(node)
	case "subscript_expression":
		return ctx.parseSubscript(node)
	case "call_expression":
		return ctx.parseCall(node)
	case "new_expression":
		return ctx.parseNew(node)
	case "arrow_function":
		return ctx.parseArrow(node)
	case "function_expression", "function":
		return ctx.parseFunctionExpression(node)
	case "await_expression":
		arg, err := ctx.parseExpression(node.NamedChild(0))
		if err != nil {
			return nil, err
		}
		return spanned(ctx, node, ast.Await(arg)), nil
	case "object":
		return ctx.parseObject(node)
	case "array":
		return ctx.parseArray(node)
	case "spread_element":
		arg, err := ctx.parseExpression(node.NamedChild(0))
		if err != nil {
			return nil, err
		}
		return spanned(ctx, node, ast.Spread(arg)), nil
	default:
		return nil, fmt.Errorf("parser: unsupported expression %q", node.Kind())
	}
}

func (ctx *parseContext) parseNumber(node *sitter.Node) (ast.Expression, error) {
	text := strings.ReplaceAll(ctx.text(node), "_", "")
	if len(text) > 2 && text[0] == '0' {
		switch text[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			n, err := strconv.ParseInt(text, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("parser: number literal %q: %w", text, err)
			}
			return spanned(ctx, node, ast.Num(float64(n))), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("parser: number literal %q: %w", text, err)
	}
	return spanned(ctx, node, ast.Num(f)), nil
}

func (ctx *parseContext) parseBinary(node *sitter.Node) (ast.Expression, error) {
	left, err := ctx.parseExpression(node.ChildByFieldName("left"))
	if err != nil {
		return nil, err
	}
	right, err := ctx.parseExpression(node.ChildByFieldName("right"))
	if err != nil {
		return nil, err
	}
	op := ctx.text(node.ChildByFieldName("operator"))
	return spanned(ctx, node, ast.Bin(op, left, right)), nil
}

// parseUpdate distinguishes prefix from postfix by token order: the grammar
// exposes no prefix flag.
func (ctx *parseContext) parseUpdate(node *sitter.Node) (ast.Expression, error) {
	argNode := node.ChildByFieldName("argument")
	opNode := node.ChildByFieldName("operator")
	arg, err := ctx.parseExpression(argNode)
	if err != nil {
		return nil, err
	}
	prefix := opNode != nil && argNode != nil && opNode.StartByte() < argNode.StartByte()
	return spanned(ctx, node, ast.Update(ctx.text(opNode), arg, prefix)), nil
}

func (ctx *parseContext) parseMember(node *sitter.Node) (ast.Expression, error) {
	object, err := ctx.parseExpression(node.ChildByFieldName("object"))
	if err != nil {
		return nil, err
	}
	propNode := node.ChildByFieldName("property")
	if propNode == nil {
		return nil, fmt.Errorf("parser: member access without a property")
	}
	prop := spanned(ctx, propNode, ast.Ident(ctx.text(propNode)))
	return spanned(ctx, node, &ast.MemberExpression{
		Object:   object,
		Property: prop,
		Optional: hasKeywordChild(node, "optional_chain"),
	}), nil
}

func (ctx *parseContext) parseSubscript(node *sitter.Node) (ast.Expression, error) {
	object, err := ctx.parseExpression(node.ChildByFieldName("object"))
	if err != nil {
		return nil, err
	}
	index, err := ctx.parseExpression(node.ChildByFieldName("index"))
	if err != nil {
		return nil, err
	}
	return spanned(ctx, node, &ast.MemberExpression{
		Object:   object,
		Property: index,
		Computed: true,
		Optional: hasKeywordChild(node, "optional_chain"),
	}), nil
}

func (ctx *parseContext) parseCall(node *sitter.Node) (ast.Expression, error) {
	callee, err := ctx.parseExpression(node.ChildByFieldName("function"))
	if err != nil {
		return nil, err
	}
	argsNode := node.ChildByFieldName("arguments")
	if argsNode == nil || argsNode.Kind() != "arguments" {
		return nil, fmt.Errorf("parser: tagged templates are not supported")
	}
	args, err := ctx.parseArguments(argsNode)
	if err != nil {
		return nil, err
	}
	return spanned(ctx, node, &ast.CallExpression{
		Callee:    callee,
		Arguments: args,
		Optional:  hasKeywordChild(node, "optional_chain"),
	}), nil
}

func (ctx *parseContext) parseNew(node *sitter.Node) (ast.Expression, error) {
	callee, err := ctx.parseExpression(node.ChildByFieldName("constructor"))
	if err != nil {
		return nil, err
	}
	var args []ast.Expression
	if argsNode := node.ChildByFieldName("arguments"); argsNode != nil {
		parsed, err := ctx.parseArguments(argsNode)
		if err != nil {
			return nil, err
		}
		args = parsed
	}
	return spanned(ctx, node, &ast.NewExpression{Callee: callee, Arguments: args}), nil
}

func (ctx *parseContext) parseArguments(node *sitter.Node) ([]ast.Expression, error) {
	args := make([]ast.Expression, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if isIgnorableNode(child) {
			continue
		}
		arg, err := ctx.parseExpression(child)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func (ctx *parseContext) parseArrow(node *sitter.Node) (ast.Expression, error) {
	var params []ast.Node
	if single := node.ChildByFieldName("parameter"); single != nil {
		parsed, err := ctx.parseParams(single)
		if err != nil {
			return nil, err
		}
		params = parsed
	} else {
		parsed, err := ctx.parseParams(node.ChildByFieldName("parameters"))
		if err != nil {
			return nil, err
		}
		params = parsed
	}

	bodyNode := node.ChildByFieldName("body")
	var body ast.Node
	if bodyNode != nil && bodyNode.Kind() == "statement_block" {
		block, err := ctx.parseBlock(bodyNode)
		if err != nil {
			return nil, err
		}
		body = block
	} else {
		expr, err := ctx.parseExpression(bodyNode)
		if err != nil {
			return nil, err
		}
		body = expr
	}
	return spanned(ctx, node, &ast.ArrowFunctionExpression{
		Params: params,
		Body:   body,
		Async:  hasKeywordChild(node, "async"),
	}), nil
}

func (ctx *parseContext) parseFunctionExpression(node *sitter.Node) (ast.Expression, error) {
	fn := &ast.FunctionExpression{Async: hasKeywordChild(node, "async")}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		fn.ID = spanned(ctx, nameNode, ast.Ident(ctx.text(nameNode)))
	}
	params, err := ctx.parseParams(node.ChildByFieldName("parameters"))
	if err != nil {
		return nil, err
	}
	fn.Params = params
	body, err := ctx.parseStatement(node.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	fn.Body = body
	ast.SetSpan(fn, ctx.span(node))
	return fn, nil
}

func (ctx *parseContext) parseObject(node *sitter.Node) (ast.Expression, error) {
	obj := &ast.ObjectExpression{}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if isIgnorableNode(child) {
			continue
		}
		switch child.Kind() {
		case "pair":
			prop, err := ctx.parsePair(child)
			if err != nil {
				return nil, err
			}
			obj.Properties = append(obj.Properties, prop)
		case "shorthand_property_identifier":
			name := ctx.text(child)
			prop := &ast.ObjectProperty{
				Key:       spanned(ctx, child, ast.Ident(name)),
				Value:     spanned(ctx, child, ast.Ident(name)),
				Shorthand: true,
			}
			ast.SetSpan(prop, ctx.span(child))
			obj.Properties = append(obj.Properties, prop)
		case "method_definition":
			method, err := ctx.parseMethod(child)
			if err != nil {
				return nil, err
			}
			obj.Properties = append(obj.Properties, method)
		case "spread_element":
			arg, err := ctx.parseExpression(child.NamedChild(0))
			if err != nil {
				return nil, err
			}
			obj.Properties = append(obj.Properties, spanned(ctx, child, ast.Spread(arg)))
		default:
			return nil, fmt.Errorf("parser: unsupported object member %q", child.Kind())
		}
	}
	ast.SetSpan(obj, ctx.span(node))
	return obj, nil
}

func (ctx *parseContext) parsePropertyKey(node *sitter.Node) (ast.Expression, bool, error) {
	switch node.Kind() {
	case "property_identifier":
		return spanned(ctx, node, ast.Ident(ctx.text(node))), false, nil
	case "string":
		value, err := unquoteString(ctx.text(node))
		if err != nil {
			return nil, false, err
		}
		return spanned(ctx, node, ast.Str(value)), false, nil
	case "number":
		num, err := ctx.parseNumber(node)
		return num, false, err
	case "computed_property_name":
		expr, err := ctx.parseExpression(node.NamedChild(0))
		return expr, true, err
	default:
		return nil, false, fmt.Errorf("parser: unsupported property key %q", node.Kind())
	}
}

func (ctx *parseContext) parsePair(node *sitter.Node) (*ast.ObjectProperty, error) {
	key, computed, err := ctx.parsePropertyKey(node.ChildByFieldName("key"))
	if err != nil {
		return nil, err
	}
	value, err := ctx.parseExpression(node.ChildByFieldName("value"))
	if err != nil {
		return nil, err
	}
	prop := &ast.ObjectProperty{Key: key, Value: value, Computed: computed}
	ast.SetSpan(prop, ctx.span(node))
	return prop, nil
}

func (ctx *parseContext) parseMethod(node *sitter.Node) (*ast.ObjectMethod, error) {
	key, computed, err := ctx.parsePropertyKey(node.ChildByFieldName("name"))
	if err != nil {
		return nil, err
	}
	params, err := ctx.parseParams(node.ChildByFieldName("parameters"))
	if err != nil {
		return nil, err
	}
	body, err := ctx.parseStatement(node.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	method := &ast.ObjectMethod{
		Key:      key,
		Computed: computed,
		Params:   params,
		Body:     body,
		Async:    hasKeywordChild(node, "async"),
	}
	ast.SetSpan(method, ctx.span(node))
	return method, nil
}

func (ctx *parseContext) parseArray(node *sitter.Node) (ast.Expression, error) {
	arr := &ast.ArrayExpression{}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if isIgnorableNode(child) {
			continue
		}
		el, err := ctx.parseExpression(child)
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, el)
	}
	ast.SetSpan(arr, ctx.span(node))
	return arr, nil
}

// unquoteString strips the delimiters and decodes the escape sequences the
// subset supports.
func unquoteString(raw string) (string, error) {
	if len(raw) < 2 {
		return "", fmt.Errorf("parser: malformed string literal %q", raw)
	}
	quote := raw[0]
	if raw[len(raw)-1] != quote {
		return "", fmt.Errorf("parser: malformed string literal %q", raw)
	}
	body := raw[1 : len(raw)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("parser: dangling escape in %q", raw)
		}
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case 'x':
			if i+2 >= len(body) {
				return "", fmt.Errorf("parser: malformed \\x escape in %q", raw)
			}
			n, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("parser: malformed \\x escape in %q", raw)
			}
			b.WriteByte(byte(n))
			i += 2
		case 'u':
			if i+4 >= len(body) {
				return "", fmt.Errorf("parser: malformed \\u escape in %q", raw)
			}
			n, err := strconv.ParseUint(body[i+1:i+5], 16, 32)
			if err != nil {
				return "", fmt.Errorf("parser: malformed \\u escape in %q", raw)
			}
			b.WriteRune(rune(n))
			i += 4
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String(), nil
}
