// Package parser turns source text into the engine AST. The primary front
// end runs tree-sitter with the JavaScript grammar and converts the CST; a
// secondary front end decodes Babel-style JSON ASTs produced by host
// tooling.
package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tsjs "github.com/tree-sitter/tree-sitter-javascript/bindings/go"

	"github.com/ForkKILLET/fkio/pkg/ast"
)

// ScriptParser wraps a tree-sitter parser configured for the script subset.
type ScriptParser struct {
	parser *sitter.Parser
}

// NewScriptParser constructs a parser with the JavaScript grammar loaded.
func NewScriptParser() (*ScriptParser, error) {
	lang := sitter.NewLanguage(tsjs.Language())
	if lang == nil {
		return nil, fmt.Errorf("parser: javascript language not available")
	}

	p := sitter.NewParser()
	if err := p.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("parser: %w", err)
	}

	return &ScriptParser{parser: p}, nil
}

// Close releases parser resources.
func (p *ScriptParser) Close() {
	if p == nil || p.parser == nil {
		return
	}
	p.parser.Close()
}

// ParseProgram parses source into the canonical program node.
func (p *ScriptParser) ParseProgram(source []byte) (*ast.Program, error) {
	if p == nil || p.parser == nil {
		return nil, fmt.Errorf("parser: nil parser")
	}

	tree := p.parser.Parse(source, nil)
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parser: unexpected root node")
	}
	if root.Kind() != "program" {
		return nil, fmt.Errorf("parser: unexpected root node %q", root.Kind())
	}
	if root.HasError() {
		return nil, syntaxError(root)
	}

	ctx := newParseContext(source)
	return ctx.parseProgram(root)
}

// Parse is the convenience entry point: one-shot parse of a source buffer.
func Parse(source []byte) (*ast.Program, error) {
	p, err := NewScriptParser()
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.ParseProgram(source)
}

type parseContext struct {
	source []byte
}

func newParseContext(source []byte) *parseContext {
	return &parseContext{source: source}
}

func (ctx *parseContext) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(ctx.source) {
		return ""
	}
	return string(ctx.source[start:end])
}

func (ctx *parseContext) span(node *sitter.Node) ast.Span {
	return ast.Span{Start: int(node.StartByte()), End: int(node.EndByte())}
}

// spanned attaches node's span to the freshly built AST node.
func spanned[N ast.Node](ctx *parseContext, node *sitter.Node, built N) N {
	ast.SetSpan(built, ctx.span(node))
	return built
}

func (ctx *parseContext) parseProgram(root *sitter.Node) (*ast.Program, error) {
	body := make([]ast.Statement, 0, root.NamedChildCount())
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if isIgnorableNode(child) {
			continue
		}
		stmt, err := ctx.parseStatement(child)
		if err != nil {
			return nil, wrapParseError(child, err)
		}
		if stmt != nil {
			body = append(body, stmt)
		}
	}
	return spanned(ctx, root, &ast.Program{Body: body}), nil
}

func isIgnorableNode(node *sitter.Node) bool {
	if node == nil {
		return true
	}
	switch node.Kind() {
	case "comment", "empty_statement", "hash_bang_line":
		return true
	default:
		return false
	}
}

// hasKeywordChild reports whether an unnamed child token (such as `async` or
// an optional chain marker) appears directly under node.
func hasKeywordChild(node *sitter.Node, keyword string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.Kind() == keyword {
			return true
		}
	}
	return false
}
