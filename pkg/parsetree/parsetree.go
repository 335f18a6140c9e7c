// Package parsetree holds the concrete derivation tree built by the parser.
// Internal nodes are labelled with grammar variables, leaves with the
// scanned tokens or with an epsilon marker.
package parsetree

import (
	"strings"

	"github.com/kartiknair/beginc/pkg/token"
)

type Tree struct {
	Label    token.Token
	Children []*Tree
}

func Leaf(t token.Token) *Tree {
	return &Tree{Label: t}
}

func Node(typ token.TokenType, children ...*Tree) *Tree {
	return &Tree{Label: token.Nonterminal(typ), Children: children}
}

func (t *Tree) IsLeaf() bool {
	return len(t.Children) == 0
}

func (t *Tree) IsEpsilon() bool {
	return t.IsLeaf() && t.Label.Type == token.EPSILON
}

// Frontier returns the terminal leaves from left to right, skipping
// epsilon markers. For a tree built by the parser it equals the consumed
// tokens.
func (t *Tree) Frontier() []token.Token {
	var leaves []token.Token
	t.walk(func(n *Tree) {
		if n.IsLeaf() && !n.IsEpsilon() {
			leaves = append(leaves, n.Label)
		}
	})
	return leaves
}

// Size counts every node of the tree.
func (t *Tree) Size() int {
	size := 0
	t.walk(func(*Tree) { size++ })
	return size
}

func (t *Tree) walk(visit func(*Tree)) {
	visit(t)
	for _, c := range t.Children {
		c.walk(visit)
	}
}

// String renders one node per line, indented by depth.
func (t *Tree) String() string {
	var sb strings.Builder
	t.write(&sb, 0)
	return sb.String()
}

func (t *Tree) write(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(label(t))
	sb.WriteByte('\n')
	for _, c := range t.Children {
		c.write(sb, depth+1)
	}
}

// SExpr renders the tree on a single line, e.g.
// (<Program> BEGIN VARNAME(p) (<Code> ε) END).
func (t *Tree) SExpr() string {
	if t.IsLeaf() {
		return label(t)
	}

	parts := make([]string, 0, len(t.Children)+1)
	parts = append(parts, label(t))
	for _, c := range t.Children {
		parts = append(parts, c.SExpr())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func label(t *Tree) string {
	switch t.Label.Type {
	case token.VARNAME, token.NUMBER:
		return t.Label.Type.String() + "(" + t.Label.Lexeme + ")"
	case token.EPSILON:
		return "ε"
	}
	if t.Label.Type.IsNonterminal() {
		return t.Label.Lexeme
	}
	return t.Label.Type.String()
}
