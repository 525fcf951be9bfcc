// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tapscript

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btctaproot/ec"
	"github.com/btcsuite/btctaproot/taproot"
)

// descNode is a parsed descriptor expression: either a function call such as
// pk(<key>) or a bracketed list.
type descNode struct {
	name   string
	args   []*descNode
	isList bool
}

// splitDescriptor strips whitespace and splits s into identifiers and the
// separators ( ) [ ] , each as its own element.
func splitDescriptor(s string) []string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	isSeparator := func(c rune) bool {
		return c == '(' || c == ')' || c == '[' || c == ']' || c == ','
	}

	tokens := make([]string, 0)
	i := 0
	for i < len(s) {
		j := strings.IndexFunc(s[i:], isSeparator)
		if j == -1 {
			tokens = append(tokens, s[i:])
			return tokens
		}
		j += i

		if j > i {
			tokens = append(tokens, s[i:j])
		}
		tokens = append(tokens, s[j:j+1])
		i = j + 1
	}
	return tokens
}

// descParser is a recursive descent parser over descriptor tokens.
type descParser struct {
	tokens []string
	pos    int
}

func malformed(format string, args ...interface{}) error {
	return tapscriptError(ErrMalformedDescriptor, fmt.Sprintf(format, args...))
}

func (p *descParser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *descParser) next() string {
	tok := p.peek()
	p.pos++
	return tok
}

// parseExpr parses ident, ident(args...) or [args...].
func (p *descParser) parseExpr() (*descNode, error) {
	tok := p.next()
	switch tok {
	case "":
		return nil, malformed("unexpected end of descriptor")

	case "[":
		args, err := p.parseArgs("]")
		if err != nil {
			return nil, err
		}
		return &descNode{args: args, isList: true}, nil

	case "(", ")", "]", ",":
		return nil, malformed("unexpected %q at token %d", tok, p.pos-1)
	}

	node := &descNode{name: tok}
	if p.peek() == "(" {
		p.next()
		args, err := p.parseArgs(")")
		if err != nil {
			return nil, err
		}
		node.args = args
	}
	return node, nil
}

// parseArgs parses a comma separated, non-empty argument list up to and
// including closer.
func (p *descParser) parseArgs(closer string) ([]*descNode, error) {
	var args []*descNode
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		switch tok := p.next(); tok {
		case ",":
			continue
		case closer:
			return args, nil
		default:
			return nil, malformed("expected , or %s, got %q", closer,
				tok)
		}
	}
}

// parseDescriptor parses s as exactly one expression.
func parseDescriptor(s string) (*descNode, error) {
	p := &descParser{tokens: splitDescriptor(s)}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, malformed("trailing data after descriptor: %s",
			strings.Join(p.tokens[p.pos:], ""))
	}
	return node, nil
}

// value returns the identifier of an argument that must not have arguments
// itself.
func (n *descNode) value() (string, error) {
	if n.isList || n.args != nil {
		return "", malformed("expected a value, got an expression")
	}
	return n.name, nil
}

func parseKeyArg(n *descNode) (*btcec.PublicKey, error) {
	s, err := n.value()
	if err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != ec.XOnlyKeyLen {
		return nil, malformed("invalid x-only key %q", s)
	}
	key, err := ec.ParseXOnly(b)
	if err != nil {
		return nil, malformed("invalid x-only key %q: %v", s, err)
	}
	return key, nil
}

func parseHashArg(n *descNode) ([]byte, error) {
	s, err := n.value()
	if err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, malformed("invalid hash %q", s)
	}
	return b, nil
}

func parseUintArg(n *descNode, bits int) (uint64, error) {
	s, err := n.value()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, malformed("invalid number %q", s)
	}
	return v, nil
}

// ParseLeafDescriptor parses a leaf descriptor such as ts(pk(<x-only key>))
// into its template.
func ParseLeafDescriptor(desc string) (*Template, error) {
	node, err := parseDescriptor(desc)
	if err != nil {
		return nil, err
	}
	return leafFromNode(node)
}

// leafFromNode converts a parsed ts(...) expression into a template.
func leafFromNode(node *descNode) (*Template, error) {
	if node.isList || node.name != "ts" || len(node.args) != 1 {
		return nil, malformed("expected ts(...)")
	}
	inner := node.args[0]
	if inner.isList || len(inner.args) == 0 {
		return nil, malformed("expected ts(<template>(...))")
	}

	var kind Kind
	found := false
	for k, name := range kindToName {
		if name == inner.name {
			kind, found = Kind(k), true
			break
		}
	}
	if !found {
		return nil, malformed("unknown template %q", inner.name)
	}

	args := inner.args
	if kind == RawTy {
		if len(args) != 1 {
			return nil, malformed("raw takes one argument")
		}
		script, err := parseHashArg(args[0])
		if err != nil {
			return nil, err
		}
		return Raw(script)
	}

	// The argument count is fixed by the kind apart from the key list.
	threshold := 1
	if kind.hasThreshold() {
		k, err := parseUintArg(args[0], 16)
		if err != nil {
			return nil, err
		}
		threshold = int(k)
		args = args[1:]
	}

	var delay uint32
	if kind.hasDelay() {
		if len(args) == 0 {
			return nil, malformed("%v is missing its delay", kind)
		}
		d, err := parseUintArg(args[len(args)-1], 32)
		if err != nil {
			return nil, err
		}
		delay = uint32(d)
		args = args[:len(args)-1]
	}

	var hash []byte
	if kind.hasHashLock() {
		if len(args) == 0 {
			return nil, malformed("%v is missing its hash", kind)
		}
		var err error
		hash, err = parseHashArg(args[len(args)-1])
		if err != nil {
			return nil, err
		}
		args = args[:len(args)-1]
	}

	if len(args) == 0 || (!kind.hasThreshold() && len(args) != 1) {
		return nil, malformed("%v has %d keys", kind, len(args))
	}
	keys := make([]*btcec.PublicKey, len(args))
	for i, arg := range args {
		key, err := parseKeyArg(arg)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}

	return newTemplate(kind, threshold, keys, hash, delay)
}

// TreeNode is a node of a tree descriptor: a leaf template, or a branch with
// both children set.
type TreeNode struct {
	Leaf        *Template
	Left, Right *TreeNode
}

// NewLeafNode returns a tree node for a leaf template.
func NewLeafNode(t *Template) *TreeNode {
	return &TreeNode{Leaf: t}
}

// NewBranchNode returns a tree node joining two subtrees.
func NewBranchNode(left, right *TreeNode) *TreeNode {
	return &TreeNode{Left: left, Right: right}
}

// String returns the descriptor of the subtree.
func (n *TreeNode) String() string {
	if n.Leaf != nil {
		return n.Leaf.String()
	}
	return "[" + n.Left.String() + "," + n.Right.String() + "]"
}

// node converts the subtree into taproot nodes.
func (n *TreeNode) node() (taproot.Node, error) {
	if n.Leaf != nil {
		return n.Leaf.Leaf()
	}
	if n.Left == nil || n.Right == nil {
		return nil, malformed("branch is missing a child")
	}

	left, err := n.Left.node()
	if err != nil {
		return nil, err
	}
	right, err := n.Right.node()
	if err != nil {
		return nil, err
	}
	return taproot.NewTapBranch(left, right), nil
}

// templates appends the leaf templates of the subtree, left to right.
func (n *TreeNode) templates(out []*Template) []*Template {
	if n.Leaf != nil {
		return append(out, n.Leaf)
	}
	out = n.Left.templates(out)
	return n.Right.templates(out)
}

// treeFromNode converts a parsed list or ts(...) expression into a tree node.
func treeFromNode(node *descNode) (*TreeNode, error) {
	if !node.isList {
		leaf, err := leafFromNode(node)
		if err != nil {
			return nil, err
		}
		return NewLeafNode(leaf), nil
	}

	switch len(node.args) {
	case 1:
		// A single bracketed leaf is the whole tree.
		return treeFromNode(node.args[0])

	case 2:
		left, err := treeFromNode(node.args[0])
		if err != nil {
			return nil, err
		}
		right, err := treeFromNode(node.args[1])
		if err != nil {
			return nil, err
		}
		return NewBranchNode(left, right), nil
	}

	return nil, malformed("branch has %d children", len(node.args))
}

// TreeDescriptor describes a complete taproot output: the internal key and
// an optional tree of leaf templates with an explicit shape.
type TreeDescriptor struct {
	InternalKey *btcec.PublicKey
	Root        *TreeNode
}

// ParseTreeDescriptor parses a descriptor of the form
// tp(<x-only internal key>,[<node>,<node>]) where each node is a leaf
// descriptor or a nested pair.  tp(<key>) describes a key path only output.
func ParseTreeDescriptor(desc string) (*TreeDescriptor, error) {
	node, err := parseDescriptor(desc)
	if err != nil {
		return nil, err
	}
	if node.isList || node.name != "tp" || len(node.args) == 0 ||
		len(node.args) > 2 {

		return nil, malformed("expected tp(<key>[,<tree>])")
	}

	internalKey, err := parseKeyArg(node.args[0])
	if err != nil {
		return nil, err
	}

	td := &TreeDescriptor{InternalKey: internalKey}
	if len(node.args) == 2 {
		td.Root, err = treeFromNode(node.args[1])
		if err != nil {
			return nil, err
		}
	}

	log.Debugf("Parsed tree descriptor with %d leaves", len(td.Templates()))

	return td, nil
}

// String returns the descriptor in the form accepted by ParseTreeDescriptor.
func (td *TreeDescriptor) String() string {
	xOnly := ec.XOnly(td.InternalKey)
	keyHex := hex.EncodeToString(xOnly[:])

	switch {
	case td.Root == nil:
		return "tp(" + keyHex + ")"
	case td.Root.Leaf != nil:
		return "tp(" + keyHex + ",[" + td.Root.String() + "])"
	}
	return "tp(" + keyHex + "," + td.Root.String() + ")"
}

// Templates returns the leaf templates of the tree, left to right.
func (td *TreeDescriptor) Templates() []*Template {
	if td.Root == nil {
		return nil
	}
	return td.Root.templates(nil)
}

// Tree derives the taproot output described by td, keeping the shape given
// by the descriptor.
func (td *TreeDescriptor) Tree(curve ec.Capability) (*taproot.Tree, error) {
	if td.Root == nil {
		return taproot.NewTree(curve, td.InternalKey, nil)
	}

	root, err := td.Root.node()
	if err != nil {
		return nil, err
	}
	return taproot.NewTree(curve, td.InternalKey, root)
}
