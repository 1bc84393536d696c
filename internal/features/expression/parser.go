package expression

import (
	"fmt"
	"strings"
)

// maxDepth caps parser recursion so pathological input cannot blow the
// stack; anything deeper fails and the caller fails open.
const maxDepth = 64

type node interface {
	eval(ctx Context) (interface{}, error)
}

type literalNode struct {
	value interface{}
}

func (n literalNode) eval(Context) (interface{}, error) {
	return n.value, nil
}

type fieldNode struct {
	path string
}

func (n fieldNode) eval(ctx Context) (interface{}, error) {
	root := ctx.Doc
	path := n.path

	if rest, ok := strings.CutPrefix(path, "doc."); ok {
		path = rest
	} else if rest, ok := strings.CutPrefix(path, "parent."); ok {
		root = ctx.Parent
		path = rest
	} else if path == "doc" {
		return map[string]interface{}(ctx.Doc), nil
	}

	// Dotted tails traverse nested maps; a missing segment is nil, not
	// an error, mirroring field-reference lookups.
	segs := strings.Split(path, ".")
	var cur interface{} = map[string]interface{}(root)
	for _, seg := range segs {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		cur = m[seg]
	}
	return cur, nil
}

type unaryNode struct {
	op string
	x  node
}

func (n unaryNode) eval(ctx Context) (interface{}, error) {
	v, err := n.x.eval(ctx)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "!":
		return !Truthy(v), nil
	case "-":
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("cannot negate %T", v)
		}
		return -f, nil
	}
	return nil, fmt.Errorf("unknown unary operator %q", n.op)
}

type binaryNode struct {
	op   string
	l, r node
}

func (n binaryNode) eval(ctx Context) (interface{}, error) {
	lv, err := n.l.eval(ctx)
	if err != nil {
		return nil, err
	}

	// Short-circuit the boolean operators
	switch n.op {
	case "&&":
		if !Truthy(lv) {
			return false, nil
		}
		rv, err := n.r.eval(ctx)
		if err != nil {
			return nil, err
		}
		return Truthy(rv), nil
	case "||":
		if Truthy(lv) {
			return true, nil
		}
		rv, err := n.r.eval(ctx)
		if err != nil {
			return nil, err
		}
		return Truthy(rv), nil
	}

	rv, err := n.r.eval(ctx)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		return looseEqual(lv, rv), nil
	case "!=":
		return !looseEqual(lv, rv), nil
	case "<", "<=", ">", ">=":
		return compareOrdered(n.op, lv, rv)
	}
	return nil, fmt.Errorf("unknown operator %q", n.op)
}

// looseEqual compares numerically when both sides coerce to numbers,
// otherwise by string form. nil equals only nil and the empty string.
func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return toString(a) == toString(b)
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return toString(a) == toString(b)
}

func compareOrdered(op string, a, b interface{}) (interface{}, error) {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch op {
		case "<":
			return af < bf, nil
		case "<=":
			return af <= bf, nil
		case ">":
			return af > bf, nil
		case ">=":
			return af >= bf, nil
		}
	}

	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		switch op {
		case "<":
			return as < bs, nil
		case "<=":
			return as <= bs, nil
		case ">":
			return as > bs, nil
		case ">=":
			return as >= bs, nil
		}
	}

	return nil, fmt.Errorf("cannot order %T and %T", a, b)
}

type callNode struct {
	name string
	args []node
}

func (n callNode) eval(ctx Context) (interface{}, error) {
	args := make([]interface{}, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch n.name {
	case "in_list":
		// in_list(value, candidates...): membership by loose equality
		if len(args) < 1 {
			return nil, fmt.Errorf("in_list needs a value")
		}
		for _, c := range args[1:] {
			if list, ok := c.([]interface{}); ok {
				for _, item := range list {
					if looseEqual(args[0], item) {
						return true, nil
					}
				}
				continue
			}
			if looseEqual(args[0], c) {
				return true, nil
			}
		}
		return false, nil

	case "flt":
		if len(args) != 1 {
			return nil, fmt.Errorf("flt takes one argument")
		}
		f, _ := toFloat(args[0])
		return f, nil

	case "cint":
		if len(args) != 1 {
			return nil, fmt.Errorf("cint takes one argument")
		}
		f, _ := toFloat(args[0])
		return float64(int64(f)), nil
	}

	return nil, fmt.Errorf("unknown function %q", n.name)
}

type parser struct {
	toks  []token
	pos   int
	depth int
}

func parse(src string) (node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at %d", p.peek().text, p.peek().pos)
	}
	return n, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) acceptOp(ops ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.next()
			return op, true
		}
	}
	return "", false
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return fmt.Errorf("expression too deeply nested")
	}
	return nil
}

func (p *parser) parseOr() (node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("||"); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: "||", l: left, r: right}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("&&"); !ok {
			return left, nil
		}
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: "&&", l: left, r: right}
	}
}

func (p *parser) parseEquality() (node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("==", "!=")
		if !ok {
			return left, nil
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, l: left, r: right}
	}
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	op, ok := p.acceptOp("<", "<=", ">", ">=")
	if !ok {
		return left, nil
	}
	right, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return binaryNode{op: op, l: left, r: right}, nil
}

func (p *parser) parseUnary() (node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	if op, ok := p.acceptOp("!", "-"); ok {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op, x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()

	switch t.kind {
	case tokNumber:
		return literalNode{value: t.num}, nil

	case tokString:
		return literalNode{value: t.text}, nil

	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil

	case tokIdent:
		switch t.text {
		case "true":
			return literalNode{value: true}, nil
		case "false":
			return literalNode{value: false}, nil
		case "null":
			return literalNode{value: nil}, nil
		}

		if p.peek().kind == tokLParen {
			p.next()
			var args []node
			if p.peek().kind != tokRParen {
				for {
					arg, err := p.parseOr()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if p.peek().kind == tokComma {
						p.next()
						continue
					}
					break
				}
			}
			if p.next().kind != tokRParen {
				return nil, fmt.Errorf("missing closing parenthesis in call to %q", t.text)
			}
			return callNode{name: t.text, args: args}, nil
		}

		return fieldNode{path: t.text}, nil
	}

	return nil, fmt.Errorf("unexpected %q at %d", t.text, t.pos)
}
