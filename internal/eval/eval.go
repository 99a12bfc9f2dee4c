// Package eval parses and evaluates user-supplied arithmetic expressions.
//
// The grammar is deliberately tiny: numeric literals, unary +/-, the binary
// operators + - * / % **, and parentheses. Identifiers, calls and every other
// construct are not representable in the AST at all, so injection attempts
// fail at the lexer instead of needing a post-hoc allow-list.
//
// Numeric conventions: / always produces a float; other operators stay in
// integers when both operands are integers; % is floored (Python-style)
// modulo. Floats render with strconv.FormatFloat 'g', so "12/4" evaluates
// to "3" and "10/4" to "2.5".
package eval

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrUnsafe reports an expression that tried to smuggle in something
	// other than arithmetic (identifiers, strings, call syntax, ...).
	ErrUnsafe = errors.New("unsafe expression")
	// ErrMalformed reports a structurally broken expression.
	ErrMalformed = errors.New("malformed expression")
	// ErrArithmetic reports an operation with no defined result.
	ErrArithmetic = errors.New("arithmetic error")
)

const (
	maxExprLen = 512
	maxDepth   = 64
)

// Value is an arithmetic result: an integer until an operation promotes it.
type Value struct {
	i       int64
	f       float64
	isFloat bool
}

func intVal(n int64) Value     { return Value{i: n} }
func floatVal(x float64) Value { return Value{f: x, isFloat: true} }

// IsFloat reports whether the value carries a float.
func (v Value) IsFloat() bool { return v.isFloat }

// Float returns the value widened to float64.
func (v Value) Float() float64 {
	if v.isFloat {
		return v.f
	}
	return float64(v.i)
}

// Int returns the integer value. Only meaningful when IsFloat is false.
func (v Value) Int() int64 {
	if v.isFloat {
		return int64(v.f)
	}
	return v.i
}

func (v Value) String() string {
	if v.isFloat {
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	}
	return strconv.FormatInt(v.i, 10)
}

// Eval parses expr and computes its value. It is a pure function: the
// returned error is ErrUnsafe, ErrMalformed or ErrArithmetic (wrapped),
// distinguishable with errors.Is.
func Eval(expr string) (Value, error) {
	if len(expr) > maxExprLen {
		return Value{}, fmt.Errorf("%w: expression longer than %d bytes", ErrMalformed, maxExprLen)
	}
	toks, err := lex(expr)
	if err != nil {
		return Value{}, err
	}
	p := &parser{toks: toks}
	root, err := p.parseSum(0)
	if err != nil {
		return Value{}, err
	}
	if !p.atEnd() {
		return Value{}, fmt.Errorf("%w: unexpected %q", ErrMalformed, p.peek().text)
	}
	return root.eval()
}

type tokKind int

const (
	tokNum tokKind = iota
	tokOp          // + - * / % **
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokKind
	text string
	val  Value
}

func lex(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
				j++
			}
			lit := s[i:j]
			v, err := parseNumber(lit)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokNum, text: lit, val: v})
			i = j
		case c == '*':
			if i+1 < len(s) && s[i+1] == '*' {
				toks = append(toks, token{kind: tokOp, text: "**"})
				i += 2
			} else {
				toks = append(toks, token{kind: tokOp, text: "*"})
				i++
			}
		case c == '+' || c == '-' || c == '/' || c == '%':
			toks = append(toks, token{kind: tokOp, text: string(c)})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		default:
			if isUnsafeByte(c) {
				return nil, fmt.Errorf("%w: %q is not arithmetic", ErrUnsafe, string(c))
			}
			return nil, fmt.Errorf("%w: unexpected %q", ErrMalformed, string(c))
		}
	}
	toks = append(toks, token{kind: tokEOF})
	return toks, nil
}

// isUnsafeByte covers bytes that could start an identifier, string, call or
// container literal. Everything else unrecognized is merely malformed.
func isUnsafeByte(c byte) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80 {
		return true
	}
	return strings.IndexByte("_'\"`,[]{}:;=<>!&|@#$\\", c) >= 0
}

func parseNumber(lit string) (Value, error) {
	if strings.Count(lit, ".") == 0 {
		n, err := strconv.ParseInt(lit, 10, 64)
		if err == nil {
			return intVal(n), nil
		}
		// too large for int64, keep going as a float
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: bad number %q", ErrMalformed, lit)
	}
	return floatVal(f), nil
}

// AST node kinds. The set is closed: nothing here can reference a name or
// invoke anything.
type node interface {
	eval() (Value, error)
}

type numNode struct{ v Value }

type unaryNode struct {
	op byte // '+' or '-'
	x  node
}

type binNode struct {
	op   string
	x, y node
}

func (n numNode) eval() (Value, error) { return n.v, nil }

func (n unaryNode) eval() (Value, error) {
	v, err := n.x.eval()
	if err != nil {
		return Value{}, err
	}
	if n.op == '-' {
		if v.isFloat {
			return floatVal(-v.f), nil
		}
		return intVal(-v.i), nil
	}
	return v, nil
}

func (n binNode) eval() (Value, error) {
	x, err := n.x.eval()
	if err != nil {
		return Value{}, err
	}
	y, err := n.y.eval()
	if err != nil {
		return Value{}, err
	}
	return apply(n.op, x, y)
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) atEnd() bool { return p.peek().kind == tokEOF }

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

// sum := product (('+'|'-') product)*
func (p *parser) parseSum(depth int) (node, error) {
	left, err := p.parseProduct(depth + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseProduct(depth + 1)
		if err != nil {
			return nil, err
		}
		left = binNode{op: op, x: left, y: right}
	}
}

// product := unary (('*'|'/'|'%') unary)*
func (p *parser) parseProduct(depth int) (node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: expression nested too deeply", ErrMalformed)
	}
	left, err := p.parseUnary(depth + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "/", "%")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary(depth + 1)
		if err != nil {
			return nil, err
		}
		left = binNode{op: op, x: left, y: right}
	}
}

// unary := ('+'|'-') unary | power
func (p *parser) parseUnary(depth int) (node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: expression nested too deeply", ErrMalformed)
	}
	if op, ok := p.acceptOp("+", "-"); ok {
		x, err := p.parseUnary(depth + 1)
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op[0], x: x}, nil
	}
	return p.parsePower(depth + 1)
}

// power := atom ('**' unary)?  — right associative, and the exponent may
// itself be signed, so -2**2 is -(2**2) and 2**-1 is 0.5.
func (p *parser) parsePower(depth int) (node, error) {
	base, err := p.parseAtom(depth + 1)
	if err != nil {
		return nil, err
	}
	if _, ok := p.acceptOp("**"); ok {
		exp, err := p.parseUnary(depth + 1)
		if err != nil {
			return nil, err
		}
		return binNode{op: "**", x: base, y: exp}, nil
	}
	return base, nil
}

func (p *parser) parseAtom(depth int) (node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: expression nested too deeply", ErrMalformed)
	}
	t := p.next()
	switch t.kind {
	case tokNum:
		return numNode{v: t.val}, nil
	case tokLParen:
		inner, err := p.parseSum(depth + 1)
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("%w: missing closing parenthesis", ErrMalformed)
		}
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: unexpected %q", ErrMalformed, t.text)
	}
}

func apply(op string, x, y Value) (Value, error) {
	bothInt := !x.isFloat && !y.isFloat
	switch op {
	case "+":
		if bothInt {
			return intVal(x.i + y.i), nil
		}
		return floatVal(x.Float() + y.Float()), nil
	case "-":
		if bothInt {
			return intVal(x.i - y.i), nil
		}
		return floatVal(x.Float() - y.Float()), nil
	case "*":
		if bothInt {
			return intVal(x.i * y.i), nil
		}
		return floatVal(x.Float() * y.Float()), nil
	case "/":
		if y.Float() == 0 {
			return Value{}, fmt.Errorf("%w: division by zero", ErrArithmetic)
		}
		return floatVal(x.Float() / y.Float()), nil
	case "%":
		if y.Float() == 0 {
			return Value{}, fmt.Errorf("%w: modulo by zero", ErrArithmetic)
		}
		if bothInt {
			r := x.i % y.i
			if r != 0 && (r < 0) != (y.i < 0) {
				r += y.i
			}
			return intVal(r), nil
		}
		r := math.Mod(x.Float(), y.Float())
		if r != 0 && (r < 0) != (y.Float() < 0) {
			r += y.Float()
		}
		return floatVal(r), nil
	case "**":
		return pow(x, y)
	}
	return Value{}, fmt.Errorf("%w: unknown operator %q", ErrMalformed, op)
}

func pow(x, y Value) (Value, error) {
	if !x.isFloat && !y.isFloat && y.i >= 0 && y.i <= 1<<12 {
		if r, ok := ipow(x.i, y.i); ok {
			return intVal(r), nil
		}
	}
	r := math.Pow(x.Float(), y.Float())
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return Value{}, fmt.Errorf("%w: result of %s ** %s is undefined", ErrArithmetic, x, y)
	}
	return floatVal(r), nil
}

// ipow is integer exponentiation with overflow detection; on overflow the
// caller falls back to the float path.
func ipow(base, exp int64) (int64, bool) {
	r := int64(1)
	for ; exp > 0; exp-- {
		next := r * base
		if base != 0 && next/base != r {
			return 0, false
		}
		r = next
	}
	return r, true
}
