package tool

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	maxExpressionLength = 1024
	maxExpressionDepth  = 64
)

// Expression error kinds.
var (
	ErrInvalidExpression = errors.New("invalid expression")
	ErrEvaluation        = errors.New("evaluation error")
)

// ExprError describes a calculator failure. Kind is ErrInvalidExpression for
// parse errors and ErrEvaluation for runtime faults such as division by zero.
type ExprError struct {
	Kind error
	Pos  int
	Msg  string
}

func (e *ExprError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%v at position %d: %s", e.Kind, e.Pos, e.Msg)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
}

func (e *ExprError) Unwrap() error { return e.Kind }

var exprConstants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

type exprFunc struct {
	minArgs, maxArgs int
	fn               func(args []float64) (float64, error)
}

func unary(f func(float64) float64) exprFunc {
	return exprFunc{1, 1, func(a []float64) (float64, error) { return f(a[0]), nil }}
}

var exprFunctions = map[string]exprFunc{
	"sqrt": {1, 1, func(a []float64) (float64, error) {
		if a[0] < 0 {
			return 0, fmt.Errorf("sqrt of negative number")
		}
		return math.Sqrt(a[0]), nil
	}},
	"log":   {1, 1, logFn(math.Log)},
	"ln":    {1, 1, logFn(math.Log)},
	"log10": {1, 1, logFn(math.Log10)},
	"log2":  {1, 1, logFn(math.Log2)},
	"abs":   unary(math.Abs),
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"exp":   unary(math.Exp),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"round": unary(math.Round),
	"min": {1, -1, func(a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m, nil
	}},
	"max": {1, -1, func(a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m, nil
	}},
}

func logFn(f func(float64) float64) func([]float64) (float64, error) {
	return func(a []float64) (float64, error) {
		if a[0] <= 0 {
			return 0, fmt.Errorf("logarithm of non-positive number")
		}
		return f(a[0]), nil
	}
}

// Evaluate computes an arithmetic expression using a restricted grammar:
// numeric literals, the operators + - * / ^ (and ** as an alias for ^),
// parentheses, the constants pi and e, and a fixed set of named math
// functions. Nothing else is accepted.
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("+" | "-") unary | power
//	power   = primary [ ("^" | "**") unary ]
//	primary = number | ident [ "(" expr { "," expr } ")" ] | "(" expr ")"
func Evaluate(expression string) (float64, error) {
	src := strings.TrimSpace(expression)
	if src == "" {
		return 0, &ExprError{Kind: ErrInvalidExpression, Pos: -1, Msg: "empty expression"}
	}

	if len(src) > maxExpressionLength {
		return 0, &ExprError{Kind: ErrInvalidExpression, Pos: -1, Msg: fmt.Sprintf("expression longer than %d characters", maxExpressionLength)}
	}

	toks, err := tokenize(src)
	if err != nil {
		return 0, err
	}

	p := &exprParser{toks: toks}

	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}

	if tok := p.peek(); tok.kind != tokEOF {
		return 0, &ExprError{Kind: ErrInvalidExpression, Pos: tok.pos, Msg: fmt.Sprintf("unexpected %q", tok.text)}
	}

	if math.IsNaN(v) {
		return 0, &ExprError{Kind: ErrEvaluation, Pos: -1, Msg: "result is not a real number"}
	}

	if math.IsInf(v, 0) {
		return 0, &ExprError{Kind: ErrEvaluation, Pos: -1, Msg: "result overflows"}
	}

	return v, nil
}

// FormatNumber renders a result without a trailing ".0" for integral values.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokKind
	text string
	num  float64
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token

	for i := 0; i < len(src); {
		c := rune(src[i])

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(src[i]) || c == '.':
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && isDigit(src[j]) {
					for j < len(src) && isDigit(src[j]) {
						j++
					}
					i = j
				}
			}
			text := src[start:i]
			n, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &ExprError{Kind: ErrInvalidExpression, Pos: start, Msg: fmt.Sprintf("malformed number %q", text)}
			}
			toks = append(toks, token{kind: tokNum, text: text, num: n, pos: start})
		case isLetter(src[i]) || c == '_':
			start := i
			for i < len(src) && (isLetter(src[i]) || isDigit(src[i]) || src[i] == '_') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: strings.ToLower(src[start:i]), pos: start})
		case c == '*' && i+1 < len(src) && src[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "^", pos: i})
			i += 2
		case strings.ContainsRune("+-*/^", c):
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		default:
			r, _ := utf8.DecodeRuneInString(src[i:])
			return nil, &ExprError{Kind: ErrInvalidExpression, Pos: i, Msg: fmt.Sprintf("unsupported character %q", r)}
		}
	}

	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isLetter(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }

type exprParser struct {
	toks  []token
	pos   int
	depth int
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) enter() error {
	p.depth++
	if p.depth > maxExpressionDepth {
		return &ExprError{Kind: ErrInvalidExpression, Pos: p.peek().pos, Msg: "expression nested too deeply"}
	}
	return nil
}

func (p *exprParser) leave() { p.depth-- }

func (p *exprParser) parseExpr() (float64, error) {
	if err := p.enter(); err != nil {
		return 0, err
	}
	defer p.leave()

	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}

	for {
		tok := p.peek()
		if tok.kind != tokOp || (tok.text != "+" && tok.text != "-") {
			return left, nil
		}
		p.next()

		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}

		if tok.text == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	for {
		tok := p.peek()
		if tok.kind != tokOp || (tok.text != "*" && tok.text != "/") {
			return left, nil
		}
		p.next()

		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}

		if tok.text == "*" {
			left *= right
			continue
		}

		if right == 0 {
			return 0, &ExprError{Kind: ErrEvaluation, Pos: tok.pos, Msg: "division by zero"}
		}
		left /= right
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	tok := p.peek()
	if tok.kind == tokOp && (tok.text == "+" || tok.text == "-") {
		p.next()

		if err := p.enter(); err != nil {
			return 0, err
		}
		defer p.leave()

		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}

		if tok.text == "-" {
			return -v, nil
		}
		return v, nil
	}

	return p.parsePower()
}

func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}

	tok := p.peek()
	if tok.kind != tokOp || tok.text != "^" {
		return base, nil
	}
	p.next()

	exp, err := p.parseUnary() // right associative
	if err != nil {
		return 0, err
	}

	v := math.Pow(base, exp)
	if math.IsNaN(v) {
		return 0, &ExprError{Kind: ErrEvaluation, Pos: tok.pos, Msg: "power result is not a real number"}
	}

	return v, nil
}

func (p *exprParser) parsePrimary() (float64, error) {
	tok := p.next()

	switch tok.kind {
	case tokNum:
		return tok.num, nil
	case tokLParen:
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return 0, &ExprError{Kind: ErrInvalidExpression, Pos: closing.pos, Msg: "missing closing parenthesis"}
		}
		return v, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCall(tok)
		}
		if v, ok := exprConstants[tok.text]; ok {
			return v, nil
		}
		return 0, &ExprError{Kind: ErrInvalidExpression, Pos: tok.pos, Msg: fmt.Sprintf("unknown identifier %q", tok.text)}
	case tokEOF:
		return 0, &ExprError{Kind: ErrInvalidExpression, Pos: tok.pos, Msg: "unexpected end of expression"}
	default:
		return 0, &ExprError{Kind: ErrInvalidExpression, Pos: tok.pos, Msg: fmt.Sprintf("unexpected %q", tok.text)}
	}
}

func (p *exprParser) parseCall(name token) (float64, error) {
	fn, ok := exprFunctions[name.text]
	if !ok {
		return 0, &ExprError{Kind: ErrInvalidExpression, Pos: name.pos, Msg: fmt.Sprintf("unknown function %q", name.text)}
	}

	p.next() // (

	var args []float64

	if p.peek().kind != tokRParen {
		for {
			v, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			args = append(args, v)

			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}

	if closing := p.next(); closing.kind != tokRParen {
		return 0, &ExprError{Kind: ErrInvalidExpression, Pos: closing.pos, Msg: "missing closing parenthesis"}
	}

	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return 0, &ExprError{Kind: ErrInvalidExpression, Pos: name.pos, Msg: fmt.Sprintf("wrong number of arguments for %s", name.text)}
	}

	v, err := fn.fn(args)
	if err != nil {
		return 0, &ExprError{Kind: ErrEvaluation, Pos: name.pos, Msg: err.Error()}
	}

	return v, nil
}
