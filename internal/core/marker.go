package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
)

// Marker is a parsed PEP 508 environment marker.
type Marker interface {
	Evaluate(env Environment) (bool, error)
	String() string
}

type markerAnd struct {
	left, right Marker
}

type markerOr struct {
	left, right Marker
}

type markerGroup struct {
	inner Marker
}

type markerCompare struct {
	left  markerValue
	op    string
	right markerValue
}

type markerValue struct {
	variable string
	literal  string
}

func (v markerValue) isVariable() bool {
	return v.variable != ""
}

func (v markerValue) String() string {
	if v.isVariable() {
		return v.variable
	}
	return quoteMarkerLiteral(v.literal)
}

func quoteMarkerLiteral(value string) string {
	if strings.Contains(value, `"`) {
		return "'" + value + "'"
	}
	return `"` + value + `"`
}

func (m markerAnd) Evaluate(env Environment) (bool, error) {
	left, err := m.left.Evaluate(env)
	if err != nil || !left {
		return false, err
	}
	return m.right.Evaluate(env)
}

func (m markerAnd) String() string {
	return m.left.String() + " and " + m.right.String()
}

func (m markerOr) Evaluate(env Environment) (bool, error) {
	left, err := m.left.Evaluate(env)
	if err != nil {
		return false, err
	}
	if left {
		return true, nil
	}
	return m.right.Evaluate(env)
}

func (m markerOr) String() string {
	return m.left.String() + " or " + m.right.String()
}

func (m markerGroup) Evaluate(env Environment) (bool, error) {
	return m.inner.Evaluate(env)
}

func (m markerGroup) String() string {
	return "(" + m.inner.String() + ")"
}

func (m markerCompare) String() string {
	return m.left.String() + " " + m.op + " " + m.right.String()
}

func (m markerCompare) Evaluate(env Environment) (bool, error) {
	lhs, err := m.resolve(m.left, env)
	if err != nil {
		return false, err
	}
	rhs, err := m.resolve(m.right, env)
	if err != nil {
		return false, err
	}
	if m.left.variable == "extra" || m.right.variable == "extra" {
		lhs = CanonicalizeName(lhs)
		rhs = CanonicalizeName(rhs)
	}
	return compareMarkerValues(lhs, m.op, rhs)
}

func (m markerCompare) resolve(value markerValue, env Environment) (string, error) {
	if !value.isVariable() {
		return value.literal, nil
	}
	resolved, ok := env[value.variable]
	if !ok {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("undefined environment marker variable %q in %q", value.variable, m.String()))
	}
	return resolved, nil
}

func compareMarkerValues(lhs, op, rhs string) (bool, error) {
	switch op {
	case "in":
		return strings.Contains(rhs, lhs), nil
	case "not in":
		return !strings.Contains(rhs, lhs), nil
	}
	if spec, err := pep440.NewSpecifiers(op+rhs, pep440.WithPreRelease(true)); err == nil {
		if version, err := pep440.Parse(lhs); err == nil {
			return spec.Check(version), nil
		}
	}
	switch op {
	case "==", "===":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	case "<":
		return lhs < rhs, nil
	case "<=":
		return lhs <= rhs, nil
	case ">":
		return lhs > rhs, nil
	case ">=":
		return lhs >= rhs, nil
	}
	return false, errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("undefined marker comparison %q %s %q", lhs, op, rhs))
}

// WithExtra conjoins a marker with `extra == "<extra>"`. A nil marker
// yields the bare extra comparison.
func WithExtra(marker Marker, extra string) Marker {
	extraCompare := markerCompare{
		left:  markerValue{variable: "extra"},
		op:    "==",
		right: markerValue{literal: extra},
	}
	if marker == nil {
		return extraCompare
	}
	return markerAnd{left: markerGroup{inner: marker}, right: extraCompare}
}

// markerVariables lists the accepted marker names; legacy dotted aliases
// map to their PEP 508 spelling.
var markerVariables = map[string]string{
	"python_version":                 "python_version",
	"python_full_version":            "python_full_version",
	"os_name":                        "os_name",
	"sys_platform":                   "sys_platform",
	"platform_release":               "platform_release",
	"platform_system":                "platform_system",
	"platform_version":               "platform_version",
	"platform_machine":               "platform_machine",
	"platform_python_implementation": "platform_python_implementation",
	"implementation_name":            "implementation_name",
	"implementation_version":         "implementation_version",
	"extra":                          "extra",
	"os.name":                        "os_name",
	"sys.platform":                   "sys_platform",
	"platform.version":               "platform_version",
	"platform.machine":               "platform_machine",
	"platform.python_implementation": "platform_python_implementation",
	"python_implementation":          "platform_python_implementation",
}

type markerTokenKind int

const (
	tokenEOF markerTokenKind = iota
	tokenLParen
	tokenRParen
	tokenString
	tokenVariable
	tokenOp
	tokenAnd
	tokenOr
)

type markerToken struct {
	kind  markerTokenKind
	value string
}

// ParseMarker parses the text after the ';' of a requirement.
func ParseMarker(text string) (Marker, error) {
	tokens, err := tokenizeMarker(text)
	if err != nil {
		return nil, err
	}
	parser := &markerParser{tokens: tokens, text: text}
	marker, err := parser.parseOr()
	if err != nil {
		return nil, err
	}
	if parser.peek().kind != tokenEOF {
		return nil, fmt.Errorf("unexpected %q in marker %q", parser.peek().value, text)
	}
	return marker, nil
}

func tokenizeMarker(text string) ([]markerToken, error) {
	var tokens []markerToken
	i := 0
	for i < len(text) {
		ch := text[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case ch == '(':
			tokens = append(tokens, markerToken{kind: tokenLParen, value: "("})
			i++
		case ch == ')':
			tokens = append(tokens, markerToken{kind: tokenRParen, value: ")"})
			i++
		case ch == '"' || ch == '\'':
			end := strings.IndexByte(text[i+1:], ch)
			if end == -1 {
				return nil, fmt.Errorf("unterminated string in marker %q", text)
			}
			tokens = append(tokens, markerToken{kind: tokenString, value: text[i+1 : i+1+end]})
			i += end + 2
		case strings.ContainsRune("<>=!~", rune(ch)):
			op := markerOperatorAt(text[i:])
			if op == "" {
				return nil, fmt.Errorf("invalid operator in marker %q", text)
			}
			tokens = append(tokens, markerToken{kind: tokenOp, value: op})
			i += len(op)
		case isMarkerWordChar(ch):
			start := i
			for i < len(text) && isMarkerWordChar(text[i]) {
				i++
			}
			word := text[start:i]
			switch word {
			case "and":
				tokens = append(tokens, markerToken{kind: tokenAnd, value: word})
			case "or":
				tokens = append(tokens, markerToken{kind: tokenOr, value: word})
			case "in":
				tokens = append(tokens, markerToken{kind: tokenOp, value: "in"})
			case "not":
				rest := strings.TrimLeft(text[i:], " \t")
				if !strings.HasPrefix(rest, "in") || (len(rest) > 2 && isMarkerWordChar(rest[2])) {
					return nil, fmt.Errorf("expected 'in' after 'not' in marker %q", text)
				}
				i = len(text) - len(rest) + 2
				tokens = append(tokens, markerToken{kind: tokenOp, value: "not in"})
			default:
				name, ok := markerVariables[word]
				if !ok {
					return nil, fmt.Errorf("unknown marker variable %q in %q", word, text)
				}
				tokens = append(tokens, markerToken{kind: tokenVariable, value: name})
			}
		default:
			return nil, fmt.Errorf("unexpected character %q in marker %q", ch, text)
		}
	}
	return append(tokens, markerToken{kind: tokenEOF}), nil
}

func markerOperatorAt(text string) string {
	for _, op := range []string{"===", "==", "!=", "<=", ">=", "~=", "<", ">"} {
		if strings.HasPrefix(text, op) {
			return op
		}
	}
	return ""
}

func isMarkerWordChar(ch byte) bool {
	return ch == '_' || ch == '.' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

type markerParser struct {
	tokens []markerToken
	pos    int
	text   string
}

func (p *markerParser) peek() markerToken {
	return p.tokens[p.pos]
}

func (p *markerParser) next() markerToken {
	token := p.tokens[p.pos]
	if token.kind != tokenEOF {
		p.pos++
	}
	return token
}

func (p *markerParser) parseOr() (Marker, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = markerOr{left: left, right: right}
	}
	return left, nil
}

func (p *markerParser) parseAnd() (Marker, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenAnd {
		p.next()
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = markerAnd{left: left, right: right}
	}
	return left, nil
}

func (p *markerParser) parseAtom() (Marker, error) {
	if p.peek().kind == tokenLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokenRParen {
			return nil, fmt.Errorf("expected ')' in marker %q", p.text)
		}
		return markerGroup{inner: inner}, nil
	}
	left, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	op := p.next()
	if op.kind != tokenOp {
		return nil, fmt.Errorf("expected marker operator in %q", p.text)
	}
	right, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return markerCompare{left: left, op: op.value, right: right}, nil
}

func (p *markerParser) parseValue() (markerValue, error) {
	token := p.next()
	switch token.kind {
	case tokenVariable:
		return markerValue{variable: token.value}, nil
	case tokenString:
		return markerValue{literal: token.value}, nil
	}
	return markerValue{}, fmt.Errorf("expected marker variable or string in %q", p.text)
}
