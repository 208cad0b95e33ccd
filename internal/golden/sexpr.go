// Package golden implements the literate Markdown test format used across
// the compiler's packages: a fenced source block followed by one or more
// fenced assertion blocks, the assertions written in a small S-expression
// notation (symbols, strings, integers, and lists only).
package golden

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeType is the kind of an Sexpr Node.
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeList
)

// Node is a parsed S-expression datum.
type Node struct {
	Type NodeType

	Text  string // NodeSymbol, NodeString, NodeInteger
	Items []*Node // NodeList
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol:
		return n.Text
	case NodeString:
		escaped := strings.ReplaceAll(n.Text, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		return fmt.Sprintf("\"%s\"", escaped)
	case NodeInteger:
		return n.Text
	case NodeList:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			parts[i] = item.String()
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, " "))
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
	}
}

func NewSymbol(name string) *Node  { return &Node{Type: NodeSymbol, Text: name} }
func NewString(value string) *Node { return &Node{Type: NodeString, Text: value} }
func NewInteger(text string) *Node { return &Node{Type: NodeInteger, Text: text} }
func NewList(items []*Node) *Node  { return &Node{Type: NodeList, Items: items} }

// IsAtom reports whether n is a symbol, string, or integer.
func (n *Node) IsAtom() bool {
	return n.Type == NodeSymbol || n.Type == NodeString || n.Type == NodeInteger
}

// Equal compares two nodes structurally, ignoring nothing: golden files are
// expected to spell out exactly what they mean.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Type != other.Type {
		return false
	}
	if n.Type == NodeList {
		if len(n.Items) != len(other.Items) {
			return false
		}
		for i := range n.Items {
			if !n.Items[i].Equal(other.Items[i]) {
				return false
			}
		}
		return true
	}
	return n.Text == other.Text
}

type tokenType int

const (
	tokEOF tokenType = iota
	tokSymbol
	tokString
	tokInteger
	tokLParen
	tokRParen
)

func (t tokenType) String() string {
	switch t {
	case tokEOF:
		return "EOF"
	case tokSymbol:
		return "symbol"
	case tokString:
		return "string"
	case tokInteger:
		return "integer"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return fmt.Sprintf("unknown token %d", int(t))
	}
}

type token struct {
	Type  tokenType
	Value string
}

type lexer struct {
	input    string
	position int
	current  rune
	errors   []string
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.position >= len(l.input) {
		l.current = 0
	} else {
		l.current = rune(l.input[l.position])
	}
	l.position++
}

func (l *lexer) peekChar() rune {
	if l.position >= len(l.input) {
		return 0
	}
	return rune(l.input[l.position])
}

func (l *lexer) skipWhitespace() {
	for unicode.IsSpace(l.current) {
		l.readChar()
	}
}

func (l *lexer) skipComment() {
	for l.current != '\n' && l.current != '\r' && l.current != 0 {
		l.readChar()
	}
}

func isSymbolChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' || r == '/' || r == '!' || r == '?'
}

func (l *lexer) readSymbol() string {
	start := l.position - 1
	for isSymbolChar(l.current) {
		l.readChar()
	}
	return l.input[start : l.position-1]
}

func (l *lexer) readString() (string, error) {
	var result string
	l.readChar() // skip opening quote
	for l.current != '"' && l.current != 0 {
		if l.current == '\\' {
			l.readChar()
			switch l.current {
			case '"':
				result += "\""
			case '\\':
				result += "\\"
			default:
				return "", fmt.Errorf("invalid escape sequence: \\%c", l.current)
			}
		} else {
			result += string(l.current)
		}
		l.readChar()
	}
	if l.current != '"' {
		return "", fmt.Errorf("unterminated string")
	}
	l.readChar() // skip closing quote
	return result, nil
}

func (l *lexer) readInteger() string {
	start := l.position - 1
	if l.current == '+' || l.current == '-' {
		l.readChar()
	}
	for unicode.IsDigit(l.current) {
		l.readChar()
	}
	return l.input[start : l.position-1]
}

func (l *lexer) nextToken() token {
	for {
		l.skipWhitespace()
		switch l.current {
		case 0:
			return token{Type: tokEOF}
		case ';':
			l.skipComment()
			continue
		case '(':
			l.readChar()
			return token{Type: tokLParen, Value: "("}
		case ')':
			l.readChar()
			return token{Type: tokRParen, Value: ")"}
		case '"':
			str, err := l.readString()
			if err != nil {
				l.errors = append(l.errors, err.Error())
				return token{Type: tokEOF}
			}
			return token{Type: tokString, Value: str}
		default:
			if unicode.IsLetter(l.current) {
				return token{Type: tokSymbol, Value: l.readSymbol()}
			}
			if unicode.IsDigit(l.current) || l.current == '+' || l.current == '-' {
				if (l.current == '+' || l.current == '-') && !unicode.IsDigit(l.peekChar()) {
					return token{Type: tokSymbol, Value: l.readSymbol()}
				}
				return token{Type: tokInteger, Value: l.readInteger()}
			}
			l.errors = append(l.errors, fmt.Sprintf("unexpected character %q", l.current))
			return token{Type: tokEOF}
		}
	}
}

type parser struct {
	lexer        *lexer
	currentToken token
}

// Parse parses a single top-level S-expression datum.
func Parse(input string) (*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.nextToken()

	result, err := p.parseDatum()
	if len(p.lexer.errors) > 0 {
		return nil, fmt.Errorf("%s", p.lexer.errors[0])
	}
	if err != nil {
		return nil, err
	}
	if p.currentToken.Type != tokEOF {
		return nil, fmt.Errorf("expected EOF but got %s", p.currentToken.Type)
	}
	return result, nil
}

func (p *parser) nextToken() { p.currentToken = p.lexer.nextToken() }

func (p *parser) parseDatum() (*Node, error) {
	switch p.currentToken.Type {
	case tokSymbol:
		n := NewSymbol(p.currentToken.Value)
		p.nextToken()
		return n, nil
	case tokString:
		n := NewString(p.currentToken.Value)
		p.nextToken()
		return n, nil
	case tokInteger:
		n := NewInteger(p.currentToken.Value)
		p.nextToken()
		return n, nil
	case tokLParen:
		return p.parseList()
	default:
		return nil, fmt.Errorf("unexpected token: %s", p.currentToken.Type)
	}
}

func (p *parser) parseList() (*Node, error) {
	var items []*Node
	p.nextToken() // consume '('
	for p.currentToken.Type != tokRParen && p.currentToken.Type != tokEOF {
		item, err := p.parseDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if p.currentToken.Type != tokRParen {
		return nil, fmt.Errorf("expected ')' but got %s", p.currentToken.Type)
	}
	p.nextToken() // consume ')'
	return NewList(items), nil
}
