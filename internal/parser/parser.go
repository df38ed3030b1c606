// Package parser implements the Query Parser (§4.K): a recursive-descent
// parser over the restricted SELECT-only grammar this engine plans for
// (no predicate variables, no triples with more than two variables, no
// property paths, no OPTIONAL/UNION/BIND/GRAPH/CONSTRUCT/ASK/DESCRIBE).
//
// Grounded on internal/sparql/parser/{ast.go,parser.go}'s hand-rolled
// position-based tokenizer (skipWhitespace/matchKeyword/readWhile/peek),
// trimmed to the one query shape the planner consumes and producing
// query.ParsedQuery values directly rather than a separate AST + a
// second lowering pass.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/brightlinq/qplan/internal/qerrors"
	"github.com/brightlinq/qplan/internal/query"
)

// Parser parses one query string into a query.ParsedQuery.
type Parser struct {
	input    string
	pos      int
	length   int
	prefixes map[string]string
}

// New returns a Parser over input.
func New(input string) *Parser {
	return &Parser{input: input, length: len(input), prefixes: make(map[string]string)}
}

// Parse parses a SELECT query into a query.ParsedQuery.
func Parse(input string) (query.ParsedQuery, error) {
	return New(input).Parse()
}

// Parse runs the parser to completion.
func (p *Parser) Parse() (query.ParsedQuery, error) {
	q := query.ParsedQuery{Prefixes: p.prefixes, Limit: -1, Offset: -1}

	p.skipWhitespace()
	for {
		p.skipWhitespace()
		if p.matchKeyword("PREFIX") {
			if err := p.parsePrefix(); err != nil {
				return q, err
			}
			continue
		}
		break
	}

	if !p.matchKeyword("SELECT") {
		return q, qerrors.Parsef("expected SELECT query")
	}

	if p.matchKeyword("DISTINCT") {
		q.Distinct = true
	} else if p.matchKeyword("REDUCED") {
		q.Reduced = true
	}

	sel, err := p.parseSelectList()
	if err != nil {
		return q, err
	}
	q.Select = sel

	p.matchKeyword("WHERE")

	where, filters, err := p.parseWhereClause()
	if err != nil {
		return q, err
	}
	q.Where = where
	q.Filters = filters

	if p.matchKeyword("ORDER") {
		if !p.matchKeyword("BY") {
			return q, qerrors.Parsef("expected BY after ORDER")
		}
		ob, err := p.parseOrderBy()
		if err != nil {
			return q, err
		}
		q.OrderBy = ob
	}

	if p.matchKeyword("LIMIT") {
		n, err := p.parseInteger()
		if err != nil {
			return q, fmt.Errorf("parsing LIMIT: %w", err)
		}
		q.Limit = n
		q.HasLimit = true
	}

	if p.matchKeyword("OFFSET") {
		n, err := p.parseInteger()
		if err != nil {
			return q, fmt.Errorf("parsing OFFSET: %w", err)
		}
		q.Offset = n
		q.HasOffset = true
	}

	p.skipWhitespace()
	if p.pos != p.length {
		return q, qerrors.Parsef("unexpected trailing input at position %d", p.pos)
	}

	return q, nil
}

// parseSelectList parses the projection list: one or more "?var" items or
// verbatim function-call items such as "SCORE(...)", or "*". A
// parenthesized "(expr AS ?var)" item is not accepted: a '(' ends the list.
func (p *Parser) parseSelectList() ([]query.SelectExpr, error) {
	p.skipWhitespace()
	if p.peek() == '*' {
		p.advance()
		return nil, nil
	}

	var out []query.SelectExpr
	for {
		p.skipWhitespace()
		ch := p.peek()
		if ch == '?' {
			v, err := p.parseVariableToken()
			if err != nil {
				return nil, err
			}
			out = append(out, query.SelectExpr{Variable: v})
			continue
		}
		if isIdentStart(ch) {
			save := p.pos
			if p.matchKeyword("WHERE") {
				p.pos = save
				break
			}
			raw, err := p.readSelectExpr()
			if err != nil {
				return nil, err
			}
			out = append(out, query.SelectExpr{Raw: raw})
			continue
		}
		break
	}

	if len(out) == 0 {
		return nil, qerrors.Parsef("expected at least one select item or '*'")
	}
	return out, nil
}

// readSelectExpr reads a bare function-call expression like
// "SCORE(?x|?c)" verbatim, up to but not including the next separating
// whitespace run followed by another select item, WHERE, etc. Since this
// restricted grammar's only non-variable select items are single-token
// function calls, reading balanced parens is enough.
func (p *Parser) readSelectExpr() (string, error) {
	start := p.pos
	for p.pos < p.length && isIdentChar(p.input[p.pos]) {
		p.advance()
	}
	if p.peek() != '(' {
		return "", qerrors.Parsef("expected '(' in select expression at position %d", p.pos)
	}
	depth := 0
	for p.pos < p.length {
		switch p.input[p.pos] {
		case '(':
			depth++
		case ')':
			depth--
			p.advance()
			if depth == 0 {
				return p.input[start:p.pos], nil
			}
			continue
		}
		p.advance()
	}
	return "", qerrors.Parsef("unterminated select expression starting at position %d", start)
}

// parseWhereClause parses "{ triple . triple . FILTER(...) ... }".
func (p *Parser) parseWhereClause() ([]query.TriplePattern, []query.Filter, error) {
	p.skipWhitespace()
	if p.peek() != '{' {
		return nil, nil, qerrors.Parsef("expected '{' to start WHERE clause at position %d", p.pos)
	}
	p.advance()

	var triples []query.TriplePattern
	var filters []query.Filter
	for {
		p.skipWhitespace()
		if p.peek() == '}' {
			p.advance()
			break
		}
		if p.pos >= p.length {
			return nil, nil, qerrors.Parsef("unterminated WHERE clause")
		}

		if p.matchKeyword("FILTER") {
			f, err := p.parseFilter()
			if err != nil {
				return nil, nil, err
			}
			filters = append(filters, f)
			continue
		}

		tp, err := p.parseTriplePattern()
		if err != nil {
			return nil, nil, err
		}
		triples = append(triples, tp)

		p.skipWhitespace()
		if p.peek() == '.' {
			p.advance()
		}
	}
	return triples, filters, nil
}

// parseTriplePattern parses "subject predicate object".
func (p *Parser) parseTriplePattern() (query.TriplePattern, error) {
	s, err := p.parseTerm()
	if err != nil {
		return query.TriplePattern{}, fmt.Errorf("parsing subject: %w", err)
	}
	pr, err := p.parseTerm()
	if err != nil {
		return query.TriplePattern{}, fmt.Errorf("parsing predicate: %w", err)
	}
	o, err := p.parseTerm()
	if err != nil {
		return query.TriplePattern{}, fmt.Errorf("parsing object: %w", err)
	}
	return query.TriplePattern{Subject: s, Predicate: pr, Object: o}, nil
}

// parseTerm parses one triple position: a variable ("?x"), an IRI
// ("<...>" or a prefixed "prefix:local", expanded to "<...>"), or a
// free-text word literal (a quoted string, or a bare identifier).
func (p *Parser) parseTerm() (string, error) {
	p.skipWhitespace()
	ch := p.peek()

	switch {
	case ch == '?' || ch == '$':
		return p.parseVariableToken()
	case ch == '<':
		iri, err := p.parseIRIToken()
		if err != nil {
			return "", err
		}
		return "<" + iri + ">", nil
	case ch == '"' || ch == '\'':
		return p.parseStringToken()
	case ch == ':' || isIdentStart(ch):
		return p.parsePrefixedOrBareTerm()
	default:
		return "", qerrors.Parsef("unexpected character %q at position %d", ch, p.pos)
	}
}

func (p *Parser) parsePrefixedOrBareTerm() (string, error) {
	start := p.pos
	for p.pos < p.length && (isIdentChar(p.input[p.pos]) || p.input[p.pos] == '-') {
		p.advance()
	}
	head := p.input[start:p.pos]

	if p.peek() == ':' {
		p.advance()
		localStart := p.pos
		for p.pos < p.length && (isIdentChar(p.input[p.pos]) || p.input[p.pos] == '-') {
			p.advance()
		}
		local := p.input[localStart:p.pos]
		base, ok := p.prefixes[head]
		if !ok {
			return "", qerrors.Parsef("undefined prefix %q", head)
		}
		return "<" + base + local + ">", nil
	}

	// A bare word with no ':' is a free-text literal in this grammar.
	return head, nil
}

func (p *Parser) parseVariableToken() (string, error) {
	if p.peek() != '?' && p.peek() != '$' {
		return "", qerrors.Parsef("expected variable at position %d", p.pos)
	}
	p.advance()
	start := p.pos
	for p.pos < p.length && isIdentChar(p.input[p.pos]) {
		p.advance()
	}
	if p.pos == start {
		return "", qerrors.Parsef("invalid variable name at position %d", start)
	}
	return "?" + p.input[start:p.pos], nil
}

func (p *Parser) parseIRIToken() (string, error) {
	if p.peek() != '<' {
		return "", qerrors.Parsef("expected '<' at position %d", p.pos)
	}
	p.advance()
	start := p.pos
	for p.pos < p.length && p.input[p.pos] != '>' {
		p.advance()
	}
	if p.pos >= p.length {
		return "", qerrors.Parsef("unterminated IRI starting at position %d", start)
	}
	iri := p.input[start:p.pos]
	p.advance()
	return iri, nil
}

func (p *Parser) parseStringToken() (string, error) {
	quote := p.peek()
	p.advance()
	start := p.pos
	for p.pos < p.length && p.input[p.pos] != quote {
		p.advance()
	}
	if p.pos >= p.length {
		return "", qerrors.Parsef("unterminated string literal starting at position %d", start)
	}
	s := p.input[start:p.pos]
	p.advance()
	return s, nil
}

// parseFilter parses "FILTER(lhs op rhs)".
func (p *Parser) parseFilter() (query.Filter, error) {
	p.skipWhitespace()
	if p.peek() != '(' {
		return query.Filter{}, qerrors.Parsef("expected '(' after FILTER at position %d", p.pos)
	}
	p.advance()

	lhs, err := p.parseTerm()
	if err != nil {
		return query.Filter{}, fmt.Errorf("parsing FILTER lhs: %w", err)
	}

	op, err := p.parseCompareOp()
	if err != nil {
		return query.Filter{}, err
	}

	rhs, err := p.parseTerm()
	if err != nil {
		return query.Filter{}, fmt.Errorf("parsing FILTER rhs: %w", err)
	}

	p.skipWhitespace()
	if p.peek() != ')' {
		return query.Filter{}, qerrors.Parsef("expected ')' to close FILTER at position %d", p.pos)
	}
	p.advance()

	return query.Filter{Lhs: lhs, Op: op, Rhs: rhs}, nil
}

func (p *Parser) parseCompareOp() (query.CompareOp, error) {
	p.skipWhitespace()
	switch {
	case p.hasPrefix("!="):
		p.pos += 2
		return query.NE, nil
	case p.hasPrefix("<="):
		p.pos += 2
		return query.LE, nil
	case p.hasPrefix(">="):
		p.pos += 2
		return query.GE, nil
	case p.hasPrefix("="):
		p.pos++
		return query.EQ, nil
	case p.hasPrefix("<"):
		p.pos++
		return query.LT, nil
	case p.hasPrefix(">"):
		p.pos++
		return query.GT, nil
	default:
		return 0, qerrors.Parsef("expected comparison operator at position %d", p.pos)
	}
}

// parseOrderBy parses "?x DESC(?y) ?z ...".
func (p *Parser) parseOrderBy() ([]query.OrderKey, error) {
	var out []query.OrderKey
	for {
		p.skipWhitespace()
		desc := false
		if p.matchKeyword("DESC") {
			desc = true
			p.skipWhitespace()
			if p.peek() == '(' {
				p.advance()
			}
		} else if p.matchKeyword("ASC") {
			p.skipWhitespace()
			if p.peek() == '(' {
				p.advance()
			}
		}

		p.skipWhitespace()
		if p.peek() != '?' && p.peek() != '$' {
			break
		}
		v, err := p.parseVariableToken()
		if err != nil {
			return nil, err
		}
		p.skipWhitespace()
		if p.peek() == ')' {
			p.advance()
		}
		out = append(out, query.OrderKey{Variable: v, Descending: desc})
	}
	if len(out) == 0 {
		return nil, qerrors.Parsef("expected at least one ORDER BY key")
	}
	return out, nil
}

func (p *Parser) parsePrefix() error {
	p.skipWhitespace()
	start := p.pos
	for p.pos < p.length && p.input[p.pos] != ':' {
		p.advance()
	}
	prefix := p.input[start:p.pos]
	if p.pos >= p.length {
		return qerrors.Parsef("expected ':' in PREFIX declaration")
	}
	p.advance()

	p.skipWhitespace()
	iri, err := p.parseIRIToken()
	if err != nil {
		return fmt.Errorf("parsing PREFIX IRI: %w", err)
	}
	p.prefixes[prefix] = iri
	return nil
}

func (p *Parser) parseInteger() (int, error) {
	p.skipWhitespace()
	start := p.pos
	for p.pos < p.length && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.advance()
	}
	if p.pos == start {
		return 0, qerrors.Parsef("expected integer at position %d", start)
	}
	return strconv.Atoi(p.input[start:p.pos])
}

func (p *Parser) peek() byte {
	if p.pos >= p.length {
		return 0
	}
	return p.input[p.pos]
}

func (p *Parser) advance() {
	if p.pos < p.length {
		p.pos++
	}
}

func (p *Parser) hasPrefix(s string) bool {
	return strings.HasPrefix(p.input[p.pos:], s)
}

func (p *Parser) skipWhitespace() {
	for p.pos < p.length {
		ch := p.input[p.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			p.pos++
			continue
		}
		if ch == '#' {
			for p.pos < p.length && p.input[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		break
	}
}

var keywordBoundary = regexp.MustCompile(`^[A-Za-z0-9_]`)

// matchKeyword consumes keyword (case-insensitively) if it appears next,
// followed by a non-identifier character (so "SELECT" doesn't match a
// variable named "?SELECTed").
func (p *Parser) matchKeyword(keyword string) bool {
	p.skipWhitespace()
	remaining := p.input[p.pos:]
	if len(remaining) < len(keyword) {
		return false
	}
	if !strings.EqualFold(remaining[:len(keyword)], keyword) {
		return false
	}
	rest := remaining[len(keyword):]
	if rest != "" && keywordBoundary.MatchString(rest) {
		return false
	}
	p.pos += len(keyword)
	return true
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
