// SPDX-License-Identifier: GPL-3.0-or-later
package engine

import (
	"errors"
	"fmt"
	"strings"
)

var ErrQuerySyntax = errors.New("bad query syntax")

// clause is a compiled query: an SQL condition over the messages table,
// aliased m, and its arguments.
type clause struct {
	sql  string
	args []interface{}
	// tags named by tag: terms, which exempts them from tag excludes
	tags []string
}

func (c clause) and(other clause) clause {
	return clause{
		sql:  "(" + c.sql + " AND " + other.sql + ")",
		args: append(append([]interface{}{}, c.args...), other.args...),
		tags: append(append([]string{}, c.tags...), other.tags...),
	}
}

func (c clause) or(other clause) clause {
	return clause{
		sql:  "(" + c.sql + " OR " + other.sql + ")",
		args: append(append([]interface{}{}, c.args...), other.args...),
		tags: append(append([]string{}, c.tags...), other.tags...),
	}
}

func (c clause) not() clause {
	return clause{sql: "NOT (" + c.sql + ")", args: c.args, tags: c.tags}
}

var matchAll = clause{sql: "1"}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokOpen
	tokClose
	tokMinus
)

type token struct {
	kind tokenKind
	// prefix is set for prefix:value terms
	prefix string
	text   string
	quoted bool
}

func tokenize(qs string) ([]token, error) {
	tokens := []token{}
	i := 0
	for i < len(qs) {
		c := qs[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokOpen})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokClose})
			i++
		case c == '-' && (i == 0 || !isWordByte(qs[i-1])):
			tokens = append(tokens, token{kind: tokMinus})
			i++
		default:
			t, n, err := readTerm(qs[i:])
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, t)
			i += n
		}
	}
	return tokens, nil
}

// readTerm reads a word, a quoted phrase or a prefix:value term from the
// start of s and returns it with the number of bytes consumed.
func readTerm(s string) (token, int, error) {
	t := token{kind: tokWord}
	i := 0

	if s[0] != '"' {
		for i < len(s) && isWordByte(s[i]) && s[i] != ':' {
			i++
		}
		if i < len(s) && s[i] == ':' && i > 0 {
			t.prefix = strings.ToLower(s[:i])
			i++
		} else {
			i = 0
		}
	}

	if i < len(s) && s[i] == '"' {
		end := strings.IndexByte(s[i+1:], '"')
		if end < 0 {
			return t, 0, fmt.Errorf("%w: unterminated quote", ErrQuerySyntax)
		}
		t.text = s[i+1 : i+1+end]
		t.quoted = true
		return t, i + end + 2, nil
	}

	start := i
	for i < len(s) && isWordByte(s[i]) {
		i++
	}
	t.text = s[start:i]
	if t.prefix != "" && t.text == "" {
		return t, 0, fmt.Errorf("%w: empty value for %s:", ErrQuerySyntax, t.prefix)
	}
	return t, i, nil
}

func isWordByte(c byte) bool {
	return c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '(' && c != ')' && c != '"'
}

type parser struct {
	tokens []token
	pos    int
}

// compile turns a query string into a clause.
//
//	query  = or
//	or     = and { "or" and }
//	and    = unary { ["and"] unary }
//	unary  = ("not" | "-") unary | "(" or ")" | term
func compile(qs string) (clause, error) {
	tokens, err := tokenize(qs)
	if err != nil {
		return clause{}, err
	}
	if len(tokens) == 0 {
		return matchAll, nil
	}

	p := &parser{tokens: tokens}
	c, err := p.or()
	if err != nil {
		return clause{}, err
	}
	if p.pos < len(p.tokens) {
		return clause{}, fmt.Errorf("%w: unexpected %s", ErrQuerySyntax, p.describe())
	}
	return c, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) describe() string {
	t, ok := p.peek()
	switch {
	case !ok:
		return "end of query"
	case t.kind == tokOpen:
		return "'('"
	case t.kind == tokClose:
		return "')'"
	case t.kind == tokMinus:
		return "'-'"
	}
	return fmt.Sprintf("%q", t.text)
}

// keyword reports whether the next token is the unquoted operator word.
func (p *parser) keyword(word string) bool {
	t, ok := p.peek()
	return ok && t.kind == tokWord && !t.quoted && t.prefix == "" && strings.EqualFold(t.text, word)
}

func (p *parser) or() (clause, error) {
	c, err := p.and()
	if err != nil {
		return clause{}, err
	}
	for p.keyword("or") {
		p.pos++
		other, err := p.and()
		if err != nil {
			return clause{}, err
		}
		c = c.or(other)
	}
	return c, nil
}

func (p *parser) and() (clause, error) {
	c, err := p.unary()
	if err != nil {
		return clause{}, err
	}
	for {
		if p.keyword("and") {
			p.pos++
		} else if t, ok := p.peek(); !ok || t.kind == tokClose || p.keyword("or") {
			return c, nil
		}
		other, err := p.unary()
		if err != nil {
			return clause{}, err
		}
		c = c.and(other)
	}
}

func (p *parser) unary() (clause, error) {
	t, ok := p.peek()
	if !ok {
		return clause{}, fmt.Errorf("%w: unexpected end of query", ErrQuerySyntax)
	}

	switch {
	case t.kind == tokMinus || p.keyword("not"):
		p.pos++
		c, err := p.unary()
		if err != nil {
			return clause{}, err
		}
		return c.not(), nil
	case t.kind == tokOpen:
		p.pos++
		c, err := p.or()
		if err != nil {
			return clause{}, err
		}
		if t, ok := p.peek(); !ok || t.kind != tokClose {
			return clause{}, fmt.Errorf("%w: missing ')'", ErrQuerySyntax)
		}
		p.pos++
		return c, nil
	case t.kind == tokClose:
		return clause{}, fmt.Errorf("%w: unexpected ')'", ErrQuerySyntax)
	case p.keyword("and") || p.keyword("or"):
		return clause{}, fmt.Errorf("%w: operator %s without operand", ErrQuerySyntax, t.text)
	}

	p.pos++
	return term(t)
}

func term(t token) (clause, error) {
	switch t.prefix {
	case "":
		if t.text == "*" && !t.quoted {
			return matchAll, nil
		}
		like := containsPattern(t.text)
		return clause{
			sql:  `(m.subject LIKE ? ESCAPE '\' OR m.sender LIKE ? ESCAPE '\')`,
			args: []interface{}{like, like},
		}, nil
	case "tag", "is":
		return clause{
			sql:  `EXISTS (SELECT 1 FROM tags t WHERE t.message_id = m.id AND t.tag = ?)`,
			args: []interface{}{t.text},
			tags: []string{t.text},
		}, nil
	case "id", "mid":
		return clause{sql: `m.id = ?`, args: []interface{}{strings.TrimSuffix(strings.TrimPrefix(t.text, "<"), ">")}}, nil
	case "thread":
		return clause{sql: `m.thread_id = ?`, args: []interface{}{t.text}}, nil
	case "from":
		return clause{sql: `m.sender LIKE ? ESCAPE '\'`, args: []interface{}{containsPattern(t.text)}}, nil
	case "subject":
		return clause{sql: `m.subject LIKE ? ESCAPE '\'`, args: []interface{}{containsPattern(t.text)}}, nil
	case "path":
		return pathTerm(t.text), nil
	case "folder":
		dir := strings.Trim(t.text, "/")
		return clause{
			sql:  `EXISTS (SELECT 1 FROM filenames f WHERE f.message_id = m.id AND f.directory IN (?, ?, ?))`,
			args: []interface{}{dir, joinDir(dir, "cur"), joinDir(dir, "new")},
		}, nil
	case "property":
		i := strings.IndexByte(t.text, '=')
		if i < 0 {
			return clause{}, fmt.Errorf("%w: property term %q needs key=value", ErrQuerySyntax, t.text)
		}
		return clause{
			sql:  `EXISTS (SELECT 1 FROM properties p WHERE p.message_id = m.id AND p.key = ? AND p.value = ?)`,
			args: []interface{}{t.text[:i], t.text[i+1:]},
		}, nil
	}

	// unknown prefixes are plain text, e.g. "re:foo"
	return term(token{kind: tokWord, text: t.prefix + ":" + t.text, quoted: true})
}

func pathTerm(value string) clause {
	dir := strings.Trim(value, "/")
	if !strings.HasSuffix(dir, "**") {
		return clause{
			sql:  `EXISTS (SELECT 1 FROM filenames f WHERE f.message_id = m.id AND f.directory = ?)`,
			args: []interface{}{dir},
		}
	}

	dir = strings.Trim(strings.TrimSuffix(dir, "**"), "/")
	if dir == "" {
		return clause{sql: `EXISTS (SELECT 1 FROM filenames f WHERE f.message_id = m.id)`}
	}
	below := dir + "/"
	return clause{
		sql:  `EXISTS (SELECT 1 FROM filenames f WHERE f.message_id = m.id AND (f.directory = ? OR substr(f.directory, 1, ?) = ?))`,
		args: []interface{}{dir, len(below), below},
	}
}

func joinDir(dir, sub string) string {
	if dir == "" {
		return sub
	}
	return dir + "/" + sub
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
