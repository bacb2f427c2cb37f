package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"data-migration-tool/internal/domain"
)

// FileExtension はスキーマ定義ファイルの拡張子。
const FileExtension = ".prisma"

// configBlockKinds は "key = value" 形式で解析するブロックの種類。
var configBlockKinds = map[string]bool{
	"datasource": true,
	"generator":  true,
}

var blockHeaderRegex = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s+([A-Za-z_][A-Za-z0-9_]*)\s*\{(.*)$`)

// Parse はスキーマ定義テキストを構文木に変換する。
func Parse(text string) (*Schema, error) {
	p := &parser{lines: strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")}
	return p.parse()
}

// ParseFile はファイルまたはディレクトリからスキーマ定義を読み込んで解析する。
// ディレクトリの場合は直下の *.prisma ファイルをファイル名順に連結してから解析する。
func ParseFile(path string) (*Schema, error) {
	text, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// ReadSource はスキーマ定義の本文を読み込む。
func ReadSource(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading schema: %w", err)
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading schema: %w", err)
		}
		return string(data), nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("reading schema directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != FileExtension {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(path, name))
		if err != nil {
			return "", fmt.Errorf("reading schema fragment %s: %w", name, err)
		}
		sb.Write(data)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

type parser struct {
	lines []string
	pos   int
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", domain.ErrSchemaSyntax, line+1, fmt.Sprintf(format, args...))
}

func (p *parser) parse() (*Schema, error) {
	s := &Schema{}
	for p.pos < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.pos])
		switch {
		case trimmed == "":
			p.pos++
		case strings.HasPrefix(trimmed, "//"):
			s.Declarations = append(s.Declarations, &Comment{Text: trimmed})
			p.pos++
		default:
			b, err := p.parseBlock(trimmed)
			if err != nil {
				return nil, err
			}
			s.Declarations = append(s.Declarations, b)
		}
	}
	return s, nil
}

func (p *parser) parseBlock(header string) (*Block, error) {
	m := blockHeaderRegex.FindStringSubmatch(header)
	if m == nil {
		return nil, p.errorf(p.pos, "unexpected %q", header)
	}
	start := p.pos
	b := &Block{Kind: m[1], Name: m[2]}
	p.pos++

	code, comment := splitComment(strings.TrimSpace(m[3]))
	if strings.HasSuffix(code, "}") {
		if err := p.parseInlineMembers(b, strings.TrimSpace(strings.TrimSuffix(code, "}")), comment); err != nil {
			return nil, p.errorf(start, "%v", err)
		}
		return b, nil
	}
	if code != "" {
		return nil, p.errorf(start, "unexpected %q after '{'", code)
	}
	if comment != "" {
		if configBlockKinds[b.Kind] {
			b.Members = append(b.Members, &Comment{Text: comment})
		} else {
			b.Members = append(b.Members, &RawLine{Text: "  " + comment})
		}
	}

	var closed bool
	var err error
	if configBlockKinds[b.Kind] {
		closed, err = p.parseConfigMembers(b)
	} else {
		closed = p.parseRawMembers(b)
	}
	if err != nil {
		return nil, err
	}
	if !closed {
		return nil, p.errorf(start, "block %s %s is not closed", b.Kind, b.Name)
	}
	return b, nil
}

// parseInlineMembers は "kind name { ... }" のように1行で書かれたブロックの中身を解析する。
// 設定ブロックでは代入を1つまで受け付ける。
func (p *parser) parseInlineMembers(b *Block, inner, comment string) error {
	if inner == "" {
		if comment != "" {
			if configBlockKinds[b.Kind] {
				b.Members = append(b.Members, &Comment{Text: comment})
			} else {
				b.Members = append(b.Members, &RawLine{Text: "  " + comment})
			}
		}
		return nil
	}
	if !configBlockKinds[b.Kind] {
		b.Members = append(b.Members, &RawLine{Text: "  " + inner})
		return nil
	}
	a, err := parseAssignment(inner)
	if err != nil {
		return err
	}
	a.TrailingComment = comment
	b.Members = append(b.Members, a)
	return nil
}

func (p *parser) parseRawMembers(b *Block) bool {
	for p.pos < len(p.lines) {
		line := strings.TrimRightFunc(p.lines[p.pos], unicode.IsSpace)
		p.pos++
		if strings.TrimSpace(line) == "}" {
			return true
		}
		b.Members = append(b.Members, &RawLine{Text: line})
	}
	return false
}

func (p *parser) parseConfigMembers(b *Block) (bool, error) {
	var stmt []string
	stmtLine := 0
	for p.pos < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.pos])
		if len(stmt) == 0 {
			switch {
			case trimmed == "}":
				p.pos++
				return true, nil
			case trimmed == "":
				p.pos++
				continue
			case strings.HasPrefix(trimmed, "//"):
				b.Members = append(b.Members, &Comment{Text: trimmed})
				p.pos++
				continue
			}
			stmtLine = p.pos
		}

		code, comment := splitComment(trimmed)
		stmt = append(stmt, code)
		p.pos++

		joined := strings.Join(stmt, " ")
		if !balanced(joined) {
			continue
		}
		a, err := parseAssignment(joined)
		if err != nil {
			return false, p.errorf(stmtLine, "%v", err)
		}
		a.TrailingComment = comment
		b.Members = append(b.Members, a)
		stmt = nil
	}
	return false, nil
}

// splitComment は行をコードと文字列外の "//" コメントに分割する。
func splitComment(line string) (string, string) {
	inString := false
	for i := 0; i < len(line); i++ {
		switch {
		case inString && line[i] == '\\':
			i++
		case line[i] == '"':
			inString = !inString
		case !inString && strings.HasPrefix(line[i:], "//"):
			return strings.TrimSpace(line[:i]), line[i:]
		}
	}
	return line, ""
}

// balanced は文字列外の括弧が閉じているかを返す。
func balanced(s string) bool {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		switch {
		case inString && s[i] == '\\':
			i++
		case s[i] == '"':
			inString = !inString
		case inString:
		case s[i] == '[' || s[i] == '(':
			depth++
		case s[i] == ']' || s[i] == ')':
			depth--
		}
	}
	return depth <= 0 && !inString
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(s string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case strings.IndexByte("()[],=", c) >= 0:
			tokens = append(tokens, token{kind: tokPunct, text: string(c)})
			i++
		case c == '"':
			j := i + 1
			for ; j < len(s) && s[j] != '"'; j++ {
				if s[j] == '\\' {
					j++
				}
			}
			if j >= len(s) {
				return nil, fmt.Errorf("unterminated string")
			}
			v, err := strconv.Unquote(s[i : j+1])
			if err != nil {
				return nil, fmt.Errorf("invalid string %s: %w", s[i:j+1], err)
			}
			tokens = append(tokens, token{kind: tokString, text: v})
			i = j + 1
		default:
			j := i
			for j < len(s) && s[j] != ' ' && s[j] != '\t' && s[j] != '"' && strings.IndexByte("()[],=", s[j]) < 0 {
				j++
			}
			tokens = append(tokens, token{kind: tokIdent, text: s[i:j]})
			i = j
		}
	}
	return append(tokens, token{kind: tokEOF}), nil
}

type exprParser struct {
	tokens []token
	pos    int
}

func (e *exprParser) peek() token { return e.tokens[e.pos] }

func (e *exprParser) next() token {
	t := e.tokens[e.pos]
	if t.kind != tokEOF {
		e.pos++
	}
	return t
}

func (e *exprParser) expectPunct(p string) error {
	if t := e.next(); t.kind != tokPunct || t.text != p {
		return fmt.Errorf("expected %q, got %q", p, t.text)
	}
	return nil
}

func parseAssignment(stmt string) (*Assignment, error) {
	tokens, err := tokenize(stmt)
	if err != nil {
		return nil, err
	}
	e := &exprParser{tokens: tokens}

	key := e.next()
	if key.kind != tokIdent {
		return nil, fmt.Errorf("expected key in %q", stmt)
	}
	if err := e.expectPunct("="); err != nil {
		return nil, err
	}
	value, err := e.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := e.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q after value", t.text)
	}
	return &Assignment{Key: key.text, Value: value}, nil
}

func (e *exprParser) parseExpr() (Expr, error) {
	t := e.next()
	switch t.kind {
	case tokString:
		return &StringLit{Value: t.text}, nil
	case tokIdent:
		if n := e.peek(); n.kind == tokPunct && n.text == "(" {
			e.next()
			args, err := e.parseList(")")
			if err != nil {
				return nil, err
			}
			return &FuncCall{Name: t.text, Args: args}, nil
		}
		return &Ident{Name: t.text}, nil
	case tokPunct:
		if t.text == "[" {
			elems, err := e.parseList("]")
			if err != nil {
				return nil, err
			}
			return &ArrayLit{Elems: elems}, nil
		}
	}
	return nil, fmt.Errorf("unexpected %q", t.text)
}

// parseList は閉じ括弧までのカンマ区切りの式を解析する。末尾カンマは許容する。
func (e *exprParser) parseList(closing string) ([]Expr, error) {
	var list []Expr
	for {
		if t := e.peek(); t.kind == tokPunct && t.text == closing {
			e.next()
			return list, nil
		}
		x, err := e.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, x)

		t := e.next()
		if t.kind == tokPunct && t.text == closing {
			return list, nil
		}
		if t.kind != tokPunct || t.text != "," {
			return nil, fmt.Errorf("expected ',' or %q, got %q", closing, t.text)
		}
	}
}
