// Package schema はスキーマ定義言語（datasource / generator / model ブロック）の
// 構文木、パーサ、フォーマッタを提供する。
//
// datasource と generator ブロックのみ "key = value" 形式で解析し、
// それ以外のブロック（model, enum など）のメンバーは行単位でそのまま保持する。
package schema

// Schema はスキーマ定義全体の構文木。
type Schema struct {
	Declarations []Declaration
}

// Declaration はトップレベルの宣言（ブロックまたはコメント）。
type Declaration interface {
	declaration()
}

// Member はブロック内の要素。
type Member interface {
	member()
}

// Expr は代入の右辺の式。
type Expr interface {
	expr()
}

// Comment は "//" で始まるコメント行。Text は "//" を含む。
type Comment struct {
	Text string
}

// Block は "kind name { ... }" 形式のブロック。
type Block struct {
	Kind    string
	Name    string
	Members []Member
}

// Assignment は "key = value" 形式のメンバー。
type Assignment struct {
	Key             string
	Value           Expr
	TrailingComment string
}

// RawLine は解析対象外ブロックのメンバー行。インデントを含めて保持する。
type RawLine struct {
	Text string
}

// StringLit は文字列リテラル。Value はアンエスケープ済みの値。
type StringLit struct {
	Value string
}

// FuncCall は env("X") のような関数呼び出し。
type FuncCall struct {
	Name string
	Args []Expr
}

// ArrayLit は ["a", "b"] のような配列。
type ArrayLit struct {
	Elems []Expr
}

// Ident は識別子、真偽値、数値などの裸の値。
type Ident struct {
	Name string
}

func (*Comment) declaration() {}
func (*Block) declaration()   {}

func (*Comment) member()    {}
func (*Assignment) member() {}
func (*RawLine) member()    {}

func (*StringLit) expr() {}
func (*FuncCall) expr()  {}
func (*ArrayLit) expr()  {}
func (*Ident) expr()     {}

// Blocks は指定された種類のトップレベルブロックを定義順に返す。
func (s *Schema) Blocks(kind string) []*Block {
	var blocks []*Block
	for _, d := range s.Declarations {
		if b, ok := d.(*Block); ok && b.Kind == kind {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// Field は指定キーの代入を返す。存在しない場合はnil。
func (b *Block) Field(key string) *Assignment {
	for _, m := range b.Members {
		if a, ok := m.(*Assignment); ok && a.Key == key {
			return a
		}
	}
	return nil
}

// SetField は指定キーの値を更新する。存在しない場合は末尾に追加する。
func (b *Block) SetField(key string, value Expr) {
	if a := b.Field(key); a != nil {
		a.Value = value
		return
	}
	b.Members = append(b.Members, &Assignment{Key: key, Value: value})
}

// HasAssignments はブロックが1つ以上の代入を持つ場合にtrueを返す。
func (b *Block) HasAssignments() bool {
	for _, m := range b.Members {
		if _, ok := m.(*Assignment); ok {
			return true
		}
	}
	return false
}

// Clone は構文木を深くコピーする。呼び出し元の構文木は変更されない。
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{Declarations: make([]Declaration, len(s.Declarations))}
	for i, d := range s.Declarations {
		switch d := d.(type) {
		case *Comment:
			c := *d
			out.Declarations[i] = &c
		case *Block:
			out.Declarations[i] = d.clone()
		}
	}
	return out
}

func (b *Block) clone() *Block {
	out := &Block{Kind: b.Kind, Name: b.Name, Members: make([]Member, len(b.Members))}
	for i, m := range b.Members {
		switch m := m.(type) {
		case *Comment:
			c := *m
			out.Members[i] = &c
		case *RawLine:
			r := *m
			out.Members[i] = &r
		case *Assignment:
			out.Members[i] = &Assignment{Key: m.Key, Value: cloneExpr(m.Value), TrailingComment: m.TrailingComment}
		}
	}
	return out
}

func cloneExpr(e Expr) Expr {
	switch e := e.(type) {
	case *StringLit:
		return &StringLit{Value: e.Value}
	case *Ident:
		return &Ident{Name: e.Name}
	case *FuncCall:
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = cloneExpr(a)
		}
		return &FuncCall{Name: e.Name, Args: args}
	case *ArrayLit:
		elems := make([]Expr, len(e.Elems))
		for i, el := range e.Elems {
			elems[i] = cloneExpr(el)
		}
		return &ArrayLit{Elems: elems}
	default:
		return nil
	}
}
