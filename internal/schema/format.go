package schema

import (
	"strconv"
	"strings"
)

// Format は構文木をスキーマ定義テキストに変換する。
// 同じ構文木からは常に同じテキストが得られる。
func Format(s *Schema) string {
	var sb strings.Builder
	var prev Declaration
	for _, d := range s.Declarations {
		if _, ok := prev.(*Block); ok {
			sb.WriteString("\n")
		}
		switch d := d.(type) {
		case *Comment:
			sb.WriteString(d.Text)
			sb.WriteString("\n")
		case *Block:
			formatBlock(&sb, d)
		}
		prev = d
	}
	return sb.String()
}

func formatBlock(sb *strings.Builder, b *Block) {
	sb.WriteString(b.Kind + " " + b.Name + " {")
	if len(b.Members) == 0 {
		sb.WriteString("}\n")
		return
	}
	sb.WriteString("\n")

	width := 0
	for _, m := range b.Members {
		if a, ok := m.(*Assignment); ok && len(a.Key) > width {
			width = len(a.Key)
		}
	}

	for _, m := range b.Members {
		switch m := m.(type) {
		case *RawLine:
			sb.WriteString(m.Text)
		case *Comment:
			sb.WriteString("  " + m.Text)
		case *Assignment:
			sb.WriteString("  " + m.Key + strings.Repeat(" ", width-len(m.Key)) + " = " + FormatExpr(m.Value))
			if m.TrailingComment != "" {
				sb.WriteString(" " + m.TrailingComment)
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
}

// FormatExpr は式をテキストに変換する。
func FormatExpr(e Expr) string {
	switch e := e.(type) {
	case *StringLit:
		return strconv.Quote(e.Value)
	case *Ident:
		return e.Name
	case *FuncCall:
		return e.Name + "(" + formatList(e.Args) + ")"
	case *ArrayLit:
		return "[" + formatList(e.Elems) + "]"
	default:
		return ""
	}
}

func formatList(list []Expr) string {
	parts := make([]string, len(list))
	for i, x := range list {
		parts[i] = FormatExpr(x)
	}
	return strings.Join(parts, ", ")
}
