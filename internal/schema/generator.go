package schema

import (
	"fmt"

	"data-migration-tool/internal/domain"
)

// ClientGeneratorProviders はクライアントコード生成ブロックとして扱うproviderの値。
var ClientGeneratorProviders = []string{
	"prisma-client-js",
	"prisma-client",
	"prisma-client-go",
}

func isClientGenerator(b *Block) bool {
	a := b.Field("provider")
	if a == nil {
		return false
	}
	lit, ok := a.Value.(*StringLit)
	if !ok {
		return false
	}
	for _, p := range ClientGeneratorProviders {
		if lit.Value == p {
			return true
		}
	}
	return false
}

// ClientGenerator はクライアント生成ブロックを返す。ちょうど1つでない場合はエラー。
// メンバーのない generator ブロックはクライアント生成ブロックが見つからない場合にのみ報告する。
func ClientGenerator(s *Schema) (*Block, error) {
	var found []*Block
	var empty *Block
	for _, b := range s.Blocks("generator") {
		if !b.HasAssignments() {
			if empty == nil {
				empty = b
			}
			continue
		}
		if isClientGenerator(b) {
			found = append(found, b)
		}
	}
	if len(found) == 0 && empty != nil {
		return nil, fmt.Errorf("%w: generator %q must have members", domain.ErrGeneratorBlockCount, empty.Name)
	}
	if len(found) != 1 {
		return nil, fmt.Errorf("%w: found %d", domain.ErrGeneratorBlockCount, len(found))
	}
	return found[0], nil
}

// WithClientOutput は構文木のコピーを作成し、クライアント生成ブロックの
// output を指定されたパスに設定して返す。元の構文木は変更しない。
func WithClientOutput(s *Schema, output string) (*Schema, error) {
	out := s.Clone()
	b, err := ClientGenerator(out)
	if err != nil {
		return nil, err
	}
	b.SetField("output", &StringLit{Value: output})
	return out, nil
}
