package schema

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"data-migration-tool/internal/domain"
)

const testSchema = `// アプリケーションのスキーマ
datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}

generator client {
  provider      = "prisma-client-js"
  binaryTargets = [
    "native",
    "debian-openssl-3.0.x",
  ]
  previewFeatures = ["views"] // preview
}

model User {
  id    Int    @id @default(autoincrement())
  email String @unique

  @@map("users")
}

enum Role {
  USER
  ADMIN
}
`

func TestParse(t *testing.T) {
	s, err := Parse(testSchema)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(s.Declarations) != 5 {
		t.Fatalf("expected 5 declarations, got %d", len(s.Declarations))
	}

	ds := s.Blocks("datasource")
	if len(ds) != 1 {
		t.Fatalf("expected 1 datasource, got %d", len(ds))
	}
	url := ds[0].Field("url")
	if url == nil {
		t.Fatal("expected url field")
	}
	call, ok := url.Value.(*FuncCall)
	if !ok || call.Name != "env" || len(call.Args) != 1 {
		t.Fatalf("expected env() call, got %#v", url.Value)
	}
	if arg, ok := call.Args[0].(*StringLit); !ok || arg.Value != "DATABASE_URL" {
		t.Errorf("expected env argument DATABASE_URL, got %#v", call.Args[0])
	}

	gen := s.Blocks("generator")[0]
	targets, ok := gen.Field("binaryTargets").Value.(*ArrayLit)
	if !ok {
		t.Fatalf("expected array for binaryTargets, got %#v", gen.Field("binaryTargets").Value)
	}
	if len(targets.Elems) != 2 {
		t.Errorf("expected 2 binary targets, got %d", len(targets.Elems))
	}
	if gen.Field("previewFeatures").TrailingComment != "// preview" {
		t.Errorf("expected trailing comment to be kept, got %q", gen.Field("previewFeatures").TrailingComment)
	}

	model := s.Blocks("model")[0]
	if len(model.Members) != 4 {
		t.Errorf("expected 4 raw member lines in model, got %d", len(model.Members))
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unclosed block", "generator client {\n  provider = \"prisma-client-js\"\n"},
		{"garbage at top level", "this is not a block\n"},
		{"missing equals", "datasource db {\n  provider \"postgresql\"\n}\n"},
		{"unterminated string", "datasource db {\n  provider = \"postgresql\n}\n"},
		{"content after brace", "datasource db { provider = \"x\"\n}\n"},
		{"two assignments on one line", "datasource db { provider = \"x\" url = \"y\" }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.source)
			if !errors.Is(err, domain.ErrSchemaSyntax) {
				t.Errorf("expected ErrSchemaSyntax, got %v", err)
			}
		})
	}
}

func TestParse_SingleLineBlocks(t *testing.T) {
	source := "datasource db { provider = \"sqlite\" } // local\n" +
		"generator client { provider = \"prisma-client-js\" }\n" +
		"enum Role { USER }\n"
	s, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	ds := s.Blocks("datasource")
	if len(ds) != 1 {
		t.Fatalf("expected 1 datasource, got %d", len(ds))
	}
	provider := ds[0].Field("provider")
	if provider == nil {
		t.Fatal("expected provider field")
	}
	if v := provider.Value.(*StringLit).Value; v != "sqlite" {
		t.Errorf("expected provider sqlite, got %q", v)
	}
	if provider.TrailingComment != "// local" {
		t.Errorf("expected trailing comment to be kept, got %q", provider.TrailingComment)
	}

	if _, err := ClientGenerator(s); err != nil {
		t.Errorf("expected client generator to be found: %v", err)
	}

	reparsed, err := Parse(Format(s))
	if err != nil {
		t.Fatalf("Parse of formatted output failed: %v\n%s", err, Format(s))
	}
	if len(reparsed.Blocks("enum")[0].Members) != 1 {
		t.Errorf("expected enum member to survive formatting, got:\n%s", Format(s))
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	s, err := Parse(testSchema)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	first := Format(s)

	reparsed, err := Parse(first)
	if err != nil {
		t.Fatalf("Parse of formatted output failed: %v\n%s", err, first)
	}
	second := Format(reparsed)

	if first != second {
		t.Errorf("format is not stable:\n--- first\n%s\n--- second\n%s", first, second)
	}
	if !strings.Contains(first, "  url      = env(\"DATABASE_URL\")\n") {
		t.Errorf("expected aligned url assignment, got:\n%s", first)
	}
	if !strings.Contains(first, "  binaryTargets   = [\"native\", \"debian-openssl-3.0.x\"]\n") {
		t.Errorf("expected multi-line array on one line, got:\n%s", first)
	}
	if !strings.Contains(first, "  @@map(\"users\")\n") {
		t.Errorf("expected model lines to be kept verbatim, got:\n%s", first)
	}
}

func TestFormat_EmptyBlock(t *testing.T) {
	s, err := Parse("generator client {}\n")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := Format(s); got != "generator client {}\n" {
		t.Errorf("unexpected format: %q", got)
	}
}

func TestParseFile_Directory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b_models.prisma": "model User {\n  id Int @id\n}\n",
		"a_base.prisma":   "datasource db {\n  provider = \"sqlite\"\n  url = \"file:./dev.db\"\n}\n",
		"notes.txt":       "not a schema",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	s, err := ParseFile(dir)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if len(s.Declarations) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(s.Declarations))
	}
	// ファイル名順に連結される
	if b := s.Declarations[0].(*Block); b.Kind != "datasource" {
		t.Errorf("expected datasource first, got %s", b.Kind)
	}
}

func TestClone_DoesNotShareState(t *testing.T) {
	s, err := Parse(testSchema)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	c := s.Clone()
	c.Blocks("datasource")[0].SetField("provider", &StringLit{Value: "mysql"})
	c.Blocks("model")[0].Members[0].(*RawLine).Text = "changed"

	if got := s.Blocks("datasource")[0].Field("provider").Value.(*StringLit).Value; got != "postgresql" {
		t.Errorf("original datasource provider changed to %q", got)
	}
	if got := s.Blocks("model")[0].Members[0].(*RawLine).Text; got == "changed" {
		t.Error("original model line changed")
	}
}
