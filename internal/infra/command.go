package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// commandLine は "npx tsx" のような外部コマンドを表す。
type commandLine struct {
	args   []string
	env    []string
	stdout io.Writer
	stderr io.Writer
}

func newCommandLine(line string, env []string) (*commandLine, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil, fmt.Errorf("command line is empty")
	}
	return &commandLine{args: args, env: env, stdout: os.Stdout, stderr: os.Stderr}, nil
}

func (c *commandLine) run(ctx context.Context, dir string, extra ...string) error {
	args := append(append([]string{}, c.args[1:]...), extra...)
	cmd := exec.CommandContext(ctx, c.args[0], args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), c.env...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %q failed: %w", strings.Join(append(c.args, extra...), " "), err)
	}
	return nil
}

// PostScriptRunner はマイグレーションディレクトリのポストスクリプトを外部コマンドで実行する。
type PostScriptRunner struct {
	cmd      *commandLine
	fileName string
}

// NewPostScriptRunner は新しいPostScriptRunnerを生成する。
// env は "KEY=VALUE" 形式でスクリプトの環境変数に追加される。
func NewPostScriptRunner(commandLine, fileName string, env ...string) (*PostScriptRunner, error) {
	cmd, err := newCommandLine(commandLine, env)
	if err != nil {
		return nil, fmt.Errorf("post script command: %w", err)
	}
	return &PostScriptRunner{cmd: cmd, fileName: fileName}, nil
}

// SetOutput はスクリプトの標準出力と標準エラー出力の書き込み先を設定する。
func (r *PostScriptRunner) SetOutput(stdout, stderr io.Writer) {
	r.cmd.stdout = stdout
	r.cmd.stderr = stderr
}

// Run はマイグレーションディレクトリを作業ディレクトリとしてポストスクリプトを実行する。
func (r *PostScriptRunner) Run(ctx context.Context, migrationDir string) error {
	c := *r.cmd
	c.env = append(append([]string{}, r.cmd.env...), "MIGRATION_NAME="+filepath.Base(migrationDir))
	return c.run(ctx, migrationDir, filepath.Join(migrationDir, r.fileName))
}

// GenerateRunner は外部のクライアントコード生成コマンドを実行する。
type GenerateRunner struct {
	cmd *commandLine
}

// NewGenerateRunner は新しいGenerateRunnerを生成する。
func NewGenerateRunner(commandLine string, env ...string) (*GenerateRunner, error) {
	cmd, err := newCommandLine(commandLine, env)
	if err != nil {
		return nil, fmt.Errorf("generate command: %w", err)
	}
	return &GenerateRunner{cmd: cmd}, nil
}

// SetOutput はコマンドの標準出力と標準エラー出力の書き込み先を設定する。
func (r *GenerateRunner) SetOutput(stdout, stderr io.Writer) {
	r.cmd.stdout = stdout
	r.cmd.stderr = stderr
}

// Generate はスキーマ定義ファイルのパスを引数にコード生成コマンドを実行する。
func (r *GenerateRunner) Generate(ctx context.Context, schemaPath string) error {
	return r.cmd.run(ctx, "", schemaPath)
}
