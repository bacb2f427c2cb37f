package domain

// RunState はマイグレーション実行ステートマシンの状態を表す。
type RunState int

const (
	RunStateIdle RunState = iota
	RunStateAdvancing
	RunStateSampling
	RunStateDecidingScript
	RunStateDone
	RunStateFailed
)

func (s RunState) String() string {
	switch s {
	case RunStateIdle:
		return "idle"
	case RunStateAdvancing:
		return "advancing"
	case RunStateSampling:
		return "sampling"
	case RunStateDecidingScript:
		return "deciding_script"
	case RunStateDone:
		return "done"
	case RunStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PostScriptDecision はポストスクリプトを実行するかどうかの判定結果。
type PostScriptDecision string

const (
	// PostScriptRun は今回の実行で1ステップだけ新たに適用されたため実行する。
	PostScriptRun PostScriptDecision = "run"
	// PostScriptSkipAlreadyApplied は以前の実行で適用済みのためスキップする。
	PostScriptSkipAlreadyApplied PostScriptDecision = "skip_already_applied"
	// PostScriptSkipBatched は複数ステップがまとめて適用され、帰属が曖昧なためスキップする。
	PostScriptSkipBatched PostScriptDecision = "skip_batched"
)

// DecidePostScript はステップ差分からポストスクリプトの実行可否を判定する。
// 差分が1の場合のみ実行する。差分が1より大きい場合もスキップするため、
// オペレーターは手動実行で対応する必要がある。
func DecidePostScript(delta int) PostScriptDecision {
	switch {
	case delta == 1:
		return PostScriptRun
	case delta == 0:
		return PostScriptSkipAlreadyApplied
	default:
		return PostScriptSkipBatched
	}
}
