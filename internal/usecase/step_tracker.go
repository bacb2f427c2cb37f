package usecase

import (
	"context"
	"fmt"

	"data-migration-tool/internal/domain"
)

// StepTracker は履歴テーブルから適用済みステップ数を取得する。
type StepTracker struct {
	history HistoryStore
}

// NewStepTracker は新しいStepTrackerを生成する。
func NewStepTracker(history HistoryStore) *StepTracker {
	return &StepTracker{history: history}
}

// Sample は指定されたマイグレーションの適用済みステップ数を返す。
// 履歴テーブルが存在しない場合はnilを返す（エラーではない）。
// テーブルはあるが行がない場合は0を返す。
func (t *StepTracker) Sample(ctx context.Context, migrationName string) (*int, error) {
	exists, err := t.history.TableExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking migration history table: %w", err)
	}
	if !exists {
		return nil, nil
	}

	record, err := t.history.GetByName(ctx, migrationName)
	if err != nil {
		return nil, fmt.Errorf("reading migration history: %w", err)
	}
	count := 0
	if record != nil {
		count = record.AppliedStepsCount
	}
	return &count, nil
}

// StepDelta は2回のサンプルの差分を返す。nilは0として扱う。
// 差分が負の場合は履歴の不整合としてエラーを返す。
func StepDelta(before, after *int) (int, error) {
	b, a := 0, 0
	if before != nil {
		b = *before
	}
	if after != nil {
		a = *after
	}
	delta := a - b
	if delta < 0 {
		return 0, fmt.Errorf("%w: applied steps went from %d to %d", domain.ErrHistoryIntegrityFault, b, a)
	}
	return delta, nil
}
