package usecase

import (
	"context"
	"errors"
	"testing"

	"data-migration-tool/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestStepTracker_Sample(t *testing.T) {
	t.Run("missing table returns nil", func(t *testing.T) {
		tracker := NewStepTracker(&mockHistoryStore{exists: false})
		got, err := tracker.Sample(context.Background(), "001_init")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("want nil, got %d", *got)
		}
	})

	t.Run("missing row returns zero", func(t *testing.T) {
		tracker := NewStepTracker(&mockHistoryStore{exists: true})
		got, err := tracker.Sample(context.Background(), "001_init")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || *got != 0 {
			t.Errorf("want 0, got %v", got)
		}
	})

	t.Run("existing row returns count", func(t *testing.T) {
		tracker := NewStepTracker(&mockHistoryStore{exists: true, counts: map[string]int{"001_init": 3}})
		got, err := tracker.Sample(context.Background(), "001_init")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || *got != 3 {
			t.Errorf("want 3, got %v", got)
		}
	})

	t.Run("table check error is not treated as missing table", func(t *testing.T) {
		storeErr := errors.New("connection refused")
		tracker := NewStepTracker(&mockHistoryStore{existsErr: storeErr})
		got, err := tracker.Sample(context.Background(), "001_init")
		if !errors.Is(err, storeErr) {
			t.Errorf("want store error, got %v", err)
		}
		if got != nil {
			t.Errorf("want nil sample on error, got %d", *got)
		}
	})

	t.Run("store error is returned", func(t *testing.T) {
		storeErr := errors.New("connection reset")
		tracker := NewStepTracker(&mockHistoryStore{exists: true, getErr: storeErr})
		if _, err := tracker.Sample(context.Background(), "001_init"); !errors.Is(err, storeErr) {
			t.Errorf("want store error, got %v", err)
		}
	})
}

func TestStepDelta(t *testing.T) {
	tests := []struct {
		name   string
		before *int
		after  *int
		want   int
	}{
		{"newly applied", intPtr(3), intPtr(4), 1},
		{"unchanged", intPtr(3), intPtr(3), 0},
		{"batched", intPtr(3), intPtr(5), 2},
		{"table created during run", nil, intPtr(1), 1},
		{"table still missing", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StepDelta(tt.before, tt.after)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("want %d, got %d", tt.want, got)
			}
		})
	}

	if _, err := StepDelta(intPtr(3), intPtr(2)); !errors.Is(err, domain.ErrHistoryIntegrityFault) {
		t.Errorf("want ErrHistoryIntegrityFault, got %v", err)
	}
	if _, err := StepDelta(intPtr(1), nil); !errors.Is(err, domain.ErrHistoryIntegrityFault) {
		t.Errorf("want ErrHistoryIntegrityFault, got %v", err)
	}
}

func TestDecidePostScript(t *testing.T) {
	tests := []struct {
		delta int
		want  domain.PostScriptDecision
	}{
		{0, domain.PostScriptSkipAlreadyApplied},
		{1, domain.PostScriptRun},
		{2, domain.PostScriptSkipBatched},
		{5, domain.PostScriptSkipBatched},
	}
	for _, tt := range tests {
		if got := domain.DecidePostScript(tt.delta); got != tt.want {
			t.Errorf("delta %d: want %s, got %s", tt.delta, tt.want, got)
		}
	}
}
