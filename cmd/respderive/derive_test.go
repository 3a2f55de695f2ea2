package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gyeh/oncoresp/internal/derive"
	"github.com/gyeh/oncoresp/internal/exitcode"
)

func TestFailureCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"preflight", &derive.PipelineError{Phase: derive.PhasePreflight, Err: errors.New("missing column")}, exitcode.ValidationError},
		{"read", &derive.PipelineError{Phase: derive.PhaseRead, Err: errors.New("bad row")}, exitcode.ValidationError},
		{"persist", &derive.PipelineError{Phase: derive.PhasePersist, Err: errors.New("copy failed")}, exitcode.CopyError},
		{"derive", &derive.PipelineError{Phase: derive.PhaseDerive, Err: errors.New("boom")}, exitcode.DeriveError},
		{"wrapped", fmt.Errorf("run: %w", &derive.PipelineError{Phase: derive.PhasePersist, Err: errors.New("x")}), exitcode.CopyError},
		{"plain", errors.New("boom"), exitcode.DeriveError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failureCode(tt.err); got != tt.want {
				t.Errorf("failureCode: got %d, want %d", got, tt.want)
			}
		})
	}
}
