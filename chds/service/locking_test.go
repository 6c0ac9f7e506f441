package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocked(t *testing.T) {
	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	beforeCutoff := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	afterCutoff := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	complete := LockInputs{
		CutoffDate:             &cutoff,
		LastUpdatedAt:          beforeCutoff,
		MobileNumber:           strPtr("9876543211"),
		MobileDuplicateCount:   0,
		HealthID:               strPtr("12-3456-7890-1234"),
		HealthIDGloballyUnique: true,
	}

	tests := []struct {
		name   string
		mutate func(*LockInputs)
		want   bool
	}{
		{"complete record before cutoff", func(in *LockInputs) {}, true},
		{"no cutoff configured", func(in *LockInputs) { in.CutoffDate = nil }, false},
		{"updated on cutoff day", func(in *LockInputs) { in.LastUpdatedAt = cutoff }, false},
		{"updated after cutoff", func(in *LockInputs) { in.LastUpdatedAt = afterCutoff }, false},
		{"placeholder mobile", func(in *LockInputs) { in.MobileNumber = strPtr("0") }, false},
		{"missing mobile", func(in *LockInputs) { in.MobileNumber = nil }, false},
		{"invalid mobile", func(in *LockInputs) { in.MobileNumber = strPtr("1234567890") }, false},
		{"duplicate count at threshold", func(in *LockInputs) { in.MobileDuplicateCount = 5 }, true},
		{"duplicate count over threshold", func(in *LockInputs) { in.MobileDuplicateCount = 6 }, false},
		{"placeholder health id", func(in *LockInputs) { in.HealthID = strPtr("N/A") }, false},
		{"missing health id", func(in *LockInputs) { in.HealthID = nil }, false},
		{"malformed health id", func(in *LockInputs) { in.HealthID = strPtr("12-3456") }, false},
		{"health id held by another resident", func(in *LockInputs) { in.HealthIDGloballyUnique = false }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := complete
			tt.mutate(&in)
			assert.Equal(t, tt.want, Locked(in))
		})
	}
}

func strPtr(s string) *string { return &s }
