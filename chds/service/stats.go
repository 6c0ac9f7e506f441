package service

import (
	"context"

	"github.com/pkg/errors"

	"github.com/chittoor-drda/chds-app/chds/models"
	"github.com/chittoor-drda/chds-app/chds/placeholder"
)

// CompletionReport carries per-field completion percentages for a resident
// population, plus the underlying counts.
type CompletionReport struct {
	Stats models.CompletionStats

	NameRate        int
	HouseholdIDRate int
	MobileRate      int
	HealthIDRate    int
}

// GetCompletionStats streams the matching residents and classifies each
// field with the placeholder predicates. Reporting and import dry runs share
// placeholder.Accumulate, so the two can never disagree about what counts as
// present.
func (s *service) GetCompletionStats(ctx context.Context, mandal, secretariat string) (*CompletionReport, error) {
	var stats models.CompletionStats
	err := s.repository.WalkResidents(ctx, mandal, secretariat, func(r *models.Resident) error {
		placeholder.Accumulate(&stats, r.Name, r.HouseholdID, r.MobileNumber, r.HealthID)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to walk residents for completion stats")
	}
	return BuildCompletionReport(stats), nil
}

func BuildCompletionReport(stats models.CompletionStats) *CompletionReport {
	return &CompletionReport{
		Stats:           stats,
		NameRate:        placeholder.Rate(stats.NameComplete, stats.Total),
		HouseholdIDRate: placeholder.Rate(stats.HouseholdIDComplete, stats.Total),
		MobileRate:      placeholder.Rate(stats.MobileComplete, stats.Total),
		HealthIDRate:    placeholder.Rate(stats.HealthIDComplete, stats.Total),
	}
}
