package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chittoor-drda/chds-app/chds/models"
)

func TestIsPlaceholderName(t *testing.T) {
	assert.True(t, IsPlaceholderName("UNKNOWN_NAME_8271"))
	assert.True(t, IsPlaceholderName(""))
	assert.False(t, IsPlaceholderName("Lakshmi Devi"))
}

func TestIsPlaceholderHouseholdID(t *testing.T) {
	assert.True(t, IsPlaceholderHouseholdID("HH_UNKNOWN_42"))
	assert.True(t, IsPlaceholderHouseholdID(""))
	assert.False(t, IsPlaceholderHouseholdID("HH12345678"))
}

func TestIsPlaceholderMobile(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  bool
	}{
		{"nil", nil, true},
		{"empty", strPtr(""), true},
		{"N/A", strPtr("N/A"), true},
		{"zero", strPtr("0"), true},
		{"zero point zero", strPtr("0.0"), true},
		{"real number", strPtr("9876543210"), false},
		{"even an invalid number is present", strPtr("12345"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPlaceholderMobile(tt.value))
		})
	}
}

func TestIsPlaceholderHealthID(t *testing.T) {
	assert.True(t, IsPlaceholderHealthID(nil))
	assert.True(t, IsPlaceholderHealthID(strPtr("")))
	assert.True(t, IsPlaceholderHealthID(strPtr("N/A")))
	assert.False(t, IsPlaceholderHealthID(strPtr("12-3456-7890-1234")))
}

func TestAccumulate(t *testing.T) {
	var stats models.CompletionStats
	Accumulate(&stats, "Lakshmi", "H1", strPtr("9876543210"), strPtr("12-3456-7890-1234"))
	Accumulate(&stats, "UNKNOWN_NAME_1", "HH_UNKNOWN_1", nil, strPtr("N/A"))

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.NameComplete)
	assert.Equal(t, 1, stats.HouseholdIDComplete)
	assert.Equal(t, 1, stats.MobileComplete)
	assert.Equal(t, 1, stats.HealthIDComplete)
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0, Rate(0, 0))
	assert.Equal(t, 0, Rate(5, 0))
	assert.Equal(t, 100, Rate(10, 10))
	assert.Equal(t, 50, Rate(1, 2))
	assert.Equal(t, 67, Rate(2, 3))
	assert.Equal(t, 33, Rate(1, 3))
}

func strPtr(s string) *string { return &s }
