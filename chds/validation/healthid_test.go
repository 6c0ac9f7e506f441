package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chittoor-drda/chds-app/chds/errors"
)

func TestNormalizeHealthID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{"bare digits", "12345678901234", "12-3456-7890-1234", false},
		{"already dashed", "12-3456-7890-1234", "12-3456-7890-1234", false},
		{"spaces as separators", "12 3456 7890 1234", "12-3456-7890-1234", false},
		{"mixed separators", "12-3456 7890.1234", "12-3456-7890-1234", false},
		{"too few digits", "1234567890123", "", true},
		{"too many digits", "123456789012345", "", true},
		{"empty", "", "", true},
		{"letters only", "ABHA", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeHealthID(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, errors.KindInvalidHealthIDFormat, errors.Kind(err))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFormatHealthIDRoundTrip(t *testing.T) {
	const digits = "12345678901234"
	formatted := FormatHealthID(digits)
	assert.Equal(t, "12-3456-7890-1234", formatted)
	assert.Equal(t, digits, strings.ReplaceAll(formatted, "-", ""))
}
