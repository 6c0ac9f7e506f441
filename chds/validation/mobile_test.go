package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chittoor-drda/chds-app/chds/errors"
)

func TestValidateMobileNumber(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid number", "9876543211", false},
		{"valid number low prefix", "6301234579", false},
		{"too short", "987654321", true},
		{"too long", "98765432100", true},
		{"bad prefix", "5876543210", true},
		{"letters", "98765asdf0", true},
		{"all identical", "9999999999", true},
		{"all identical sixes", "6666666666", true},
		{"ascending run", "1234567890", true},
		{"descending run", "0987654321", true},
		{"descending run high prefix", "9876543210", true},
		{"repetitive five-five", "9999988888", true},
		{"repetitive six-four", "7777776666", true},
		{"short prefix run accepted", "9999812345", false},
		{"long run but trailing noise", "9999988887", true},
		{"run too short to be repetitive", "9999888877", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMobileNumber(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, errors.KindInvalidMobileFormat, errors.Kind(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
