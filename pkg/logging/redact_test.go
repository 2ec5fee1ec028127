package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"email", "contact me at sarah@example.com please", "contact me at [EMAIL] please"},
		{"phone", "call me at (713) 864-2200", "call me at [PHONE]"},
		{"phone with plus", "my number is +17138642200", "my number is [PHONE]"},
		{"both", "email: a@b.com phone: 713-864-2200", "email: [EMAIL] phone: [PHONE]"},
		{"zip and price kept", "I'm in 77008, is it $150?", "I'm in 77008, is it $150?"},
		{"name kept", "My name is Sarah Jones", "My name is Sarah Jones"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Redact(tt.input))
		})
	}
}
