package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already e164", "+5511988887777", "+5511988887777"},
		{"national with punctuation", "(11) 98888-7777", "+5511988887777"},
		{"digits with country code", "5511988887777", "+5511988887777"},
		{"garbage falls back to digits", "abc123", "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw, "BR"))
		})
	}
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "5511988887777", DigitsOnly("+55 (11) 98888-7777"))
	assert.Equal(t, "", DigitsOnly("no digits"))
}

func TestPhoneFromJID(t *testing.T) {
	assert.Equal(t, "5511988887777", PhoneFromJID("5511988887777@s.whatsapp.net"))
	assert.Equal(t, "5511988887777", PhoneFromJID("5511988887777"))
	assert.Equal(t, "", PhoneFromJID("@s.whatsapp.net"))
}

func TestIsGroupJID(t *testing.T) {
	assert.True(t, IsGroupJID("123456-789@g.us"))
	assert.False(t, IsGroupJID("5511988887777@s.whatsapp.net"))
}
