package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "student@example.com", false},
		{"valid with plus", "student+notes@example.com", false},
		{"empty", "", true},
		{"no at sign", "student.example.com", true},
		{"no domain", "student@", true},
		{"too long", strings.Repeat("a", 250) + "@x.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "correct-horse-battery", false},
		{"too short", "abc", true},
		{"too long", strings.Repeat("a", 73), true},
		{"contains common word", "mypassword1", true},
		{"qwerty variant", "qwertyabc", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDisplayName(t *testing.T) {
	assert.NoError(t, ValidateDisplayName("小明"))
	assert.Error(t, ValidateDisplayName(""))
	assert.Error(t, ValidateDisplayName("   "))
	assert.Error(t, ValidateDisplayName(strings.Repeat("x", 101)))
}

func TestValidateInlineImage(t *testing.T) {
	assert.NoError(t, ValidateInlineImage("image/png", 1024))
	assert.NoError(t, ValidateInlineImage("image/jpeg", 5<<20))
	assert.Error(t, ValidateInlineImage("image/gif", 1024))
	assert.Error(t, ValidateInlineImage("text/html", 1024))
	assert.Error(t, ValidateInlineImage("image/png", 0))
	assert.Error(t, ValidateInlineImage("image/png", (5<<20)+1))
}
