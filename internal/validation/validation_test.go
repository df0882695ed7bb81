package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordIssues(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		password  string
		wantIssue bool
	}{
		{"Valid", "Secure1!", false},
		{"Exactly Max Length", "A" + strings.Repeat("b", 125) + "1!", false},
		{"Too Short", "Sm1!", true},
		{"Too Long", "A" + strings.Repeat("b", 126) + "1!", true},
		{"No Upper", "secure12!", true},
		{"No Lower", "SECURE12!", true},
		{"No Digit", "SecurePass!", true},
		{"No Special", "SecurePass123", true},
		{"Special Outside Set", "SecurePass123#", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := PasswordIssues(tt.password)
			if tt.wantIssue {
				assert.NotEmpty(t, issues)
			} else {
				assert.Empty(t, issues)
			}
		})
	}
}

func TestPasswordIssues_ReportsEveryMissingRequirement(t *testing.T) {
	t.Parallel()

	issues := PasswordIssues("abc")
	assert.Equal(t, []string{
		"Password must be at least 8 characters long.",
		"Password must contain at least one uppercase letter.",
		"Password must contain at least one digit.",
		"Password must contain at least one special character (@$!%*?&).",
	}, issues)

	assert.Empty(t, PasswordIssues("GoodPass1$"))
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"With Space", "Mary Jane", false},
		{"Allowed Symbols", "a@b.c+d-e_f", false},
		{"Blank", "   ", true},
		{"Illegal Chars", "user#123", true},
		{"Too Long", strings.Repeat("a", 151), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "test@example.com", false},
		{"Subdomain", "a.b@mail.example.org", false},
		{"No At", "testexample.com", true},
		{"No Domain", "test@", true},
		{"Too Long", strings.Repeat("a", 250) + "@example.com", true},
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

func TestValidateImageURL(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateImageURL("https://cdn.example.com/a.png"))
	assert.Error(t, ValidateImageURL("not a url"))
	assert.Error(t, ValidateImageURL("ftp://example.com/a.png"))
	assert.Error(t, ValidateImageURL("https://example.com/"+strings.Repeat("a", 500)))
}

func TestValidateTitleAndComment(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateTitle("Hello"))
	assert.Error(t, ValidateTitle(""))
	assert.Error(t, ValidateTitle(strings.Repeat("t", 201)))

	assert.NoError(t, ValidateComment("nice"))
	assert.Error(t, ValidateComment("  "))
	assert.Error(t, ValidateComment(strings.Repeat("c", 10001)))
}

func TestErrors(t *testing.T) {
	t.Parallel()
	e := Errors{}
	assert.True(t, e.Empty())
	e.AddErr("email", nil)
	assert.True(t, e.Empty())
	e.Add("email", "one")
	e.Add("email", "two")
	assert.Equal(t, []string{"one", "two"}, e["email"])
}
