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
		{"valide", "test@fake.com", false},
		{"vide", "", true},
		{"sans arobase", "testfake.com", true},
		{"trop long", strings.Repeat("a", 250) + "@x.com", true},
		{"balise html", "<b>test</b>@fake.com", true},
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

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valide", "jdupont_42", false},
		{"vide", "", true},
		{"trop court", "ab", true},
		{"trop long", strings.Repeat("a", 31), true},
		{"caracteres interdits", "jean dupont", true},
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

func TestValidatePasswordPair(t *testing.T) {
	assert.NoError(t, ValidatePasswordPair("motdepasse1", "motdepasse1"))

	// un des deux champs vide
	assert.Error(t, ValidatePasswordPair("", "motdepasse1"))
	assert.Error(t, ValidatePasswordPair("motdepasse1", ""))

	// mots de passe differents
	assert.Error(t, ValidatePasswordPair("motdepasse1", "motdepasse2"))

	// trop court
	assert.Error(t, ValidatePasswordPair("court", "court"))
}

func TestValidateRegistration(t *testing.T) {
	errs := ValidateRegistration("jdupont", "test@fake.com", "Jean", "Dupont", "motdepasse1", "motdepasse1")
	assert.Empty(t, errs)

	errs = ValidateRegistration("", "", "", "", "", "")
	assert.NotEmpty(t, errs)

	// chaque champ en erreur est identifie
	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	assert.True(t, fields["username"])
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
}
