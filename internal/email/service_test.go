package email

import (
	"testing"

	"github.com/cduffaut/dentest/internal/config"
	"github.com/cduffaut/dentest/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandURL(t *testing.T) {
	ctx := &Context{
		Protocol: "https",
		Domain:   "dentest.example.com",
		Username: "jdupont",
		Token:    "abc123",
	}

	url := expandURL("{protocol}://{domain}/activate/{username}/{token}/", ctx)
	assert.Equal(t, "https://dentest.example.com/activate/jdupont/abc123/", url)
}

func TestExpandURLWithoutPlaceholders(t *testing.T) {
	ctx := &Context{Protocol: "http", Domain: "localhost"}

	url := expandURL("https://example.com/fixed", ctx)
	assert.Equal(t, "https://example.com/fixed", url)
}

func TestNewServiceDisabledWithoutSMTPConfig(t *testing.T) {
	s, err := NewService(config.SMTPConfig{}, config.EmailConfig{})
	require.NoError(t, err)
	assert.True(t, s.disabled)
}

func TestSendActivationEmailDisabled(t *testing.T) {
	s, err := NewService(config.SMTPConfig{}, config.EmailConfig{
		Domain:          "dentest.example.com",
		SiteName:        "Dentest",
		DefaultProtocol: "https",
		ActivationURL:   "{protocol}://{domain}/activate/{username}/{token}/",
	})
	require.NoError(t, err)

	u := &models.User{Username: "jdupont", Email: "jdupont@example.com"}
	// sans serveur SMTP l'envoi est journalisé, pas d'erreur attendue
	err = s.SendActivationEmail(u, u.Email, "abc123")
	assert.NoError(t, err)
}

func TestSendPasswordResetEmailDisabled(t *testing.T) {
	s, err := NewService(config.SMTPConfig{}, config.EmailConfig{
		Domain:                  "dentest.example.com",
		SiteName:                "Dentest",
		DefaultProtocol:         "https",
		PasswordResetConfirmURL: "{protocol}://{domain}/reset/{username}/{token}/",
	})
	require.NoError(t, err)

	u := &models.User{Username: "jdupont", Email: "jdupont@example.com"}
	err = s.SendPasswordResetEmail(u, "abc123")
	assert.NoError(t, err)
}
