package email

import (
	"bytes"
	"fmt"
	"log"
	"net/url"
	"strings"
	"text/template"

	"github.com/cduffaut/dentest/internal/config"
	"github.com/cduffaut/dentest/internal/models"
	"github.com/dajohi/goemail"
)

// Context est le contexte de rendu des emails templatisés
type Context struct {
	User     *models.User
	Domain   string
	SiteName string
	Username string
	Token    string
	Protocol string
	URL      string
}

var activationSubject = template.Must(template.New("activation_subject").Parse(
	`Activation de votre compte {{.SiteName}}`))

var activationBody = template.Must(template.New("activation_body").Parse(
	`Bonjour {{.Username}},

Merci de vous être inscrit sur {{.SiteName}}. Pour activer votre compte,
veuillez suivre le lien ci-dessous :

{{.URL}}

Si vous n'êtes pas à l'origine de cette inscription, veuillez ignorer cet email.
`))

var passwordResetSubject = template.Must(template.New("password_reset_subject").Parse(
	`Réinitialisation de votre mot de passe {{.SiteName}}`))

var passwordResetBody = template.Must(template.New("password_reset_body").Parse(
	`Bonjour {{.Username}},

Vous avez demandé une réinitialisation de votre mot de passe sur {{.SiteName}}.
Veuillez suivre le lien ci-dessous pour la confirmer :

{{.URL}}

Si vous n'êtes pas à l'origine de cette demande, veuillez ignorer cet email.
`))

// Service gère l'envoi d'emails
type Service struct {
	client   *goemail.SMTP
	cfg      config.EmailConfig
	disabled bool
}

// NewService crée un nouveau service d'email.
// Si aucun serveur SMTP n'est configuré, les emails sont affichés dans les logs.
func NewService(smtp config.SMTPConfig, cfg config.EmailConfig) (*Service, error) {
	if smtp.Host == "" || smtp.Username == "" || smtp.Password == "" {
		return &Service{cfg: cfg, disabled: true}, nil
	}

	h := fmt.Sprintf("smtps://%s:%s@%s:%s", smtp.Username, smtp.Password, smtp.Host, smtp.Port)
	u, err := url.Parse(h)
	if err != nil {
		return nil, fmt.Errorf("adresse du serveur SMTP invalide: %w", err)
	}

	client, err := goemail.NewSMTP(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'initialisation du client SMTP: %w", err)
	}

	return &Service{client: client, cfg: cfg}, nil
}

// SendActivationEmail envoie l'email de confirmation d'adresse
func (s *Service) SendActivationEmail(user *models.User, to, key string) error {
	ctx := s.newContext(user, key)
	ctx.URL = expandURL(s.cfg.ActivationURL, ctx)
	return s.send(to, activationSubject, activationBody, ctx)
}

// SendPasswordResetEmail envoie l'email de réinitialisation de mot de passe
func (s *Service) SendPasswordResetEmail(user *models.User, key string) error {
	ctx := s.newContext(user, key)
	ctx.URL = expandURL(s.cfg.PasswordResetConfirmURL, ctx)
	return s.send(user.Email, passwordResetSubject, passwordResetBody, ctx)
}

// newContext construit le contexte de rendu pour un utilisateur et une clé
func (s *Service) newContext(user *models.User, key string) *Context {
	return &Context{
		User:     user,
		Domain:   s.cfg.Domain,
		SiteName: s.cfg.SiteName,
		Username: user.Username,
		Token:    key,
		Protocol: s.cfg.DefaultProtocol,
	}
}

// send rend le sujet et le corps puis envoie l'email
func (s *Service) send(to string, subject, body *template.Template, ctx *Context) error {
	var subjectBuf, bodyBuf bytes.Buffer
	if err := subject.Execute(&subjectBuf, ctx); err != nil {
		return fmt.Errorf("erreur lors du rendu du sujet: %w", err)
	}
	if err := body.Execute(&bodyBuf, ctx); err != nil {
		return fmt.Errorf("erreur lors du rendu du corps: %w", err)
	}

	if s.disabled {
		// Pas de serveur SMTP configuré : afficher l'email dans les logs
		log.Printf("========== EMAIL ==========")
		log.Printf("À: %s", to)
		log.Printf("Sujet: %s", subjectBuf.String())
		log.Printf("Corps: %s", bodyBuf.String())
		log.Printf("===========================")
		return nil
	}

	msg := goemail.NewMessage(s.cfg.FromEmail, subjectBuf.String(), bodyBuf.String())
	msg.SetName(s.cfg.SiteName)
	msg.AddTo(to)

	return s.client.Send(msg)
}

// expandURL remplace les jokers {protocol}, {domain}, {username} et {token}
// dans le motif d'URL configuré
func expandURL(pattern string, ctx *Context) string {
	r := strings.NewReplacer(
		"{protocol}", ctx.Protocol,
		"{domain}", ctx.Domain,
		"{username}", ctx.Username,
		"{token}", ctx.Token,
	)
	return r.Replace(pattern)
}
