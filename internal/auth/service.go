package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cduffaut/dentest/internal/config"
	"github.com/cduffaut/dentest/internal/email"
	"github.com/cduffaut/dentest/internal/models"
	"github.com/cduffaut/dentest/internal/user"
	"github.com/cduffaut/dentest/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// serv d'authentification
type Service struct {
	userRepo     user.Repository
	emailService *email.Service
	cfg          config.AuthConfig
	now          func() time.Time
}

// cree un nouveau service d'auth
func NewService(userRepo user.Repository, emailService *email.Service, cfg config.AuthConfig) *Service {
	return &Service{
		userRepo:     userRepo,
		emailService: emailService,
		cfg:          cfg,
		now:          time.Now,
	}
}

// data pour l'inscription
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

// data pour la connexion
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// payload renvoyé apres une connexion reussie
type LoginResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Token     string `json:"token"`
}

// data pour la demande de reinitialisation de mdp
type PasswordResetRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// data pour la confirmation de reinitialisation de mdp
type PasswordResetConfirmRequest struct {
	Username  string `json:"username"`
	Key       string `json:"key"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

// data pour la confirmation d'activation d'email
type ActivationRequest struct {
	Username string `json:"username"`
	Key      string `json:"key"`
}

// data pour la m à j des infos users
type UpdateUserInfoRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// inscrit un nouv user : tout est cree dans une seule unite atomique,
// un echec ne laisse aucun enregistrement derriere lui
func (s *Service) Register(req RegisterRequest) (*models.User, error) {
	if errs := validation.ValidateRegistration(req.Username, req.Email, req.FirstName,
		req.LastName, req.Password1, req.Password2); len(errs) > 0 {
		return nil, errs
	}

	// verif si le user existe deja
	existingUser, err := s.userRepo.GetByUsername(req.Username)
	if err == nil && existingUser != nil {
		return nil, fmt.Errorf("ce nom d'utilisateur existe déjà")
	}

	// verif l'unicite de l'email avant de rien creer
	if s.cfg.EmailUnique {
		exists, err := s.userRepo.CheckEmailExists(req.Email, 0)
		if err != nil {
			return nil, fmt.Errorf("erreur lors de la vérification de l'email: %w", err)
		}
		if exists {
			return nil, validation.ValidationError{Field: "email", Message: "cette adresse email est déjà utilisée"}
		}
	}

	// hash du mdp
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("erreur lors du hachage du mot de passe: %w", err)
	}

	tokenKey, err := generateKey()
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la génération du token: %w", err)
	}
	confirmationKey, err := generateKey()
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la génération de la clé: %w", err)
	}

	newUser := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hashedPassword),
	}

	// user + groupe de base + token + adresse email + confirmation, tout ou rien
	if err := s.userRepo.Register(newUser, s.cfg.BasicGroupName, tokenKey, confirmationKey); err != nil {
		return nil, validation.ValidationError{Field: "registration", Message: err.Error()}
	}

	// send email de confirmation
	if err := s.sendConfirmation(newUser); err != nil {
		log.Printf("Erreur lors de l'envoi de l'email de confirmation: %v", err)
	}

	return newUser, nil
}

// sendConfirmation envoie la derniere confirmation en attente pour le user
// et horodate l'envoi : une cle jamais envoyee ne peut pas expirer
func (s *Service) sendConfirmation(u *models.User) error {
	addr, err := s.userRepo.GetEmailAddress(u.ID)
	if err != nil {
		return fmt.Errorf("erreur lors de la récupération de l'adresse email: %w", err)
	}

	confirmation, err := s.userRepo.GetLatestConfirmation(addr.ID)
	if err != nil {
		return fmt.Errorf("erreur lors de la récupération de la confirmation: %w", err)
	}

	if err := s.emailService.SendActivationEmail(u, addr.Email, confirmation.Key); err != nil {
		return fmt.Errorf("erreur lors de l'envoi de l'email: %w", err)
	}

	return s.userRepo.MarkConfirmationSent(confirmation.ID, s.now())
}

// connecte un user et renvoie son token de session
func (s *Service) Login(req LoginRequest) (*LoginResponse, error) {
	u, err := s.lookupUser(req)
	if err != nil {
		return nil, fmt.Errorf("nom d'utilisateur ou mot de passe incorrect")
	}

	// verif le mdp
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("nom d'utilisateur ou mot de passe incorrect")
	}

	// la connexion est bloquee tant que l'email n'est pas confirme :
	// renvoyer une confirmation fraiche
	addr, err := s.userRepo.GetEmailAddress(u.ID)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la récupération de l'adresse email: %w", err)
	}
	if !addr.Verified {
		if err := s.resendConfirmation(u, addr.ID); err != nil {
			log.Printf("Erreur lors du renvoi de l'email de confirmation: %v", err)
		}
		return nil, fmt.Errorf("l'adresse email de ce compte n'a pas été confirmée")
	}

	// recup le token, ou en creer un si le user n'en a pas
	token, err := s.userRepo.GetToken(u.ID)
	if err == user.ErrNotFound {
		token, err = generateKey()
		if err != nil {
			return nil, fmt.Errorf("erreur lors de la génération du token: %w", err)
		}
		if err := s.userRepo.CreateToken(u.ID, token); err != nil {
			return nil, fmt.Errorf("erreur lors de la création du token: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("erreur lors de la récupération du token: %w", err)
	}

	return &LoginResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Token:     token,
	}, nil
}

// lookupUser resout la connexion par nom d'utilisateur ou par email
func (s *Service) lookupUser(req LoginRequest) (*models.User, error) {
	if req.Username != "" {
		return s.userRepo.GetByUsername(req.Username)
	}
	if req.Email != "" {
		return s.userRepo.GetByEmail(req.Email)
	}
	return nil, fmt.Errorf("identifiant manquant")
}

// resendConfirmation cree une nouvelle cle et la dispatch
func (s *Service) resendConfirmation(u *models.User, emailAddressID int) error {
	key, err := generateKey()
	if err != nil {
		return err
	}
	if _, err := s.userRepo.CreateConfirmation(emailAddressID, key); err != nil {
		return err
	}
	return s.sendConfirmation(u)
}

// deconnecte un user en supprimant son token
func (s *Service) Logout(userID int) error {
	return s.userRepo.DeleteToken(userID)
}

// Authenticate resout un token de session vers un user
func (s *Service) Authenticate(token string) (*models.User, error) {
	return s.userRepo.GetByToken(token)
}

// ActivateEmail confirme l'adresse email d'un user avec une cle.
// La cle ne reussit qu'une seule fois, avant expiration, si l'adresse
// n'est pas deja verifiee.
func (s *Service) ActivateEmail(req ActivationRequest) error {
	u, err := s.userRepo.GetByUsername(req.Username)
	if err != nil {
		return fmt.Errorf("l'utilisateur n'existe pas")
	}

	addr, err := s.userRepo.GetEmailAddress(u.ID)
	if err != nil {
		return fmt.Errorf("l'utilisateur n'existe pas")
	}

	confirmation, err := s.userRepo.GetLatestConfirmation(addr.ID)
	if err != nil {
		return fmt.Errorf("l'utilisateur n'existe pas")
	}

	// ne jamais reveler quel controle a echoue
	if confirmation.KeyExpired(s.cfg.EmailConfirmationDaysValid, s.now()) ||
		addr.Verified || req.Key != confirmation.Key {
		return fmt.Errorf("clé incorrecte, expirée ou déjà utilisée")
	}

	ok, err := s.userRepo.ConfirmEmail(addr.ID)
	if err != nil {
		return fmt.Errorf("erreur lors de la confirmation de l'email: %w", err)
	}
	if !ok {
		// une confirmation concurrente a gagne
		return fmt.Errorf("clé incorrecte, expirée ou déjà utilisée")
	}

	return nil
}

// RequestPasswordReset envoie un email de reinitialisation si toutes les infos
// saisies correspondent exactement au compte
func (s *Service) RequestPasswordReset(req PasswordResetRequest) error {
	u, err := s.userRepo.GetByUsername(req.Username)
	if err != nil {
		return fmt.Errorf("nom d'utilisateur incorrect ou inexistant")
	}

	// email exact, noms insensibles a la casse
	if u.Email != req.Email ||
		!strings.EqualFold(u.FirstName, req.FirstName) ||
		!strings.EqualFold(u.LastName, req.LastName) {
		return fmt.Errorf("informations saisies incorrectes")
	}

	key, err := generateKey()
	if err != nil {
		return fmt.Errorf("erreur lors de la génération de la clé: %w", err)
	}

	reset, err := s.userRepo.CreatePasswordReset(u.ID, key)
	if err != nil {
		return validation.ValidationError{Field: "password_reset", Message: err.Error()}
	}

	if err := s.emailService.SendPasswordResetEmail(u, reset.Key); err != nil {
		log.Printf("Erreur lors de l'envoi de l'email de réinitialisation: %v", err)
		return nil
	}

	return s.userRepo.MarkResetSent(reset.ID, s.now())
}

// ConfirmPasswordReset consomme la cle de reinitialisation puis change le mdp.
// La consommation est a usage unique et fait tourner le token de session
// atomiquement : les sessions anterieures sont invalidees.
func (s *Service) ConfirmPasswordReset(req PasswordResetConfirmRequest) error {
	u, err := s.userRepo.GetByUsername(req.Username)
	if err != nil {
		return fmt.Errorf("utilisateur inexistant ou aucune réinitialisation demandée")
	}

	reset, err := s.userRepo.GetLatestPasswordReset(u.ID)
	if err != nil {
		return fmt.Errorf("utilisateur inexistant ou aucune réinitialisation demandée")
	}

	// ne jamais reveler quel controle a echoue
	if reset.KeyExpired(s.cfg.PasswordResetDaysValid, s.now()) ||
		req.Key != reset.Key || reset.Used {
		return fmt.Errorf("clé incorrecte, expirée ou déjà utilisée")
	}

	newToken, err := generateKey()
	if err != nil {
		return fmt.Errorf("erreur lors de la génération du token: %w", err)
	}

	ok, err := s.userRepo.ConsumeReset(reset.ID, u.ID, newToken)
	if err != nil {
		return fmt.Errorf("erreur lors de la consommation de la clé: %w", err)
	}
	if !ok {
		// une confirmation concurrente a gagne
		return fmt.Errorf("clé incorrecte, expirée ou déjà utilisée")
	}

	if err := validation.ValidatePasswordPair(req.Password1, req.Password2); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password1), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("erreur lors du hachage du mot de passe: %w", err)
	}

	return s.userRepo.UpdatePassword(u.ID, string(hashedPassword))
}

// GetUser recup un user par son ID
func (s *Service) GetUser(userID int) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

// m à j les infos de base d'un user; un changement d'email repasse
// l'adresse en non vérifiée et redéclenche une confirmation
func (s *Service) UpdateUserInfo(userID int, req UpdateUserInfoRequest) error {
	if err := validation.ValidateName(req.FirstName, "prénom"); err != nil {
		return err
	}

	if err := validation.ValidateName(req.LastName, "nom"); err != nil {
		return err
	}

	if err := validation.ValidateEmail(req.Email); err != nil {
		return err
	}

	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return fmt.Errorf("erreur lors de la récupération de l'utilisateur: %w", err)
	}

	// verif si le mail n'est pas deja utilise par un autre user
	if s.cfg.EmailUnique {
		emailExists, err := s.userRepo.CheckEmailExists(req.Email, userID)
		if err != nil {
			return fmt.Errorf("erreur lors de la vérification de l'email: %w", err)
		}
		if emailExists {
			return validation.ValidationError{Field: "email", Message: "cette adresse email est déjà utilisée"}
		}
	}

	if err := s.userRepo.UpdateUserInfo(userID, req.FirstName, req.LastName); err != nil {
		return fmt.Errorf("erreur lors de la mise à jour des informations: %w", err)
	}

	if req.Email != u.Email {
		key, err := generateKey()
		if err != nil {
			return fmt.Errorf("erreur lors de la génération de la clé: %w", err)
		}
		if err := s.userRepo.ChangeEmail(userID, req.Email, key); err != nil {
			return fmt.Errorf("erreur lors du changement d'email: %w", err)
		}
		u.Email = req.Email
		if err := s.sendConfirmation(u); err != nil {
			log.Printf("Erreur lors de l'envoi de l'email de confirmation: %v", err)
		}
	}

	return nil
}

// gen une clé aléatoire de 64 caractères minuscules
func generateKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
