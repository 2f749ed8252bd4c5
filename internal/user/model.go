package user

import (
	"errors"
	"time"

	"github.com/cduffaut/dentest/internal/models"
)

// ErrNotFound est renvoyée quand l'enregistrement demandé n'existe pas
var ErrNotFound = errors.New("enregistrement non trouvé")

// Repository interface pour accéder aux données utilisateur
type Repository interface {
	// Register crée atomiquement l'utilisateur, son groupe de base, son token,
	// son adresse email non vérifiée et la confirmation associée
	Register(user *models.User, groupName, tokenKey, confirmationKey string) error
	GetByID(id int) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByToken(key string) (*models.User, error)
	CheckEmailExists(email string, excludeUserID int) (bool, error)
	UpdateUserInfo(id int, firstName, lastName string) error
	UpdatePassword(id int, password string) error

	// ChangeEmail change atomiquement l'email de l'utilisateur, repasse son
	// adresse en non vérifiée et crée une nouvelle confirmation
	ChangeEmail(userID int, newEmail, confirmationKey string) error

	GetToken(userID int) (string, error)
	CreateToken(userID int, key string) error
	DeleteToken(userID int) error

	GetEmailAddress(userID int) (*models.EmailAddress, error)
	CreateConfirmation(emailAddressID int, key string) (*models.EmailConfirmation, error)
	GetLatestConfirmation(emailAddressID int) (*models.EmailConfirmation, error)
	MarkConfirmationSent(id int, sentAt time.Time) error
	// ConfirmEmail passe l'adresse en vérifiée; renvoie false si elle l'était déjà
	ConfirmEmail(emailAddressID int) (bool, error)

	CreatePasswordReset(userID int, key string) (*models.PasswordReset, error)
	GetLatestPasswordReset(userID int) (*models.PasswordReset, error)
	MarkResetSent(id int, sentAt time.Time) error
	// ConsumeReset marque la réinitialisation comme utilisée et remplace le token
	// de l'utilisateur dans la même transaction; renvoie false si déjà utilisée
	ConsumeReset(resetID, userID int, newTokenKey string) (bool, error)
}
