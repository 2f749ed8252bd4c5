// internal/validation/validation.go
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// Règles de validation
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MaxNameLength     = 30
	MaxEmailLength    = 254
)

// ValidationError représente une erreur de validation
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors représente une liste d'erreurs de validation
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "aucune erreur de validation"
	}

	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidateEmail valide un email
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)

	if email == "" {
		return ValidationError{Field: "email", Message: "l'email est obligatoire"}
	}

	if len(email) > MaxEmailLength {
		return ValidationError{Field: "email", Message: fmt.Sprintf("l'email est trop long (max %d caractères)", MaxEmailLength)}
	}

	if containsHTMLTags(email) {
		return ValidationError{Field: "email", Message: "l'email ne peut pas contenir de balises HTML"}
	}

	_, err := mail.ParseAddress(email)
	if err != nil {
		return ValidationError{Field: "email", Message: "format d'email invalide"}
	}

	return nil
}

// ValidateUsername valide un nom d'utilisateur
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	if username == "" {
		return ValidationError{Field: "username", Message: "le nom d'utilisateur est obligatoire"}
	}

	if len(username) < MinUsernameLength {
		return ValidationError{Field: "username", Message: fmt.Sprintf("le nom d'utilisateur doit contenir au moins %d caractères", MinUsernameLength)}
	}

	if len(username) > MaxUsernameLength {
		return ValidationError{Field: "username", Message: fmt.Sprintf("le nom d'utilisateur doit contenir au maximum %d caractères", MaxUsernameLength)}
	}

	// Seuls les caractères alphanumériques et _ sont autorisés
	matched, _ := regexp.MatchString(`^[a-zA-Z0-9_]+$`, username)
	if !matched {
		return ValidationError{Field: "username", Message: "le nom d'utilisateur ne peut contenir que des lettres, chiffres et _"}
	}

	return nil
}

// ValidatePassword valide un mot de passe
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "le mot de passe est obligatoire"}
	}

	if len(password) < MinPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("le mot de passe doit contenir au moins %d caractères", MinPasswordLength)}
	}

	if len(password) > MaxPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("le mot de passe doit contenir au maximum %d caractères", MaxPasswordLength)}
	}

	return nil
}

// ValidatePasswordPair valide une paire de mots de passe saisis en double
func ValidatePasswordPair(password1, password2 string) error {
	if password1 == "" || password2 == "" {
		return ValidationError{Field: "password", Message: "un des deux mots de passe est vide"}
	}

	if password1 != password2 {
		return ValidationError{Field: "password", Message: "les mots de passe ne correspondent pas"}
	}

	return ValidatePassword(password1)
}

// ValidateName valide un prénom ou nom
func ValidateName(name, fieldName string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return ValidationError{Field: fieldName, Message: fmt.Sprintf("le %s est obligatoire", fieldName)}
	}

	if len(name) > MaxNameLength {
		return ValidationError{Field: fieldName, Message: fmt.Sprintf("le %s doit contenir au maximum %d caractères", fieldName, MaxNameLength)}
	}

	if containsHTMLTags(name) {
		return ValidationError{Field: fieldName, Message: fmt.Sprintf("le %s ne peut pas contenir de balises HTML", fieldName)}
	}

	return nil
}

// ValidateRegistration valide tous les champs d'inscription
func ValidateRegistration(username, email, firstName, lastName, password1, password2 string) ValidationErrors {
	var errors ValidationErrors

	if err := ValidateUsername(username); err != nil {
		errors = append(errors, err.(ValidationError))
	}

	if err := ValidateEmail(email); err != nil {
		errors = append(errors, err.(ValidationError))
	}

	if err := ValidateName(firstName, "prénom"); err != nil {
		errors = append(errors, err.(ValidationError))
	}

	if err := ValidateName(lastName, "nom"); err != nil {
		errors = append(errors, err.(ValidationError))
	}

	if err := ValidatePasswordPair(password1, password2); err != nil {
		errors = append(errors, err.(ValidationError))
	}

	return errors
}

// containsHTMLTags vérifie si une chaîne contient des balises HTML
func containsHTMLTags(input string) bool {
	htmlTagPattern := `<[^>]*>`
	matched, _ := regexp.MatchString(htmlTagPattern, input)
	return matched
}
