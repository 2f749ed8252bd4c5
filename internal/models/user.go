package models

import "time"

// User représente un utilisateur du système
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Password  string    `json:"-"` // Ne jamais exposer le mot de passe
	IsStaff   bool      `json:"is_staff"`
	Groups    []string  `json:"groups"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InGroup indique si l'utilisateur appartient au groupe donné
func (u *User) InGroup(name string) bool {
	for _, g := range u.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// EmailAddress représente l'adresse email faisant autorité pour un utilisateur
type EmailAddress struct {
	ID       int    `json:"id"`
	UserID   int    `json:"user_id"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// EmailConfirmation représente une clé de confirmation d'email
type EmailConfirmation struct {
	ID             int
	EmailAddressID int
	Key            string
	TimeCreated    time.Time
	TimeSent       *time.Time
}

// KeyExpired indique si la clé de confirmation a expiré.
// Une confirmation jamais envoyée ne peut pas expirer.
func (c *EmailConfirmation) KeyExpired(daysValid int, now time.Time) bool {
	if c.TimeSent == nil {
		return false
	}
	expiration := c.TimeSent.Add(time.Duration(daysValid) * 24 * time.Hour)
	return !expiration.After(now)
}

// PasswordReset représente une clé de réinitialisation de mot de passe
type PasswordReset struct {
	ID          int
	UserID      int
	Key         string
	Used        bool
	TimeCreated time.Time
	TimeSent    *time.Time
}

// KeyExpired indique si la clé de réinitialisation a expiré.
// Une réinitialisation jamais envoyée ne peut pas expirer.
func (r *PasswordReset) KeyExpired(daysValid int, now time.Time) bool {
	if r.TimeSent == nil {
		return false
	}
	expiration := r.TimeSent.Add(time.Duration(daysValid) * 24 * time.Hour)
	return !expiration.After(now)
}
