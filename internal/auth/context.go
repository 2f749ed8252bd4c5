package auth

import (
	"context"

	"github.com/cduffaut/dentest/internal/models"
)

// key pour stock le user dans le contexte
type userKeyType struct{}

var userKey = userKeyType{}

// WithUser ajoute un user authentifié au contexte
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext récupère le user authentifié du contexte
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}
