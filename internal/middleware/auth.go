package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cduffaut/dentest/internal/auth"
)

// AuthMiddleware est un middleware pour vérifier l'authentification des utilisateurs
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware crée un nouveau middleware d'authentification
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// RequireAuth vérifie le token de session porté par la requête et stocke
// l'utilisateur résolu dans le contexte
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			unauthorized(w)
			return
		}

		user, err := m.authService.Authenticate(token)
		if err != nil {
			unauthorized(w)
			return
		}

		ctx := auth.WithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken lit l'en-tête "Authorization: Token <clé>"
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Token") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
}
