package auth

import (
	"encoding/json"
	"net/http"
)

// Handlers gère les requêtes HTTP pour l'authentification
type Handlers struct {
	service *Service
}

// NewHandlers crée des nouveaux gestionnaires pour l'authentification
func NewHandlers(service *Service) *Handlers {
	return &Handlers{
		service: service,
	}
}

// writeJSON envoie une réponse JSON
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError envoie une erreur JSON
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// RegisterHandler gère l'inscription
func (h *Handlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Format de requête invalide")
		return
	}

	user, err := h.service.Register(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Inscription réussie, veuillez confirmer votre adresse email",
		"user_id": user.ID,
	})
}

// LoginHandler gère la connexion
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Format de requête invalide")
		return
	}

	resp, err := h.service.Login(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// LogoutHandler gère la déconnexion
func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.service.Logout(user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Erreur lors de la déconnexion")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Déconnexion réussie"})
}

// ActivateHandler gère la confirmation d'adresse email
func (h *Handlers) ActivateHandler(w http.ResponseWriter, r *http.Request) {
	var req ActivationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Format de requête invalide")
		return
	}

	if req.Username == "" || req.Key == "" {
		writeError(w, http.StatusBadRequest, "Tous les champs sont obligatoires")
		return
	}

	if err := h.service.ActivateEmail(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Adresse email confirmée"})
}

// PasswordResetHandler gère la demande de réinitialisation de mot de passe
func (h *Handlers) PasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Format de requête invalide")
		return
	}

	if req.Username == "" || req.Email == "" || req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "Tous les champs sont obligatoires")
		return
	}

	if err := h.service.RequestPasswordReset(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Un email de réinitialisation a été envoyé",
	})
}

// PasswordResetConfirmHandler gère la confirmation de réinitialisation
func (h *Handlers) PasswordResetConfirmHandler(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Format de requête invalide")
		return
	}

	if req.Username == "" || req.Key == "" {
		writeError(w, http.StatusBadRequest, "Tous les champs sont obligatoires")
		return
	}

	if err := h.service.ConfirmPasswordReset(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Mot de passe réinitialisé avec succès"})
}

// GetUserHandler renvoie le profil du user authentifié
func (h *Handlers) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateUserInfoHandler gère la mise à jour des infos du user authentifié
func (h *Handlers) UpdateUserInfoHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateUserInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Format de requête invalide")
		return
	}

	if err := h.service.UpdateUserInfo(user.ID, req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Informations mises à jour"})
}
