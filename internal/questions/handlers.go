package questions

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cduffaut/dentest/internal/auth"
)

// Handlers gère les requêtes HTTP du catalogue
type Handlers struct {
	service *Service
}

// NewHandlers crée des nouveaux gestionnaires pour le catalogue
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

// writeServiceError mappe une erreur du service vers le bon status HTTP
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrRestricted):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

// ListTopicsHandler renvoie tous les topics
func (h *Handlers) ListTopicsHandler(w http.ResponseWriter, r *http.Request) {
	topics, err := h.service.ListTopics()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erreur lors de la récupération des topics")
		return
	}

	if topics == nil {
		topics = []Topic{}
	}
	writeJSON(w, http.StatusOK, topics)
}

// data pour la creation d'un topic
type createTopicRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateTopicHandler ajoute un topic (staff uniquement)
func (h *Handlers) CreateTopicHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req createTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Format de requête invalide")
		return
	}

	topic, err := h.service.CreateTopic(user, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, topic)
}

// ListSubtopicsHandler renvoie tous les subtopics ordonnés par (topic, nom)
func (h *Handlers) ListSubtopicsHandler(w http.ResponseWriter, r *http.Request) {
	subtopics, err := h.service.ListSubtopics()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erreur lors de la récupération des subtopics")
		return
	}

	if subtopics == nil {
		subtopics = []Subtopic{}
	}
	writeJSON(w, http.StatusOK, subtopics)
}

// data pour la creation d'un subtopic
type createSubtopicRequest struct {
	Name        string `json:"name"`
	Topic       string `json:"topic"`
	Description string `json:"description"`
}

// CreateSubtopicHandler ajoute un subtopic (staff uniquement)
func (h *Handlers) CreateSubtopicHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req createSubtopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Format de requête invalide")
		return
	}

	subtopic, err := h.service.CreateSubtopic(user, req.Name, req.Topic, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, subtopic)
}

// ListQuestionsHandler renvoie les questions visibles par le user, filtrées
// par les paramètres question, topic et subtopic
func (h *Handlers) ListQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	filter := Filter{
		Topic:    r.URL.Query().Get("topic"),
		Subtopic: r.URL.Query().Get("subtopic"),
	}

	if raw := r.URL.Query().Get("question"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "Le paramètre question doit être un identifiant")
			return
		}
		filter.QuestionID = id
	}

	// le filtre par subtopic n'a de sens qu'au sein d'un topic
	if filter.Subtopic != "" && filter.Topic == "" {
		writeError(w, http.StatusBadRequest, "Le paramètre subtopic requiert le paramètre topic")
		return
	}

	result, err := h.service.FetchQuestions(user, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
