package questions

import (
	"errors"
	"fmt"

	"github.com/cduffaut/dentest/internal/models"
	"github.com/cduffaut/dentest/internal/validation"
)

// Erreurs renvoyées par la politique d'accès au catalogue
var (
	// ErrNotFound : le topic/subtopic nommé n'existe pas, ou aucune question
	// n'existe sous le noeud demandé
	ErrNotFound = errors.New("aucune question trouvée")
	// ErrForbidden : des questions existent mais elles sont toutes restreintes
	// pour ce user, ou le user n'est pas staff pour une écriture
	ErrForbidden = errors.New("accès réservé")
	// ErrRestricted : la question demandée par id est restreinte pour ce user.
	// Historiquement remontée en 401 et non en 403, contrairement au cas des
	// listes entièrement restreintes; les clients existants en dépendent.
	ErrRestricted = errors.New("cette question est restreinte")
)

// Filter décrit les paramètres de filtrage d'une requête de questions
type Filter struct {
	QuestionID int // 0 : pas de filtre par id
	Topic      string
	Subtopic   string
}

// Service applique la politique d'accès au catalogue
type Service struct {
	repo            Repository
	privilegedGroup string
}

// NewService crée un nouveau service du catalogue
func NewService(repo Repository, privilegedGroup string) *Service {
	return &Service{
		repo:            repo,
		privilegedGroup: privilegedGroup,
	}
}

// privileged indique si le user voit les questions restreintes
func (s *Service) privileged(u *models.User) bool {
	return u.IsStaff || u.InGroup(s.privilegedGroup)
}

// ListTopics renvoie tous les topics : tout user authentifié voit l'ensemble
func (s *Service) ListTopics() ([]Topic, error) {
	return s.repo.ListTopics()
}

// CreateTopic ajoute un topic; réservé au staff
func (s *Service) CreateTopic(u *models.User, name, description string) (*Topic, error) {
	if !u.IsStaff {
		return nil, ErrForbidden
	}

	if name == "" {
		return nil, validation.ValidationError{Field: "name", Message: "le nom est obligatoire"}
	}

	topic := &Topic{Name: name, Description: description}
	if err := s.repo.CreateTopic(topic); err != nil {
		return nil, err
	}
	return topic, nil
}

// ListSubtopics renvoie tous les subtopics ordonnés par (topic, nom)
func (s *Service) ListSubtopics() ([]Subtopic, error) {
	return s.repo.ListSubtopics()
}

// CreateSubtopic ajoute un subtopic sous le topic nommé; réservé au staff
func (s *Service) CreateSubtopic(u *models.User, name, topicName, description string) (*Subtopic, error) {
	if !u.IsStaff {
		return nil, ErrForbidden
	}

	if name == "" || topicName == "" {
		return nil, validation.ValidationError{Field: "name", Message: "le nom et le topic sont obligatoires"}
	}

	topic, err := s.repo.GetTopicByName(topicName)
	if err != nil {
		if err == ErrNoRecord {
			return nil, validation.ValidationError{Field: "topic", Message: fmt.Sprintf("le topic %s n'existe pas", topicName)}
		}
		return nil, err
	}

	subtopic := &Subtopic{TopicID: topic.ID, Name: name, Topic: topic.Name, Description: description}
	if err := s.repo.CreateSubtopic(subtopic); err != nil {
		return nil, err
	}
	return subtopic, nil
}

// FetchQuestions applique la politique d'accès et renvoie les questions visibles,
// toujours ordonnées par (subtopic, id). Les questions restreintes ne sont jamais
// présentes dans le résultat d'un user non privilégié.
func (s *Service) FetchQuestions(u *models.User, filter Filter) ([]Question, error) {
	privileged := s.privileged(u)

	// recherche d'une question precise par id
	if filter.QuestionID != 0 {
		question, err := s.repo.GetQuestionByID(filter.QuestionID)
		if err != nil {
			if err == ErrNoRecord {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if question.Restricted && !privileged {
			return nil, ErrRestricted
		}
		return []Question{*question}, nil
	}

	// resoudre d'abord les noms filtres : un nom inconnu est un 404
	var result []Question
	var err error
	switch {
	case filter.Topic != "" && filter.Subtopic != "":
		topic, terr := s.repo.GetTopicByName(filter.Topic)
		if terr != nil {
			if terr == ErrNoRecord {
				return nil, ErrNotFound
			}
			return nil, terr
		}
		subtopic, serr := s.repo.GetSubtopicByName(topic.ID, filter.Subtopic)
		if serr != nil {
			if serr == ErrNoRecord {
				return nil, ErrNotFound
			}
			return nil, serr
		}
		result, err = s.repo.ListQuestionsBySubtopic(subtopic.ID)
	case filter.Topic != "":
		topic, terr := s.repo.GetTopicByName(filter.Topic)
		if terr != nil {
			if terr == ErrNoRecord {
				return nil, ErrNotFound
			}
			return nil, terr
		}
		result, err = s.repo.ListQuestionsByTopic(topic.ID)
	default:
		result, err = s.repo.ListQuestions()
	}
	if err != nil {
		return nil, err
	}

	// un noeud vide est un 404 : rien n'existe sous ce filtre
	if len(result) == 0 {
		return nil, ErrNotFound
	}

	if privileged {
		return result, nil
	}

	// filtrer les questions restreintes pour les users non privilégiés
	visible := make([]Question, 0, len(result))
	for _, q := range result {
		if !q.Restricted {
			visible = append(visible, q)
		}
	}

	// des questions existent mais toutes sont restreintes : 403, pas 404
	if len(visible) == 0 {
		return nil, ErrForbidden
	}

	return visible, nil
}
