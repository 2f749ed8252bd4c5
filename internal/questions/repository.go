package questions

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoRecord est renvoyée quand l'enregistrement demandé n'existe pas
var ErrNoRecord = errors.New("enregistrement non trouvé")

// Repository interface pour accéder au catalogue
type Repository interface {
	ListTopics() ([]Topic, error)
	GetTopicByName(name string) (*Topic, error)
	CreateTopic(topic *Topic) error
	// ListSubtopics renvoie les subtopics ordonnés par (nom du topic, nom du subtopic)
	ListSubtopics() ([]Subtopic, error)
	GetSubtopicByName(topicID int, name string) (*Subtopic, error)
	CreateSubtopic(subtopic *Subtopic) error
	GetQuestionByID(id int) (*Question, error)
	// Les listes de questions sont toujours ordonnées par (subtopic, id)
	ListQuestions() ([]Question, error)
	ListQuestionsByTopic(topicID int) ([]Question, error)
	ListQuestionsBySubtopic(subtopicID int) ([]Question, error)
}

// PostgresRepository est l'implémentation PostgreSQL du Repository
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository crée un nouveau repository du catalogue
func NewPostgresRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

// ListTopics récupère tous les topics ordonnés par nom
func (r *PostgresRepository) ListTopics() ([]Topic, error) {
	rows, err := r.db.Query(`SELECT id, name, description FROM topics ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// GetTopicByName récupère un topic par son nom
func (r *PostgresRepository) GetTopicByName(name string) (*Topic, error) {
	topic := &Topic{}
	err := r.db.QueryRow(`SELECT id, name, description FROM topics WHERE name = $1`, name).
		Scan(&topic.ID, &topic.Name, &topic.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return topic, nil
}

// CreateTopic ajoute un nouveau topic
func (r *PostgresRepository) CreateTopic(topic *Topic) error {
	query := `INSERT INTO topics (name, description) VALUES ($1, $2) RETURNING id`
	err := r.db.QueryRow(query, topic.Name, topic.Description).Scan(&topic.ID)
	if err != nil {
		return fmt.Errorf("erreur lors de la création du topic: %w", err)
	}
	return nil
}

// ListSubtopics récupère tous les subtopics ordonnés par (nom du topic, nom du subtopic)
func (r *PostgresRepository) ListSubtopics() ([]Subtopic, error) {
	query := `
        SELECT s.id, s.topic_id, s.name, t.name, s.description
        FROM subtopics s
        JOIN topics t ON t.id = s.topic_id
        ORDER BY t.name, s.name
    `
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subtopics []Subtopic
	for rows.Next() {
		var s Subtopic
		if err := rows.Scan(&s.ID, &s.TopicID, &s.Name, &s.Topic, &s.Description); err != nil {
			return nil, err
		}
		subtopics = append(subtopics, s)
	}
	return subtopics, rows.Err()
}

// GetSubtopicByName récupère un subtopic par son nom au sein d'un topic
func (r *PostgresRepository) GetSubtopicByName(topicID int, name string) (*Subtopic, error) {
	query := `
        SELECT s.id, s.topic_id, s.name, t.name, s.description
        FROM subtopics s
        JOIN topics t ON t.id = s.topic_id
        WHERE s.topic_id = $1 AND s.name = $2
    `
	subtopic := &Subtopic{}
	err := r.db.QueryRow(query, topicID, name).
		Scan(&subtopic.ID, &subtopic.TopicID, &subtopic.Name, &subtopic.Topic, &subtopic.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return subtopic, nil
}

// CreateSubtopic ajoute un nouveau subtopic
func (r *PostgresRepository) CreateSubtopic(subtopic *Subtopic) error {
	query := `INSERT INTO subtopics (topic_id, name, description) VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRow(query, subtopic.TopicID, subtopic.Name, subtopic.Description).Scan(&subtopic.ID)
	if err != nil {
		return fmt.Errorf("erreur lors de la création du subtopic: %w", err)
	}
	return nil
}

const questionColumns = `
        q.id, q.question, q.answer, q.restricted,
        s.id, s.topic_id, s.name, t.name, s.description
`

// scanQuestions lit une liste de questions avec leur subtopic joint
func scanQuestions(rows *sql.Rows) ([]Question, error) {
	var result []Question
	for rows.Next() {
		var q Question
		err := rows.Scan(
			&q.ID, &q.Question, &q.Answer, &q.Restricted,
			&q.Subtopic.ID, &q.Subtopic.TopicID, &q.Subtopic.Name,
			&q.Subtopic.Topic, &q.Subtopic.Description,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, q)
	}
	return result, rows.Err()
}

// GetQuestionByID récupère une question par son identifiant
func (r *PostgresRepository) GetQuestionByID(id int) (*Question, error) {
	query := `
        SELECT ` + questionColumns + `
        FROM questions q
        JOIN subtopics s ON s.id = q.subtopic_id
        JOIN topics t ON t.id = s.topic_id
        WHERE q.id = $1
    `
	q := &Question{}
	err := r.db.QueryRow(query, id).Scan(
		&q.ID, &q.Question, &q.Answer, &q.Restricted,
		&q.Subtopic.ID, &q.Subtopic.TopicID, &q.Subtopic.Name,
		&q.Subtopic.Topic, &q.Subtopic.Description,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return q, nil
}

// ListQuestions récupère toutes les questions ordonnées par (subtopic, id)
func (r *PostgresRepository) ListQuestions() ([]Question, error) {
	query := `
        SELECT ` + questionColumns + `
        FROM questions q
        JOIN subtopics s ON s.id = q.subtopic_id
        JOIN topics t ON t.id = s.topic_id
        ORDER BY q.subtopic_id, q.id
    `
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// ListQuestionsByTopic récupère les questions d'un topic ordonnées par (subtopic, id)
func (r *PostgresRepository) ListQuestionsByTopic(topicID int) ([]Question, error) {
	query := `
        SELECT ` + questionColumns + `
        FROM questions q
        JOIN subtopics s ON s.id = q.subtopic_id
        JOIN topics t ON t.id = s.topic_id
        WHERE s.topic_id = $1
        ORDER BY q.subtopic_id, q.id
    `
	rows, err := r.db.Query(query, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// ListQuestionsBySubtopic récupère les questions d'un subtopic ordonnées par id
func (r *PostgresRepository) ListQuestionsBySubtopic(subtopicID int) ([]Question, error) {
	query := `
        SELECT ` + questionColumns + `
        FROM questions q
        JOIN subtopics s ON s.id = q.subtopic_id
        JOIN topics t ON t.id = s.topic_id
        WHERE q.subtopic_id = $1
        ORDER BY q.id
    `
	rows, err := r.db.Query(query, subtopicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}
