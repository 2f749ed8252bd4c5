package questions

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo prépare un repository branché sur une base simulée.
// L'appelant doit différer la fonction de nettoyage.
func newTestRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	opts := sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual)
	db, mock, err := sqlmock.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	cleanup := func() {
		db.Close()
	}

	return &PostgresRepository{db: db}, mock, cleanup
}

func TestListSubtopicsQuery(t *testing.T) {
	repo, mock, cleanup := newTestRepo(t)
	defer cleanup()

	q := `
        SELECT s.id, s.topic_id, s.name, t.name, s.description
        FROM subtopics s
        JOIN topics t ON t.id = s.topic_id
        ORDER BY t.name, s.name
    `

	rows := sqlmock.NewRows([]string{"id", "topic_id", "name", "topic", "description"}).
		AddRow(1, 1, "Subtopic 1", "Topic 1", "").
		AddRow(2, 1, "Subtopic 2", "Topic 1", "").
		AddRow(3, 2, "Subtopic 3", "Topic 2", "")
	mock.ExpectQuery(q).WillReturnRows(rows)

	subtopics, err := repo.ListSubtopics()
	require.NoError(t, err)
	require.Len(t, subtopics, 3)
	assert.Equal(t, "Subtopic 1", subtopics[0].Name)
	assert.Equal(t, "Topic 2", subtopics[2].Topic)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTopicByNameNotFound(t *testing.T) {
	repo, mock, cleanup := newTestRepo(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT id, name, description FROM topics WHERE name = $1`).
		WithArgs("NonExistentTopic").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}))

	_, err := repo.GetTopicByName("NonExistentTopic")
	assert.ErrorIs(t, err, ErrNoRecord)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetQuestionByID(t *testing.T) {
	repo, mock, cleanup := newTestRepo(t)
	defer cleanup()

	q := `
        SELECT ` + questionColumns + `
        FROM questions q
        JOIN subtopics s ON s.id = q.subtopic_id
        JOIN topics t ON t.id = s.topic_id
        WHERE q.id = $1
    `

	rows := sqlmock.NewRows([]string{
		"id", "question", "answer", "restricted",
		"s_id", "s_topic_id", "s_name", "t_name", "s_description",
	}).AddRow(2, "What app is this?", "Dentest", true, 1, 1, "Subtopic 1", "Topic 1", "")
	mock.ExpectQuery(q).WithArgs(2).WillReturnRows(rows)

	question, err := repo.GetQuestionByID(2)
	require.NoError(t, err)
	assert.True(t, question.Restricted)
	assert.Equal(t, "Topic 1", question.Subtopic.Topic)

	// question inconnue
	mock.ExpectQuery(q).WithArgs(99).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = repo.GetQuestionByID(99)
	assert.ErrorIs(t, err, ErrNoRecord)

	assert.NoError(t, mock.ExpectationsWereMet())
}
