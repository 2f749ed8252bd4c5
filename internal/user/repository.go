package user

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cduffaut/dentest/internal/models"
)

// PostgresRepository est l'implémentation PostgreSQL du Repository
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository crée un nouveau repository utilisateur
func NewPostgresRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

// Register crée l'utilisateur et tout ce qui l'accompagne dans une seule transaction :
// appartenance au groupe de base, token de session, adresse email non vérifiée
// et première confirmation. Tout échoue ou tout est créé.
func (r *PostgresRepository) Register(user *models.User, groupName, tokenKey, confirmationKey string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("erreur lors de l'ouverture de la transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO users (username, email, first_name, last_name, password, is_staff)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at
    `
	err = tx.QueryRow(
		query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Password,
		user.IsStaff,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("erreur lors de la création de l'utilisateur: %w", err)
	}

	// Appartenance au groupe de base
	result, err := tx.Exec(`
        INSERT INTO user_groups (user_id, group_id)
        SELECT $1, id FROM groups WHERE name = $2
    `, user.ID, groupName)
	if err != nil {
		return fmt.Errorf("erreur lors de l'ajout au groupe %s: %w", groupName, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("le groupe %s n'existe pas", groupName)
	}
	user.Groups = []string{groupName}

	// Chaque utilisateur persisté a exactement un token : créé ici, pas par un hook
	_, err = tx.Exec(`INSERT INTO auth_tokens (user_id, key) VALUES ($1, $2)`, user.ID, tokenKey)
	if err != nil {
		return fmt.Errorf("erreur lors de la création du token: %w", err)
	}

	// Adresse email non vérifiée + clé de confirmation
	var emailAddressID int
	err = tx.QueryRow(`
        INSERT INTO email_addresses (user_id, email) VALUES ($1, $2) RETURNING id
    `, user.ID, user.Email).Scan(&emailAddressID)
	if err != nil {
		return fmt.Errorf("erreur lors de la création de l'adresse email: %w", err)
	}

	_, err = tx.Exec(`
        INSERT INTO email_confirmations (email_address_id, key) VALUES ($1, $2)
    `, emailAddressID, confirmationKey)
	if err != nil {
		return fmt.Errorf("erreur lors de la création de la confirmation: %w", err)
	}

	return tx.Commit()
}

const userColumns = `id, username, email, first_name, last_name, password, is_staff, created_at, updated_at`

// scanUser lit un utilisateur depuis une ligne de résultat
func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Password,
		&user.IsStaff,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// loadGroups charge les noms de groupes d'un utilisateur
func (r *PostgresRepository) loadGroups(user *models.User) error {
	rows, err := r.db.Query(`
        SELECT g.name FROM groups g
        JOIN user_groups ug ON ug.group_id = g.id
        WHERE ug.user_id = $1
        ORDER BY g.name
    `, user.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		user.Groups = append(user.Groups, name)
	}
	return rows.Err()
}

// GetByID récupère un utilisateur par son ID
func (r *PostgresRepository) GetByID(id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadGroups(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByUsername récupère un utilisateur par son nom d'utilisateur
func (r *PostgresRepository) GetByUsername(username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRow(query, username))
	if err != nil {
		return nil, err
	}
	if err := r.loadGroups(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail récupère un utilisateur par son email
func (r *PostgresRepository) GetByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	user, err := scanUser(r.db.QueryRow(query, email))
	if err != nil {
		return nil, err
	}
	if err := r.loadGroups(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByToken récupère un utilisateur par son token de session
func (r *PostgresRepository) GetByToken(key string) (*models.User, error) {
	query := `
        SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.password,
               u.is_staff, u.created_at, u.updated_at
        FROM users u
        JOIN auth_tokens t ON t.user_id = u.id
        WHERE t.key = $1
    `
	user, err := scanUser(r.db.QueryRow(query, key))
	if err != nil {
		return nil, err
	}
	if err := r.loadGroups(user); err != nil {
		return nil, err
	}
	return user, nil
}

// CheckEmailExists vérifie si l'email est déjà utilisé par un autre utilisateur
func (r *PostgresRepository) CheckEmailExists(email string, excludeUserID int) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM email_addresses
            WHERE LOWER(email) = LOWER($1) AND user_id != $2
        )
    `
	var exists bool
	err := r.db.QueryRow(query, email, excludeUserID).Scan(&exists)
	return exists, err
}

// UpdateUserInfo met à jour le prénom et le nom d'un utilisateur
func (r *PostgresRepository) UpdateUserInfo(id int, firstName, lastName string) error {
	query := `
        UPDATE users
        SET first_name = $1, last_name = $2, updated_at = CURRENT_TIMESTAMP
        WHERE id = $3
    `
	_, err := r.db.Exec(query, firstName, lastName, id)
	return err
}

// UpdatePassword met à jour le mot de passe d'un utilisateur
func (r *PostgresRepository) UpdatePassword(id int, password string) error {
	query := `
        UPDATE users
        SET password = $1, updated_at = CURRENT_TIMESTAMP
        WHERE id = $2
    `
	_, err := r.db.Exec(query, password, id)
	return err
}

// ChangeEmail change l'email de l'utilisateur dans une seule transaction :
// l'adresse repasse en non vérifiée et une nouvelle confirmation est créée
func (r *PostgresRepository) ChangeEmail(userID int, newEmail, confirmationKey string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("erreur lors de l'ouverture de la transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
        UPDATE users SET email = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
    `, newEmail, userID)
	if err != nil {
		return fmt.Errorf("erreur lors de la mise à jour de l'email: %w", err)
	}

	var emailAddressID int
	err = tx.QueryRow(`
        UPDATE email_addresses SET email = $1, verified = FALSE
        WHERE user_id = $2
        RETURNING id
    `, newEmail, userID).Scan(&emailAddressID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("erreur lors de la mise à jour de l'adresse email: %w", err)
	}

	_, err = tx.Exec(`
        INSERT INTO email_confirmations (email_address_id, key) VALUES ($1, $2)
    `, emailAddressID, confirmationKey)
	if err != nil {
		return fmt.Errorf("erreur lors de la création de la confirmation: %w", err)
	}

	return tx.Commit()
}

// GetToken récupère le token de session d'un utilisateur
func (r *PostgresRepository) GetToken(userID int) (string, error) {
	var key string
	err := r.db.QueryRow(`SELECT key FROM auth_tokens WHERE user_id = $1`, userID).Scan(&key)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", err
	}
	return key, nil
}

// CreateToken crée le token de session d'un utilisateur
func (r *PostgresRepository) CreateToken(userID int, key string) error {
	_, err := r.db.Exec(`INSERT INTO auth_tokens (user_id, key) VALUES ($1, $2)`, userID, key)
	return err
}

// DeleteToken supprime le token de session d'un utilisateur
func (r *PostgresRepository) DeleteToken(userID int) error {
	_, err := r.db.Exec(`DELETE FROM auth_tokens WHERE user_id = $1`, userID)
	return err
}

// GetEmailAddress récupère l'adresse email faisant autorité d'un utilisateur
func (r *PostgresRepository) GetEmailAddress(userID int) (*models.EmailAddress, error) {
	query := `SELECT id, user_id, email, verified FROM email_addresses WHERE user_id = $1`
	addr := &models.EmailAddress{}
	err := r.db.QueryRow(query, userID).Scan(&addr.ID, &addr.UserID, &addr.Email, &addr.Verified)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return addr, nil
}

// CreateConfirmation crée une nouvelle clé de confirmation pour une adresse
func (r *PostgresRepository) CreateConfirmation(emailAddressID int, key string) (*models.EmailConfirmation, error) {
	query := `
        INSERT INTO email_confirmations (email_address_id, key)
        VALUES ($1, $2)
        RETURNING id, time_created
    `
	confirmation := &models.EmailConfirmation{EmailAddressID: emailAddressID, Key: key}
	err := r.db.QueryRow(query, emailAddressID, key).Scan(&confirmation.ID, &confirmation.TimeCreated)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la création de la confirmation: %w", err)
	}
	return confirmation, nil
}

// GetLatestConfirmation récupère la confirmation la plus récente d'une adresse
func (r *PostgresRepository) GetLatestConfirmation(emailAddressID int) (*models.EmailConfirmation, error) {
	query := `
        SELECT id, email_address_id, key, time_created, time_sent
        FROM email_confirmations
        WHERE email_address_id = $1
        ORDER BY time_created DESC, id DESC
        LIMIT 1
    `
	confirmation := &models.EmailConfirmation{}
	var timeSent sql.NullTime
	err := r.db.QueryRow(query, emailAddressID).Scan(
		&confirmation.ID,
		&confirmation.EmailAddressID,
		&confirmation.Key,
		&confirmation.TimeCreated,
		&timeSent,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if timeSent.Valid {
		confirmation.TimeSent = &timeSent.Time
	}
	return confirmation, nil
}

// MarkConfirmationSent horodate l'envoi d'une confirmation
func (r *PostgresRepository) MarkConfirmationSent(id int, sentAt time.Time) error {
	_, err := r.db.Exec(`UPDATE email_confirmations SET time_sent = $1 WHERE id = $2`, sentAt, id)
	return err
}

// ConfirmEmail passe l'adresse en vérifiée. Le WHERE sur verified garantit
// qu'une seule confirmation concurrente peut réussir.
func (r *PostgresRepository) ConfirmEmail(emailAddressID int) (bool, error) {
	result, err := r.db.Exec(`
        UPDATE email_addresses SET verified = TRUE
        WHERE id = $1 AND verified = FALSE
    `, emailAddressID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreatePasswordReset crée une nouvelle clé de réinitialisation pour un utilisateur
func (r *PostgresRepository) CreatePasswordReset(userID int, key string) (*models.PasswordReset, error) {
	query := `
        INSERT INTO password_resets (user_id, key)
        VALUES ($1, $2)
        RETURNING id, time_created
    `
	reset := &models.PasswordReset{UserID: userID, Key: key}
	err := r.db.QueryRow(query, userID, key).Scan(&reset.ID, &reset.TimeCreated)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la création de la réinitialisation: %w", err)
	}
	return reset, nil
}

// GetLatestPasswordReset récupère la réinitialisation la plus récente d'un utilisateur
func (r *PostgresRepository) GetLatestPasswordReset(userID int) (*models.PasswordReset, error) {
	query := `
        SELECT id, user_id, key, used, time_created, time_sent
        FROM password_resets
        WHERE user_id = $1
        ORDER BY time_created DESC, id DESC
        LIMIT 1
    `
	reset := &models.PasswordReset{}
	var timeSent sql.NullTime
	err := r.db.QueryRow(query, userID).Scan(
		&reset.ID,
		&reset.UserID,
		&reset.Key,
		&reset.Used,
		&reset.TimeCreated,
		&timeSent,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if timeSent.Valid {
		reset.TimeSent = &timeSent.Time
	}
	return reset, nil
}

// MarkResetSent horodate l'envoi d'une réinitialisation
func (r *PostgresRepository) MarkResetSent(id int, sentAt time.Time) error {
	_, err := r.db.Exec(`UPDATE password_resets SET time_sent = $1 WHERE id = $2`, sentAt, id)
	return err
}

// ConsumeReset marque la réinitialisation comme utilisée et remplace le token de
// l'utilisateur dans la même transaction. Le WHERE sur used garantit qu'une seule
// confirmation concurrente peut réussir; la rotation du token ne s'applique jamais
// partiellement.
func (r *PostgresRepository) ConsumeReset(resetID, userID int, newTokenKey string) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("erreur lors de l'ouverture de la transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
        UPDATE password_resets SET used = TRUE
        WHERE id = $1 AND used = FALSE
    `, resetID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Déjà utilisée : la première confirmation a gagné
		return false, nil
	}

	// Supprimer le token courant et en créer un nouveau : les sessions
	// antérieures sont invalidées
	if _, err := tx.Exec(`DELETE FROM auth_tokens WHERE user_id = $1`, userID); err != nil {
		return false, err
	}
	if _, err := tx.Exec(`INSERT INTO auth_tokens (user_id, key) VALUES ($1, $2)`, userID, newTokenKey); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
