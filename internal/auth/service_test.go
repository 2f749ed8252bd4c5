package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/cduffaut/dentest/internal/config"
	"github.com/cduffaut/dentest/internal/email"
	"github.com/cduffaut/dentest/internal/models"
	"github.com/cduffaut/dentest/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserRepo est une implémentation en mémoire du user.Repository pour les tests
type fakeUserRepo struct {
	users         map[int]*models.User
	tokens        map[int]string
	addresses     map[int]*models.EmailAddress
	confirmations []*models.EmailConfirmation
	resets        []*models.PasswordReset
	nextID        int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[int]*models.User),
		tokens:    make(map[int]string),
		addresses: make(map[int]*models.EmailAddress),
	}
}

func (r *fakeUserRepo) Register(u *models.User, groupName, tokenKey, confirmationKey string) error {
	r.nextID++
	u.ID = r.nextID
	u.Groups = []string{groupName}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = u
	r.tokens[u.ID] = tokenKey

	r.nextID++
	addr := &models.EmailAddress{ID: r.nextID, UserID: u.ID, Email: u.Email}
	r.addresses[u.ID] = addr

	r.nextID++
	r.confirmations = append(r.confirmations, &models.EmailConfirmation{
		ID:             r.nextID,
		EmailAddressID: addr.ID,
		Key:            confirmationKey,
		TimeCreated:    time.Now(),
	})
	return nil
}

func (r *fakeUserRepo) GetByID(id int) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) GetByToken(key string) (*models.User, error) {
	for id, token := range r.tokens {
		if token == key {
			return r.GetByID(id)
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) CheckEmailExists(email string, excludeUserID int) (bool, error) {
	for _, addr := range r.addresses {
		if strings.EqualFold(addr.Email, email) && addr.UserID != excludeUserID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) UpdateUserInfo(id int, firstName, lastName string) error {
	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.FirstName = firstName
	u.LastName = lastName
	return nil
}

func (r *fakeUserRepo) UpdatePassword(id int, password string) error {
	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Password = password
	return nil
}

func (r *fakeUserRepo) ChangeEmail(userID int, newEmail, confirmationKey string) error {
	u, ok := r.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	addr, ok := r.addresses[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.Email = newEmail
	addr.Email = newEmail
	addr.Verified = false

	r.nextID++
	r.confirmations = append(r.confirmations, &models.EmailConfirmation{
		ID:             r.nextID,
		EmailAddressID: addr.ID,
		Key:            confirmationKey,
		TimeCreated:    time.Now(),
	})
	return nil
}

func (r *fakeUserRepo) GetToken(userID int) (string, error) {
	token, ok := r.tokens[userID]
	if !ok {
		return "", user.ErrNotFound
	}
	return token, nil
}

func (r *fakeUserRepo) CreateToken(userID int, key string) error {
	r.tokens[userID] = key
	return nil
}

func (r *fakeUserRepo) DeleteToken(userID int) error {
	delete(r.tokens, userID)
	return nil
}

func (r *fakeUserRepo) GetEmailAddress(userID int) (*models.EmailAddress, error) {
	addr, ok := r.addresses[userID]
	if !ok {
		return nil, user.ErrNotFound
	}
	return addr, nil
}

func (r *fakeUserRepo) CreateConfirmation(emailAddressID int, key string) (*models.EmailConfirmation, error) {
	r.nextID++
	confirmation := &models.EmailConfirmation{
		ID:             r.nextID,
		EmailAddressID: emailAddressID,
		Key:            key,
		TimeCreated:    time.Now(),
	}
	r.confirmations = append(r.confirmations, confirmation)
	return confirmation, nil
}

func (r *fakeUserRepo) GetLatestConfirmation(emailAddressID int) (*models.EmailConfirmation, error) {
	for i := len(r.confirmations) - 1; i >= 0; i-- {
		if r.confirmations[i].EmailAddressID == emailAddressID {
			return r.confirmations[i], nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) MarkConfirmationSent(id int, sentAt time.Time) error {
	for _, c := range r.confirmations {
		if c.ID == id {
			t := sentAt
			c.TimeSent = &t
			return nil
		}
	}
	return user.ErrNotFound
}

func (r *fakeUserRepo) ConfirmEmail(emailAddressID int) (bool, error) {
	for _, addr := range r.addresses {
		if addr.ID == emailAddressID {
			if addr.Verified {
				return false, nil
			}
			addr.Verified = true
			return true, nil
		}
	}
	return false, user.ErrNotFound
}

func (r *fakeUserRepo) CreatePasswordReset(userID int, key string) (*models.PasswordReset, error) {
	r.nextID++
	reset := &models.PasswordReset{
		ID:          r.nextID,
		UserID:      userID,
		Key:         key,
		TimeCreated: time.Now(),
	}
	r.resets = append(r.resets, reset)
	return reset, nil
}

func (r *fakeUserRepo) GetLatestPasswordReset(userID int) (*models.PasswordReset, error) {
	for i := len(r.resets) - 1; i >= 0; i-- {
		if r.resets[i].UserID == userID {
			return r.resets[i], nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) MarkResetSent(id int, sentAt time.Time) error {
	for _, reset := range r.resets {
		if reset.ID == id {
			t := sentAt
			reset.TimeSent = &t
			return nil
		}
	}
	return user.ErrNotFound
}

func (r *fakeUserRepo) ConsumeReset(resetID, userID int, newTokenKey string) (bool, error) {
	for _, reset := range r.resets {
		if reset.ID == resetID {
			if reset.Used {
				return false, nil
			}
			reset.Used = true
			r.tokens[userID] = newTokenKey
			return true, nil
		}
	}
	return false, user.ErrNotFound
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		EmailUnique:                true,
		EmailConfirmationDaysValid: 7,
		PasswordResetDaysValid:     3,
		BasicGroupName:             "Bronze",
		PrivilegedGroupName:        "Silver",
	}
}

func newTestService(t *testing.T) (*Service, *fakeUserRepo) {
	t.Helper()

	// pas de serveur SMTP : les emails partent dans les logs
	emailService, err := email.NewService(config.SMTPConfig{}, config.EmailConfig{
		Domain:                  "localhost:8080",
		SiteName:                "Dentest",
		ActivationURL:           "{protocol}://{domain}/activate/{username}/{token}",
		PasswordResetConfirmURL: "{protocol}://{domain}/password_reset/{username}/{token}",
		DefaultProtocol:         "http",
	})
	require.NoError(t, err)

	repo := newFakeUserRepo()
	return NewService(repo, emailService, testAuthConfig()), repo
}

func registerRequest() RegisterRequest {
	return RegisterRequest{
		Username:  "jdupont",
		Email:     "jdupont@fake.com",
		FirstName: "Jean",
		LastName:  "Dupont",
		Password1: "motdepasse1",
		Password2: "motdepasse1",
	}
}

func TestRegisterCreatesEverything(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)
	require.NotZero(t, u.ID)

	// groupe de base
	assert.Equal(t, []string{"Bronze"}, u.Groups)

	// exactement un token
	token, err := repo.GetToken(u.ID)
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, strings.ToLower(token), token)

	// adresse non vérifiée + confirmation envoyée
	addr, err := repo.GetEmailAddress(u.ID)
	require.NoError(t, err)
	assert.False(t, addr.Verified)

	confirmation, err := repo.GetLatestConfirmation(addr.ID)
	require.NoError(t, err)
	assert.Len(t, confirmation.Key, 64)
	require.NotNil(t, confirmation.TimeSent)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	s, repo := newTestService(t)

	req := registerRequest()
	req.Password2 = "autremotdepasse1"
	_, err := s.Register(req)
	require.Error(t, err)
	assert.Empty(t, repo.users)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s, repo := newTestService(t)

	_, err := s.Register(registerRequest())
	require.NoError(t, err)

	req := registerRequest()
	req.Username = "autreuser"
	_, err = s.Register(req)
	require.Error(t, err)

	// aucun enregistrement ne doit rester derriere
	assert.Len(t, repo.users, 1)
	assert.Len(t, repo.addresses, 1)
}

func TestLoginUnverifiedResendsConfirmation(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)

	before := len(repo.confirmations)
	_, err = s.Login(LoginRequest{Username: "jdupont", Password: "motdepasse1"})
	require.Error(t, err)

	// une confirmation fraiche a ete creee et envoyee
	require.Len(t, repo.confirmations, before+1)
	addr, _ := repo.GetEmailAddress(u.ID)
	latest, err := repo.GetLatestConfirmation(addr.ID)
	require.NoError(t, err)
	assert.NotNil(t, latest.TimeSent)
}

func TestLoginSuccess(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)

	addr, _ := repo.GetEmailAddress(u.ID)
	_, err = repo.ConfirmEmail(addr.ID)
	require.NoError(t, err)

	resp, err := s.Login(LoginRequest{Username: "jdupont", Password: "motdepasse1"})
	require.NoError(t, err)
	assert.Equal(t, "jdupont", resp.Username)
	assert.Equal(t, "jdupont@fake.com", resp.Email)
	assert.Equal(t, "Jean", resp.FirstName)
	assert.Equal(t, "Dupont", resp.LastName)

	// le token renvoye est celui stocke
	token, _ := repo.GetToken(u.ID)
	assert.Equal(t, token, resp.Token)
}

func TestLoginByEmail(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)
	addr, _ := repo.GetEmailAddress(u.ID)
	repo.ConfirmEmail(addr.ID)

	resp, err := s.Login(LoginRequest{Email: "jdupont@fake.com", Password: "motdepasse1"})
	require.NoError(t, err)
	assert.Equal(t, "jdupont", resp.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)
	addr, _ := repo.GetEmailAddress(u.ID)
	repo.ConfirmEmail(addr.ID)

	_, err = s.Login(LoginRequest{Username: "jdupont", Password: "mauvaismdp1"})
	assert.Error(t, err)
}

func TestActivateEmailSucceedsOnce(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)

	addr, _ := repo.GetEmailAddress(u.ID)
	confirmation, _ := repo.GetLatestConfirmation(addr.ID)

	require.NoError(t, s.ActivateEmail(ActivationRequest{Username: "jdupont", Key: confirmation.Key}))
	assert.True(t, repo.addresses[u.ID].Verified)

	// la meme cle ne reussit qu'une seule fois
	err = s.ActivateEmail(ActivationRequest{Username: "jdupont", Key: confirmation.Key})
	assert.Error(t, err)
}

func TestActivateEmailWrongKey(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Register(registerRequest())
	require.NoError(t, err)

	err = s.ActivateEmail(ActivationRequest{Username: "jdupont", Key: strings.Repeat("a", 64)})
	assert.Error(t, err)
}

func TestActivateEmailExpiredKey(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)

	// avancer l'horloge au-dela de la validite
	s.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	addr, _ := repo.GetEmailAddress(u.ID)
	confirmation, _ := repo.GetLatestConfirmation(addr.ID)
	err = s.ActivateEmail(ActivationRequest{Username: "jdupont", Key: confirmation.Key})
	assert.Error(t, err)
}

func TestActivateEmailNeverSentKeyCannotExpire(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)

	// une confirmation jamais envoyee : time_sent reste nil
	addr, _ := repo.GetEmailAddress(u.ID)
	confirmation, err := repo.CreateConfirmation(addr.ID, strings.Repeat("b", 64))
	require.NoError(t, err)
	require.Nil(t, confirmation.TimeSent)

	s.now = func() time.Time { return time.Now().Add(365 * 24 * time.Hour) }

	require.NoError(t, s.ActivateEmail(ActivationRequest{Username: "jdupont", Key: confirmation.Key}))
	assert.True(t, repo.addresses[u.ID].Verified)
}

func resetRequest() PasswordResetRequest {
	return PasswordResetRequest{
		Username:  "jdupont",
		Email:     "jdupont@fake.com",
		FirstName: "JEAN", // les noms sont compares sans tenir compte de la casse
		LastName:  "dupont",
	}
}

func TestPasswordResetFlow(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)

	oldToken, _ := repo.GetToken(u.ID)

	require.NoError(t, s.RequestPasswordReset(resetRequest()))

	reset, err := repo.GetLatestPasswordReset(u.ID)
	require.NoError(t, err)
	assert.Len(t, reset.Key, 64)
	require.NotNil(t, reset.TimeSent)

	err = s.ConfirmPasswordReset(PasswordResetConfirmRequest{
		Username:  "jdupont",
		Key:       reset.Key,
		Password1: "nouveaumdp1",
		Password2: "nouveaumdp1",
	})
	require.NoError(t, err)

	// la cle est consommee definitivement
	assert.True(t, reset.Used)

	// le token a tourne : l'ancien n'est plus valide, il en existe exactement un
	newToken, err := repo.GetToken(u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldToken, newToken)
	_, err = repo.GetByToken(oldToken)
	assert.Error(t, err)

	// le mdp a bien ete change
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(repo.users[u.ID].Password), []byte("nouveaumdp1")))
}

func TestPasswordResetKeySingleUse(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)

	require.NoError(t, s.RequestPasswordReset(resetRequest()))
	reset, _ := repo.GetLatestPasswordReset(u.ID)

	confirm := PasswordResetConfirmRequest{
		Username:  "jdupont",
		Key:       reset.Key,
		Password1: "nouveaumdp1",
		Password2: "nouveaumdp1",
	}
	require.NoError(t, s.ConfirmPasswordReset(confirm))

	// la seconde tentative avec la meme cle echoue
	assert.Error(t, s.ConfirmPasswordReset(confirm))
}

func TestPasswordResetWrongDetails(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Register(registerRequest())
	require.NoError(t, err)

	req := resetRequest()
	req.Email = "autre@fake.com"
	assert.Error(t, s.RequestPasswordReset(req))

	req = resetRequest()
	req.Username = "inconnu"
	assert.Error(t, s.RequestPasswordReset(req))
}

func TestPasswordResetExpiredKey(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)

	require.NoError(t, s.RequestPasswordReset(resetRequest()))
	reset, _ := repo.GetLatestPasswordReset(u.ID)

	s.now = func() time.Time { return time.Now().Add(4 * 24 * time.Hour) }

	err = s.ConfirmPasswordReset(PasswordResetConfirmRequest{
		Username:  "jdupont",
		Key:       reset.Key,
		Password1: "nouveaumdp1",
		Password2: "nouveaumdp1",
	})
	assert.Error(t, err)
	assert.False(t, reset.Used)
}

func TestUpdateUserInfoChangeEmail(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)

	addr, _ := repo.GetEmailAddress(u.ID)
	repo.ConfirmEmail(addr.ID)
	require.True(t, addr.Verified)

	before := len(repo.confirmations)
	err = s.UpdateUserInfo(u.ID, UpdateUserInfoRequest{
		FirstName: "Jean",
		LastName:  "Dupont",
		Email:     "nouveau@fake.com",
	})
	require.NoError(t, err)

	// l'adresse repasse en non vérifiée et une nouvelle confirmation part
	assert.Equal(t, "nouveau@fake.com", repo.users[u.ID].Email)
	assert.Equal(t, "nouveau@fake.com", addr.Email)
	assert.False(t, addr.Verified)
	assert.Len(t, repo.confirmations, before+1)
}

func TestUpdateUserInfoDuplicateEmail(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)

	other := registerRequest()
	other.Username = "autreuser"
	other.Email = "autre@fake.com"
	_, err = s.Register(other)
	require.NoError(t, err)

	err = s.UpdateUserInfo(u.ID, UpdateUserInfoRequest{
		FirstName: "Jean",
		LastName:  "Dupont",
		Email:     "autre@fake.com",
	})
	require.Error(t, err)
	assert.Equal(t, "jdupont@fake.com", repo.users[u.ID].Email)
}

func TestLogoutDeletesToken(t *testing.T) {
	s, repo := newTestService(t)

	u, err := s.Register(registerRequest())
	require.NoError(t, err)

	require.NoError(t, s.Logout(u.ID))
	_, err = repo.GetToken(u.ID)
	assert.Error(t, err)
}
