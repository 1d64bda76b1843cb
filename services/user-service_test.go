package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tasklog-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			found := *user
			return &found, nil
		}
	}
	return nil, errors.New("user not found")
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			found := *user
			return &found, nil
		}
	}
	return nil, errors.New("user not found")
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	found := *user
	return &found, nil
}

func (f *fakeUserRepo) Insert(ctx context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	f.users[user.ID] = &user
	return nil
}

func (f *fakeUserRepo) SetActive(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			user.IsActive = true
			return nil
		}
	}
	return errors.New("user not found")
}

func (f *fakeUserRepo) SetSharePreference(ctx context.Context, id primitive.ObjectID, share bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return errors.New("user not found")
	}
	user.Preferences.ShareCallerDetails = share
	return nil
}

func activeUser(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: username,
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
}

func newUserService(repo *fakeUserRepo, store PendingAssignmentStore) *UserService {
	resolver := NewIdentityResolver(store, &fakeEmitter{})
	return NewUserService(repo, NewJWTService("test-secret"), resolver)
}

func TestLoginSucceedsWhenResolverStoreIsUnavailable(t *testing.T) {
	repo := newFakeUserRepo()
	account := activeUser(t, "kim", "x@y.com", "Secret.1")
	repo.users[account.ID] = account

	// The task store is down: the claim fails, but login must not.
	store := &fakeAssignmentStore{fail: errors.New("connection refused")}
	service := newUserService(repo, store)

	user, token, err := service.LoginUser(context.Background(), "kim", "Secret.1")

	require.NoError(t, err)
	assert.Equal(t, account.ID, user.ID)
	assert.Empty(t, user.Password)

	claims, err := service.JWTService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID.Hex(), claims.UserID)
}

func TestLoginFailedResolutionStaysPendingForNextLogin(t *testing.T) {
	repo := newFakeUserRepo()
	account := activeUser(t, "kim", "x@y.com", "Secret.1")
	repo.users[account.ID] = account

	pending := pendingTask("x@y.com")
	store := &fakeAssignmentStore{tasks: []*models.Task{pending}, fail: errors.New("connection refused")}
	service := newUserService(repo, store)

	_, _, err := service.LoginUser(context.Background(), "kim", "Secret.1")
	require.NoError(t, err)
	assert.Equal(t, "x@y.com", pending.AssignedToEmail)

	// Store recovers; the next login picks the binding up.
	store.mu.Lock()
	store.fail = nil
	store.mu.Unlock()

	_, _, err = service.LoginUser(context.Background(), "kim", "Secret.1")
	require.NoError(t, err)
	require.NotNil(t, pending.AssignedToUserID)
	assert.Equal(t, account.ID, *pending.AssignedToUserID)
	assert.Empty(t, pending.AssignedToEmail)
}

func TestLoginBindsPendingAssignments(t *testing.T) {
	repo := newFakeUserRepo()
	account := activeUser(t, "kim", "x@y.com", "Secret.1")
	repo.users[account.ID] = account

	pending := pendingTask("x@y.com")
	service := newUserService(repo, &fakeAssignmentStore{tasks: []*models.Task{pending}})

	_, _, err := service.LoginUser(context.Background(), "kim", "Secret.1")

	require.NoError(t, err)
	require.NotNil(t, pending.AssignedToUserID)
	assert.Equal(t, account.ID, *pending.AssignedToUserID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	account := activeUser(t, "kim", "x@y.com", "Secret.1")
	repo.users[account.ID] = account

	service := newUserService(repo, &fakeAssignmentStore{})

	_, _, err := service.LoginUser(context.Background(), "kim", "wrong")
	assert.Error(t, err)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	repo := newFakeUserRepo()
	account := activeUser(t, "kim", "x@y.com", "Secret.1")
	account.IsActive = false
	repo.users[account.ID] = account

	service := newUserService(repo, &fakeAssignmentStore{})

	_, _, err := service.LoginUser(context.Background(), "kim", "Secret.1")
	assert.Error(t, err)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	account := activeUser(t, "kim", "x@y.com", "Secret.1")
	repo.users[account.ID] = account

	service := newUserService(repo, &fakeAssignmentStore{})

	err := service.RegisterUser(context.Background(), models.User{
		Username: "kim",
		Email:    "fresh@y.com",
		Password: "Secret.1",
	})

	assert.EqualError(t, err, "user with username already exists")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	account := activeUser(t, "kim", "x@y.com", "Secret.1")
	repo.users[account.ID] = account

	service := newUserService(repo, &fakeAssignmentStore{})

	err := service.RegisterUser(context.Background(), models.User{
		Username: "other",
		Email:    "x@y.com",
		Password: "Secret.1",
	})

	assert.EqualError(t, err, "user with email already exists")
}

func TestResyncAssignmentsSurfacesStoreUnavailable(t *testing.T) {
	repo := newFakeUserRepo()
	account := activeUser(t, "kim", "x@y.com", "Secret.1")
	repo.users[account.ID] = account

	service := newUserService(repo, &fakeAssignmentStore{fail: errors.New("connection refused")})

	_, err := service.ResyncAssignments(context.Background(), account.ID)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestUpdateSharePreference(t *testing.T) {
	repo := newFakeUserRepo()
	account := activeUser(t, "kim", "x@y.com", "Secret.1")
	repo.users[account.ID] = account

	service := newUserService(repo, &fakeAssignmentStore{})

	require.NoError(t, service.UpdateSharePreference(context.Background(), account.ID, true))

	updated, err := service.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, updated.Preferences.ShareCallerDetails)
}
