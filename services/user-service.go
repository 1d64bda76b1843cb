package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"tasklog-service/logging"
	"tasklog-service/models"
	"tasklog-service/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/rand"
)

// UserRepository is the persistence surface the user service depends on.
// The Mongo implementation lives in the repositories package; tests use an
// in-memory fake.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Insert(ctx context.Context, user models.User) error
	SetActive(ctx context.Context, email string) error
	SetSharePreference(ctx context.Context, id primitive.ObjectID, share bool) error
}

// UserService handles registration, verification and login. Login is the
// invocation point for the identity resolver: once credentials check out,
// every task assigned to the user's verified email gets bound to their
// account.
type UserService struct {
	Users      UserRepository
	JWTService *JWTService
	Resolver   *IdentityResolver
}

func NewUserService(users UserRepository, jwtService *JWTService, resolver *IdentityResolver) *UserService {
	return &UserService{
		Users:      users,
		JWTService: jwtService,
		Resolver:   resolver,
	}
}

// RegisterUser stores the user as inactive and emails a verification code.
// Username and email must both be unused: the email is the key the resolver
// binds pending assignments by, so two accounts sharing one address would
// make the binding first-login-wins.
func (s *UserService) RegisterUser(ctx context.Context, user models.User) error {
	if _, err := s.Users.FindByUsername(ctx, user.Username); err == nil {
		return fmt.Errorf("user with username already exists")
	}
	if _, err := s.Users.FindByEmail(ctx, user.Email); err == nil {
		return fmt.Errorf("user with email already exists")
	}

	user.Username = html.EscapeString(user.Username)
	user.Name = html.EscapeString(user.Name)
	user.LastName = html.EscapeString(user.LastName)
	user.Email = html.EscapeString(user.Email)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}
	user.Password = string(hashedPassword)

	verificationCode := fmt.Sprintf("%06d", rand.Intn(1000000))
	user.VerificationCode = verificationCode
	user.VerificationExpiry = time.Now().Add(10 * time.Minute)
	user.IsActive = false
	user.Preferences = models.UserPreferences{ShareCallerDetails: false}

	if err := s.Users.Insert(ctx, user); err != nil {
		return err
	}

	subject := "Your Verification Code"
	body := fmt.Sprintf("Your verification code is %s. Please enter it within 10 minutes.", verificationCode)
	if err := utils.SendEmail(user.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	logging.Logger.Infof("Event ID: VERIFICATION_CODE_SENT, Description: Verification code sent to %s", user.Email)
	return nil
}

// ConfirmUser activates a registered user whose verification code matches.
func (s *UserService) ConfirmUser(ctx context.Context, email, code string) error {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("user not found")
	}

	if user.VerificationCode != code {
		return fmt.Errorf("invalid verification code")
	}
	if time.Now().After(user.VerificationExpiry) {
		return fmt.Errorf("verification code expired")
	}

	return s.Users.SetActive(ctx, email)
}

func (s *UserService) ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	hasUppercase := false
	for _, char := range password {
		if char >= 'A' && char <= 'Z' {
			hasUppercase = true
			break
		}
	}
	if !hasUppercase {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}

	hasDigit := false
	for _, char := range password {
		if char >= '0' && char <= '9' {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return fmt.Errorf("password must contain at least one number")
	}

	specialChars := "!@#$%^&*.,"
	hasSpecial := false
	for _, char := range password {
		if strings.ContainsRune(specialChars, char) {
			hasSpecial = true
			break
		}
	}
	if !hasSpecial {
		return fmt.Errorf("password must contain at least one special character")
	}

	return nil
}

// LoginUser checks credentials, issues a token and resolves pending task
// assignments for the user's verified email. Resolution failure is logged
// and swallowed: the login still succeeds, the bindings stay pending in
// storage and the next login retries them.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (models.User, string, error) {
	user, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		return models.User{}, "", errors.New("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.User{}, "", errors.New("invalid password")
	}

	if !user.IsActive {
		return models.User{}, "", errors.New("user not active")
	}

	token, err := s.JWTService.GenerateAuthToken(user.ID.Hex(), user.Email)
	if err != nil {
		return models.User{}, "", fmt.Errorf("failed to generate token: %v", err)
	}

	if _, err := s.Resolver.ResolvePendingAssignments(ctx, user.Email, user.ID); err != nil {
		logging.Logger.Warnf("Event ID: ASSIGNMENT_RESOLUTION_DEFERRED, Description: Could not resolve pending assignments for %s, will retry on next login: %v", user.Email, err)
	}

	loggedIn := *user
	loggedIn.Password = ""
	return loggedIn, token, nil
}

// ResyncAssignments re-runs pending assignment resolution on demand.
func (s *UserService) ResyncAssignments(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.Resolver.ResolvePendingAssignments(ctx, user.Email, user.ID)
}

// UpdateSharePreference toggles whether the user's owned tasks expose the
// raw contact phone number to assignees.
func (s *UserService) UpdateSharePreference(ctx context.Context, userID primitive.ObjectID, share bool) error {
	return s.Users.SetSharePreference(ctx, userID, share)
}

// FindByID loads a user record. Satisfies the UserLookup interface used by
// the task service for masking decisions.
func (s *UserService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.Users.FindByID(ctx, id)
}

func (s *UserService) GetUserForCurrentSession(ctx context.Context, userID primitive.ObjectID) (models.User, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	session := *user
	session.Password = ""
	return session, nil
}
