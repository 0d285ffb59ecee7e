package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"mercado/internal/models"
	"mercado/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// AuthService is the session gate: it resolves who is acting, issues
// and validates session tokens, and owns the admin approval workflow.
type AuthService struct {
	userRepo    repositories.UserRepository
	events      EventPublisher
	jwtSecret   []byte
	tokenDurat  time.Duration // Duration for which JWT is valid
	readTimeout time.Duration // Bounded wait for the user store on session resolution
	listeners   []SessionListener
}

// NewAuthService creates a new AuthService. events may be nil.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, events EventPublisher) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		events:      events,
		jwtSecret:   []byte(jwtSecret),
		tokenDurat:  24 * time.Hour,
		readTimeout: 3 * time.Second,
	}
}

// SetReadTimeout adjusts the bounded wait for user-store reads during
// session resolution.
func (s *AuthService) SetReadTimeout(d time.Duration) {
	s.readTimeout = d
}

// AddListener registers a callback invoked on every session change.
func (s *AuthService) AddListener(l SessionListener) {
	s.listeners = append(s.listeners, l)
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Name     string
	Email    string
	WhatsApp string
	Password string
	Type     string
}

// Register creates a new account. Regular users come out approved and
// receive a session token immediately. Admin accounts are stored with
// approved=false and get NO token: the registering session is signed
// out on the spot, so an unapproved admin can never hold a live session.
func (s *AuthService) Register(in RegisterInput) (*models.User, string, error) {
	if len(in.Password) < minPasswordLength {
		return nil, "", ErrWeakPassword
	}
	if existing, err := s.userRepo.GetByEmail(in.Email); err == nil && existing != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrEmailInUse, in.Email)
	}

	accountType := models.UserTypeRegular
	if strings.EqualFold(in.Type, models.UserTypeAdmin) {
		accountType = models.UserTypeAdmin
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		WhatsApp: in.WhatsApp,
		Password: string(hashed),
		Type:     accountType,
		// Approval only means something for admins, but the flag is
		// stored true for regular users anyway for uniformity.
		Approved: accountType == models.UserTypeRegular,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, "", fmt.Errorf("failed to register user: %w", err)
	}

	if user.IsPendingAdmin() {
		// Forced sign-out: no token until an approved admin acts.
		s.notifySession(Session{})
		return user, "", nil
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}
	s.notifySession(Session{UserID: user.ID, Role: ResolveRole(user), User: user})
	return user, token, nil
}

// Login authenticates a user and returns the user record, a session
// token and the canonical landing page for their role. An unapproved
// admin is refused with ErrPendingApproval.
func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		// Do not reveal whether the email exists.
		return nil, "", "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}
	if user.IsPendingAdmin() {
		return nil, "", "", ErrPendingApproval
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", "", err
	}
	role := ResolveRole(user)
	s.notifySession(Session{UserID: user.ID, Role: role, User: user})
	return user, token, LandingPage(role), nil
}

// Logout re-resolves the gate to anonymous. Tokens are stateless, so
// this only emits the session change for dependent views.
func (s *AuthService) Logout() {
	s.notifySession(Session{})
}

// CurrentSession resolves the session behind a bearer token. Every
// failure mode degrades to the anonymous session rather than blocking
// the request: a bad token, an unknown user, or a user store that does
// not answer within the bounded wait.
func (s *AuthService) CurrentSession(tokenString string) Session {
	if tokenString == "" {
		return Session{}
	}
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return Session{}
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return Session{}
	}
	user, err := s.lookupUserBounded(userID)
	if err != nil {
		log.Printf("session resolution degraded to anonymous: %v", err)
		return Session{}
	}
	return Session{UserID: user.ID, Role: ResolveRole(user), User: user}
}

// ApproveUser grants admin privilege to a pending admin account.
// Approving an already-approved account is a no-op.
func (s *AuthService) ApproveUser(id string) error {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if user.Approved {
		return nil
	}
	user.Approved = true
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to approve user %s: %w", id, err)
	}
	return nil
}

// RejectUser removes a pending admin account outright. This is a hard
// delete and is only valid against an admin still awaiting approval;
// callers must confirm before invoking.
func (s *AuthService) RejectUser(id string) error {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if !user.IsPendingAdmin() {
		return ErrNotPendingAdmin
	}
	if err := s.userRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to reject user %s: %w", id, err)
	}
	return nil
}

// ListUsers returns every account, newest first, for the admin panel.
func (s *AuthService) ListUsers() ([]models.User, error) {
	return s.userRepo.GetAll()
}

// ListPendingAdmins returns the admin accounts still awaiting approval.
func (s *AuthService) ListPendingAdmins() ([]models.User, error) {
	return s.userRepo.ListPendingAdmins()
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.tokenDurat).Unix(),
		"iat":     time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

func (s *AuthService) lookupUserBounded(id string) (*models.User, error) {
	type result struct {
		user *models.User
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		u, err := s.userRepo.GetByID(id)
		ch <- result{u, err}
	}()
	select {
	case r := <-ch:
		return r.user, r.err
	case <-time.After(s.readTimeout):
		return nil, fmt.Errorf("user lookup for %s timed out after %s", id, s.readTimeout)
	}
}

func (s *AuthService) notifySession(sess Session) {
	for _, l := range s.listeners {
		l(sess)
	}
	if s.events == nil {
		return
	}
	payload := map[string]interface{}{
		"userId": sess.OwnerID(),
		"role":   sess.Role.String(),
	}
	if err := s.events.PublishJSON(EventSessionChanged, payload); err != nil {
		log.Printf("Warning: failed to publish session event: %v", err)
	}
}
