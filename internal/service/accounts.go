package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

const minPasswordLength = 8

type TokenIssuer interface {
	Issue(userID int64, name string) (string, error)
}

type Accounts struct {
	users  store.Users
	tokens TokenIssuer
	logger *slog.Logger
	cost   int
}

func NewAccounts(users store.Users, tokens TokenIssuer, logger *slog.Logger) *Accounts {
	return &Accounts{
		users:  users,
		tokens: tokens,
		logger: logger,
		cost:   bcrypt.DefaultCost,
	}
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	if email == "" || name == "" || in.Password == "" {
		return nil, invalid("", "email, password and name are required")
	}
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, invalid("email", "invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalid("password", "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), a.cost)
	if err != nil {
		return nil, err
	}

	user, err := a.users.CreateUser(ctx, email, name, string(hash))
	if err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return a.session(user)
}

// Login answers ErrInvalidCredentials for both unknown emails and wrong
// passwords.
func (a *Accounts) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, invalid("", "email and password are required")
	}

	user, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		a.logger.WarnContext(ctx, "login failed", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return a.session(user)
}

func (a *Accounts) Me(ctx context.Context, userID int64) (*models.User, error) {
	return a.users.GetUser(ctx, userID)
}

func (a *Accounts) session(user *models.User) (*Session, error) {
	token, err := a.tokens.Issue(user.ID, user.Name)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
