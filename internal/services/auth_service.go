package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/devbounty/backend/internal/auth"
	"github.com/devbounty/backend/internal/config"
	"github.com/devbounty/backend/internal/models"
	"github.com/devbounty/backend/internal/rbac"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	store repositories.Store
	cfg   *config.Config
	log   *zap.Logger
}

func NewAuthService(store repositories.Store, cfg *config.Config, log *zap.Logger) *AuthService {
	return &AuthService{store: store, cfg: cfg, log: log}
}

type RegisterInput struct {
	Email          string
	Password       string
	FullName       string
	Role           string // client or developer
	CompanyName    string
	PaymentEmail   string
	PaymentAddress string
	Skills         []string
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Profile is what a user sees about themselves.
type Profile struct {
	User             *models.User             `json:"user"`
	Actor            *models.Actor            `json:"actor"`
	Roles            []string                 `json:"roles"`
	ClientProfile    *models.ClientProfile    `json:"client_profile,omitempty"`
	DeveloperProfile *models.DeveloperProfile `json:"developer_profile,omitempty"`
}

// Register creates the user together with the profile for the chosen role.
// Emails listed in ADMIN_EMAILS are registered as admins.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, validationErr("a valid email is required")
	}
	if in.Role != rbac.RoleClient && in.Role != rbac.RoleDeveloper {
		return nil, validationErr("role must be client or developer")
	}
	if in.Role == rbac.RoleDeveloper && strings.TrimSpace(in.PaymentAddress) == "" {
		return nil, validationErr("payment_address is required for developers")
	}

	hash, err := auth.HashPassword(in.Password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return nil, validationErr(err.Error())
	}
	if err != nil {
		return nil, internalErr("hash password", err)
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		IsAdmin:      s.cfg.IsBootstrapAdmin(in.Email),
	}

	err = s.store.Atomic(ctx, func(r repositories.Repos) error {
		if err := r.Users.Create(ctx, user); err != nil {
			return err
		}
		if in.Role == rbac.RoleClient {
			p := &models.ClientProfile{UserID: user.ID, PaymentEmail: strings.TrimSpace(in.PaymentEmail)}
			if p.PaymentEmail == "" {
				p.PaymentEmail = user.Email
			}
			if name := strings.TrimSpace(in.CompanyName); name != "" {
				p.CompanyName = &name
			}
			return r.Users.CreateClientProfile(ctx, p)
		}
		return r.Users.CreateDeveloperProfile(ctx, &models.DeveloperProfile{
			UserID:         user.ID,
			PaymentAddress: strings.TrimSpace(in.PaymentAddress),
			Skills:         in.Skills,
		})
	})
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, conflictErr("email already registered")
	}
	if err != nil {
		return nil, internalErr("register user", err)
	}

	_ = s.store.Repos().Audit.Log(ctx, models.AuditLog{
		ActorUserID: &user.ID,
		ActorType:   models.ActorTypeUser,
		Action:      "user_registered",
		EntityType:  "user",
		EntityID:    &user.ID,
		Meta:        map[string]any{"role": in.Role, "is_admin": user.IsAdmin},
	})
	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", in.Role))

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.store.Repos().Users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, unauthenticatedErr("invalid email or password")
	}
	if err != nil {
		return nil, internalErr("load user", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, unauthenticatedErr("invalid email or password")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateJWT(s.cfg.JWTSecret, user.ID, s.cfg.JWTExpiration)
	if err != nil {
		return nil, internalErr("sign token", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// ResolveActor loads the request-scoped identity for an authenticated user.
func (s *AuthService) ResolveActor(ctx context.Context, userID uuid.UUID) (*models.Actor, error) {
	a, err := s.store.Repos().Users.GetActor(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, unauthenticatedErr("user no longer exists")
	}
	if err != nil {
		return nil, internalErr("resolve actor", err)
	}
	return a, nil
}

func (s *AuthService) Me(ctx context.Context, actor models.Actor) (*Profile, error) {
	r := s.store.Repos()
	user, err := r.Users.GetByID(ctx, actor.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundErr("user not found")
	}
	if err != nil {
		return nil, internalErr("load user", err)
	}

	p := &Profile{User: user, Actor: &actor, Roles: rbac.RolesOf(actor)}
	if actor.ClientProfileID != nil {
		if cp, err := r.Users.GetClientProfile(ctx, actor.UserID); err == nil {
			p.ClientProfile = cp
		}
	}
	if actor.DeveloperProfileID != nil {
		if dp, err := r.Users.GetDeveloperProfile(ctx, actor.UserID); err == nil {
			p.DeveloperProfile = dp
		}
	}
	if p.Roles == nil {
		p.Roles = []string{}
	}
	return p, nil
}

// GrantAdmin flips the admin flag for an existing user. Used by the operator CLI.
func (s *AuthService) GrantAdmin(ctx context.Context, email string, admin bool) error {
	err := s.store.Repos().Users.SetAdmin(ctx, email, admin)
	if errors.Is(err, repositories.ErrNotFound) {
		return notFoundErr("no user with that email")
	}
	if err != nil {
		return internalErr("set admin", err)
	}
	_ = s.store.Repos().Audit.Log(ctx, models.AuditLog{
		ActorType:  models.ActorTypeSystem,
		Action:     "admin_granted",
		EntityType: "user",
		Meta:       map[string]any{"email": strings.ToLower(strings.TrimSpace(email)), "admin": admin},
	})
	return nil
}
