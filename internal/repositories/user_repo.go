package repositories

import (
	"context"
	"strings"

	"github.com/devbounty/backend/internal/models"
	"github.com/google/uuid"
)

type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return mapErr(r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, full_name, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, u.Email, u.PasswordHash, u.FullName, u.IsAdmin).Scan(&u.ID, &u.CreatedAt))
}

func (r *UserRepo) CreateClientProfile(ctx context.Context, p *models.ClientProfile) error {
	return mapErr(r.db.QueryRow(ctx, `
		INSERT INTO client_profiles (user_id, company_name, payment_email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, p.UserID, p.CompanyName, p.PaymentEmail).Scan(&p.ID, &p.CreatedAt))
}

func (r *UserRepo) CreateDeveloperProfile(ctx context.Context, p *models.DeveloperProfile) error {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	return mapErr(r.db.QueryRow(ctx, `
		INSERT INTO developer_profiles (user_id, payment_address, skills)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, p.UserID, p.PaymentAddress, p.Skills).Scan(&p.ID, &p.CreatedAt))
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, `
		SELECT id, email, password_hash, full_name, is_admin, created_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, `
		SELECT id, email, password_hash, full_name, is_admin, created_at
		FROM users WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserRepo) GetClientProfile(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error) {
	var p models.ClientProfile
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, company_name, payment_email, created_at
		FROM client_profiles WHERE user_id = $1
	`, userID).Scan(&p.ID, &p.UserID, &p.CompanyName, &p.PaymentEmail, &p.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *UserRepo) GetDeveloperProfile(ctx context.Context, userID uuid.UUID) (*models.DeveloperProfile, error) {
	var p models.DeveloperProfile
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, payment_address, skills, created_at
		FROM developer_profiles WHERE user_id = $1
	`, userID).Scan(&p.ID, &p.UserID, &p.PaymentAddress, &p.Skills, &p.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// GetActor resolves the user's admin flag and role profiles in one round trip.
func (r *UserRepo) GetActor(ctx context.Context, userID uuid.UUID) (*models.Actor, error) {
	a := models.Actor{UserID: userID}
	err := r.db.QueryRow(ctx, `
		SELECT u.is_admin, cp.id, dp.id
		FROM users u
		LEFT JOIN client_profiles cp ON cp.user_id = u.id
		LEFT JOIN developer_profiles dp ON dp.user_id = u.id
		WHERE u.id = $1
	`, userID).Scan(&a.IsAdmin, &a.ClientProfileID, &a.DeveloperProfileID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (r *UserRepo) SetAdmin(ctx context.Context, email string, admin bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_admin = $1 WHERE email = $2`, admin, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
