package repository

import (
	"database/sql"
	"go-dating-api/logger"
	"go-dating-api/model"
)

// IUserRepository defines the contract for the user directory. The session
// layer depends on this interface, never on the concrete store.
type IUserRepository interface {
	CreateUser(user *model.User) error
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id string) (*model.User, error)
	TouchLastActive(id string) error
}

// UserRepository implements IUserRepository on top of PostgreSQL.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) CreateUser(user *model.User) error {
	query := `INSERT INTO users (email, name, password, role) VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, last_active_at, created_at`
	err := r.DB.QueryRow(query, user.Email, user.Name, user.Password, user.Role).
		Scan(&user.ID, &user.IsActive, &user.LastActiveAt, &user.CreatedAt)
	if err != nil {
		logger.Log.WithError(err).WithField("email", user.Email).Error("Failed to execute create user query")
		return err
	}
	return nil
}

func (r *UserRepository) GetUserByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, email, name, password, role, is_active, last_active_at, created_at
		FROM users WHERE email=$1`
	err := r.DB.QueryRow(query, email).Scan(&user.ID, &user.Email, &user.Name, &user.Password,
		&user.Role, &user.IsActive, &user.LastActiveAt, &user.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get user by email query")
		}
		return nil, err // Return sql.ErrNoRows if not found
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, email, name, password, role, is_active, last_active_at, created_at
		FROM users WHERE id=$1`
	err := r.DB.QueryRow(query, id).Scan(&user.ID, &user.Email, &user.Name, &user.Password,
		&user.Role, &user.IsActive, &user.LastActiveAt, &user.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get user by id query")
		}
		return nil, err
	}
	return user, nil
}

// TouchLastActive bumps last_active_at for a user. Called on login.
func (r *UserRepository) TouchLastActive(id string) error {
	query := `UPDATE users SET last_active_at = now() WHERE id = $1`
	_, err := r.DB.Exec(query, id)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", id).Error("Failed to update last_active_at")
		return err
	}
	return nil
}
