package repositories

import (
	"context"
	"fmt"

	"hardware-request-system/internal/entities"
	apperrors "hardware-request-system/pkg/errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	userTable  = "users"
	userFields = "id, name, email, password, role, created_at"
)

type UserRepositoryInterface interface {
	CreateUser(ctx context.Context, user *entities.User) (*entities.User, error)
	FindUserByID(ctx context.Context, id uint64) (*entities.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *entities.User) (*entities.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, email, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING %s`, userTable, userFields)

	created, err := scanUser(r.storage.QueryRow(ctx, query, user.Name, user.Email, user.Password, user.Role))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrEmailTaken
		}
		r.logger.Error("CreateUser: ошибка вставки пользователя", zap.String("email", user.Email), zap.Error(err))
		return nil, apperrors.Persistence(err)
	}
	return created, nil
}

func (r *UserRepository) FindUserByID(ctx context.Context, id uint64) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", userFields, userTable)
	user, err := scanUser(r.storage.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dbError(err, apperrors.ErrUserNotFound)
	}
	return user, nil
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE LOWER(email) = LOWER($1)", userFields, userTable)
	user, err := scanUser(r.storage.QueryRow(ctx, query, email))
	if err != nil {
		return nil, dbError(err, apperrors.ErrUserNotFound)
	}
	return user, nil
}

func scanUser(row interface{ Scan(dest ...any) error }) (*entities.User, error) {
	var u entities.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
