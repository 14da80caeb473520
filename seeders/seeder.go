package seeders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"hardware-request-system/internal/entities"
	"hardware-request-system/internal/repositories"
	"hardware-request-system/pkg/config"
	"hardware-request-system/pkg/constants"
	apperrors "hardware-request-system/pkg/errors"
	"hardware-request-system/pkg/utils"
)

// SeedAdmin создаёт администратора из SEED_ADMIN_*. Существующего пользователя не трогает.
func SeedAdmin(ctx context.Context, users repositories.UserRepositoryInterface, cfg *config.Config) error {
	log.Println("  - Запуск сидера администратора...")

	email := cfg.Seed.AdminEmail
	password := cfg.Seed.AdminPassword
	if email == "" || password == "" {
		log.Println("    ℹ️  SEED_ADMIN_EMAIL или SEED_ADMIN_PASSWORD не заданы. Пропускаем создание.")
		return nil
	}

	existing, err := users.FindUserByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			return fmt.Errorf("пользователь %s уже существует и не является администратором", email)
		}
		log.Println("    ℹ️  Администратор уже существует. Не трогаем.")
		return nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return err
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	if _, err := users.CreateUser(ctx, &entities.User{
		Name:     cfg.Seed.AdminName,
		Email:    email,
		Password: hashedPassword,
		Role:     constants.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("ошибка создания администратора: %w", err)
	}

	log.Printf("    ✅ Администратор %s создан", email)
	return nil
}
