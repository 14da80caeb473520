package main

import (
	"context"
	"flag"
	"log"

	"hardware-request-system/internal/repositories"
	"hardware-request-system/internal/services"
	"hardware-request-system/migrations"
	"hardware-request-system/pkg/config"
	"hardware-request-system/pkg/customvalidator"
	"hardware-request-system/pkg/database/postgresql"
	applogger "hardware-request-system/pkg/logger"
	"hardware-request-system/seeders"

	"github.com/go-playground/validator/v10"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runAdmin := flag.Bool("admin", false, "Создать администратора из SEED_ADMIN_*")
	runHardware := flag.Bool("hardware", false, "Добавить демонстрационное оборудование")
	importPath := flag.String("import", "", "Путь к xlsx-файлу с оборудованием")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -admin -hardware)")

	flag.Parse()

	if !*runAdmin && !*runHardware && !*runAll && *importPath == "" {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -admin")
		log.Println("  go run ./seeders/cmd/seed -all")
		log.Println("  go run ./seeders/cmd/seed -import ./hardware.xlsx")
		log.Println("======================================================")
		return
	}

	ctx := context.Background()
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, "")

	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("❌ Ошибка подключения к БД: %v", err)
	}
	defer dbPool.Close()

	if err := migrations.Up(ctx, dbPool); err != nil {
		log.Fatalf("❌ Ошибка применения миграций: %v", err)
	}

	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		log.Fatalf("❌ Ошибка регистрации правил валидации: %v", err)
	}
	hardwareService := services.NewHardwareService(repositories.NewHardwareRepository(dbPool, logger), v, logger)

	log.Println("======================================================")

	if *runAll || *runAdmin {
		if err := seeders.SeedAdmin(ctx, repositories.NewUserRepository(dbPool, logger), cfg); err != nil {
			log.Fatalf("❌ Ошибка создания администратора: %v", err)
		}
		log.Println("======================================================")
	}

	if *runAll || *runHardware {
		if err := seeders.SeedHardware(ctx, hardwareService); err != nil {
			log.Fatalf("❌ Ошибка наполнения оборудования: %v", err)
		}
		log.Println("======================================================")
	}

	if *importPath != "" {
		if err := seeders.ImportHardware(ctx, hardwareService, *importPath); err != nil {
			log.Fatalf("❌ Ошибка импорта оборудования: %v", err)
		}
		log.Println("======================================================")
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
	log.Println("======================================================")
}
