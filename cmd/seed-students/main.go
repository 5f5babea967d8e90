package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/stemsi/exam-portal-backend/internal/config"
	"github.com/stemsi/exam-portal-backend/internal/database"
	"github.com/stemsi/exam-portal-backend/internal/logger"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/repository"
	"github.com/stemsi/exam-portal-backend/internal/service"
)

var names = []string{
	"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
	"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
	"Hendra Gunawan", "Ika Sari", "Jamal Mirdad", "Kiki Fatmala", "Lukman Hakim",
	"Maya Septiana", "Nanda Pratama", "Oki Setiana", "Putri Dian", "Qori Maharani",
	"Rafi Ahmad", "Siska Saraswati", "Toni Setiawan", "Umi Kalsum", "Vina Panduwinata",
}

// Seeds student accounts for load and demo runs. Existing emails are skipped.
func main() {
	count := flag.Int("n", 50, "number of students to create")
	password := flag.String("password", "student123", "password for every seeded account")
	domain := flag.String("domain", "students.example.com", "email domain")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	// Registration only hashes passwords; no session store is needed.
	authService := service.NewAuthService(cfg, nil)
	userService := service.NewUserService(userRepo, authService, service.NewMediaService(cfg), log)

	fmt.Printf("=== Seeding %d Students ===\n", *count)

	created, skipped := 0, 0
	for i := 0; i < *count; i++ {
		req := &model.RegisterRequest{
			FullName: fmt.Sprintf("%s %d", names[i%len(names)], i/len(names)+1),
			Email:    fmt.Sprintf("student%03d@%s", i+1, *domain),
			Password: *password,
			Role:     model.RoleStudent,
		}

		if _, err := userService.Register(ctx, req); err != nil {
			if errors.Is(err, service.ErrEmailTaken) {
				skipped++
				continue
			}
			fmt.Printf("Error creating %s: %v\n", req.Email, err)
			continue
		}

		created++
		if created%10 == 0 {
			fmt.Printf("Created %d students...\n", created)
		}
	}

	fmt.Printf("\nSeed completed! Created %d, skipped %d existing.\n", created, skipped)
}
