package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/smpn3pacet/cbt-backend/internal/config"
	"github.com/smpn3pacet/cbt-backend/internal/database"
	"github.com/smpn3pacet/cbt-backend/internal/logger"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// roleKeys maps the CLI role name to its settings key.
var roleKeys = map[string]string{
	"admin":            model.SettingAdminPassword,
	"teacher_literasi": model.SettingTeacherLiterasiPassword,
	"teacher_numerasi": model.SettingTeacherNumerasiPassword,
}

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	settingRepo := repository.NewSettingRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Set Role Password ===")

	fmt.Print("Enter Role (admin, teacher_literasi, teacher_numerasi): ")
	role, _ := reader.ReadString('\n')
	role = strings.TrimSpace(role)

	settingKey, ok := roleKeys[role]
	if !ok {
		fmt.Printf("Error: unknown role %q\n", role)
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	if err := settingRepo.Upsert(ctx, settingKey, string(hashedPassword)); err != nil {
		log.Fatal().Err(err).Msg("Failed to store password")
	}

	fmt.Printf("\nSuccess! Password for role '%s' updated.\n", role)
}
