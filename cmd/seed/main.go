package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/smpn3pacet/cbt-backend/internal/config"
	"github.com/smpn3pacet/cbt-backend/internal/database"
	"github.com/smpn3pacet/cbt-backend/internal/logger"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
	"github.com/smpn3pacet/cbt-backend/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	studentRepo := repository.NewStudentRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	packetRepo := repository.NewPacketRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)

	authService := service.NewAuthService(cfg, rdb, studentRepo, settingRepo)
	studentService := service.NewStudentService(studentRepo, authService)
	packetService := service.NewPacketService(packetRepo)
	questionService := service.NewQuestionService(questionRepo, packetRepo, packetService)
	examService := service.NewExamService(examRepo, packetRepo)

	fmt.Println("=== Seeding 40 Students ===")

	names := []string{
		"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
		"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
		"Hendra Gunawan", "Ika Sari", "Jamal Mirdad", "Kiki Fatmala", "Lukman Hakim",
		"Maya Septiana", "Nanda Pratama", "Oki Setiana", "Putri Dian", "Qori Maharani",
		"Rafi Ahmad", "Siska Saraswati", "Toni Setiawan", "Umi Kalsum", "Vina Panduwinata",
		"Wahyu Hidayat", "Xena Maharani", "Yudi Pratama", "Zaki Anwar", "Alifia Zahra",
		"Bagas Saputra", "Citra Kirana", "Dimas Anggara", "Elisa Novita", "Fikri Maulana",
		"Gali Rakasiwi", "Hani Hanifah", "Iqbal Ramadhan", "Jasmine Azzahra", "Kevin Sanjaya",
	}

	classes := []string{"8A", "8B"}

	successCount := 0
	for i, name := range names {
		student := &model.Student{
			No:           fmt.Sprintf("%d", i+1),
			NIS:          fmt.Sprintf("%05d", i+1),
			NISN:         fmt.Sprintf("00%08d", i+1),
			Name:         name,
			ClassName:    classes[i/20],
			PasswordHash: "bersamamaju",
		}

		if err := studentService.Create(ctx, student); err != nil {
			fmt.Printf("Error creating student %s (NISN: %s): %v\n", student.Name, student.NISN, err)
			continue
		}
		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d students...\n", i+1)
		}
	}

	fmt.Printf("\nSuccessfully added %d/%d students.\n", successCount, len(names))

	fmt.Println("\n=== Seeding Demo Packet + Exam ===")

	packet, err := packetService.Create(ctx, &model.CreatePacketRequest{
		Name:     "Paket Literasi Demo",
		Category: "Literasi",
	}, "")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create demo packet")
	}

	questions := []model.CreateQuestionRequest{
		{
			Number:             1,
			Text:               "Manakah sinonim dari kata \"cermat\"?",
			Type:               string(model.QuestionTypeSingleChoice),
			Options:            mustJSON([]string{"teliti", "lambat", "ragu", "boros"}),
			CorrectAnswerIndex: 0,
		},
		{
			Number:               2,
			Stimulus:             "Bacalah kutipan teks laporan berikut, lalu tentukan pernyataan yang sesuai.",
			Text:                 "Pernyataan mana saja yang merupakan fakta?",
			Type:                 string(model.QuestionTypeMultiSelect),
			Options:              mustJSON([]string{"Air mendidih pada 100 derajat Celsius", "Es lebih enak dari air hangat", "Bumi mengelilingi matahari", "Hujan itu menyebalkan"}),
			CorrectAnswerIndices: mustJSON([]int{0, 2}),
		},
		{
			Number:  3,
			Text:    "Tentukan benar atau salah untuk setiap pernyataan.",
			Type:    string(model.QuestionTypeMatrixTrueFalse),
			Options: mustJSON([]string{"Benar", "Salah"}),
			MatchingPairs: mustJSON([]model.MatchingPair{
				{Statement: "Paragraf deduktif berawal dari pernyataan umum", CorrectColumn: "a"},
				{Statement: "Ide pokok selalu di akhir paragraf", CorrectColumn: "b"},
			}),
		},
	}
	for i := range questions {
		if _, err := questionService.Create(ctx, packet.ID, &questions[i], ""); err != nil {
			log.Fatal().Err(err).Int("number", questions[i].Number).Msg("Failed to create demo question")
		}
	}

	now := time.Now()
	exam, err := examService.Create(ctx, &model.CreateExamRequest{
		Title:           "Simulasi Literasi",
		PacketID:        packet.ID,
		ScheduledStart:  now,
		ScheduledEnd:    now.Add(7 * 24 * time.Hour),
		DurationMinutes: 60,
		ClassTarget:     classes,
		IsActive:        true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create demo exam")
	}

	fmt.Printf("\nSeed completed! Demo packet %s, exam %s.\n", packet.ID, exam.ID)
}

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
