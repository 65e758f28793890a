package api

import (
	"log"

	"github.com/LusoHub/verification_service/config"
	"github.com/LusoHub/verification_service/infra/queue"
	"github.com/LusoHub/verification_service/internal/api/rest/handlers"
	"github.com/LusoHub/verification_service/internal/domain"
	"github.com/LusoHub/verification_service/internal/repository"
	"github.com/LusoHub/verification_service/internal/services"
	"github.com/LusoHub/verification_service/internal/verification"
	"github.com/LusoHub/verification_service/pkg/cloudinary"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func StartServer(cfg config.Config) {
	app := fiber.New(fiber.Config{
		BodyLimit: 8 * 1024 * 1024, // a little above the 5 MiB document cap
	})

	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.BaseURL,
		AllowHeaders:     "Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// ---------- DB ----------
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}
	log.Println("database connected")

	// ---------- MIGRATION + SEED (guarded by advisory lock) ----------
	const migrateLockID int64 = 20260830

	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		log.Fatalf("migration lock error: %v", err)
	}
	defer func() {
		_ = db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error
	}()

	if err := db.AutoMigrate(
		&domain.University{},
		&domain.UniversityDomain{},
		&domain.VerificationRecord{},
		&domain.VerificationDocument{},
		&domain.WorkflowSession{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	log.Println("migration successful")

	seedUniversities(db)

	// ---------- Infra ----------
	kafkaProducer := queue.NewProducer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
	)
	cld, err := cloudinary.New()
	if err != nil {
		log.Fatalf("cloudinary init error: %v", err)
	}
	up := cloudinary.NewCloudinaryUploader(cld)

	// ---------- Repositories ----------
	universityRepo := repository.NewUniversityRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// ---------- Directory snapshot ----------
	universities, err := universityRepo.ListAll()
	if err != nil {
		log.Fatalf("directory load error: %v", err)
	}
	directory := verification.NewDirectory(universities)
	log.Printf("directory loaded: %d universities", len(universities))

	// ---------- Service ----------
	verificationSvc := services.NewVerificationService(
		directory,
		up,
		verificationRepo,
		sessionRepo,
		universityRepo,
		kafkaProducer,
	)

	// ---------- Handlers ----------
	verificationHandler := handlers.NewVerificationHandler(verificationSvc)
	verificationHandler.SetupRoutes(app)
	universityHandler := handlers.NewUniversityHandler(verificationSvc)
	universityHandler.SetupRoutes(app)

	// ---------- Health ----------
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ---------- Listen ----------
	addr := cfg.ServerPort
	log.Println("listening on", addr)
	log.Fatal(app.Listen(addr))
}

// seedUniversities registers the launch partners. Idempotent: a university
// is only created when none of its domains is known yet.
func seedUniversities(db *gorm.DB) {
	seeds := []domain.University{
		{
			NameEN:          "University College London",
			NamePT:          "Universidade de Londres (UCL)",
			PartnershipTier: domain.PartnershipTierFull,
			Domains: []domain.UniversityDomain{
				{Domain: "ucl.ac.uk"},
			},
		},
		{
			NameEN:          "King's College London",
			NamePT:          "King's College de Londres",
			PartnershipTier: domain.PartnershipTierFull,
			Domains: []domain.UniversityDomain{
				{Domain: "kcl.ac.uk"},
			},
		},
		{
			NameEN:          "University of Manchester",
			NamePT:          "Universidade de Manchester",
			PartnershipTier: domain.PartnershipTierAssociate,
			Domains: []domain.UniversityDomain{
				{Domain: "manchester.ac.uk"},
			},
		},
		{
			NameEN:          "University of Edinburgh",
			NamePT:          "Universidade de Edimburgo",
			PartnershipTier: domain.PartnershipTierCommunity,
			Domains: []domain.UniversityDomain{
				{Domain: "ed.ac.uk"},
			},
		},
	}

	for _, seed := range seeds {
		var existing domain.UniversityDomain
		err := db.Where("domain = ?", seed.Domains[0].Domain).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if cerr := db.Create(&seed).Error; cerr != nil {
				log.Printf("seed university %s failed: %v", seed.NameEN, cerr)
			}
		}
	}
}
