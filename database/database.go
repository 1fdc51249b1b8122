package database

import (
	"fmt"
	"log"

	config "github.com/jkamau717/farm_connect/configs"
	"github.com/jkamau717/farm_connect/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Farmland{},
		&models.Opportunity{},
		&models.OpportunityManager{},
		&models.OpportunityParticipant{},
		&models.Thread{},
		&models.ThreadParticipant{},
		&models.Message{},
		&models.ReadState{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

// SeedFarmer creates the bootstrap farmer account from env config on first
// run.
func SeedFarmer() {
	farmerEmail := config.Config("SEED_FARMER_EMAIL")
	farmerPassword := config.Config("SEED_FARMER_PASSWORD")
	if farmerEmail == "" || farmerPassword == "" {
		log.Println("Seed farmer credentials not configured, skipping seed.")
		return
	}

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", farmerEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for seed farmer: %v", err)
		return
	}

	if count > 0 {
		log.Println("Seed farmer already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(farmerPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash seed farmer password: %v", err)
		return
	}

	farmer := models.User{
		FullName: config.Config("SEED_FARMER_FULL_NAME"),
		Email:    farmerEmail,
		Password: string(hashedPassword),
		Role:     "farmer",
	}

	if err := DB.Create(&farmer).Error; err != nil {
		log.Fatalf("🔥 Failed to seed farmer user: %v", err)
		return
	}

	log.Println("✅ Seed farmer created successfully")
}
