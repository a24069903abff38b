// seed-admin creates (or repairs) the super admin account from env vars.
// Run once after provisioning a fresh database:
//
//	SEED_ADMIN_EMAIL=admin@example.com SEED_ADMIN_PASSWORD=... go run ./cmd/seed-admin
package main

import (
	"log"
	"os"
	"strings"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/models"
	"bitbucket.org/princerto/rto_backend/utils"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	email := strings.TrimSpace(strings.ToLower(os.Getenv("SEED_ADMIN_EMAIL")))
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	name := strings.TrimSpace(os.Getenv("SEED_ADMIN_NAME"))
	if email == "" || password == "" {
		log.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}
	if name == "" {
		name = "Super Admin"
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()

	if err := models.Migrate(db); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.Fatalf("could not hash password: %v", err)
	}

	var user models.User
	err = db.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		user.Name = name
		user.Password = string(hashed)
		user.Role = models.UserRoleSuperAdmin
		active := true
		user.IsActive = &active
		if err := db.Save(&user).Error; err != nil {
			log.Fatalf("could not update super admin: %v", err)
		}
		log.Printf("super admin %s updated (id=%d)", email, user.ID)
	case err == gorm.ErrRecordNotFound:
		active := true
		user = models.User{
			Name:     name,
			Email:    email,
			Password: string(hashed),
			Role:     models.UserRoleSuperAdmin,
			IsActive: &active,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("could not create super admin: %v", err)
		}
		log.Printf("super admin %s created (id=%d)", email, user.ID)
	default:
		log.Fatalf("lookup failed: %v", err)
	}
}
