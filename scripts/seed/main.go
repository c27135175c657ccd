// Command seed provisions the default categories and an admin account so a
// fresh database is immediately usable.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lostfound-id/lostfound-api/internal/models"
	"github.com/lostfound-id/lostfound-api/internal/repository"
	"github.com/lostfound-id/lostfound-api/pkg/config"
	"github.com/lostfound-id/lostfound-api/pkg/database"
)

var defaultCategories = []string{
	"Electronics",
	"Documents",
	"Keys",
	"Clothing",
	"Accessories",
	"Other",
}

func main() {
	adminEmail := flag.String("admin-email", "admin@lostfound.local", "admin account email")
	adminPassword := flag.String("admin-password", "", "admin account password (required to create the admin)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	categories := repository.NewCategoryRepository(db)
	existing, err := categories.List(ctx)
	if err != nil {
		log.Fatalf("failed to list categories: %v", err)
	}
	present := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		present[c.Name] = struct{}{}
	}
	for _, name := range defaultCategories {
		if _, ok := present[name]; ok {
			continue
		}
		if err := categories.Create(ctx, &models.Category{Name: name}); err != nil {
			log.Fatalf("failed to create category %q: %v", name, err)
		}
		log.Printf("created category %q", name)
	}

	if *adminPassword == "" {
		log.Println("no -admin-password given, skipping admin account")
		return
	}

	users := repository.NewUserRepository(db)
	if _, err := users.FindByEmail(ctx, *adminEmail); err == nil {
		log.Printf("admin %q already exists", *adminEmail)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		log.Fatalf("failed to look up admin: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}
	admin := &models.User{
		Name:         "Administrator",
		Email:        *adminEmail,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}
	log.Printf("created admin %q", *adminEmail)
}
