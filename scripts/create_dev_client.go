package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/franciscosanchezn/pizza-order-api/internal/auth"
	"github.com/franciscosanchezn/pizza-order-api/internal/config"
	"github.com/franciscosanchezn/pizza-order-api/internal/database"
	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/franciscosanchezn/pizza-order-api/internal/services"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	// Parse command line flags
	kind := flag.String("kind", "employee", "Account kind the client acts as (employee or delivery_person)")
	flag.Parse()

	userKind, ok := models.ParseUserKind(*kind)
	if !ok || !userKind.IsStaff() {
		log.Fatalf("Unsupported kind %q: only staff accounts can own API clients", *kind)
	}

	_ = godotenv.Load()
	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}
	db, err := database.InitDatabase(conf.Database())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Determine client credentials based on kind
	clientID, clientSecret := "dev-client", "dev-secret-123"
	if userKind == models.KindDeliveryPerson {
		clientID, clientSecret = "delivery-client", "delivery-secret-123"
	}

	// Check if client already exists
	var existing models.OAuthClient
	if err := db.Where("id = ?", clientID).First(&existing).Error; err == nil {
		fmt.Printf("Development client already exists for kind '%s'!\n", userKind)
		fmt.Printf("Client ID: %s\n", clientID)
		fmt.Printf("Client Secret: %s\n", clientSecret)
		return
	}

	userID := serviceAccountFor(db, conf, userKind)

	hash, err := bcrypt.GenerateFromPassword([]byte(clientSecret), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash secret:", err)
	}
	client := models.OAuthClient{
		ID:         clientID,
		Secret:     string(hash),
		Name:       fmt.Sprintf("Development %s client", userKind),
		Domain:     "http://localhost",
		UserID:     userID,
		Scopes:     "read write",
		GrantTypes: "client_credentials",
	}
	if err := db.Create(&client).Error; err != nil {
		log.Fatal("Failed to create client:", err)
	}

	fmt.Printf("✓ Development OAuth client created for kind '%s'!\n", userKind)
	fmt.Printf("Client ID: %s\n", clientID)
	fmt.Printf("Client Secret: %s\n", clientSecret)
	fmt.Printf("User ID: %d\n", userID)
	fmt.Println("\nUse these credentials for testing:")
	fmt.Printf("curl -X POST http://localhost:%d/api/v1/oauth/token \\\n", conf.Port)
	fmt.Printf("  -d 'grant_type=client_credentials' \\\n")
	fmt.Printf("  -d 'client_id=%s' \\\n", clientID)
	fmt.Printf("  -d 'client_secret=%s'\n", clientSecret)
}

// serviceAccountFor finds or registers the staff account the client acts as
func serviceAccountFor(db *gorm.DB, conf *config.Config, kind models.UserKind) uint {
	username := "svc-" + string(kind)
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err == nil {
		fmt.Printf("Found existing user: %s (ID: %d, Kind: %s)\n", user.Username, user.ID, user.Kind)
		return user.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatal("Failed to look up service account:", err)
	}

	users := services.NewUserService(db, auth.NewPasswordHasher(conf.PasswordPepper))
	password := "svc-" + string(kind) + "-password"
	created, err := users.CreateUser(services.NewUser{
		Username:        username,
		Email:           username + "@pizza.com",
		Password:        password,
		ConfirmPassword: password,
		Kind:            kind,
		Position:        "Service account",
		Salary:          decimal.Zero,
	})
	if err != nil {
		log.Fatal("Failed to create service account:", err)
	}
	fmt.Printf("Created new user: %s (ID: %d, Kind: %s)\n", created.Username, created.ID, created.Kind)
	return created.ID
}
