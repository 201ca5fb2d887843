package services

import (
	"strings"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// IssuedClient carries the plain secret, which is only shown once
type IssuedClient struct {
	Client models.OAuthClient `json:"client"`
	Secret string             `json:"client_secret"`
}

type ClientService interface {
	// CreateClient registers a client-credentials client acting as userID
	CreateClient(userID uint, name string) (*IssuedClient, error)
	GetClientsByUserID(userID uint) ([]models.OAuthClient, error)
	GetClientByID(id string) (*models.OAuthClient, error)
	DeleteClient(clientID string, userID uint) error
}

type clientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) ClientService {
	return &clientService{db: db}
}

func (s *clientService) CreateClient(userID uint, name string) (*IssuedClient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("client name is required")
	}
	var owner models.User
	if err := s.db.First(&owner, userID).Error; err != nil {
		return nil, lookupErr(err, "user %d", userID)
	}
	if !owner.IsEmployee() {
		return nil, invalidInput("only staff accounts can own API clients")
	}

	secret := strings.ReplaceAll(uuid.NewString(), "-", "")
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	client := models.OAuthClient{
		ID:         "client-" + uuid.NewString(),
		Secret:     string(hash),
		Name:       name,
		Domain:     "http://localhost",
		UserID:     userID,
		Scopes:     "read write",
		GrantTypes: "client_credentials",
	}
	if err := s.db.Create(&client).Error; err != nil {
		return nil, err
	}
	return &IssuedClient{Client: client, Secret: secret}, nil
}

func (s *clientService) GetClientsByUserID(userID uint) ([]models.OAuthClient, error) {
	var clients []models.OAuthClient
	if err := s.db.Where("user_id = ?", userID).Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *clientService) GetClientByID(id string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.Where("id = ?", id).First(&client).Error; err != nil {
		return nil, lookupErr(err, "client %q", id)
	}
	return &client, nil
}

func (s *clientService) DeleteClient(clientID string, userID uint) error {
	result := s.db.Where("id = ? AND user_id = ?", clientID, userID).Delete(&models.OAuthClient{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("client %q", clientID)
	}
	return nil
}
