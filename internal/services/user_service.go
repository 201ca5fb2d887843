package services

import (
	"errors"
	"strings"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PasswordHasher derives and checks salted password hashes
type PasswordHasher interface {
	Hash(password string) (hash string, salt string, err error)
	Verify(password, salt, hash string) bool
}

// NewUser carries everything needed to register an account of any kind
type NewUser struct {
	Username        string `validate:"required,min=3,max=50"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
	Kind            models.UserKind
	Birthdate       *time.Time
	Address         string
	PostalCode      string
	Phone           string `validate:"omitempty,phone"`
	Gender          string
	Position        string
	Salary          decimal.Decimal
}

type UserService interface {
	CreateUser(input NewUser) (*models.User, error)
	// Authenticate accepts either the username or the email as login
	Authenticate(login, password string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	ListCustomers() ([]models.User, error)
}

type userService struct {
	db     *gorm.DB
	hasher PasswordHasher
	now    func() time.Time
}

func NewUserService(db *gorm.DB, hasher PasswordHasher) UserService {
	return &userService{db: db, hasher: hasher, now: time.Now}
}

func (s *userService) CreateUser(input NewUser) (*models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	kind := models.KindCustomer
	if input.Kind != "" {
		parsed, ok := models.ParseUserKind(string(input.Kind))
		if !ok {
			return nil, invalidInput("unknown user kind %q", input.Kind)
		}
		kind = parsed
	}
	if input.Birthdate != nil && input.Birthdate.After(s.now()) {
		return nil, invalidInput("birthdate cannot be in the future")
	}
	if kind.IsStaff() {
		if strings.TrimSpace(input.Position) == "" {
			return nil, invalidInput("position is required for %s accounts", kind)
		}
		if input.Salary.IsNegative() {
			return nil, invalidInput("salary cannot be negative")
		}
	}

	var existing int64
	if err := s.db.Model(&models.User{}).
		Where("username = ? OR email = ?", input.Username, input.Email).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrConflict
	}

	hash, salt, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		Kind:         kind,
		Birthdate:    input.Birthdate,
		Address:      input.Address,
		PostalCode:   strings.TrimSpace(input.PostalCode),
		Phone:        input.Phone,
		Gender:       input.Gender,
		PasswordHash: hash,
		Salt:         salt,
	}
	if kind.IsStaff() {
		user.Employee = models.EmployeeProfile{Position: input.Position, Salary: input.Salary}
	}
	if kind == models.KindDeliveryPerson {
		user.Delivery = models.DeliveryProfile{Status: models.DeliveryAvailable}
	}

	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Authenticate(login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var user models.User
	err := s.db.Where("username = ? OR email = ?", login, strings.ToLower(login)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(password, user.Salt, user.PasswordHash) {
		return nil, ErrUnauthorized
	}
	return &user, nil
}

func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, lookupErr(err, "user %d", id)
	}
	return &user, nil
}

func (s *userService) ListCustomers() ([]models.User, error) {
	var users []models.User
	if err := s.db.Where("kind = ?", models.KindCustomer).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
