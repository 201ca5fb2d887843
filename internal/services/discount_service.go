package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/events"
	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	LoyaltyThreshold = 10
	LoyaltyValidity  = 30 * 24 * time.Hour
	BirthdayValidity = 7 * 24 * time.Hour
)

// LoyaltyPercentage is the discount granted by a loyalty code
var LoyaltyPercentage = decimal.NewFromInt(10)

type DiscountInput struct {
	// Code is generated when empty
	Code       string          `json:"code"`
	Percentage decimal.Decimal `json:"percentage"`
	ValidFrom  *time.Time      `json:"valid_from"`
	ValidUntil time.Time       `json:"valid_until" binding:"required"`
	IssuedToID *uint           `json:"issued_to_id"`
}

// LoyaltyResult reports the balance after an accrual and any code minted
// on the way
type LoyaltyResult struct {
	LoyaltyPoints int                   `json:"loyalty_points"`
	Issued        []models.DiscountCode `json:"issued_codes"`
}

// DiscountService is the discount and loyalty state machine
type DiscountService interface {
	GetCode(code string) (*models.DiscountCode, error)
	// ListCodesForUser returns the codes issued to a user that are still usable
	ListCodesForUser(userID uint) ([]models.DiscountCode, error)
	CreateCode(ctx context.Context, input DiscountInput) (*models.DiscountCode, error)
	// AddLoyaltyPoints credits a customer one point at a time. Every time the
	// balance reaches the threshold it resets to zero and a loyalty code is
	// minted in the same transaction.
	AddLoyaltyPoints(ctx context.Context, customerID uint, points int) (LoyaltyResult, error)
	// IssueBirthdayCodes mints a birthday code for every customer born on
	// today's month and day. Running it twice on the same day issues twice.
	IssueBirthdayCodes(ctx context.Context) ([]models.DiscountCode, error)
}

type discountService struct {
	db        *gorm.DB
	publisher events.Publisher
	now       func() time.Time
}

func NewDiscountService(db *gorm.DB, publisher events.Publisher) DiscountService {
	return &discountService{db: db, publisher: publisher, now: time.Now}
}

func newCode(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func (s *discountService) GetCode(code string) (*models.DiscountCode, error) {
	var discount models.DiscountCode
	if err := s.db.Where("code = ?", strings.TrimSpace(code)).First(&discount).Error; err != nil {
		return nil, lookupErr(err, "discount code %q", code)
	}
	return &discount, nil
}

func (s *discountService) ListCodesForUser(userID uint) ([]models.DiscountCode, error) {
	var codes []models.DiscountCode
	if err := s.db.Where("issued_to_id = ? AND used = ? AND valid_until >= ?", userID, false, s.now()).
		Order("valid_until").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (s *discountService) CreateCode(ctx context.Context, input DiscountInput) (*models.DiscountCode, error) {
	if input.Percentage.IsNegative() || input.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, invalidInput("percentage must be between 0 and 100")
	}
	if input.ValidUntil.IsZero() {
		return nil, invalidInput("valid_until is required")
	}
	if input.ValidFrom != nil && input.ValidUntil.Before(*input.ValidFrom) {
		return nil, invalidInput("valid_until is before valid_from")
	}
	code := strings.TrimSpace(input.Code)
	if code == "" {
		code = newCode("PROMO")
	}
	if len(code) > 64 {
		return nil, invalidInput("code is longer than 64 characters")
	}

	discount := &models.DiscountCode{
		Code:       code,
		Percentage: input.Percentage.Round(2),
		ValidFrom:  input.ValidFrom,
		ValidUntil: input.ValidUntil,
		IssuedToID: input.IssuedToID,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if input.IssuedToID != nil {
			var owner models.User
			if err := tx.First(&owner, *input.IssuedToID).Error; err != nil {
				return lookupErr(err, "user %d", *input.IssuedToID)
			}
		}
		var existing int64
		if err := tx.Model(&models.DiscountCode{}).Where("code = ?", code).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrConflict
		}
		return tx.Create(discount).Error
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, issuedEvent(*discount, s.now()))
	return discount, nil
}

func (s *discountService) AddLoyaltyPoints(ctx context.Context, customerID uint, points int) (LoyaltyResult, error) {
	if points < 1 {
		return LoyaltyResult{}, invalidInput("points must be at least 1")
	}
	now := s.now()
	var result LoyaltyResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var customer models.User
		if err := tx.First(&customer, customerID).Error; err != nil {
			return lookupErr(err, "user %d", customerID)
		}
		if !customer.IsCustomer() {
			return invalidInput("user %d is not a customer", customerID)
		}
		issued, err := accrueLoyalty(tx, &customer, points, now)
		if err != nil {
			return err
		}
		result = LoyaltyResult{LoyaltyPoints: customer.Customer.LoyaltyPoints, Issued: issued}
		return nil
	})
	if err != nil {
		return LoyaltyResult{}, err
	}
	for _, code := range result.Issued {
		publish(ctx, s.publisher, issuedEvent(code, now))
	}
	if result.Issued == nil {
		result.Issued = []models.DiscountCode{}
	}
	return result, nil
}

func (s *discountService) IssueBirthdayCodes(ctx context.Context) ([]models.DiscountCode, error) {
	now := s.now()
	var issued []models.DiscountCode
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var customers []models.User
		if err := tx.Where("kind = ? AND birthdate IS NOT NULL", models.KindCustomer).
			Order("id").Find(&customers).Error; err != nil {
			return err
		}
		for _, customer := range customers {
			if !customer.HasBirthdayOn(now) {
				continue
			}
			code := models.DiscountCode{
				Code:       newCode("BDAY"),
				Percentage: decimal.Zero,
				ValidFrom:  &now,
				ValidUntil: now.Add(BirthdayValidity),
				IssuedToID: &customer.ID,
			}
			if err := tx.Create(&code).Error; err != nil {
				return err
			}
			issued = append(issued, code)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithField("issued", len(issued)).Info("Birthday sweep finished")
	for _, code := range issued {
		publish(ctx, s.publisher, issuedEvent(code, now))
	}
	if issued == nil {
		issued = []models.DiscountCode{}
	}
	return issued, nil
}

func issuedEvent(code models.DiscountCode, now time.Time) events.Event {
	event := events.Event{Type: events.DiscountIssued, Code: code.Code, OccurredAt: now}
	if code.IssuedToID != nil {
		event.UserID = *code.IssuedToID
	}
	return event
}

// accrueLoyalty adds points to customer inside tx. Points are applied one at
// a time so that every crossing of the threshold resets the balance and
// mints exactly one code.
func accrueLoyalty(tx *gorm.DB, customer *models.User, points int, now time.Time) ([]models.DiscountCode, error) {
	var issued []models.DiscountCode
	balance := customer.Customer.LoyaltyPoints
	for i := 0; i < points; i++ {
		balance++
		if balance < LoyaltyThreshold {
			continue
		}
		balance = 0
		code := models.DiscountCode{
			Code:       newCode("LOYALTY"),
			Percentage: LoyaltyPercentage,
			ValidFrom:  &now,
			ValidUntil: now.Add(LoyaltyValidity),
			IssuedToID: &customer.ID,
		}
		if err := tx.Create(&code).Error; err != nil {
			return nil, err
		}
		issued = append(issued, code)
	}
	if err := tx.Model(customer).Update("customer_loyalty_points", balance).Error; err != nil {
		return nil, err
	}
	customer.Customer.LoyaltyPoints = balance
	return issued, nil
}

// redeemCode validates and consumes a code for user inside tx. The used
// flag is flipped with a conditional update so a concurrent redemption of
// the same code fails instead of double-spending it.
func redeemCode(tx *gorm.DB, code string, user *models.User, now time.Time) (*models.DiscountCode, error) {
	var discount models.DiscountCode
	err := tx.Where("code = ?", strings.TrimSpace(code)).First(&discount).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalidDiscount("code %q does not exist", code)
	}
	if err != nil {
		return nil, err
	}
	if !discount.UsableAt(now) {
		return nil, invalidDiscount("code %q is used, expired or not yet valid", code)
	}
	if discount.IssuedToID != nil && *discount.IssuedToID != user.ID {
		return nil, invalidDiscount("code %q belongs to another user", code)
	}

	result := tx.Model(&models.DiscountCode{}).
		Where("code = ? AND used = ?", discount.Code, false).
		Updates(map[string]any{"used": true, "used_at": now, "used_by_id": user.ID})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, invalidDiscount("code %q was already used", code)
	}
	discount.Used = true
	discount.UsedAt = &now
	discount.UsedByID = &user.ID

	if discount.IsBirthday() && user.IsCustomer() {
		if err := tx.Model(user).Update("customer_birthday_order", true).Error; err != nil {
			return nil, err
		}
		user.Customer.BirthdayOrder = true
	}
	return &discount, nil
}
