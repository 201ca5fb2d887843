package services

import (
	"errors"
	"math/rand/v2"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"gorm.io/gorm"
)

// DeliveryService covers delivery persons and their status
type DeliveryService interface {
	ListAvailable() ([]models.User, error)
	// RandomDeliveryPerson picks any delivery person regardless of status
	RandomDeliveryPerson() (*models.User, error)
	// SetStatus is the manual transition a delivery person makes once a
	// delivery is done or a shift ends. Only Available and Off Duty are
	// accepted; On Delivery is set by assignment.
	SetStatus(userID uint, status models.DeliveryStatus) (*models.User, error)
	AssignedOrders(userID uint) ([]models.Order, error)
}

type deliveryService struct {
	db *gorm.DB
}

func NewDeliveryService(db *gorm.DB) DeliveryService {
	return &deliveryService{db: db}
}

func (s *deliveryService) ListAvailable() ([]models.User, error) {
	var couriers []models.User
	if err := s.db.Where("kind = ? AND delivery_status = ?", models.KindDeliveryPerson, models.DeliveryAvailable).
		Order("id").Find(&couriers).Error; err != nil {
		return nil, err
	}
	return couriers, nil
}

func (s *deliveryService) RandomDeliveryPerson() (*models.User, error) {
	courier, err := pickRandomCourier(s.db)
	if err != nil {
		return nil, err
	}
	if courier == nil {
		return nil, notFound("no delivery person exists")
	}
	return courier, nil
}

func (s *deliveryService) SetStatus(userID uint, status models.DeliveryStatus) (*models.User, error) {
	parsed, ok := models.ParseDeliveryStatus(string(status))
	if !ok || parsed == models.DeliveryOnDelivery {
		return nil, invalidInput("status must be Available or Off Duty")
	}
	var courier models.User
	if err := s.db.First(&courier, userID).Error; err != nil {
		return nil, lookupErr(err, "user %d", userID)
	}
	if !courier.IsDeliveryPerson() {
		return nil, invalidInput("user %d is not a delivery person", userID)
	}
	if err := s.db.Model(&courier).Update("delivery_status", parsed).Error; err != nil {
		return nil, err
	}
	courier.Delivery.Status = parsed
	return &courier, nil
}

func (s *deliveryService) AssignedOrders(userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.Preload("Lines.Pizza").Preload("Extras").
		Where("delivery_person_id = ?", userID).
		Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// claimAvailableCourier flips the lowest-id Available delivery person to On
// Delivery and returns it, or returns nil when nobody is available
func claimAvailableCourier(tx *gorm.DB) (*models.User, error) {
	for {
		var courier models.User
		err := tx.Where("kind = ? AND delivery_status = ?", models.KindDeliveryPerson, models.DeliveryAvailable).
			Order("id").First(&courier).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		result := tx.Model(&models.User{}).
			Where("id = ? AND delivery_status = ?", courier.ID, models.DeliveryAvailable).
			Update("delivery_status", models.DeliveryOnDelivery)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 1 {
			courier.Delivery.Status = models.DeliveryOnDelivery
			return &courier, nil
		}
		// lost the race for this one, look again
	}
}

// pickRandomCourier returns any delivery person without touching its
// status, or nil when none exists
func pickRandomCourier(tx *gorm.DB) (*models.User, error) {
	var couriers []models.User
	if err := tx.Where("kind = ?", models.KindDeliveryPerson).Order("id").Find(&couriers).Error; err != nil {
		return nil, err
	}
	if len(couriers) == 0 {
		return nil, nil
	}
	return &couriers[rand.IntN(len(couriers))], nil
}
