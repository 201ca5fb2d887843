package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/events"
	"github.com/franciscosanchezn/pizza-order-api/internal/events/eventstest"
	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDiscountService(db *gorm.DB) (*discountService, *eventstest.Recorder) {
	recorder := &eventstest.Recorder{}
	service := NewDiscountService(db, recorder).(*discountService)
	service.now = func() time.Time { return fixedNow }
	return service, recorder
}

func TestAddLoyaltyPoints(t *testing.T) {
	testCases := []struct {
		name           string
		startingPoints int
		points         int
		expectedPoints int
		expectedCodes  int
	}{
		{"below threshold", 0, 4, 4, 0},
		{"reaching threshold exactly", 9, 1, 0, 1},
		{"crossing threshold", 7, 5, 2, 1},
		{"crossing twice", 5, 15, 0, 2},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			customer := createUser(t, db, "mario", models.KindCustomer)
			require.NoError(t, db.Model(customer).Update("customer_loyalty_points", tt.startingPoints).Error)
			service, recorder := newTestDiscountService(db)

			result, err := service.AddLoyaltyPoints(context.Background(), customer.ID, tt.points)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedPoints, result.LoyaltyPoints)
			assert.Len(t, result.Issued, tt.expectedCodes)
			assert.Equal(t, tt.expectedPoints, reloadUser(t, db, customer.ID).Customer.LoyaltyPoints)
			assert.Len(t, recorder.Events, tt.expectedCodes)
			for _, code := range result.Issued {
				assert.True(t, strings.HasPrefix(code.Code, "LOYALTY-"))
				assert.True(t, dec("10").Equal(code.Percentage))
				require.NotNil(t, code.IssuedToID)
				assert.Equal(t, customer.ID, *code.IssuedToID)
				assert.True(t, code.UsableAt(fixedNow))
				assert.False(t, code.UsableAt(fixedNow.Add(31*24*time.Hour)))
			}
		})
	}
}

func TestAddLoyaltyPointsRejects(t *testing.T) {
	db := setupTestDB(t)
	employee := createUser(t, db, "bowser", models.KindEmployee)
	customer := createUser(t, db, "mario", models.KindCustomer)
	service, _ := newTestDiscountService(db)
	ctx := context.Background()

	_, err := service.AddLoyaltyPoints(ctx, employee.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.AddLoyaltyPoints(ctx, customer.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.AddLoyaltyPoints(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIssueBirthdayCodes(t *testing.T) {
	db := setupTestDB(t)
	service, recorder := newTestDiscountService(db)

	birthday := time.Date(1990, time.May, 14, 0, 0, 0, 0, time.UTC)
	otherDay := time.Date(1990, time.May, 15, 0, 0, 0, 0, time.UTC)
	celebrating := createUser(t, db, "mario", models.KindCustomer)
	require.NoError(t, db.Model(celebrating).Update("birthdate", birthday).Error)
	notToday := createUser(t, db, "peach", models.KindCustomer)
	require.NoError(t, db.Model(notToday).Update("birthdate", otherDay).Error)
	employee := createUser(t, db, "bowser", models.KindEmployee)
	require.NoError(t, db.Model(employee).Update("birthdate", birthday).Error)
	createUser(t, db, "toad", models.KindCustomer)

	issued, err := service.IssueBirthdayCodes(context.Background())
	require.NoError(t, err)

	require.Len(t, issued, 1)
	code := issued[0]
	assert.True(t, strings.HasPrefix(code.Code, "BDAY-"))
	assert.True(t, code.IsBirthday())
	require.NotNil(t, code.IssuedToID)
	assert.Equal(t, celebrating.ID, *code.IssuedToID)
	assert.True(t, code.UsableAt(fixedNow))
	assert.False(t, code.UsableAt(fixedNow.Add(8*24*time.Hour)), "birthday codes last a week")
	assert.Equal(t, []events.Type{events.DiscountIssued}, recorder.Types())

	again, err := service.IssueBirthdayCodes(context.Background())
	require.NoError(t, err)
	assert.Len(t, again, 1, "a second run on the same day issues again")
	assert.Equal(t, int64(2), countRows(t, db, &models.DiscountCode{}))
}

func TestCreateCode(t *testing.T) {
	db := setupTestDB(t)
	customer := createUser(t, db, "mario", models.KindCustomer)
	service, recorder := newTestDiscountService(db)
	ctx := context.Background()
	until := fixedNow.Add(24 * time.Hour)

	code, err := service.CreateCode(ctx, DiscountInput{Code: "SUMMER", Percentage: dec("15"), ValidUntil: until})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER", code.Code)
	assert.False(t, code.Used)

	generated, err := service.CreateCode(ctx, DiscountInput{Percentage: dec("5"), ValidUntil: until, IssuedToID: &customer.ID})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(generated.Code, "PROMO-"))

	_, err = service.CreateCode(ctx, DiscountInput{Code: "SUMMER", Percentage: dec("15"), ValidUntil: until})
	assert.ErrorIs(t, err, ErrConflict)

	before := fixedNow.Add(-time.Hour)
	testCases := []struct {
		name     string
		input    DiscountInput
		expected error
	}{
		{"negative percentage", DiscountInput{Percentage: dec("-1"), ValidUntil: until}, ErrInvalidInput},
		{"over a hundred", DiscountInput{Percentage: dec("100.01"), ValidUntil: until}, ErrInvalidInput},
		{"missing valid_until", DiscountInput{Percentage: dec("10")}, ErrInvalidInput},
		{"window reversed", DiscountInput{Percentage: dec("10"), ValidFrom: &until, ValidUntil: before}, ErrInvalidInput},
		{"unknown owner", DiscountInput{Percentage: dec("10"), ValidUntil: until, IssuedToID: ptr(uint(999))}, ErrNotFound},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateCode(ctx, tt.input)
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	assert.Equal(t, []events.Type{events.DiscountIssued, events.DiscountIssued}, recorder.Types())
}

func TestListCodesForUser(t *testing.T) {
	db := setupTestDB(t)
	customer := createUser(t, db, "mario", models.KindCustomer)
	service, _ := newTestDiscountService(db)

	usable := models.DiscountCode{Code: "MINE", Percentage: dec("10"), ValidUntil: fixedNow.Add(time.Hour), IssuedToID: &customer.ID}
	expired := models.DiscountCode{Code: "OLD", Percentage: dec("10"), ValidUntil: fixedNow.Add(-time.Hour), IssuedToID: &customer.ID}
	spent := models.DiscountCode{Code: "SPENT", Percentage: dec("10"), ValidUntil: fixedNow.Add(time.Hour), IssuedToID: &customer.ID, Used: true}
	require.NoError(t, db.Create(&[]models.DiscountCode{usable, expired, spent}).Error)
	createCode(t, db, "PUBLIC", "10", fixedNow.Add(time.Hour))

	codes, err := service.ListCodesForUser(customer.ID)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, "MINE", codes[0].Code)

	found, err := service.GetCode("PUBLIC")
	require.NoError(t, err)
	assert.Nil(t, found.IssuedToID)

	_, err = service.GetCode("NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedeemCodeIsSingleUse(t *testing.T) {
	db := setupTestDB(t)
	customer := createUser(t, db, "mario", models.KindCustomer)
	createCode(t, db, "ONCE", "20", fixedNow.Add(time.Hour))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := redeemCode(tx, "ONCE", customer, fixedNow)
		return err
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := redeemCode(tx, "ONCE", customer, fixedNow)
		return err
	})
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func ptr[T any](value T) *T {
	return &value
}
