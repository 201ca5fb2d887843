package services

import (
	"context"
	"testing"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/events"
	"github.com/franciscosanchezn/pizza-order-api/internal/events/eventstest"
	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestOrderService(db *gorm.DB) (*orderService, *eventstest.Recorder) {
	recorder := &eventstest.Recorder{}
	service := NewOrderService(db, recorder).(*orderService)
	service.now = func() time.Time { return fixedNow }
	return service, recorder
}

func TestCreateOrder(t *testing.T) {
	db := setupTestDB(t)
	m := seedMenu(t, db, 5)
	customer := createUser(t, db, "mario", models.KindCustomer)
	courier := createUser(t, db, "luigi", models.KindDeliveryPerson)
	service, recorder := newTestOrderService(db)

	confirmation, err := service.CreateOrder(context.Background(), customer.ID, CreateOrderInput{
		Lines:    []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 2}},
		ExtraIDs: []uint{m.Tiramisu.ID, m.Tiramisu.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, confirmation.Status)
	assert.Equal(t, "1011AB", confirmation.PostalCode)
	assert.True(t, dec("6.58").Equal(confirmation.Pricing.Subtotal), "subtotal %s", confirmation.Pricing.Subtotal)
	assert.True(t, dec("6.58").Equal(confirmation.Pricing.Total))
	assert.Len(t, confirmation.Extras, 1, "duplicate extras collapse")
	require.NotNil(t, confirmation.DeliveryPerson)
	assert.Equal(t, courier.ID, confirmation.DeliveryPerson.ID)

	assert.Equal(t, 3, reloadPizza(t, db, m.Margherita.ID).Stock)
	assert.Equal(t, models.DeliveryOnDelivery, reloadUser(t, db, courier.ID).Delivery.Status)
	assert.Equal(t, 2, reloadUser(t, db, customer.ID).Customer.LoyaltyPoints)

	assert.Equal(t, []events.Type{events.OrderCreated, events.OrderAssigned}, recorder.Types())
}

func TestCreateOrderAppliesPercentageCode(t *testing.T) {
	db := setupTestDB(t)
	m := seedMenu(t, db, 5)
	customer := createUser(t, db, "mario", models.KindCustomer)
	createCode(t, db, "TENOFF", "10", fixedNow.Add(time.Hour))
	service, recorder := newTestOrderService(db)

	input := CreateOrderInput{
		Lines:        []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 2}},
		ExtraIDs:     []uint{m.Tiramisu.ID},
		DiscountCode: "TENOFF",
	}
	confirmation, err := service.CreateOrder(context.Background(), customer.ID, input)
	require.NoError(t, err)

	assert.True(t, dec("0.66").Equal(confirmation.Pricing.Discount), "discount %s", confirmation.Pricing.Discount)
	assert.True(t, dec("5.92").Equal(confirmation.Pricing.Total), "total %s", confirmation.Pricing.Total)
	require.NotNil(t, confirmation.Discount)
	assert.Equal(t, "TENOFF", confirmation.Discount.Code)
	assert.Contains(t, recorder.Types(), events.DiscountRedeemed)

	var code models.DiscountCode
	require.NoError(t, db.First(&code, "code = ?", "TENOFF").Error)
	assert.True(t, code.Used)
	require.NotNil(t, code.UsedByID)
	assert.Equal(t, customer.ID, *code.UsedByID)

	// A code can only be applied once; the failed order leaves stock alone
	_, err = service.CreateOrder(context.Background(), customer.ID, input)
	assert.ErrorIs(t, err, ErrInvalidDiscount)
	assert.Equal(t, 3, reloadPizza(t, db, m.Margherita.ID).Stock)
	assert.Equal(t, int64(1), countRows(t, db, &models.Order{}))
}

func TestCreateOrderAppliesBirthdayCode(t *testing.T) {
	db := setupTestDB(t)
	m := seedMenu(t, db, 5)
	customer := createUser(t, db, "mario", models.KindCustomer)
	createCode(t, db, "BDAY-1", "0", fixedNow.Add(time.Hour))
	service, _ := newTestOrderService(db)

	confirmation, err := service.CreateOrder(context.Background(), customer.ID, CreateOrderInput{
		Lines:        []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 1}},
		ExtraIDs:     []uint{m.Cola.ID},
		DiscountCode: "BDAY-1",
	})
	require.NoError(t, err)

	assert.True(t, dec("3.79").Equal(confirmation.Pricing.Discount), "discount %s", confirmation.Pricing.Discount)
	assert.True(t, confirmation.Pricing.Total.IsZero())
	assert.True(t, reloadUser(t, db, customer.ID).Customer.BirthdayOrder)
}

func TestCreateOrderRejectsUnusableCodes(t *testing.T) {
	db := setupTestDB(t)
	m := seedMenu(t, db, 5)
	customer := createUser(t, db, "mario", models.KindCustomer)
	other := createUser(t, db, "peach", models.KindCustomer)
	createCode(t, db, "EXPIRED", "10", fixedNow.Add(-time.Minute))
	future := fixedNow.Add(time.Hour)
	require.NoError(t, db.Create(&models.DiscountCode{
		Code: "LATER", Percentage: dec("10"), ValidFrom: &future, ValidUntil: fixedNow.Add(48 * time.Hour),
	}).Error)
	require.NoError(t, db.Create(&models.DiscountCode{
		Code: "PEACH", Percentage: dec("10"), ValidUntil: fixedNow.Add(time.Hour), IssuedToID: &other.ID,
	}).Error)
	service, _ := newTestOrderService(db)

	for _, code := range []string{"EXPIRED", "LATER", "PEACH", "MISSING"} {
		t.Run(code, func(t *testing.T) {
			_, err := service.CreateOrder(context.Background(), customer.ID, CreateOrderInput{
				Lines:        []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 1}},
				DiscountCode: code,
			})
			assert.ErrorIs(t, err, ErrInvalidDiscount)
		})
	}
	assert.Equal(t, 5, reloadPizza(t, db, m.Margherita.ID).Stock)
}

func TestCreateOrderValidation(t *testing.T) {
	db := setupTestDB(t)
	m := seedMenu(t, db, 2)
	customer := createUser(t, db, "mario", models.KindCustomer)
	homeless := createUser(t, db, "wario", models.KindCustomer)
	require.NoError(t, db.Model(homeless).Update("postal_code", "").Error)
	blank := "   "
	service, _ := newTestOrderService(db)

	testCases := []struct {
		name     string
		userID   uint
		input    CreateOrderInput
		expected error
	}{
		{"no pizzas", customer.ID, CreateOrderInput{}, ErrInvalidInput},
		{"zero quantity", customer.ID, CreateOrderInput{Lines: []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 0}}}, ErrInvalidInput},
		{"unknown user", 999, CreateOrderInput{Lines: []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 1}}}, ErrNotFound},
		{"unknown pizza", customer.ID, CreateOrderInput{Lines: []OrderLineInput{{PizzaID: 999, Quantity: 1}}}, ErrNotFound},
		{"unknown extra", customer.ID, CreateOrderInput{Lines: []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 1}}, ExtraIDs: []uint{999}}, ErrNotFound},
		{"too many", customer.ID, CreateOrderInput{Lines: []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 3}}}, ErrInsufficientStock},
		{"merged lines exceed stock", customer.ID, CreateOrderInput{Lines: []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 2}, {PizzaID: m.Margherita.ID, Quantity: 1}}}, ErrInsufficientStock},
		{"blank postal code", customer.ID, CreateOrderInput{Lines: []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 1}}, PostalCode: &blank}, ErrInvalidInput},
		{"no postal code anywhere", homeless.ID, CreateOrderInput{Lines: []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 1}}}, ErrInvalidInput},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateOrder(context.Background(), tt.userID, tt.input)
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	assert.Equal(t, 2, reloadPizza(t, db, m.Margherita.ID).Stock, "failed orders never touch stock")
	assert.Equal(t, int64(0), countRows(t, db, &models.Order{}))
}

func TestCreateOrderCourierFallback(t *testing.T) {
	db := setupTestDB(t)
	m := seedMenu(t, db, 5)
	customer := createUser(t, db, "mario", models.KindCustomer)
	service, _ := newTestOrderService(db)
	order := CreateOrderInput{Lines: []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 1}}}

	t.Run("no delivery persons at all", func(t *testing.T) {
		confirmation, err := service.CreateOrder(context.Background(), customer.ID, order)
		require.NoError(t, err)
		assert.Nil(t, confirmation.DeliveryPersonID)
	})

	t.Run("busy delivery person is picked without status change", func(t *testing.T) {
		courier := createUser(t, db, "toad", models.KindDeliveryPerson)
		setDeliveryStatus(t, db, courier, models.DeliveryOffDuty)

		confirmation, err := service.CreateOrder(context.Background(), customer.ID, order)
		require.NoError(t, err)
		require.NotNil(t, confirmation.DeliveryPersonID)
		assert.Equal(t, courier.ID, *confirmation.DeliveryPersonID)
		assert.Equal(t, models.DeliveryOffDuty, reloadUser(t, db, courier.ID).Delivery.Status)
	})

	t.Run("lowest id available person wins", func(t *testing.T) {
		first := createUser(t, db, "yoshi", models.KindDeliveryPerson)
		createUser(t, db, "daisy", models.KindDeliveryPerson)

		confirmation, err := service.CreateOrder(context.Background(), customer.ID, order)
		require.NoError(t, err)
		require.NotNil(t, confirmation.DeliveryPersonID)
		assert.Equal(t, first.ID, *confirmation.DeliveryPersonID)
	})
}

func TestCreateOrderMintsLoyaltyCode(t *testing.T) {
	db := setupTestDB(t)
	m := seedMenu(t, db, 20)
	customer := createUser(t, db, "mario", models.KindCustomer)
	require.NoError(t, db.Model(customer).Update("customer_loyalty_points", 9).Error)
	service, recorder := newTestOrderService(db)

	confirmation, err := service.CreateOrder(context.Background(), customer.ID, CreateOrderInput{
		Lines: []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	require.Len(t, confirmation.IssuedCodes, 1)
	issued := confirmation.IssuedCodes[0]
	assert.True(t, dec("10").Equal(issued.Percentage))
	assert.Equal(t, fixedNow.Add(30*24*time.Hour), issued.ValidUntil)
	assert.Equal(t, 2, reloadUser(t, db, customer.ID).Customer.LoyaltyPoints)
	assert.Contains(t, recorder.Types(), events.DiscountIssued)
}

func TestCreateOrderByStaffEarnsNoPoints(t *testing.T) {
	db := setupTestDB(t)
	m := seedMenu(t, db, 5)
	employee := createUser(t, db, "bowser", models.KindEmployee)
	service, _ := newTestOrderService(db)

	confirmation, err := service.CreateOrder(context.Background(), employee.ID, CreateOrderInput{
		Lines: []OrderLineInput{{PizzaID: m.Margherita.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	assert.Empty(t, confirmation.IssuedCodes)
	assert.Equal(t, 0, reloadUser(t, db, employee.ID).Customer.LoyaltyPoints)
}

func placeOrder(t *testing.T, service *orderService, db *gorm.DB, userID uint) *OrderConfirmation {
	var pizza models.Pizza
	require.NoError(t, db.First(&pizza).Error)
	confirmation, err := service.CreateOrder(context.Background(), userID, CreateOrderInput{
		Lines: []OrderLineInput{{PizzaID: pizza.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	return confirmation
}

func statusPtr(status models.OrderStatus) *models.OrderStatus {
	return &status
}

func TestUpdateOrderStatusMachine(t *testing.T) {
	db := setupTestDB(t)
	seedMenu(t, db, 10)
	customer := createUser(t, db, "mario", models.KindCustomer)
	service, recorder := newTestOrderService(db)
	ctx := context.Background()

	order := placeOrder(t, service, db, customer.ID)

	_, err := service.UpdateOrder(ctx, order.ID, UpdateOrderInput{Status: statusPtr(models.OrderDelivered)})
	assert.ErrorIs(t, err, ErrStateConflict, "Pending cannot jump to Delivered")

	updated, err := service.UpdateOrder(ctx, order.ID, UpdateOrderInput{Status: statusPtr(models.OrderInProgress)})
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, updated.Status)
	assert.Nil(t, updated.DeliveredAt)

	updated, err = service.UpdateOrder(ctx, order.ID, UpdateOrderInput{Status: statusPtr(models.OrderDelivered)})
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, updated.Status)
	require.NotNil(t, updated.DeliveredAt)
	assert.True(t, fixedNow.Equal(*updated.DeliveredAt))

	for _, next := range []models.OrderStatus{models.OrderPending, models.OrderInProgress, models.OrderCancelled} {
		_, err = service.UpdateOrder(ctx, order.ID, UpdateOrderInput{Status: statusPtr(next)})
		assert.ErrorIs(t, err, ErrStateConflict, "Delivered -> %s", next)
	}

	assert.Equal(t, []events.Type{events.OrderCreated, events.OrderStatusChanged, events.OrderStatusChanged}, recorder.Types())
}

func TestUpdateOrderFields(t *testing.T) {
	db := setupTestDB(t)
	seedMenu(t, db, 10)
	customer := createUser(t, db, "mario", models.KindCustomer)
	service, _ := newTestOrderService(db)
	ctx := context.Background()
	order := placeOrder(t, service, db, customer.ID)
	courier := createUser(t, db, "luigi", models.KindDeliveryPerson)

	postal := "3011XY"
	updated, err := service.UpdateOrder(ctx, order.ID, UpdateOrderInput{
		DeliveryPersonID: &courier.ID,
		PostalCode:       &postal,
	})
	require.NoError(t, err)
	assert.Equal(t, "3011XY", updated.PostalCode)
	require.NotNil(t, updated.DeliveryPersonID)
	assert.Equal(t, courier.ID, *updated.DeliveryPersonID)

	_, err = service.UpdateOrder(ctx, order.ID, UpdateOrderInput{DeliveryPersonID: &customer.ID})
	assert.ErrorIs(t, err, ErrNotFound, "a customer is not a delivery person")

	_, err = service.UpdateOrder(ctx, 999, UpdateOrderInput{PostalCode: &postal})
	assert.ErrorIs(t, err, ErrNotFound)

	explicit := fixedNow.Add(-time.Hour)
	_, err = service.UpdateOrder(ctx, order.ID, UpdateOrderInput{Status: statusPtr(models.OrderInProgress)})
	require.NoError(t, err)
	updated, err = service.UpdateOrder(ctx, order.ID, UpdateOrderInput{Status: statusPtr(models.OrderDelivered), DeliveredAt: &explicit})
	require.NoError(t, err)
	assert.True(t, explicit.Equal(*updated.DeliveredAt), "an explicit delivered_at wins")
}

func TestAssignDeliveryPerson(t *testing.T) {
	db := setupTestDB(t)
	seedMenu(t, db, 10)
	customer := createUser(t, db, "mario", models.KindCustomer)
	service, _ := newTestOrderService(db)
	ctx := context.Background()

	order := placeOrder(t, service, db, customer.ID)
	require.Nil(t, order.DeliveryPersonID)

	_, err := service.AssignDeliveryPerson(ctx, order.ID)
	assert.ErrorIs(t, err, ErrStateConflict, "order is still Pending")

	_, err = service.UpdateOrder(ctx, order.ID, UpdateOrderInput{Status: statusPtr(models.OrderInProgress)})
	require.NoError(t, err)

	courier, err := service.AssignDeliveryPerson(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, courier, "nobody is available")

	second := createUser(t, db, "daisy", models.KindDeliveryPerson)
	first := createUser(t, db, "luigi", models.KindDeliveryPerson)
	setDeliveryStatus(t, db, second, models.DeliveryOffDuty)

	courier, err = service.AssignDeliveryPerson(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, courier)
	assert.Equal(t, first.ID, courier.ID)
	assert.Equal(t, models.DeliveryOnDelivery, reloadUser(t, db, first.ID).Delivery.Status)

	_, err = service.AssignDeliveryPerson(ctx, order.ID)
	assert.ErrorIs(t, err, ErrStateConflict, "already assigned")

	_, err = service.AssignDeliveryPerson(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeliveredOrderKeepsCourierBusy(t *testing.T) {
	db := setupTestDB(t)
	seedMenu(t, db, 10)
	customer := createUser(t, db, "mario", models.KindCustomer)
	courier := createUser(t, db, "luigi", models.KindDeliveryPerson)
	service, _ := newTestOrderService(db)
	ctx := context.Background()

	order := placeOrder(t, service, db, customer.ID)
	_, err := service.UpdateOrder(ctx, order.ID, UpdateOrderInput{Status: statusPtr(models.OrderInProgress)})
	require.NoError(t, err)
	_, err = service.UpdateOrder(ctx, order.ID, UpdateOrderInput{Status: statusPtr(models.OrderDelivered)})
	require.NoError(t, err)

	assert.Equal(t, models.DeliveryOnDelivery, reloadUser(t, db, courier.ID).Delivery.Status)
}

func TestGetOrderVisibility(t *testing.T) {
	db := setupTestDB(t)
	seedMenu(t, db, 10)
	owner := createUser(t, db, "mario", models.KindCustomer)
	stranger := createUser(t, db, "peach", models.KindCustomer)
	employee := createUser(t, db, "bowser", models.KindEmployee)
	service, _ := newTestOrderService(db)
	order := placeOrder(t, service, db, owner.ID)

	_, err := service.GetOrder(order.ID, owner)
	assert.NoError(t, err)
	_, err = service.GetOrder(order.ID, employee)
	assert.NoError(t, err)
	_, err = service.GetOrder(order.ID, stranger)
	assert.ErrorIs(t, err, ErrNotFound)

	orders, err := service.ListOrdersForUser(owner.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, dec("2.29").Equal(orders[0].Pricing.Total))
}

func TestOrderTotalFollowsCurrentLines(t *testing.T) {
	db := setupTestDB(t)
	m := seedMenu(t, db, 10)
	customer := createUser(t, db, "mario", models.KindCustomer)
	service, _ := newTestOrderService(db)
	order := placeOrder(t, service, db, customer.ID)

	require.NoError(t, db.Model(&models.OrderPizzaLine{}).
		Where("order_id = ? AND pizza_id = ?", order.ID, m.Margherita.ID).
		Update("quantity", 3).Error)

	details, err := service.GetOrder(order.ID, nil)
	require.NoError(t, err)
	assert.True(t, dec("6.87").Equal(details.Pricing.Total), "total %s", details.Pricing.Total)
}
