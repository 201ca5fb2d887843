package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/auth"
	"github.com/franciscosanchezn/pizza-order-api/internal/database"
	"github.com/franciscosanchezn/pizza-order-api/internal/events/eventstest"
	"github.com/franciscosanchezn/pizza-order-api/internal/middleware"
	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/franciscosanchezn/pizza-order-api/internal/pricing"
	"github.com/franciscosanchezn/pizza-order-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "controller-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	recorder *eventstest.Recorder
	issuer   *auth.TokenIssuer

	authController     *AuthController
	discountController *DiscountController

	customer   *models.User
	employee   *models.User
	courier    *models.User
	margherita models.Pizza
	cola       models.Extra
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// asCaller stands in for Authenticate: the caller comes from test headers
func asCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("X-Test-User"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err == nil {
				c.Set(middleware.ContextUserID, uint(id))
				c.Set(middleware.ContextUserKind, models.UserKind(c.GetHeader("X-Test-Kind")))
			}
		}
		c.Next()
	}
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	env := &testEnv{
		db:       db,
		recorder: &eventstest.Recorder{},
		issuer:   auth.NewTokenIssuer(testSecret, time.Hour),
	}
	env.seed(t)

	hasher := auth.NewPasswordHasher("test-pepper").WithCost(bcrypt.MinCost)
	userService := services.NewUserService(db, hasher)
	pizzaService := services.NewPizzaService(db, pricing.DefaultDietaryPolicy)
	discountService := services.NewDiscountService(db, env.recorder)
	deliveryService := services.NewDeliveryService(db)

	authController := NewAuthController(userService, pizzaService, discountService, deliveryService, env.issuer)
	pizzaController := NewPizzaController(pizzaService)
	menuController := NewMenuController(services.NewMenuService(db))
	orderController := NewOrderController(services.NewOrderService(db, env.recorder))
	discountController := NewDiscountController(discountService)
	deliveryController := NewDeliveryController(deliveryService)
	reportController := NewReportController(services.NewReportService(db))
	clientController := NewClientController(services.NewClientService(db))

	router := gin.New()
	router.Use(asCaller())

	router.POST("/auth/signup", authController.Signup)
	router.POST("/users", authController.CreateUser)
	router.POST("/auth/login", authController.Login)
	router.POST("/auth/refresh", authController.Refresh)
	router.GET("/me", authController.Me)
	router.GET("/dashboard", authController.Dashboard)

	router.GET("/pizzas", pizzaController.GetAllPizzas)
	router.GET("/pizzas/page", pizzaController.GetPizzasPage)
	router.GET("/pizzas/:id", pizzaController.GetPizzaByID)
	router.GET("/pizzas/:id/price", pizzaController.GetPizzaPrice)
	router.GET("/pizzas/:id/ingredients", pizzaController.GetPizzaIngredients)
	router.POST("/pizzas", pizzaController.CreatePizza)
	router.PUT("/pizzas/:id", pizzaController.UpdatePizza)
	router.POST("/pizzas/:id/restock", pizzaController.RestockPizza)
	router.DELETE("/pizzas/:id", pizzaController.DeletePizza)

	router.GET("/ingredients", menuController.ListIngredients)
	router.POST("/ingredients", menuController.CreateIngredient)
	router.PUT("/ingredients/:id", menuController.UpdateIngredient)
	router.GET("/extras", menuController.ListExtras)
	router.POST("/extras", menuController.CreateExtra)
	router.PUT("/extras/:id", menuController.UpdateExtra)

	router.POST("/orders", orderController.CreateOrder)
	router.GET("/orders", orderController.ListOrders)
	router.GET("/orders/:id", orderController.GetOrder)
	router.PATCH("/orders/:id", orderController.UpdateOrder)
	router.POST("/orders/:id/assign", orderController.AssignDeliveryPerson)

	router.GET("/discounts/:code", discountController.GetCode)
	router.POST("/discounts", discountController.CreateCode)
	router.POST("/discounts/birthday-sweep", discountController.BirthdaySweep)
	router.POST("/customers/:id/loyalty", discountController.AddLoyaltyPoints)

	router.GET("/delivery/available", deliveryController.ListAvailable)
	router.GET("/delivery/random", deliveryController.Random)
	router.PUT("/delivery/status", deliveryController.SetStatus)
	router.GET("/delivery/orders", deliveryController.AssignedOrders)

	router.GET("/reports/gender", reportController.EarningsByGender)
	router.GET("/reports/age-group", reportController.EarningsByAgeGroup)
	router.GET("/reports/postal-code", reportController.EarningsByPostalCode)
	router.GET("/reports/top-pizzas", reportController.TopPizzas)
	router.GET("/reports/undelivered", reportController.UndeliveredOrders)

	router.POST("/clients", clientController.CreateClient)
	router.GET("/clients", clientController.ListClients)
	router.DELETE("/clients/:id", clientController.DeleteClient)

	env.router = router
	env.authController = authController
	env.discountController = discountController
	return env
}

// seed creates one user of each kind and a 2.29 margherita with 10 in stock
func (env *testEnv) seed(t *testing.T) {
	sauce := models.Ingredient{Name: "Tomato Sauce", Price: dec("0.50"), Type: models.DietaryVegan}
	mozzarella := models.Ingredient{Name: "Mozzarella", Price: dec("1.00"), Type: models.DietaryVegetarian}
	require.NoError(t, env.db.Create(&sauce).Error)
	require.NoError(t, env.db.Create(&mozzarella).Error)

	env.margherita = models.Pizza{Name: "Margherita", Stock: 10, Ingredients: []models.Ingredient{sauce, mozzarella}}
	require.NoError(t, env.db.Create(&env.margherita).Error)
	env.cola = models.Extra{Name: "Cola", Price: dec("1.50"), Type: models.ExtraDrink}
	require.NoError(t, env.db.Create(&env.cola).Error)

	birthdate := time.Date(1990, 3, 1, 0, 0, 0, 0, time.UTC)
	env.customer = env.createUser(t, "mario", models.KindCustomer, &birthdate)
	env.employee = env.createUser(t, "luigi", models.KindEmployee, nil)
	env.courier = env.createUser(t, "toad", models.KindDeliveryPerson, nil)
}

func (env *testEnv) createUser(t *testing.T, username string, kind models.UserKind, birthdate *time.Time) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@pizza.com",
		Kind:         kind,
		Birthdate:    birthdate,
		Gender:       "male",
		PostalCode:   "1011AB",
		PasswordHash: "hash",
		Salt:         "salt",
	}
	if kind.IsStaff() {
		user.Employee = models.EmployeeProfile{Position: "Staff", Salary: dec("2500")}
	}
	if kind == models.KindDeliveryPerson {
		user.Delivery = models.DeliveryProfile{Status: models.DeliveryAvailable}
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

// do sends a JSON request as caller; a nil caller is anonymous
func (env *testEnv) do(t *testing.T, method, path string, body any, caller *models.User) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(caller.ID), 10))
		req.Header.Set("X-Test-Kind", string(caller.Kind))
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// doOn sends a JSON request to router with an optional bearer token
func (env *testEnv) doOn(t *testing.T, router *gin.Engine, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func countUsers(t *testing.T, env *testEnv, username string) int64 {
	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error)
	return count
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var value T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &value), w.Body.String())
	return value
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	return decode[models.APIError](t, w).Code
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
