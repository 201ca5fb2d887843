package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/auth"
	"github.com/franciscosanchezn/pizza-order-api/internal/middleware"
	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/franciscosanchezn/pizza-order-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// UserResponse is the public view of an account. Profile fields appear only
// for the kinds they belong to.
type UserResponse struct {
	ID             uint                  `json:"id"`
	Username       string                `json:"username"`
	Email          string                `json:"email"`
	Kind           models.UserKind       `json:"user_type"`
	Birthdate      string                `json:"birthdate,omitempty"`
	Address        string                `json:"address,omitempty"`
	PostalCode     string                `json:"postal_code,omitempty"`
	Phone          string                `json:"phone,omitempty"`
	Gender         string                `json:"gender,omitempty"`
	LoyaltyPoints  *int                  `json:"loyalty_points,omitempty"`
	BirthdayOrder  *bool                 `json:"birthday_order,omitempty"`
	Position       string                `json:"position,omitempty"`
	DeliveryStatus models.DeliveryStatus `json:"delivery_status,omitempty"`
}

func NewUserResponse(user *models.User) UserResponse {
	response := UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Kind:       user.Kind,
		Address:    user.Address,
		PostalCode: user.PostalCode,
		Phone:      user.Phone,
		Gender:     user.Gender,
	}
	if user.Birthdate != nil {
		response.Birthdate = user.Birthdate.Format(time.DateOnly)
	}
	if user.IsCustomer() {
		points, birthday := user.Customer.LoyaltyPoints, user.Customer.BirthdayOrder
		response.LoyaltyPoints = &points
		response.BirthdayOrder = &birthday
	}
	if user.IsEmployee() {
		response.Position = user.Employee.Position
	}
	if user.IsDeliveryPerson() {
		response.DeliveryStatus = user.Delivery.Status
	}
	return response
}

// SignupRequest describes a new account. Public signup only accepts the
// customer kind.
type SignupRequest struct {
	Username        string          `json:"username" binding:"required"`
	Email           string          `json:"email" binding:"required"`
	Password        string          `json:"password" binding:"required"`
	ConfirmPassword string          `json:"confirm_password" binding:"required"`
	UserType        string          `json:"user_type" example:"customer"`
	Birthdate       string          `json:"birthdate" example:"1990-05-14"`
	Address         string          `json:"address"`
	PostalCode      string          `json:"postal_code" example:"1011AB"`
	Phone           string          `json:"phone" example:"+31612345678"`
	Gender          string          `json:"gender"`
	Position        string          `json:"position"`
	Salary          decimal.Decimal `json:"salary" swaggertype:"number"`
}

type LoginRequest struct {
	Login    string `json:"username_or_email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

type AuthController struct {
	userService     services.UserService
	pizzaService    services.PizzaService
	discountService services.DiscountService
	deliveryService services.DeliveryService
	issuer          *auth.TokenIssuer
}

func NewAuthController(
	userService services.UserService,
	pizzaService services.PizzaService,
	discountService services.DiscountService,
	deliveryService services.DeliveryService,
	issuer *auth.TokenIssuer,
) *AuthController {
	return &AuthController{
		userService:     userService,
		pizzaService:    pizzaService,
		discountService: discountService,
		deliveryService: deliveryService,
		issuer:          issuer,
	}
}

// newUserInput converts a signup body into service input
func newUserInput(req SignupRequest) (services.NewUser, error) {
	input := services.NewUser{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Kind:            models.UserKind(req.UserType),
		Address:         req.Address,
		PostalCode:      req.PostalCode,
		Phone:           req.Phone,
		Gender:          req.Gender,
		Position:        req.Position,
		Salary:          req.Salary,
	}
	if birthdate := strings.TrimSpace(req.Birthdate); birthdate != "" {
		parsed, err := time.Parse(time.DateOnly, birthdate)
		if err != nil {
			return input, errors.New("birthdate must be formatted as YYYY-MM-DD")
		}
		input.Birthdate = &parsed
	}
	return input, nil
}

// Signup godoc
// @Summary Create a customer account
// @Description Register a customer. Staff accounts are created by employees through /protected/staff/users.
// @Tags auth
// @Accept json
// @Produce json
// @Param user body SignupRequest true "Account details"
// @Success 201 {object} UserResponse
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Router /api/v1/auth/signup [post]
func (ac *AuthController) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if kind := strings.TrimSpace(req.UserType); kind != "" && kind != string(models.KindCustomer) {
		c.AbortWithStatusJSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden, "only customer accounts can sign up"))
		return
	}
	req.UserType = string(models.KindCustomer)
	ac.createUser(c, req)
}

// CreateUser godoc
// @Summary Create an account of any kind
// @Description Register a customer, employee or delivery person. Staff accounts need a position.
// @Tags staff
// @Accept json
// @Produce json
// @Param user body SignupRequest true "Account details"
// @Success 201 {object} UserResponse
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/staff/users [post]
func (ac *AuthController) CreateUser(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ac.createUser(c, req)
}

func (ac *AuthController) createUser(c *gin.Context, req SignupRequest) {
	input, err := newUserInput(req)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := ac.userService.CreateUser(input)
	if err != nil {
		respondError(c, err)
		return
	}
	createdBy, _ := middleware.CurrentUserID(c)
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "kind": user.Kind, "created_by": createdBy}).Info("User created")
	c.JSON(http.StatusCreated, NewUserResponse(user))
}

// Login godoc
// @Summary Log in
// @Description Exchange a username or email and password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Router /api/v1/auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := ac.userService.Authenticate(req.Login, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	ac.respondWithToken(c, user)
}

// Refresh godoc
// @Summary Refresh the bearer token
// @Description Issue a fresh token for the authenticated user
// @Tags auth
// @Produce json
// @Success 200 {object} TokenResponse
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/auth/refresh [post]
func (ac *AuthController) Refresh(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := ac.userService.GetUserByID(caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	ac.respondWithToken(c, user)
}

func (ac *AuthController) respondWithToken(c *gin.Context, user *models.User) {
	token, expiresAt, err := ac.issuer.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
		User:        NewUserResponse(user),
	})
}

// Me godoc
// @Summary Current user
// @Description Return the profile of the authenticated user
// @Tags auth
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/me [get]
func (ac *AuthController) Me(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := ac.userService.GetUserByID(caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewUserResponse(user))
}

// Dashboard godoc
// @Summary Kind-specific dashboard
// @Description Customers see loyalty status, their codes and the in-stock menu. Employees see the customer list. Delivery persons see their assigned orders.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/dashboard [get]
func (ac *AuthController) Dashboard(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := ac.userService.GetUserByID(caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"user": NewUserResponse(user)}
	switch {
	case user.IsCustomer():
		pizzas, err := ac.pizzaService.GetAllPizzas(services.PizzaFilter{InStockOnly: true})
		if err != nil {
			respondError(c, err)
			return
		}
		codes, err := ac.discountService.ListCodesForUser(user.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		body["loyalty_points"] = user.Customer.LoyaltyPoints
		body["birthday_order"] = user.Customer.BirthdayOrder
		body["discount_codes"] = codes
		body["pizzas"] = pizzas
	case user.IsDeliveryPerson():
		orders, err := ac.deliveryService.AssignedOrders(user.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		body["delivery_status"] = user.Delivery.Status
		body["assigned_orders"] = orders
	default:
		customers, err := ac.userService.ListCustomers()
		if err != nil {
			respondError(c, err)
			return
		}
		views := make([]UserResponse, 0, len(customers))
		for i := range customers {
			views = append(views, NewUserResponse(&customers[i]))
		}
		body["customers"] = views
	}
	c.JSON(http.StatusOK, body)
}
