package auth

import (
	"context"
	"testing"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/database"
	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	oauthmodels "github.com/go-oauth2/oauth2/v4/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-jwt-secret-key-32-characters"

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	return db
}

func createStaffUser(t *testing.T, db *gorm.DB) *models.User {
	user := &models.User{
		Username:     "cron",
		Email:        "cron@pizza.com",
		Kind:         models.KindEmployee,
		PasswordHash: "x",
		Salt:         "y",
		Employee:     models.EmployeeProfile{Position: "Service account"},
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createClient(t *testing.T, db *gorm.DB, id, secret string, userID uint) {
	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	client := &models.OAuthClient{
		ID:         id,
		Secret:     string(hashedSecret),
		Domain:     "http://localhost",
		Scopes:     "read write",
		UserID:     userID,
		GrantTypes: "client_credentials",
	}
	require.NoError(t, db.Create(client).Error)
}

func TestOAuthServerInitialization(t *testing.T) {
	db := setupTestDB(t)

	oauthService := NewOAuthService(db, testSecret)
	assert.NotNil(t, oauthService)
	assert.NotNil(t, oauthService.GetServer())
}

func TestJWTTokenGeneration(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testSecret)
	user := createStaffUser(t, db)
	createClient(t, db, "test_client", "test_secret", user.ID)

	tokenInfo, err := oauthService.GetServer().Manager.GenerateAccessToken(context.Background(), oauth2.ClientCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     "test_client",
		ClientSecret: "test_secret",
		Scope:        "read write",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokenInfo.GetAccess())

	// The access token carries the same identity claims as a login token
	parsed, err := jwt.Parse(tokenInfo.GetAccess(), func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "1", claims[ClaimUserID])
	assert.Equal(t, string(models.KindEmployee), claims[ClaimKind])
	assert.Equal(t, "cron", claims["sub"])
	assert.Equal(t, "test_client", claims["aud"])

	// and it is persisted by the token store
	var stored models.OAuthToken
	require.NoError(t, db.Where("client_id = ?", "test_client").First(&stored).Error)
	assert.Equal(t, tokenInfo.GetAccess(), stored.AccessToken)
	assert.Nil(t, stored.RefreshToken)
}

func TestJWTTokenGenerationRequiresOwner(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testSecret)
	createClient(t, db, "orphan", "secret", 0)

	_, err := oauthService.GetServer().Manager.GenerateAccessToken(context.Background(), oauth2.ClientCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     "orphan",
		ClientSecret: "secret",
	})

	assert.Error(t, err)
}

func TestClientStoreIntegration(t *testing.T) {
	db := setupTestDB(t)
	createClient(t, db, "integration_test_client", "integration_test_secret", 0)

	clientStore := NewGormClientStore(db)
	retrievedClient, err := clientStore.GetByID(context.Background(), "integration_test_client")
	require.NoError(t, err)
	assert.Equal(t, "integration_test_client", retrievedClient.GetID())

	verifier, ok := retrievedClient.(oauth2.ClientPasswordVerifier)
	require.True(t, ok)
	assert.True(t, verifier.VerifyPassword("integration_test_secret"))
	assert.False(t, verifier.VerifyPassword("wrong"))
}

func TestTokenStore(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormTokenStore(db)
	ctx := context.Background()
	now := time.Now()

	info := &oauthmodels.Token{
		ClientID:        "svc",
		UserID:          "4",
		Access:          "access-1",
		AccessCreateAt:  now,
		AccessExpiresIn: time.Hour,
		Scope:           "read",
	}
	require.NoError(t, store.Create(ctx, info))

	found, err := store.GetByAccess(ctx, "access-1")
	require.NoError(t, err)
	assert.Equal(t, "4", found.GetUserID())
	assert.Equal(t, "", found.GetRefresh())

	_, err = store.GetByCode(ctx, "anything")
	assert.ErrorIs(t, err, ErrCodeGrantUnsupported)
	assert.ErrorIs(t, store.Create(ctx, &oauthmodels.Token{Code: "abc"}), ErrCodeGrantUnsupported)

	purged, err := store.PurgeExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	require.NoError(t, store.RemoveByAccess(ctx, "access-1"))
	_, err = store.GetByAccess(ctx, "access-1")
	assert.Error(t, err)
}
