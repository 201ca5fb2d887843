package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenRouter(o *OAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/oauth/token", o.HandleToken)
	return router
}

func postToken(router *gin.Engine, form string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestClientCredentialsFlow(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testSecret)
	user := createStaffUser(t, db)
	createClient(t, db, "test_client_id", "test_secret", user.ID)

	w := postToken(tokenRouter(oauthService), "grant_type=client_credentials&client_id=test_client_id&client_secret=test_secret")

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Bearer", response["token_type"])
	assert.Equal(t, float64(AccessTokenTTL.Seconds()), response["expires_in"])
	assert.Contains(t, response["access_token"], ".")
}

func TestClientCredentialsErrors(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testSecret)
	user := createStaffUser(t, db)
	createClient(t, db, "test_client_id", "correct_secret", user.ID)
	router := tokenRouter(oauthService)

	testCases := []struct {
		name     string
		form     string
		expected int
		code     string
	}{
		{"wrong secret", "grant_type=client_credentials&client_id=test_client_id&client_secret=wrong", http.StatusUnauthorized, "invalid_client"},
		{"unknown client", "grant_type=client_credentials&client_id=nobody&client_secret=x", http.StatusUnauthorized, "invalid_client"},
		{"missing secret", "grant_type=client_credentials&client_id=test_client_id", http.StatusBadRequest, "invalid_request"},
		{"authorization code grant", "grant_type=authorization_code&code=abc", http.StatusBadRequest, "unsupported_grant_type"},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			w := postToken(router, tt.form)

			assert.Equal(t, tt.expected, w.Code)
			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.code, response["error"])
		})
	}
}
