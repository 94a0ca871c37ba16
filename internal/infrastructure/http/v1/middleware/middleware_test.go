package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
	"foodchain/internal/domain/auth"
	"foodchain/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func newEngine(v JWTValidator, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), Trace(), Logger(logger.Default()), ErrorHandler())
	handlers := append([]gin.HandlerFunc{Auth(v)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"userId": user.UserID.String(), "role": user.Role})
	})
	r.GET("/me", handlers...)
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("srn", "x"))
	})
	return r
}

func do(t *testing.T, r http.Handler, path, token string) (*httptest.ResponseRecorder, errorBody) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body errorBody
	if w.Code >= 400 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestAuth_MissingHeader(t *testing.T) {
	jwt := auth.NewJWTService(auth.DefaultJWTConfig("secret"))
	w, body := do(t, newEngine(jwt), "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, body.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	jwt := auth.NewJWTService(auth.DefaultJWTConfig("secret"))
	other := auth.NewJWTService(auth.DefaultJWTConfig("other"))
	token, _, err := other.GenerateAccessToken(id.New(), "r@example.com", appctx.RoleRetailer)
	require.NoError(t, err)

	w, body := do(t, newEngine(jwt), "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, body.Code)
}

func TestAuth_PopulatesPrincipal(t *testing.T) {
	jwt := auth.NewJWTService(auth.DefaultJWTConfig("secret"))
	userID := id.New()
	token, _, err := jwt.GenerateAccessToken(userID, "m@example.com", appctx.RoleManufacturer)
	require.NoError(t, err)

	w, _ := do(t, newEngine(jwt), "/me", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":"`+userID.String()+`","role":"MANUFACTURER"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestRequireRole(t *testing.T) {
	jwt := auth.NewJWTService(auth.DefaultJWTConfig("secret"))
	r := newEngine(jwt, RequireRole(appctx.RoleAdmin))

	retailer, _, err := jwt.GenerateAccessToken(id.New(), "", appctx.RoleRetailer)
	require.NoError(t, err)
	w, body := do(t, r, "/me", retailer)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperror.CodeForbidden, body.Code)

	admin, _, err := jwt.GenerateAccessToken(id.New(), "", appctx.RoleAdmin)
	require.NoError(t, err)
	w, _ = do(t, r, "/me", admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestErrorHandler_RendersAppError(t *testing.T) {
	jwt := auth.NewJWTService(auth.DefaultJWTConfig("secret"))
	w, body := do(t, newEngine(jwt), "/fail", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, body.Code)
}

func TestRecovery_HidesPanic(t *testing.T) {
	jwt := auth.NewJWTService(auth.DefaultJWTConfig("secret"))
	w, body := do(t, newEngine(jwt), "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body.Code)
	assert.NotContains(t, w.Body.String(), "kaboom")
	assert.NotEmpty(t, body.Details["request_id"])
}
