//go:build integration

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/javajoker/shop-backend/internal/config"
	"github.com/javajoker/shop-backend/internal/database"
	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/middleware"
	"github.com/javajoker/shop-backend/internal/services"
	"github.com/javajoker/shop-backend/internal/utils"
)

type AuthTestSuite struct {
	suite.Suite
	container   testcontainers.Container
	db          *gorm.DB
	router      *gin.Engine
	authHandler *AuthHandler
}

func (suite *AuthTestSuite) SetupSuite() {
	ctx := context.Background()
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize())

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:14-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	suite.Require().NoError(err)
	suite.container = container

	host, err := container.Host(ctx)
	suite.Require().NoError(err)
	port, err := container.MappedPort(ctx, "5432")
	suite.Require().NoError(err)

	suite.db, err = database.Initialize(config.DatabaseConfig{
		Host: host, Port: port.Port(), User: "testuser", Password: "testpass", Database: "testdb",
		SSLMode: "disable", MaxOpenConns: 5, MaxIdleConns: 2, MaxLifetime: 60, LogLevel: "silent",
	})
	suite.Require().NoError(err)
	suite.Require().NoError(database.RunMigrations(suite.db))

	// Initialize test services and handlers
	tokens := utils.NewTokenManager("test-secret", 1)
	notifier := services.NewNotificationService(services.LogMailer{}, "http://localhost:3000")
	authService := services.NewAuthService(suite.db, tokens, nil, notifier)
	userService := services.NewUserService(suite.db, nil)
	suite.authHandler = NewAuthHandler(authService, config.CookieConfig{Name: "token", ExpireDays: 5})
	userHandler := NewUserHandler(userService)

	// Setup routes
	suite.router = gin.New()
	suite.router.Use(middleware.I18nMiddleware())
	suite.router.POST("/register", suite.authHandler.Register)
	suite.router.POST("/login", suite.authHandler.Login)
	suite.router.GET("/logout", suite.authHandler.Logout)
	suite.router.GET("/me", middleware.AuthRequired(tokens, userService, "token"), userHandler.GetProfile)
}

func (suite *AuthTestSuite) TearDownSuite() {
	database.Close(suite.db)
	_ = suite.container.Terminate(context.Background())
}

func (suite *AuthTestSuite) post(path string, body map[string]interface{}) *httptest.ResponseRecorder {
	jsonData, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AuthTestSuite) TestUserRegistration() {
	w := suite.post("/register", map[string]interface{}{
		"name":     "Test User",
		"email":    "register@example.com",
		"password": "TestPass123!",
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), response["success"].(bool))
	assert.NotEmpty(suite.T(), response["token"])

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	suite.Require().NotNil(cookie)
	assert.True(suite.T(), cookie.HttpOnly)

	// the cookie alone authenticates
	req, _ := http.NewRequest("GET", "/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	suite.router.ServeHTTP(me, req)
	assert.Equal(suite.T(), http.StatusOK, me.Code)
	assert.Contains(suite.T(), me.Body.String(), "register@example.com")

	// same email again
	w = suite.post("/register", map[string]interface{}{
		"name":     "Test User",
		"email":    "register@example.com",
		"password": "TestPass123!",
	})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

func (suite *AuthTestSuite) TestUserLogin() {
	// First register a user
	suite.Require().Equal(http.StatusCreated, suite.post("/register", map[string]interface{}{
		"name":     "Login User",
		"email":    "login@example.com",
		"password": "TestPass123!",
	}).Code)

	w := suite.post("/login", map[string]interface{}{
		"email":    "login@example.com",
		"password": "TestPass123!",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), response["success"].(bool))

	w = suite.post("/login", map[string]interface{}{"email": "login@example.com", "password": "wrong-pass"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w = suite.post("/login", map[string]interface{}{"email": "login@example.com"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *AuthTestSuite) TestLogoutClearsCookie() {
	req, _ := http.NewRequest("GET", "/logout", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	suite.Require().Len(cookies, 1)
	assert.Equal(suite.T(), "token", cookies[0].Name)
	assert.True(suite.T(), cookies[0].MaxAge < 0)
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}
