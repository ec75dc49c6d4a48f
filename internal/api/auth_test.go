package api

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/foodpost/internal/models"
	"github.com/illegalcall/foodpost/internal/pkg/supabase"
)

// MockAuth implements Authenticator for testing
type MockAuth struct {
	mock.Mock
}

func (m *MockAuth) SignIn(email, password string) (*supabase.User, error) {
	args := m.Called(email, password)
	user, _ := args.Get(0).(*supabase.User)
	return user, args.Error(1)
}

func (m *MockAuth) SignUp(email, password string) (*supabase.User, error) {
	args := m.Called(email, password)
	user, _ := args.Get(0).(*supabase.User)
	return user, args.Error(1)
}

func (m *MockAuth) Recover(email string) error {
	return m.Called(email).Error(0)
}

func TestHandleLogin(t *testing.T) {
	tests := []struct {
		name           string
		reqBody        models.LoginRequest
		setupMocks     func(*MockAuth)
		expectedStatus int
		checkResponse  func(*testing.T, *testEnv, *http.Response)
	}{
		{
			name:    "successful login",
			reqBody: models.LoginRequest{Email: "owner@padaria.com", Password: "correct-horse"},
			setupMocks: func(m *MockAuth) {
				m.On("SignIn", "owner@padaria.com", "correct-horse").
					Return(&supabase.User{ID: ownerID, Email: "owner@padaria.com"}, nil)
			},
			expectedStatus: fiber.StatusOK,
			checkResponse: func(t *testing.T, env *testEnv, resp *http.Response) {
				result := decode(t, resp)
				assert.Equal(t, "Bearer", result["type"])
				assert.Equal(t, ownerID, result["user_id"])

				// Verify token validity
				token, err := jwt.Parse(result["token"].(string), func(token *jwt.Token) (interface{}, error) {
					return []byte(testSecret), nil
				})
				require.NoError(t, err)
				assert.True(t, token.Valid)

				// Verify claims
				claims := token.Claims.(jwt.MapClaims)
				assert.Equal(t, ownerID, claims["sub"])
				assert.Equal(t, "owner@padaria.com", claims["email"])
				exp := int64(claims["exp"].(float64))
				assert.Greater(t, exp, time.Now().Unix())

				var cookie *http.Cookie
				for _, c := range resp.Cookies() {
					if c.Name == "session" {
						cookie = c
					}
				}
				require.NotNil(t, cookie)
				assert.Equal(t, result["token"], cookie.Value)
				assert.True(t, cookie.HttpOnly)
			},
		},
		{
			name:    "invalid credentials",
			reqBody: models.LoginRequest{Email: "owner@padaria.com", Password: "wrong"},
			setupMocks: func(m *MockAuth) {
				m.On("SignIn", "owner@padaria.com", "wrong").Return(nil, supabase.ErrInvalidCredentials)
			},
			expectedStatus: fiber.StatusUnauthorized,
			checkResponse: func(t *testing.T, env *testEnv, resp *http.Response) {
				assert.Equal(t, "Invalid credentials", decode(t, resp)["error"])
			},
		},
		{
			name:    "auth service down",
			reqBody: models.LoginRequest{Email: "owner@padaria.com", Password: "correct-horse"},
			setupMocks: func(m *MockAuth) {
				m.On("SignIn", "owner@padaria.com", "correct-horse").Return(nil, errors.New("connection refused"))
			},
			expectedStatus: fiber.StatusInternalServerError,
			checkResponse: func(t *testing.T, env *testEnv, resp *http.Response) {
				assert.Contains(t, decode(t, resp)["error"], "connection refused")
			},
		},
		{
			name:           "missing credentials",
			reqBody:        models.LoginRequest{},
			setupMocks:     func(m *MockAuth) {},
			expectedStatus: fiber.StatusBadRequest,
			checkResponse: func(t *testing.T, env *testEnv, resp *http.Response) {
				assert.Equal(t, "Email and password are required", decode(t, resp)["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestServer(t)
			tt.setupMocks(env.auth)

			resp := env.do(t, "POST", "/api/auth/login", tt.reqBody, false)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			tt.checkResponse(t, env, resp)
			env.auth.AssertExpectations(t)
		})
	}
}

func TestHandleRegister(t *testing.T) {
	t.Run("creates account", func(t *testing.T) {
		env := setupTestServer(t)
		env.auth.On("SignUp", "owner@padaria.com", "secret1").
			Return(&supabase.User{ID: ownerID, Email: "owner@padaria.com"}, nil)

		resp := env.do(t, "POST", "/api/auth/register", models.RegisterRequest{
			Email: "owner@padaria.com", Password: "secret1", ConfirmPassword: "secret1",
		}, false)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		assert.Equal(t, true, decode(t, resp)["success"])
		env.auth.AssertExpectations(t)
	})

	t.Run("mismatched passwords", func(t *testing.T) {
		env := setupTestServer(t)
		resp := env.do(t, "POST", "/api/auth/register", models.RegisterRequest{
			Email: "owner@padaria.com", Password: "secret1", ConfirmPassword: "secret2",
		}, false)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		fields := decode(t, resp)["fields"].(map[string]interface{})
		assert.Equal(t, "Passwords do not match", fields["confirmPassword"])
		env.auth.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
	})
}

func TestHandleForgotPassword(t *testing.T) {
	env := setupTestServer(t)
	env.auth.On("Recover", "nobody@padaria.com").Return(errors.New("user not found"))

	resp := env.do(t, "POST", "/api/auth/forgot-password", map[string]string{"email": "nobody@padaria.com"}, false)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode(t, resp)["success"])
	env.auth.AssertExpectations(t)

	resp = env.do(t, "POST", "/api/auth/forgot-password", map[string]string{"email": " "}, false)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleLogout(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, "POST", "/api/auth/logout", nil, false)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, "POST", "/api/auth/logout", nil, true)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			assert.Empty(t, c.Value)
		}
	}
}
