package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kegiatan-api/internal/middleware"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":  "101",
		"name": "Paul Fajar",
		"role": "Mahasiswa",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	}
}

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", middleware.JWTProtected(testSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":   c.Locals("user_id"),
			"user_role": c.Locals("user_role"),
			"user_name": c.Locals("user_name"),
		})
	})
	return app
}

func TestJWTProtectedAcceptsBearerToken(t *testing.T) {
	app := newProtectedApp()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, testSecret, validClaims()))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestJWTProtectedAcceptsQueryTokenForWebsocketClients(t *testing.T) {
	app := newProtectedApp()

	req := httptest.NewRequest(http.MethodGet, "/protected?access_token="+signToken(t, testSecret, validClaims()), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestJWTProtectedRejects(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noExpiry := validClaims()
	delete(noExpiry, "exp")

	badSubject := validClaims()
	badSubject["sub"] = "not-a-number"

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"empty bearer":   "Bearer ",
		"wrong secret":   "Bearer " + signToken(t, "other-secret", validClaims()),
		"expired":        "Bearer " + signToken(t, testSecret, expired),
		"no expiry":      "Bearer " + signToken(t, testSecret, noExpiry),
		"bad subject":    "Bearer " + signToken(t, testSecret, badSubject),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			app := newProtectedApp()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set(fiber.HeaderAuthorization, header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}
