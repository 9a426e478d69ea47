package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/viant/mcpadapter/auth"
	"github.com/viant/mcpadapter/fault"
)

func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "agent",
		"exp": expiry.Unix(),
	})
	signed, err := token.SignedString([]byte("test-key"))
	assert.Nil(t, err)
	return signed
}

func TestConfig_ExpiredJWTBearer(t *testing.T) {
	config := auth.Bearer(signedToken(t, time.Now().Add(-time.Hour)))
	err := config.Validate()
	assert.True(t, fault.HasCode(err, fault.AuthConfig))
}

func TestConfig_ValidJWTBearer(t *testing.T) {
	config := auth.Bearer(signedToken(t, time.Now().Add(time.Hour)))
	assert.Nil(t, config.Validate())
}

func TestConfig_OpaqueBearerSkipsExpiryCheck(t *testing.T) {
	assert.Nil(t, auth.Bearer("opaque-token-value").Validate())
}
