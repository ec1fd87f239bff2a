package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vallamarket/cartsync/internal/common"
)

func TestGenerateAndParse(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("user-1", common.RoleAdvertiser, secret, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, role, err := ParseSessionToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, common.RoleAdvertiser, role)
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", common.RoleAdvertiser, []byte("right"), time.Minute)
	require.NoError(t, err)

	_, _, err = ParseSessionToken(token, []byte("wrong"))
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	token, err := GenerateToken("user-1", common.RoleAdvertiser, []byte("s"), -time.Minute)
	require.NoError(t, err)

	_, _, err = ParseSessionToken(token, []byte("s"))
	assert.Error(t, err)
}
