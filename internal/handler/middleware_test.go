package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"brushquest-server/internal/models"
)

func TestCheckAdminPassword_PlainSecret(t *testing.T) {
	require.NoError(t, checkAdminPassword("shared-secret", "shared-secret"))
	assert.ErrorIs(t, checkAdminPassword("shared-secret", "wrong"), models.ErrUnauthorized)
	assert.ErrorIs(t, checkAdminPassword("shared-secret", ""), models.ErrUnauthorized)
}

func TestCheckAdminPassword_BcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, checkAdminPassword(string(hash), "hunter2"))
	assert.ErrorIs(t, checkAdminPassword(string(hash), "hunter3"), models.ErrUnauthorized)
}

func TestCheckAdminPassword_Unconfigured(t *testing.T) {
	assert.ErrorIs(t, checkAdminPassword("", "anything"), models.ErrProvider)
}
