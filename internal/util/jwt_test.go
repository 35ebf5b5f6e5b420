package util

import (
	"testing"
	"time"

	"agri_training_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndParseJWT(t *testing.T) {
	identity := &model.Identity{Subject: "ravi.patil@pmu.example.org", Name: "Ravi Patil", Role: model.Member, EmployeeID: 7}

	token, expiresAt, err := GenerateJWT(identity, "session-1", testSecret, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID())
	assert.Equal(t, identity, claims.Identity())
}

func TestParseJWTRejectsWrongSecretAndExpiry(t *testing.T) {
	identity := &model.Identity{Subject: "admin", Name: "admin", Role: model.Admin}

	token, _, err := GenerateJWT(identity, "s", testSecret, time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(token, "another-secret-another-secret-xx")
	assert.Error(t, err)

	expired, _, err := GenerateJWT(identity, "s", testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, testSecret)
	assert.Error(t, err)
}
