package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

const testSecret = "a-very-long-test-secret-for-signing-tokens"

func TestIssueAndVerify(t *testing.T) {
	tm := NewTokenManager(testSecret, "", time.Hour)
	userID := uuid.New()

	token, err := tm.Issue(userID)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.WithinDuration(t, time.Now(), claims.IssuedAtTime(), 2*time.Second)
}

func TestVerifyExpired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	tm := NewTokenManager(testSecret, "", time.Hour).WithClock(func() time.Time { return issued })
	token, err := tm.Issue(uuid.New())
	require.NoError(t, err)

	tm.WithClock(time.Now)
	_, err = tm.Verify(token)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.KindUnauthenticated, appErr.Kind)
	assert.Equal(t, "Your token has expired! Please log in again.", appErr.Message)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	other := NewTokenManager("another-secret-another-secret-another", "", time.Hour)
	token, err := other.Issue(uuid.New())
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, "", time.Hour).Verify(token)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Invalid token. Please log in again!", appErr.Message)

	_, err = NewTokenManager(testSecret, "", time.Hour).Verify("not-a-token")
	assert.Equal(t, domain.KindUnauthenticated, domain.KindOf(err))
}

func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(r))

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", ExtractToken(r))

	r.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", ExtractToken(r))

	logout := httptest.NewRequest(http.MethodGet, "/", nil)
	logout.AddCookie(&http.Cookie{Name: CookieName, Value: LoggedOutValue})
	assert.Empty(t, ExtractToken(logout))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("pass1234", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "pass1234", hash)
	assert.True(t, CheckPassword(hash, "pass1234"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestResetToken(t *testing.T) {
	plain, hashed, err := NewResetToken()
	require.NoError(t, err)
	assert.Len(t, plain, 64)
	assert.NotEqual(t, plain, hashed)
	assert.Equal(t, hashed, HashResetToken(plain))
}
