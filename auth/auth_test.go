package auth

import (
	"testing"
	"time"

	"matka/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.NoError(t, hasher.Verify(hash, "s3cret!"))
	assert.Error(t, hasher.Verify(hash, "wrong"))
	assert.Error(t, hasher.Verify("not-a-hash", "s3cret!"))
}

func TestNewBcryptHasher_CostOutOfRange(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

func TestJWTIssuer_RoundTrip(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour)
	actor := models.Actor{ID: 42, Role: models.RoleSubadmin}

	token, err := issuer.Issue(actor)
	require.NoError(t, err)

	parsed, err := issuer.ParseActor(token)
	require.NoError(t, err)
	assert.Equal(t, actor, parsed)
}

func TestJWTIssuer_Rejects(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour)
	token, err := issuer.Issue(models.Actor{ID: 7, Role: models.RolePlayer})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewJWTIssuer("other", time.Hour).ParseActor(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewJWTIssuer("secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ParseActor(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.ParseActor("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := actorClaims{
			Role: "superuser",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "7",
				Issuer:    "matka",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = issuer.ParseActor(forged)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other signing method", func(t *testing.T) {
		claims := actorClaims{
			Role: models.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "1",
				Issuer:    "matka",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = issuer.ParseActor(forged)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
