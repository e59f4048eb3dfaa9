package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageMeta(t *testing.T) {
	meta := NewPageMeta(PageQuery{Page: 2, Limit: 10}, 35)

	assert.Equal(t, 4, meta.LastPage)
	assert.Equal(t, 11, meta.From)
	assert.Equal(t, 20, meta.To)
	assert.True(t, meta.HasMore)

	last := NewPageMeta(PageQuery{Page: 4, Limit: 10}, 35)
	assert.Equal(t, 35, last.To)
	assert.False(t, last.HasMore)

	empty := NewPageMeta(PageQuery{Page: 1, Limit: 25}, 0)
	assert.Zero(t, empty.From)
	assert.Zero(t, empty.To)
	assert.False(t, empty.HasMore)
}

func TestParsePageQuery(t *testing.T) {
	app := fiber.New()
	var got PageQuery
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParsePageQuery(c)
		return nil
	})

	_, err := app.Test(httptest.NewRequest("GET", "/?page=3&limit=50", nil))
	require.NoError(t, err)
	assert.Equal(t, PageQuery{Page: 3, Limit: 50}, got)
	assert.Equal(t, 100, got.Offset())

	_, err = app.Test(httptest.NewRequest("GET", "/?page=-1&limit=7", nil))
	require.NoError(t, err)
	assert.Equal(t, PageQuery{Page: 1, Limit: 25}, got)
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(7, "nour", "admin", "secret", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken(7, "nour", "admin", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	assert.Error(t, err)
}
