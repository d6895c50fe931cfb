package server

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 20, 0},
		{"explicit values", "limit=5&offset=40", 5, 40},
		{"zero limit falls back", "limit=0", 20, 0},
		{"negative offset clamps", "offset=-3", 20, 0},
		{"limit capped", "limit=500", maxPaginationLimit, 0},
		{"garbage ignored", "limit=abc&offset=xyz", 20, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			app := fiber.New()
			var got Pagination
			app.Get("/", func(c *fiber.Ctx) error {
				got = parsePagination(c, 20)
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/?"+tc.query, nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.wantLimit, got.Limit)
			assert.Equal(t, tc.wantOffset, got.Offset)
		})
	}
}

func TestHumanizeParam(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ID", humanizeParam("id"))
	assert.Equal(t, "contract ID", humanizeParam("contractId"))
	assert.Equal(t, "store receipt ID", humanizeParam("storeReceiptId"))
	assert.Equal(t, "token", humanizeParam("token"))
}

func TestParseID(t *testing.T) {
	t.Parallel()

	s := &Server{}
	app := fiber.New()
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/items/7", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/items/abc", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/items/0", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
