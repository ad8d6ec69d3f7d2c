package params

import (
	"io"
	"net/http/httptest"
	"strconv"
	"testing"

	"serviceloop-backend/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDAndLimit(t *testing.T) {
	app := fiber.New()
	app.Get("/x/:id", func(c *fiber.Ctx) error {
		if _, err := UUID(c, "id"); err != nil {
			if !apperr.Is(err, apperr.KindValidation) {
				return c.SendString("wrong kind")
			}
			return c.SendString("bad")
		}
		return c.SendString(strconv.Itoa(Limit(c, 5, 20)))
	})

	const id = "0f8fad5b-d9cb-469f-a165-70867728950e"
	for path, want := range map[string]string{
		"/x/nope":               "bad",
		"/x/" + id:              "5",
		"/x/" + id + "?limit=7":  "7",
		"/x/" + id + "?limit=99": "20",
		"/x/" + id + "?limit=-1": "5",
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, want, string(body), path)
	}
}
