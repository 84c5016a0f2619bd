package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DSACMS/process-information-api/pkg/core"
	"github.com/DSACMS/process-information-api/pkg/workbook"
	"github.com/DSACMS/process-information-api/pkg/workbook/workbooktest"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore []byte

func (s memoryStore) Fetch(context.Context) ([]byte, error) {
	return s, nil
}

func newRoutedApp(t *testing.T, auth fiber.Handler) *fiber.App {
	t.Helper()

	cfg := core.NewConfig()
	store := memoryStore(workbooktest.Template(t, workbooktest.DefaultOptions()))

	app := fiber.New()
	RegisterRoutes(app, &cfg, store, workbook.New(workbook.Options{}), auth, nil)
	return app
}

func TestRegisterRoutes(t *testing.T) {
	app := newRoutedApp(t, nil)

	tests := []struct {
		description  string
		method       string
		route        string
		body         string
		expectedCode int
	}{
		{description: "index", method: http.MethodGet, route: "/", expectedCode: http.StatusOK},
		{description: "post", method: http.MethodPost, route: "/api/ProcessInformation", body: `{"PersonalDetails":[]}`, expectedCode: http.StatusOK},
		{description: "get", method: http.MethodGet, route: "/api/ProcessInformation", body: `{"PersonalDetails":[]}`, expectedCode: http.StatusOK},
		{description: "case insensitive path", method: http.MethodPost, route: "/api/processinformation", body: `{"PersonalDetails":[]}`, expectedCode: http.StatusOK},
		{description: "unsupported method", method: http.MethodDelete, route: "/api/ProcessInformation", expectedCode: http.StatusMethodNotAllowed},
		{description: "unknown route", method: http.MethodGet, route: "/api/unknown", expectedCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.route, strings.NewReader(tt.body))

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedCode, resp.StatusCode)
		})
	}
}

func TestRegisterRoutes_AuthGuardsAPIOnly(t *testing.T) {
	deny := func(c *fiber.Ctx) error { return fiber.ErrUnauthorized }
	app := newRoutedApp(t, deny)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", http.NoBody), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/ProcessInformation", strings.NewReader(`{"PersonalDetails":[]}`)), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
