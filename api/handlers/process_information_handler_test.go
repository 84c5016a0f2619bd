package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DSACMS/process-information-api/pkg/core"
	"github.com/DSACMS/process-information-api/pkg/records"
	"github.com/DSACMS/process-information-api/pkg/workbook"
	"github.com/DSACMS/process-information-api/pkg/workbook/workbooktest"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	route   = "/api/ProcessInformation"
	adaBody = `{"PersonalDetails":[{"Name":"Ada","Surname":"Lovelace","DateOfBirth":"1815-12-10"}]}`
)

type fakeStore struct {
	data []byte
	err  error
}

func (s fakeStore) Fetch(context.Context) ([]byte, error) {
	return s.data, s.err
}

type failingPopulator struct{}

func (failingPopulator) Populate([]records.PersonalDetail, []byte, string, string) ([]byte, error) {
	return nil, errors.New("unexpected")
}

func newTestApp(t *testing.T, store fakeStore, populator workbook.TablePopulator) *fiber.App {
	t.Helper()
	return newTestAppWithLogger(t, store, populator, nil)
}

func newTestAppWithLogger(t *testing.T, store fakeStore, populator workbook.TablePopulator, logger *slog.Logger) *fiber.App {
	t.Helper()

	cfg := core.NewConfig()
	handler := ProcessInformationHandler(&cfg, store, populator, logger)

	app := fiber.New(fiber.Config{JSONEncoder: json.Marshal, JSONDecoder: json.Unmarshal})
	app.Get(route, handler)
	app.Post(route, handler)
	return app
}

func templateStore(t *testing.T) fakeStore {
	t.Helper()
	return fakeStore{data: workbooktest.Template(t, workbooktest.DefaultOptions())}
}

func send(t *testing.T, app *fiber.App, method, target, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeWorkbook(t *testing.T, resp *http.Response) []byte {
	t.Helper()

	var payload []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload, 1)

	data, err := base64.StdEncoding.DecodeString(payload[0])
	require.NoError(t, err)
	return data
}

// logEntries decodes the JSON log lines written to buf.
func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestProcessInformation_SingleRecord(t *testing.T) {
	app := newTestApp(t, templateStore(t), workbook.New(workbook.Options{}))

	for _, method := range []string{http.MethodPost, http.MethodGet} {
		t.Run(method, func(t *testing.T) {
			resp := send(t, app, method, route, adaBody)

			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)

			got, err := workbook.Extract(decodeWorkbook(t, resp), "Details", "PersonalDetails")
			require.NoError(t, err)
			assert.Equal(t, []records.PersonalDetail{
				{Name: "Ada", Surname: "Lovelace", DateOfBirth: "1815-12-10"},
			}, got)
		})
	}
}

func TestProcessInformation_EmptyList(t *testing.T) {
	opts := workbooktest.DefaultOptions()
	opts.Rows = [][]string{{"Stale", "Sample", "1900-01-01"}}
	app := newTestApp(t, fakeStore{data: workbooktest.Template(t, opts)}, workbook.New(workbook.Options{}))

	resp := send(t, app, http.MethodPost, route, `{"PersonalDetails":[]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := workbook.Extract(decodeWorkbook(t, resp), "Details", "PersonalDetails")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProcessInformation_IsIdempotent(t *testing.T) {
	app := newTestApp(t, templateStore(t), workbook.New(workbook.Options{}))
	body := `{"PersonalDetails":[
		{"Name":"Ada","Surname":"Lovelace","DateOfBirth":"1815-12-10"},
		{"Name":"Grace","Surname":"Hopper","DateOfBirth":"1906-12-09"}
	]}`

	first, err := workbook.Extract(decodeWorkbook(t, send(t, app, http.MethodPost, route, body)), "Details", "PersonalDetails")
	require.NoError(t, err)
	second, err := workbook.Extract(decodeWorkbook(t, send(t, app, http.MethodPost, route, body)), "Details", "PersonalDetails")
	require.NoError(t, err)

	assert.Len(t, first, 2)
	assert.Equal(t, first, second)
}

func TestProcessInformation_QueryOverridesTable(t *testing.T) {
	opts := workbooktest.DefaultOptions()
	opts.Sheet = "People"
	opts.Table = "Staff"
	app := newTestApp(t, fakeStore{data: workbooktest.Template(t, opts)}, workbook.New(workbook.Options{}))

	resp := send(t, app, http.MethodPost, route+"?sheet=People&table=Staff", adaBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := workbook.Extract(decodeWorkbook(t, resp), "People", "Staff")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestProcessInformation_Errors(t *testing.T) {
	tests := []struct {
		description  string
		store        func(t *testing.T) fakeStore
		populator    workbook.TablePopulator
		target       string
		body         string
		expectedCode int
		expectedErr  string
		expectedLvl  string
	}{
		{
			description:  "malformed json",
			store:        templateStore,
			body:         `{"PersonalDetails":[`,
			expectedCode: http.StatusBadRequest,
			expectedErr:  "PARSE_ERROR",
			expectedLvl:  "WARN",
		},
		{
			description:  "missing personal details",
			store:        templateStore,
			body:         `{}`,
			expectedCode: http.StatusBadRequest,
			expectedErr:  "PARSE_ERROR",
			expectedLvl:  "WARN",
		},
		{
			description: "storage failure",
			store: func(t *testing.T) fakeStore {
				return fakeStore{err: core.NewStorageError("download template", errors.New("https://acct.blob.core.windows.net/?sig=secret"))}
			},
			body:         adaBody,
			expectedCode: http.StatusBadGateway,
			expectedErr:  "STORAGE_ERROR",
			expectedLvl:  "ERROR",
		},
		{
			description: "storage unavailable",
			store: func(t *testing.T) fakeStore {
				return fakeStore{err: core.NewStorageUnavailableError("template storage is unavailable", nil)}
			},
			body:         adaBody,
			expectedCode: http.StatusServiceUnavailable,
			expectedErr:  "STORAGE_UNAVAILABLE",
			expectedLvl:  "ERROR",
		},
		{
			description:  "missing sheet",
			store:        templateStore,
			target:       route + "?sheet=Summary",
			body:         adaBody,
			expectedCode: http.StatusNotFound,
			expectedErr:  "NOT_FOUND",
			expectedLvl:  "WARN",
		},
		{
			description:  "missing table",
			store:        templateStore,
			target:       route + "?table=Addresses",
			body:         adaBody,
			expectedCode: http.StatusNotFound,
			expectedErr:  "NOT_FOUND",
			expectedLvl:  "WARN",
		},
		{
			description: "template is not a workbook",
			store: func(t *testing.T) fakeStore {
				return fakeStore{data: []byte("not a workbook")}
			},
			body:         adaBody,
			expectedCode: http.StatusInternalServerError,
			expectedErr:  "FORMAT_ERROR",
			expectedLvl:  "ERROR",
		},
		{
			description:  "unclassified failure",
			store:        templateStore,
			populator:    failingPopulator{},
			body:         adaBody,
			expectedCode: http.StatusInternalServerError,
			expectedErr:  "INTERNAL_ERROR",
			expectedLvl:  "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			populator := tt.populator
			if populator == nil {
				populator = workbook.New(workbook.Options{})
			}
			target := tt.target
			if target == "" {
				target = route
			}

			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			app := newTestAppWithLogger(t, tt.store(t), populator, logger)
			resp := send(t, app, http.MethodPost, target, tt.body)

			assert.Equal(t, tt.expectedCode, resp.StatusCode)

			body := decodeError(t, resp)
			assert.Equal(t, tt.expectedErr, body.Code)
			assert.NotEmpty(t, body.Error)
			assert.NotContains(t, body.Error, "sig=secret", "wrapped causes must not leak")

			var failures []map[string]any
			for _, entry := range logEntries(t, &buf) {
				if entry["msg"] == "process information failed" {
					failures = append(failures, entry)
				}
			}
			require.Len(t, failures, 1, "each failure is logged once")
			assert.Equal(t, tt.expectedErr, failures[0]["code"])
			assert.Equal(t, tt.expectedLvl, failures[0]["level"])
			assert.EqualValues(t, tt.expectedCode, failures[0]["status"])
		})
	}
}

func TestErrorStatus(t *testing.T) {
	status, code, message := errorStatus(core.NewParseError("bad body", io.ErrUnexpectedEOF))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "PARSE_ERROR", code)
	assert.Equal(t, "bad body", message)

	status, code, message = errorStatus(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, CodeInternal, code)
	assert.Equal(t, "internal error", message)
}
