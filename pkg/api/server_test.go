package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/engine"
	"github.com/travigo/treni/pkg/tracking"
)

var requestTime = time.UnixMilli(1792393200000) // 2026-10-19 09:00 Europe/Rome

type fakeFetcher struct {
	payload []byte
	err     error

	number    string
	selection ctdf.SelectionContext
}

func (f *fakeFetcher) Fetch(_ context.Context, number string, selection ctdf.SelectionContext) ([]byte, ctdf.SelectionContext, error) {
	f.number = number
	f.selection = selection

	return f.payload, selection, f.err
}

// headerAuth trusts the X-User header in place of a verified token
func headerAuth(c *fiber.Ctx) error {
	if user := c.Get("X-User"); user != "" {
		c.Locals("account_userid", user)
	}

	return c.Next()
}

func testServer(t *testing.T, fetcher *fakeFetcher) (*fiber.App, *tracking.MemoryRegistry) {
	trainEngine := engine.New("en")
	trainEngine.Adapter.Resolver.Now = func() time.Time {
		return requestTime
	}

	registry := tracking.NewMemoryRegistry()
	server := &Server{
		Fetcher:  fetcher,
		Engine:   trainEngine,
		Registry: registry,
		Auth:     headerAuth,
		Now: func() time.Time {
			return requestTime
		},
	}

	return server.App(), registry
}

func fixture(t *testing.T, name string) []byte {
	payload, err := os.ReadFile(filepath.Join("..", "schema", "testdata", name))
	require.NoError(t, err)

	return payload
}

func doRequest(t *testing.T, app *fiber.App, request *http.Request) (int, map[string]any) {
	response, err := app.Test(request, -1)
	require.NoError(t, err)
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)

	decoded := map[string]any{}
	if len(body) > 0 && body[0] == '{' {
		require.NoError(t, json.Unmarshal(body, &decoded))
	}

	return response.StatusCode, decoded
}

func TestVersion(t *testing.T) {
	app, _ := testServer(t, &fakeFetcher{})

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/core/version", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "treni", body["service"])
}

func TestGetTrain(t *testing.T) {
	fetcher := &fakeFetcher{payload: fixture(t, "journey_9544.json")}
	app, _ := testServer(t, fetcher)

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/core/trains/9544?origin=s01700&timestamp=1792360800000", nil))
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "9544", fetcher.number)
	assert.Equal(t, "S01700", fetcher.selection.OriginCode)
	require.NotNil(t, fetcher.selection.ReferenceTimestampMs)
	assert.Equal(t, int64(1792360800000), *fetcher.selection.ReferenceTimestampMs)

	assert.Equal(t, "train", body["Kind"])
	journey := body["Journey"].(map[string]any)
	assert.NotEmpty(t, journey["Code"])

	snapshot := body["Snapshot"].(map[string]any)
	assert.Equal(t, "9544", snapshot["Number"])
	assert.NotContains(t, snapshot, "SelectionContext")
	assert.NotContains(t, body, "Shape")
}

func TestGetTrainDetailed(t *testing.T) {
	app, _ := testServer(t, &fakeFetcher{payload: fixture(t, "journey_9544.json")})

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/core/trains/9544?detailed=true", nil))
	require.Equal(t, http.StatusOK, status)

	snapshot := body["Snapshot"].(map[string]any)
	assert.Contains(t, snapshot, "SelectionContext")
}

func TestGetTrainSelection(t *testing.T) {
	app, _ := testServer(t, &fakeFetcher{payload: fixture(t, "autocomplete_9544.txt")})

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/core/trains/9544", nil))
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "selection", body["Kind"])
	assert.Len(t, body["Choices"], 2)
}

func TestGetTrainFailures(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		fetcher *fakeFetcher
		status  int
	}{
		{
			name:    "bad timestamp",
			url:     "/core/trains/9544?timestamp=yesterday",
			fetcher: &fakeFetcher{},
			status:  http.StatusBadRequest,
		},
		{
			name:    "bad choice",
			url:     "/core/trains/9544?choice=-1",
			fetcher: &fakeFetcher{},
			status:  http.StatusBadRequest,
		},
		{
			name:    "transport",
			url:     "/core/trains/9544",
			fetcher: &fakeFetcher{err: &ctdf.TransportError{Op: "andamentoTreno", Err: errors.New("connection refused")}},
			status:  http.StatusBadGateway,
		},
		{
			name:    "no data",
			url:     "/core/trains/9544",
			fetcher: &fakeFetcher{payload: []byte("[]")},
			status:  http.StatusNotFound,
		},
		{
			name:    "unknown shape",
			url:     "/core/trains/9544",
			fetcher: &fakeFetcher{payload: []byte(`{"foo": "bar"}`)},
			status:  http.StatusBadGateway,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			app, _ := testServer(t, test.fetcher)

			status, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, test.url, nil))
			assert.Equal(t, test.status, status)
		})
	}
}

func TestTrackingLifecycle(t *testing.T) {
	app, registry := testServer(t, &fakeFetcher{})

	request := httptest.NewRequest(http.MethodPost, "/core/tracking", strings.NewReader(`{
		"TrainNumber": "9544",
		"Selection": {"OriginCode": "S01700"},
		"Target": {"station_name": "Roma Termini", "thresholds_minutes": [15, 5]},
		"Condition": "Delay >= 10",
		"Locale": "en"
	}`))
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("X-User", "user-1")

	status, body := doRequest(t, app, request)
	require.Equal(t, http.StatusCreated, status)
	assert.NotContains(t, body, "UserID")
	assert.Equal(t, "TRACK:9544:S01700:-", body["TrackingKey"])

	id := body["ID"].(string)
	stored, err := registry.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.UserID)
	assert.Equal(t, []int{15, 5}, stored.Target.ThresholdsMinutes)

	listRequest := httptest.NewRequest(http.MethodGet, "/core/tracking", nil)
	listRequest.Header.Set("X-User", "user-1")
	response, err := app.Test(listRequest, -1)
	require.NoError(t, err)

	var listed []map[string]any
	require.NoError(t, json.NewDecoder(response.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, id, listed[0]["ID"])

	status, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/core/stats", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["registrations"])
	assert.Equal(t, float64(1), body["runs"])

	otherUser := httptest.NewRequest(http.MethodDelete, "/core/tracking/"+id, nil)
	otherUser.Header.Set("X-User", "user-2")
	status, _ = doRequest(t, app, otherUser)
	assert.Equal(t, http.StatusNotFound, status)

	owner := httptest.NewRequest(http.MethodDelete, "/core/tracking/"+id, nil)
	owner.Header.Set("X-User", "user-1")
	status, _ = doRequest(t, app, owner)
	assert.Equal(t, http.StatusOK, status)

	_, err = registry.Get(context.Background(), id)
	assert.ErrorIs(t, err, tracking.ErrRegistrationNotFound)
}

func TestTrackingRejectsInvalidRequests(t *testing.T) {
	app, _ := testServer(t, &fakeFetcher{})

	anonymous := httptest.NewRequest(http.MethodPost, "/core/tracking", strings.NewReader(`{"TrainNumber": "9544"}`))
	anonymous.Header.Set("Content-Type", "application/json")
	status, _ := doRequest(t, app, anonymous)
	assert.Equal(t, http.StatusUnauthorized, status)

	badCondition := httptest.NewRequest(http.MethodPost, "/core/tracking", strings.NewReader(`{"TrainNumber": "9544", "Condition": "Delay >"}`))
	badCondition.Header.Set("Content-Type", "application/json")
	badCondition.Header.Set("X-User", "user-1")
	status, _ = doRequest(t, app, badCondition)
	assert.Equal(t, http.StatusBadRequest, status)

	noNumber := httptest.NewRequest(http.MethodPost, "/core/tracking", strings.NewReader(`{}`))
	noNumber.Header.Set("Content-Type", "application/json")
	noNumber.Header.Set("X-User", "user-1")
	status, _ = doRequest(t, app, noNumber)
	assert.Equal(t, http.StatusBadRequest, status)
}
