package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhatem/pollumap/internal/db"
	"github.com/nhatem/pollumap/internal/models"
	"github.com/nhatem/pollumap/internal/session"
	"github.com/nhatem/pollumap/internal/uploads"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	databasePath := filepath.Join(dir, "reports.db")
	require.NoError(t, db.MigrateUp(databasePath))

	files, err := uploads.NewStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	config := &models.EnvConfig{
		DatabasePath: databasePath,
		UploadDir:    files.Dir(),
	}
	sdb, err := db.Connect(config, files)
	require.NoError(t, err)
	t.Cleanup(func() { sdb.Close() })

	server := httptest.NewServer(NewRouter(config, &sdb, zerolog.Nop(), session.NewTracker()))
	t.Cleanup(server.Close)
	return server
}

// newClient builds a client with its own cookie jar, i.e. its own browsing
// session and capability token.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

var validFields = map[string]string{
	"latitude":      "30.0",
	"longitude":     "31.2",
	"description":   "oil spill",
	"severity":      "high",
	"pollutionType": "water",
}

func submitReport(t *testing.T, client *http.Client, baseURL string, fields map[string]string, imageNames ...string) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, form.WriteField(k, v))
	}
	for _, name := range imageNames {
		part, err := form.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("bytes of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())

	resp, err := client.Post(baseURL+"/add_report", form.FormDataContentType(), body)
	require.NoError(t, err)
	return resp
}

func listReports(t *testing.T, client *http.Client, baseURL, query string) []models.ReportView {
	t.Helper()
	resp, err := client.Get(baseURL + "/get_reports" + query)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var views []models.ReportView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	return views
}

func deleteReport(t *testing.T, client *http.Client, baseURL string, id int) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, baseURL+"/delete_report/"+strconv.Itoa(id), nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestSubmitAndListReports(t *testing.T) {
	server := newTestServer(t)
	submitter := newClient(t)
	stranger := newClient(t)

	resp := submitReport(t, submitter, server.URL, validFields, "a.jpg")
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	mine := listReports(t, submitter, server.URL, "")
	require.Len(t, mine, 1)
	assert.Equal(t, "high", mine[0].Severity)
	assert.Equal(t, "water", mine[0].PollutionType)
	assert.Equal(t, "oil spill", mine[0].Description)
	require.Len(t, mine[0].Images, 1)
	assert.Equal(t, "a.jpg", mine[0].Images[0].ImagePath)
	assert.True(t, mine[0].CanDelete, "the submitting session may delete")
	assert.False(t, mine[0].Timestamp.IsZero())

	theirs := listReports(t, stranger, server.URL, "")
	require.Len(t, theirs, 1)
	assert.False(t, theirs[0].CanDelete, "any other session may not delete")
}

func TestSubmitReport_AppliesDefaults(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	resp := submitReport(t, client, server.URL, map[string]string{
		"latitude":    "30.0",
		"longitude":   "31.2",
		"description": "smoke cloud",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	views := listReports(t, client, server.URL, "")
	require.Len(t, views, 1)
	assert.Equal(t, "medium", views[0].Severity)
	assert.Equal(t, "other", views[0].PollutionType)
	assert.Equal(t, []models.ReportImage{}, views[0].Images)
}

func TestSubmitReport_MissingFields(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	for _, missing := range []string{"latitude", "longitude", "description"} {
		fields := map[string]string{}
		for k, v := range validFields {
			if k != missing {
				fields[k] = v
			}
		}
		resp := submitReport(t, client, server.URL, fields)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing %s", missing)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.NotEmpty(t, body["error"], "failures carry a structured error body")
	}

	assert.Empty(t, listReports(t, client, server.URL, ""), "no mutation on validation failure")
}

func TestSubmitReport_MalformedCoordinates(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	fields := map[string]string{}
	for k, v := range validFields {
		fields[k] = v
	}
	fields["latitude"] = "not-a-number"
	resp := submitReport(t, client, server.URL, fields)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitReport_DuplicateImageNamesInOneBatch(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	resp := submitReport(t, client, server.URL, validFields, "a.jpg", "a.jpg")
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	views := listReports(t, client, server.URL, "")
	require.Len(t, views, 1)
	assert.Len(t, views[0].Images, 1, "a repeated file name in one submission is attached once")
}

func TestGetReports_Filters(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	resp := submitReport(t, client, server.URL, validFields)
	resp.Body.Close()
	air := map[string]string{
		"latitude":      "29.9",
		"longitude":     "31.1",
		"description":   "black smoke",
		"severity":      "low",
		"pollutionType": "air",
	}
	resp = submitReport(t, client, server.URL, air)
	resp.Body.Close()

	assert.Len(t, listReports(t, client, server.URL, ""), 2)

	byType := listReports(t, client, server.URL, "?pollution_type=air")
	require.Len(t, byType, 1)
	assert.Equal(t, "air", byType[0].PollutionType)

	both := listReports(t, client, server.URL, "?pollution_type=water&severity=high")
	require.Len(t, both, 1)
	assert.Equal(t, "water", both[0].PollutionType)

	assert.Len(t, listReports(t, client, server.URL, "?pollution_type=water&severity=low"), 0,
		"filters are conjunctive")

	assert.Len(t, listReports(t, client, server.URL, "?days=7"), 2,
		"fresh reports fall inside a 7 day window")
}

func TestGetReports_MalformedDays(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	for _, days := range []string{"soon", "-1", "1.5"} {
		resp, err := client.Get(server.URL + "/get_reports?days=" + days)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "days=%s", days)
	}
}

func TestDeleteReport_OwnershipLifecycle(t *testing.T) {
	server := newTestServer(t)
	creator := newClient(t)
	stranger := newClient(t)

	resp := submitReport(t, creator, server.URL, validFields, "a.jpg")
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := listReports(t, creator, server.URL, "")[0].ID

	resp = deleteReport(t, stranger, server.URL, id)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "only the creating session may delete")

	resp = deleteReport(t, creator, server.URL, id)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Empty(t, listReports(t, creator, server.URL, ""), "deleted report leaves the listing")

	resp, err := creator.Get(server.URL + "/static/uploads/a.jpg")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "its image files are gone too")

	resp = deleteReport(t, creator, server.URL, id)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "a repeated delete finds nothing")
}

func TestDeleteReport_UnknownID(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	resp := deleteReport(t, client, server.URL, 9)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadsAreServed(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	resp := submitReport(t, client, server.URL, validFields, "a.jpg")
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err := client.Get(server.URL + "/static/uploads/a.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "bytes of a.jpg", string(data))
}

func TestStatisticsEndpoint(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	resp := submitReport(t, client, server.URL, validFields)
	resp.Body.Close()
	resp = submitReport(t, client, server.URL, map[string]string{
		"latitude":    "29.9",
		"longitude":   "31.1",
		"description": "trash heap",
	})
	resp.Body.Close()

	resp, err := client.Get(server.URL + "/statistics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats models.Statistics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))

	listed := listReports(t, client, server.URL, "")
	assert.Equal(t, len(listed), stats.TotalReports,
		"total_reports matches an unfiltered listing")
	assert.Equal(t, map[string]int{"water": 1, "other": 1}, stats.PollutionTypes)
	assert.Equal(t, map[string]int{"high": 1, "medium": 1}, stats.SeverityDistribution)
	assert.NotEmpty(t, stats.DailyReports)
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
