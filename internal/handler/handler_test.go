package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mistakebook/internal/app"
	"mistakebook/internal/config"
	"mistakebook/internal/model"
	"mistakebook/internal/notebook"
	"mistakebook/internal/routes"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		AppName:      "Mistake Notebook",
		AppEnv:       "development",
		Port:         "0",
		DataPath:     dir,
		DBDriver:     "sqlite",
		DBConnection: filepath.Join(dir, "test.db"),
		JWTSecret:    "test-secret",
		JWTExpiry:    time.Hour,
		S3Bucket:     "mistake-images",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	srv := httptest.NewServer(routes.SetupRoutes(a))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestMistakeLifecycleLocalMode(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	client := srv.Client()

	// Empty to begin with.
	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/mistakes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody[[]notebook.Record](t, resp))

	// Create: comes back immediately, marked pending.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/mistakes", map[string]any{
		"subject":      model.SubjectPhysics,
		"semester":     "2024 秋季学期",
		"questionText": "牛顿第二定律应用题",
		"tags":         []string{"力学"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[notebook.Record](t, resp)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, model.SyncPending, created.SyncStatus)

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/mistakes", nil)
	list := decodeBody[[]notebook.Record](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	// Edit.
	resp = doJSON(t, client, http.MethodPut, srv.URL+"/api/mistakes/"+created.ID, map[string]any{
		"subject":      model.SubjectPhysics,
		"semester":     "2024 秋季学期",
		"questionText": "改过的题目",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "改过的题目", decodeBody[notebook.Record](t, resp).QuestionText)

	// Tag twice: second add is a no-op.
	for i := 0; i < 2; i++ {
		resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/mistakes/"+created.ID+"/tags", map[string]string{"tag": "动力学"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		tagged := decodeBody[model.Mistake](t, resp)
		assert.Equal(t, model.Tags{"动力学"}, tagged.Tags)
	}

	// Trash and check both views.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/mistakes/"+created.ID+"/trash", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/mistakes", nil)
	assert.Empty(t, decodeBody[[]notebook.Record](t, resp))

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/trash", nil)
	trash := decodeBody[[]notebook.Record](t, resp)
	require.Len(t, trash, 1)
	assert.NotNil(t, trash[0].DeletedAt)

	// Restore.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/mistakes/"+created.ID+"/restore", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/mistakes", nil)
	require.Len(t, decodeBody[[]notebook.Record](t, resp), 1)

	// Trash again, purge for good.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/mistakes/"+created.ID+"/trash", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodDelete, srv.URL+"/api/mistakes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/trash", nil)
	assert.Empty(t, decodeBody[[]notebook.Record](t, resp))
}

func TestCreateRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	client := srv.Client()

	tests := []struct {
		name string
		body map[string]any
	}{
		{"unknown subject", map[string]any{"subject": "Astrology"}},
		{"missing subject", map[string]any{"questionText": "题目"}},
		{"disallowed inline image type", map[string]any{
			"subject":  model.SubjectMath,
			"imageUrl": "data:image/gif;base64,aGk=",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/mistakes", tt.body)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestEmptyTrashEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	client := srv.Client()

	var ids []string
	for i := 0; i < 3; i++ {
		resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/mistakes", map[string]any{
			"subject":      model.SubjectMath,
			"questionText": fmt.Sprintf("题目 %d", i),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		ids = append(ids, decodeBody[notebook.Record](t, resp).ID)
	}
	for _, id := range ids {
		resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/mistakes/"+id+"/trash", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, client, http.MethodDelete, srv.URL+"/api/trash", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/trash", nil)
	assert.Empty(t, decodeBody[[]notebook.Record](t, resp))
}

func TestSettingsGetAndPut(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	client := srv.Client()

	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/settings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[model.AppSettings](t, resp)
	assert.Equal(t, "学生", got.Username)
	assert.Equal(t, model.LanguageZH, got.Language)

	got.Username = "小明"
	got.AIModel = "qwen/qwen-2.5-vl"
	resp = doJSON(t, client, http.MethodPut, srv.URL+"/api/settings", got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decodeBody[struct {
		Settings      model.AppSettings `json:"settings"`
		CloudReverted bool              `json:"cloudReverted"`
	}](t, resp)
	assert.Equal(t, "小明", saved.Settings.Username)
	assert.False(t, saved.CloudReverted)

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/settings", nil)
	assert.Equal(t, "小明", decodeBody[model.AppSettings](t, resp).Username)
}

func TestSettingsPutRevertsCloudWithoutCredentials(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	client := srv.Client()

	resp := doJSON(t, client, http.MethodPut, srv.URL+"/api/settings", map[string]any{
		"username": "小明",
		"useCloud": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decodeBody[struct {
		Settings      model.AppSettings `json:"settings"`
		CloudReverted bool              `json:"cloudReverted"`
	}](t, resp)
	assert.True(t, saved.CloudReverted)
	assert.False(t, saved.Settings.UseCloud)
}

func TestCloudModeRequiresSession(t *testing.T) {
	cfg := testConfig(t)
	cfg.CloudURL = "postgres://cloud/db"
	cfg.CloudKey = "anon-key"
	srv := newTestServer(t, cfg)
	client := srv.Client()

	// Settings stay reachable so the login screen can resolve the mode.
	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/settings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[model.AppSettings](t, resp).UseCloud)

	// Data routes are gated.
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/mistakes", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCloudModeFullFlowWithSession(t *testing.T) {
	cfg := testConfig(t)
	cfg.CloudURL = "postgres://cloud/db"
	cfg.CloudKey = "anon-key"
	srv := newTestServer(t, cfg)

	// A cookie-carrying client is the session.
	jar := newCookieClient(t, srv)

	resp := doJSON(t, jar, http.MethodPost, srv.URL+"/api/auth/signup", map[string]string{
		"email":       "student@example.com",
		"password":    "correct-horse-battery",
		"displayName": "小明",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := decodeBody[model.User](t, resp)
	assert.Equal(t, "student@example.com", user.Email)

	resp = doJSON(t, jar, http.MethodGet, srv.URL+"/api/auth/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Records now land in the cloud table, scoped to this user.
	resp = doJSON(t, jar, http.MethodPost, srv.URL+"/api/mistakes", map[string]any{
		"subject":      model.SubjectMath,
		"questionText": "解方程",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[notebook.Record](t, resp)

	resp = doJSON(t, jar, http.MethodGet, srv.URL+"/api/mistakes", nil)
	list := decodeBody[[]notebook.Record](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	// Signing out closes the gate again.
	resp = doJSON(t, jar, http.MethodPost, srv.URL+"/api/auth/signout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, jar, http.MethodGet, srv.URL+"/api/mistakes", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignInWrongPasswordRejected(t *testing.T) {
	cfg := testConfig(t)
	srv := newTestServer(t, cfg)
	jar := newCookieClient(t, srv)

	resp := doJSON(t, jar, http.MethodPost, srv.URL+"/api/auth/signup", map[string]string{
		"email":    "student@example.com",
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, jar, http.MethodPost, srv.URL+"/api/auth/signin", map[string]string{
		"email":    "student@example.com",
		"password": "wrong-password-here",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionWithoutCookie(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	resp := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/auth/session", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAnalysisFlowViaOpenRouter(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "### 1. 问题分析\n**考察**一元二次方程"}},
			},
		})
	}))
	defer provider.Close()

	srv := newTestServer(t, testConfig(t))
	client := srv.Client()

	// Point the provider at the stub.
	resp := doJSON(t, client, http.MethodPut, srv.URL+"/api/settings", map[string]any{
		"username":          "学生",
		"language":          model.LanguageZH,
		"aiModel":           "qwen/qwen-2.5-vl",
		"openRouterApiKey":  "or-key",
		"openRouterBaseUrl": provider.URL,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/mistakes", map[string]any{
		"subject":      model.SubjectMath,
		"questionText": "解方程 x^2 = 4",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[notebook.Record](t, resp)

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/mistakes/"+created.ID+"/analyze", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	analyzed := decodeBody[model.Mistake](t, resp)
	assert.Contains(t, analyzed.AIAnalysis, "### 1. 问题分析")

	// The stored markdown renders to HTML.
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/mistakes/"+created.ID+"/analysis", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	var html bytes.Buffer
	_, err := html.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, html.String(), "<h3")
	assert.Contains(t, html.String(), "<strong>考察</strong>")
}

func TestAnalyzeWithoutProviderKey(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	client := srv.Client()

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/mistakes", map[string]any{
		"subject": model.SubjectMath,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[notebook.Record](t, resp)

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/mistakes/"+created.ID+"/analyze", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func newCookieClient(t *testing.T, srv *httptest.Server) *http.Client {
	t.Helper()
	client := srv.Client()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client.Jar = jar
	return client
}
