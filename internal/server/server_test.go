package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avirta/brandscope/internal/config"
	"github.com/avirta/brandscope/internal/dispatch"
	"github.com/avirta/brandscope/internal/models"
	"github.com/avirta/brandscope/internal/provider"
	"github.com/avirta/brandscope/internal/query"
	"github.com/avirta/brandscope/internal/store"
)

type fakeAdapter struct {
	id   string
	text string
}

func (a *fakeAdapter) ID() string { return a.id }

func (a *fakeAdapter) Invoke(ctx context.Context, prompt, credential string) (string, error) {
	return a.text, nil
}

// newTestHandler wires the full route table against an in-memory store and
// fake adapters, returning the handler plus the store for direct seeding.
func newTestHandler(t *testing.T, fakes ...*fakeAdapter) (http.Handler, store.Store) {
	t.Helper()

	adapters := make(map[string]provider.Adapter, len(fakes))
	for _, a := range fakes {
		adapters[a.id] = a
	}

	st := store.NewMemory()
	svc := query.NewService(st, dispatch.New(adapters, 0, 0))
	srv := New(config.DefaultConfig(), st, svc, "test")

	mux := http.NewServeMux()
	srv.routes(mux)
	return mux, st
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, "GET", "/api/health", "")
	assert.Equal(t, 200, rec.Code)

	var resp map[string]string
	decode(t, rec, &resp)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "test", resp["version"])
}

func TestModelsList(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, "GET", "/api/models", "")
	assert.Equal(t, 200, rec.Code)

	var resp struct {
		Models []models.ModelDescriptor `json:"models"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Models, 4)
	assert.Equal(t, "claude", resp.Models[0].ID)
}

func TestQueryRun(t *testing.T) {
	h, st := newTestHandler(t,
		&fakeAdapter{id: "gpt", text: "Coca-Cola and Pepsi are both popular."})
	require.NoError(t, st.SetCredentials(models.CredentialSet{"gpt": "sk-test"}))

	rec := doJSON(t, h, "POST", "/api/query",
		`{"prompt":"Best soft drink?","brands":["Pepsi"],"models":["gpt","claude"]}`)
	require.Equal(t, 200, rec.Code, rec.Body.String())

	var got models.QueryRecord
	decode(t, rec, &got)
	assert.NotEmpty(t, got.ID)
	require.Len(t, got.Results, 2)
	require.NotNil(t, got.Results[0].Response)
	assert.Equal(t, "Coca-Cola and Pepsi are both popular.", *got.Results[0].Response)
	// claude has no key: the result is an error entry, not a dropped model.
	require.NotNil(t, got.Results[1].Error)
	assert.Equal(t, dispatch.MissingKeyError, *got.Results[1].Error)

	// The run landed in history.
	list := doJSON(t, h, "GET", "/api/queries", "")
	var history struct {
		Queries []models.QueryRecord `json:"queries"`
	}
	decode(t, list, &history)
	require.Len(t, history.Queries, 1)
	assert.Equal(t, got.ID, history.Queries[0].ID)
}

func TestQueryRunValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, "POST", "/api/query", `{"prompt":"  ","models":["gpt"]}`)
	assert.Equal(t, 400, rec.Code)

	rec = doJSON(t, h, "POST", "/api/query", `{"prompt":"q","models":[]}`)
	assert.Equal(t, 400, rec.Code)

	rec = doJSON(t, h, "POST", "/api/query", `not json`)
	assert.Equal(t, 400, rec.Code)
}

func TestQueryGetAndDelete(t *testing.T) {
	h, st := newTestHandler(t, &fakeAdapter{id: "gpt", text: "ok"})
	require.NoError(t, st.SetCredentials(models.CredentialSet{"gpt": "k"}))

	rec := doJSON(t, h, "POST", "/api/query", `{"prompt":"q","models":["gpt"]}`)
	require.Equal(t, 200, rec.Code)
	var created models.QueryRecord
	decode(t, rec, &created)

	got := doJSON(t, h, "GET", "/api/queries/"+created.ID, "")
	assert.Equal(t, 200, got.Code)

	missing := doJSON(t, h, "GET", "/api/queries/nope", "")
	assert.Equal(t, 404, missing.Code)

	del := doJSON(t, h, "DELETE", "/api/queries/"+created.ID, "")
	assert.Equal(t, 204, del.Code)
	assert.Equal(t, 404, doJSON(t, h, "DELETE", "/api/queries/"+created.ID, "").Code)

	cleared := doJSON(t, h, "DELETE", "/api/queries", "")
	assert.Equal(t, 204, cleared.Code)
}

func TestCredentialsMasking(t *testing.T) {
	h, st := newTestHandler(t)
	require.NoError(t, st.SetCredentials(models.CredentialSet{"gpt": "sk-secret"}))

	rec := doJSON(t, h, "GET", "/api/credentials", "")
	require.Equal(t, 200, rec.Code)

	var resp struct {
		APIKeys map[string]string `json:"apiKeys"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, maskedKey, resp.APIKeys["gpt"])
	assert.Equal(t, "", resp.APIKeys["claude"])
	assert.NotContains(t, rec.Body.String(), "sk-secret")
}

func TestCredentialsPut(t *testing.T) {
	h, st := newTestHandler(t)
	require.NoError(t, st.SetCredentials(models.CredentialSet{"gpt": "old-key"}))

	// The mask placeholder round-trips without clobbering the stored key.
	rec := doJSON(t, h, "PUT", "/api/credentials",
		`{"gpt":"`+maskedKey+`","claude":"new-claude-key"}`)
	assert.Equal(t, 204, rec.Code)

	creds, err := st.Credentials()
	require.NoError(t, err)
	assert.Equal(t, "old-key", creds["gpt"])
	assert.Equal(t, "new-claude-key", creds["claude"])

	rec = doJSON(t, h, "PUT", "/api/credentials", `{"grok":"nope"}`)
	assert.Equal(t, 400, rec.Code)
}

func TestSettings(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, "GET", "/api/settings", "")
	require.Equal(t, 200, rec.Code)
	var settings models.Settings
	decode(t, rec, &settings)
	assert.Equal(t, models.DefaultSettings(), settings)

	rec = doJSON(t, h, "PUT", "/api/settings",
		`{"language":"en","defaultModels":["llama"],"autoHighlight":false}`)
	assert.Equal(t, 204, rec.Code)

	rec = doJSON(t, h, "GET", "/api/settings", "")
	decode(t, rec, &settings)
	assert.Equal(t, "en", settings.Language)
	assert.Equal(t, []string{"llama"}, settings.DefaultModels)
	assert.False(t, settings.AutoHighlight)

	rec = doJSON(t, h, "PUT", "/api/settings", `{"defaultModels":["bogus"]}`)
	assert.Equal(t, 400, rec.Code)
}

func TestScheduledLifecycle(t *testing.T) {
	h, st := newTestHandler(t, &fakeAdapter{id: "gpt", text: "Pepsi, twice: Pepsi"})
	require.NoError(t, st.SetCredentials(models.CredentialSet{"gpt": "k"}))

	rec := doJSON(t, h, "POST", "/api/scheduled",
		`{"prompt":"Best soft drink?","models":["gpt"],"brands":["Pepsi"],"interval":"daily","time":"09:00"}`)
	require.Equal(t, 200, rec.Code, rec.Body.String())

	var created models.ScheduledQuery
	decode(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Enabled)
	assert.False(t, created.NextRun.IsZero())
	assert.Nil(t, created.LastRun)

	// Toggle off.
	rec = doJSON(t, h, "PATCH", "/api/scheduled/"+created.ID, `{"enabled":false}`)
	require.Equal(t, 200, rec.Code)
	var patched models.ScheduledQuery
	decode(t, rec, &patched)
	assert.False(t, patched.Enabled)

	// Manual trigger runs the query and stamps the bookkeeping fields.
	rec = doJSON(t, h, "POST", "/api/scheduled/"+created.ID+"/run", "")
	require.Equal(t, 200, rec.Code, rec.Body.String())
	var ran models.ScheduledQuery
	decode(t, rec, &ran)
	require.NotNil(t, ran.LastRun)
	require.Len(t, ran.LastResults, 1)

	rec = doJSON(t, h, "DELETE", "/api/scheduled/"+created.ID, "")
	assert.Equal(t, 204, rec.Code)
	assert.Equal(t, 404, doJSON(t, h, "POST", "/api/scheduled/"+created.ID+"/run", "").Code)
}

func TestScheduledCreateValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, "POST", "/api/scheduled",
		`{"prompt":"","models":["gpt"],"interval":"daily","time":"09:00"}`)
	assert.Equal(t, 400, rec.Code)

	rec = doJSON(t, h, "POST", "/api/scheduled",
		`{"prompt":"q","models":[],"interval":"daily","time":"09:00"}`)
	assert.Equal(t, 400, rec.Code)

	rec = doJSON(t, h, "POST", "/api/scheduled",
		`{"prompt":"q","models":["gpt"],"interval":"hourly","time":"09:00"}`)
	assert.Equal(t, 400, rec.Code)

	rec = doJSON(t, h, "POST", "/api/scheduled",
		`{"prompt":"q","models":["gpt"],"interval":"daily","time":"25:99"}`)
	assert.Equal(t, 400, rec.Code)
}

func TestStats(t *testing.T) {
	h, st := newTestHandler(t, &fakeAdapter{id: "gpt", text: "Pepsi beats Pepsi Max"})
	require.NoError(t, st.SetCredentials(models.CredentialSet{"gpt": "k"}))

	rec := doJSON(t, h, "POST", "/api/query",
		`{"prompt":"q","brands":["Pepsi"],"models":["gpt"]}`)
	require.Equal(t, 200, rec.Code)

	stats := doJSON(t, h, "GET", "/api/stats", "")
	require.Equal(t, 200, stats.Code)

	var resp struct {
		TotalQueries  int                       `json:"totalQueries"`
		BrandMentions map[string]map[string]any `json:"brandMentions"`
		ModelUsage    map[string]int            `json:"modelUsage"`
		QueriesByDate map[string]int            `json:"queriesByDate"`
	}
	decode(t, stats, &resp)
	assert.Equal(t, 1, resp.TotalQueries)
	assert.Equal(t, 1, resp.ModelUsage["gpt"])
	require.Contains(t, resp.BrandMentions, "Pepsi")
	assert.EqualValues(t, 2, resp.BrandMentions["Pepsi"]["total"])
}

func TestHighlightEndpoint(t *testing.T) {
	h, st := newTestHandler(t, &fakeAdapter{id: "gpt", text: "Pepsi > others"})
	require.NoError(t, st.SetCredentials(models.CredentialSet{"gpt": "k"}))

	rec := doJSON(t, h, "POST", "/api/query",
		`{"prompt":"q","brands":["Pepsi"],"models":["gpt"]}`)
	require.Equal(t, 200, rec.Code)
	var created models.QueryRecord
	decode(t, rec, &created)

	hl := doJSON(t, h, "GET", "/api/queries/"+created.ID+"/highlight", "")
	require.Equal(t, 200, hl.Code)

	var resp struct {
		Results []struct {
			ModelID  string         `json:"modelId"`
			Marked   string         `json:"marked"`
			Mentions map[string]int `json:"mentions"`
		} `json:"results"`
	}
	decode(t, hl, &resp)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, `<mark class="brand-highlight">Pepsi</mark> &gt; others`, resp.Results[0].Marked)
	assert.Equal(t, 1, resp.Results[0].Mentions["Pepsi"])

	assert.Equal(t, 404, doJSON(t, h, "GET", "/api/queries/nope/highlight", "").Code)
}

func TestExportImport(t *testing.T) {
	h, st := newTestHandler(t)
	require.NoError(t, st.SetCredentials(models.CredentialSet{"gpt": "sk-123"}))

	rec := doJSON(t, h, "GET", "/api/export", "")
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "brandscope-export.json")

	fresh, freshStore := newTestHandler(t)
	imp := doJSON(t, fresh, "POST", "/api/import", rec.Body.String())
	require.Equal(t, 204, imp.Code, imp.Body.String())

	creds, err := freshStore.Credentials()
	require.NoError(t, err)
	assert.Equal(t, "sk-123", creds["gpt"])

	bad := doJSON(t, fresh, "POST", "/api/import", `{"apiKeys": {broken`)
	assert.Equal(t, 400, bad.Code)
}
