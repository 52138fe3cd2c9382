package upstream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Invalid(t *testing.T) {
	_, err := New(map[string]string{"billing": "  "}, time.Second)
	assert.Error(t, err)
}

func TestClient_Services(t *testing.T) {
	c, err := New(map[string]string{"orders": "http://o", "billing": "http://b"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"billing", "orders"}, c.Services())
}

func TestClient_Forward(t *testing.T) {
	var (
		gotMethod, gotPath, gotQuery, gotBody string
		gotHeader                             http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("page")
		gotHeader = r.Header.Clone()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := New(map[string]string{"orders": srv.URL + "/v2/"}, time.Second)
	require.NoError(t, err)

	resp, err := c.Forward(context.Background(), "orders", Request{
		Method:   http.MethodPost,
		Path:     "items/42",
		RawQuery: "page=3",
		Header: map[string]string{
			"Content-Type": "application/json",
			"X-Request-ID": "rid-1",
			"X-User-ID":    "user-1",
			"Accept":       "",
		},
		Body: []byte(`{"qty":1}`),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v2/items/42", gotPath)
	assert.Equal(t, "3", gotQuery)
	assert.Equal(t, `{"qty":1}`, gotBody)
	assert.Equal(t, "rid-1", gotHeader.Get("X-Request-ID"))
	assert.Equal(t, "user-1", gotHeader.Get("X-User-ID"))
}

func TestClient_Forward_UpstreamErrorStatusRelayed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	defer srv.Close()

	c, err := New(map[string]string{"tea": srv.URL}, time.Second)
	require.NoError(t, err)

	resp, err := c.Forward(context.Background(), "tea", Request{Path: "/"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestClient_Forward_RedirectRelayed(t *testing.T) {
	var followed bool
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		followed = true
		_, _ = w.Write([]byte("followed /new"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(map[string]string{"legacy": srv.URL}, time.Second)
	require.NoError(t, err)

	resp, err := c.Forward(context.Background(), "legacy", Request{
		Method: http.MethodGet,
		Path:   "old",
		Header: map[string]string{"Authorization": "Bearer t", "X-User-ID": "user-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/new", resp.Location)
	assert.False(t, followed)
}

func TestClient_Forward_GetWithBody(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(map[string]string{"search": srv.URL}, time.Second)
	require.NoError(t, err)

	_, err = c.Forward(context.Background(), "search", Request{
		Method: http.MethodGet,
		Path:   "query",
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   []byte(`{"a":1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, gotBody)
}

func TestClient_Forward_UnknownService(t *testing.T) {
	c, err := New(map[string]string{}, time.Second)
	require.NoError(t, err)

	_, err = c.Forward(context.Background(), "ghost", Request{})
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestClient_Forward_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(map[string]string{"down": url}, time.Second)
	require.NoError(t, err)

	_, err = c.Forward(context.Background(), "down", Request{Method: http.MethodGet, Path: "/ping"})
	assert.ErrorIs(t, err, ErrUnavailable)
}
