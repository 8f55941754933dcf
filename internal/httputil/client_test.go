package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid https", "https://vimeo.com/api/oembed.json", false},
		{"http rejected", "http://vimeo.com/api/oembed.json", true},
		{"no host", "https://", true},
		{"malformed", "://bad", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateMediaURL(t *testing.T) {
	assert.NoError(t, ValidateMediaURL("http://example.com/a.mp4"))
	assert.NoError(t, ValidateMediaURL("https://example.com/a.mp4"))
	assert.Error(t, ValidateMediaURL("ftp://example.com/a.mp4"))
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"duration": 62}`))
	}))
	defer srv.Close()

	var out struct {
		Duration float64 `json:"duration"`
	}
	require.NoError(t, GetJSON(t.Context(), srv.Client(), srv.URL+"/ok", &out))
	assert.Equal(t, 62.0, out.Duration)

	err := GetJSON(t.Context(), srv.Client(), srv.URL+"/missing?client_id=secret", &out)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.True(t, statusErr.NotFound())
	assert.NotContains(t, statusErr.Error(), "secret")
}

func TestProbeFallsBackToGet(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		assert.Equal(t, "token", r.Header.Get("X-Auth"))
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusPartialContent)
	}))
	defer srv.Close()

	resp, err := Probe(t.Context(), srv.Client(), srv.URL+"/clip.mp4", map[string]string{"X-Auth": "token"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, []string{http.MethodHead, http.MethodGet}, methods)
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := Probe(t.Context(), srv.Client(), srv.URL+"/error.ogv", nil)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}
