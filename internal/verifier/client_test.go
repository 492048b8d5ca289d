package verifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsClientFetchRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/metrics/youtube/dQw4w9WgXcQ", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"viewCount":15234}`))
	}))
	defer srv.Close()

	client := NewMetricsClient(srv.URL, "secret-token")
	body, err := client.FetchRaw(context.Background(), "youtube", "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.JSONEq(t, `{"viewCount":15234}`, string(body))
}

func TestMetricsClientStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"not found", http.StatusNotFound, ErrMetricsNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			client := NewMetricsClient(srv.URL, "secret-token")
			_, err := client.FetchRaw(context.Background(), "youtube", "vid")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestMetricsClientProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "connector exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewMetricsClient(srv.URL, "secret-token")
	_, err := client.FetchRaw(context.Background(), "youtube", "vid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
