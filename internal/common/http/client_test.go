package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_AppliesOptions(t *testing.T) {
	var gotUser, gotPass, gotAccept string
	var gotCookie bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		gotAccept = r.Header.Get("Accept")
		_, err := r.Cookie("SAP_SESSIONID")
		gotCookie = err == nil
		http.SetCookie(w, &http.Cookie{Name: "SAP_SESSIONID", Value: "abc"})
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{
		BaseURL:  srv.URL,
		Timeout:  5 * time.Second,
		Username: "svc",
		Password: "pw",
		Headers:  map[string]string{"Accept": "application/json"},
	})

	resp, err := client.R().Get("/first")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "svc", gotUser)
	assert.Equal(t, "pw", gotPass)
	assert.Equal(t, "application/json", gotAccept)

	_, err = client.R().Get("/second")
	require.NoError(t, err)
	assert.False(t, gotCookie, "cookies must not be carried between requests")
}
