package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func callWith(t *testing.T, mw func(http.Handler) http.Handler, id, key string, withCreds bool) *httptest.ResponseRecorder {
	t.Helper()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/exports", nil)
	if withCreds {
		req.SetBasicAuth(id, key)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChannelAuthPlainKey(t *testing.T) {
	mw := ChannelAuth("desk-1", "secret")

	tests := []struct {
		name       string
		id         string
		key        string
		withCreds  bool
		wantStatus int
	}{
		{name: "valid credentials", id: "desk-1", key: "secret", withCreds: true, wantStatus: http.StatusNoContent},
		{name: "wrong key", id: "desk-1", key: "nope", withCreds: true, wantStatus: http.StatusUnauthorized},
		{name: "wrong channel", id: "desk-2", key: "secret", withCreds: true, wantStatus: http.StatusUnauthorized},
		{name: "missing header", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := callWith(t, mw, tt.id, tt.key, tt.withCreds)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestChannelAuthBcryptKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	mw := ChannelAuth("desk-1", string(hash))

	rec := callWith(t, mw, "desk-1", "secret", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = callWith(t, mw, "desk-1", "wrong", true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChannelAuthRejectsWhenUnconfigured(t *testing.T) {
	mw := ChannelAuth("", "")

	rec := callWith(t, mw, "desk-1", "secret", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
