package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticClaims uuid.UUID

func (c staticClaims) GetUserID() uuid.UUID { return uuid.UUID(c) }

type mapValidator map[string]uuid.UUID

func (v mapValidator) ValidateToken(token string) (UserIDGetter, error) {
	id, ok := v[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return staticClaims(id), nil
}

func echoUser(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(id.String()))
	})
}

func TestRequireUser(t *testing.T) {
	user := uuid.New()
	validator := mapValidator{"good": user, "nobody": uuid.Nil}
	handler := RequireUser(validator)(echoUser(t))

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"no token", "Bearer", http.StatusUnauthorized},
		{"extra parts", "Bearer good extra", http.StatusUnauthorized},
		{"unknown token", "Bearer bad", http.StatusUnauthorized},
		{"nil user", "Bearer nobody", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/forms/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, user.String(), rec.Body.String())
				return
			}
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "unauthorized", body["code"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestUserID_Absent(t *testing.T) {
	_, ok := UserID(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), userIDKey, "not-a-uuid")
	_, ok = UserID(ctx)
	assert.False(t, ok)
}

func TestWithUserID(t *testing.T) {
	id := uuid.New()
	got, ok := UserID(WithUserID(context.Background(), id))
	require.True(t, ok)
	assert.Equal(t, id, got)
}
