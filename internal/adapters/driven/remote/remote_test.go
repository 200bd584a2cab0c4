package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

func TestNew_DisabledWithoutURL(t *testing.T) {
	assert.Nil(t, New(domain.RemoteSettings{}))
}

func TestPersistRemote(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"numeric id", http.StatusCreated, `{"id": 17}`, "17"},
		{"string id", http.StatusOK, `{"id": "doc-9"}`, "doc-9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

				var got domain.RemotePayload
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				assert.Equal(t, "abc", got.DocumentID)
				assert.Equal(t, "REC", got.Assignment.CategoryCode)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := New(domain.RemoteSettings{URL: srv.URL, Token: "secret"})
			id, err := p.PersistRemote(context.Background(), domain.RemotePayload{
				DocumentID: "abc",
				Assignment: &domain.Assignment{CategoryCode: "REC"},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestPersistRemote_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"missing id", http.StatusOK, `{}`},
		{"bad json", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(domain.RemoteSettings{URL: srv.URL}).PersistRemote(context.Background(), domain.RemotePayload{})
			assert.Error(t, err)
		})
	}
}
