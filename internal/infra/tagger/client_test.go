package tagger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagParsesEntities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/entities", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Jane worked in Berlin", req["text"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entities":[
			{"start":0,"end":4,"label":"PERSON","text":"Jane"},
			{"start":15,"end":21,"label":"GPE","text":"Berlin"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	entities, err := client.Tag(context.Background(), "Jane worked in Berlin")
	require.NoError(t, err)

	require.Len(t, entities, 2)
	assert.Equal(t, "PERSON", entities[0].Label)
	assert.Equal(t, "Jane", entities[0].Text)
	assert.Equal(t, 15, entities[1].Start)
	assert.Equal(t, "GPE", entities[1].Label)
}

func TestTagNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Tag(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestTagServiceUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Tag(context.Background(), "text")
	require.Error(t, err)
}
