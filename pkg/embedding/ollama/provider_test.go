package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lontok/kala-rag/pkg/embedding"
	"github.com/lontok/kala-rag/pkg/embedding/ollama"
)

func newEmbedServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		embeddings := make([][]float32, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dim)
			vec[0] = float32(i)
			embeddings[i] = vec
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":      req.Model,
			"embeddings": embeddings,
		})
	}))
}

func TestEmbed(t *testing.T) {
	srv := newEmbedServer(t, 768)
	defer srv.Close()

	p := ollama.NewProviderWithConfig(&ollama.Config{
		BaseURL:    srv.URL,
		EmbedModel: "nomic-embed-text",
		Timeout:    5 * time.Second,
	})

	vecs, err := p.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], 768)
	assert.Equal(t, float32(1), vecs[1][0])
}

func TestEmbedEmptyInput(t *testing.T) {
	p := ollama.NewProviderWithConfig(ollama.DefaultConfig())

	vecs, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedSingle(t *testing.T) {
	srv := newEmbedServer(t, 8)
	defer srv.Close()

	p := ollama.NewProviderWithConfig(&ollama.Config{
		BaseURL:    srv.URL,
		EmbedModel: "nomic-embed-text",
		Timeout:    5 * time.Second,
	})

	vec, err := p.EmbedSingle(context.Background(), "query text")
	require.NoError(t, err)
	assert.Len(t, vec, 8)
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := ollama.NewProviderWithConfig(&ollama.Config{
		BaseURL:    srv.URL,
		EmbedModel: "nomic-embed-text",
		Timeout:    5 * time.Second,
	})

	_, err := p.Embed(context.Background(), []string{"text"})
	assert.Error(t, err)
}

func TestRegisteredFactory(t *testing.T) {
	p, err := embedding.New(ollama.ProviderName, map[string]any{
		"base_url":    "http://example.invalid:11434",
		"embed_model": "custom-model",
	})
	require.NoError(t, err)
	assert.Equal(t, ollama.ProviderName, p.Name())
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{{"name": "nomic-embed-text"}},
		})
	}))
	defer srv.Close()

	p := ollama.NewProviderWithConfig(&ollama.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	assert.NoError(t, p.Ping(context.Background()))

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"nomic-embed-text"}, models)
}
