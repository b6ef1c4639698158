package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipt-backend/internal/documents"
)

type capturingSearcher struct {
	owner  string
	filter documents.SearchFilter
	docs   []documents.Document
}

func (s *capturingSearcher) Search(_ context.Context, ownerID string, filter documents.SearchFilter) ([]documents.Document, error) {
	s.owner = ownerID
	s.filter = filter
	return s.docs, nil
}

func TestSearchNormalizesQuery(t *testing.T) {
	searcher := &capturingSearcher{}
	svc := NewService(searcher)

	_, err := svc.Search(context.Background(), "owner-1", Query{Q: "  acme ", Limit: 1000, Offset: -3})
	require.NoError(t, err)

	assert.Equal(t, "owner-1", searcher.owner)
	assert.Equal(t, "acme", searcher.filter.Query)
	assert.Equal(t, documents.MaxSearchLimit, searcher.filter.Limit)
	assert.Zero(t, searcher.filter.Offset)
}

func TestHandlerPassesParameters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	category := "receipt"
	searcher := &capturingSearcher{docs: []documents.Document{{ID: "d1", Title: "Lunch", Category: &category}}}

	r := gin.New()
	rg := r.Group("/", func(c *gin.Context) {
		c.Set("userId", "owner-1")
		c.Next()
	})
	NewHandler(NewService(searcher)).RegisterRoutes(rg)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/search?q=lunch&category=receipt&tag=food&limit=5&offset=2", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, documents.SearchFilter{Query: "lunch", Category: "receipt", Tag: "food", Limit: 5, Offset: 2}, searcher.filter)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "receipt", body[0]["category"])

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/search", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, documents.DefaultSearchLimit, searcher.filter.Limit)
}
