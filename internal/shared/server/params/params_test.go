package params

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func contextFor(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x?"+rawQuery, nil)
	return c
}

func TestInt(t *testing.T) {
	c := contextFor("limit=10&offset=abc")
	assert.Equal(t, 10, Int(c, "limit", 5))
	assert.Equal(t, 7, Int(c, "offset", 7))
	assert.Equal(t, 3, Int(c, "missing", 3))
}

func TestPage(t *testing.T) {
	limit, offset := Page(contextFor("limit=-1&offset=4"))
	assert.Equal(t, -1, limit)
	assert.Equal(t, 4, offset)

	limit, offset = Page(contextFor(""))
	assert.Zero(t, limit)
	assert.Zero(t, offset)
}
