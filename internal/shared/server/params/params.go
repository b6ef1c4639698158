// Package params reads typed query parameters.
package params

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Int returns the query parameter key as an int, or def when it is absent
// or malformed.
func Int(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Page returns the limit and offset query parameters. Zero means unset.
func Page(c *gin.Context) (limit, offset int) {
	return Int(c, "limit", 0), Int(c, "offset", 0)
}
