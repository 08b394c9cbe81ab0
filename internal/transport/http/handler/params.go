package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// uintParam parses a positive id from the named path parameter.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// listQuery splits a comma separated query value, dropping blanks.
func listQuery(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
