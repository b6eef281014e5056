package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetID parses the numeric path parameter name.
func GetID(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, fmt.Errorf("%s not found", name)
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}

	return uint(id), nil
}
