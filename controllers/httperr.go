package controllers

import (
	"errors"
	"net/http"

	"Gin_postgres_redis_device_tracker/app"
	"Gin_postgres_redis_device_tracker/db"

	"github.com/gin-gonic/gin"
)

// respondErr 把 repo 层的错误分类映射到 HTTP 状态码：
// 无效输入 400 / 不存在 404 / 冲突 409，其余一律 500。
func respondErr(c *gin.Context, err error) {
	var missing *db.MissingDevicesError
	if errors.As(err, &missing) {
		c.JSON(http.StatusNotFound, app.H{"error": err.Error(), "missingIds": missing.IDs})
		return
	}

	switch {
	case errors.Is(err, db.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrDeviceNotFound), errors.Is(err, db.ErrAssignmentNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrBarcodeTaken),
		errors.Is(err, db.ErrAlreadyAssigned),
		errors.Is(err, db.ErrNotAssignable),
		errors.Is(err, db.ErrStaleVersion),
		errors.Is(err, db.ErrDeviceInUse):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}
