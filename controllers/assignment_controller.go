// controllers/assignment_controller.go
package controllers

import (
	"log"
	"net/http"
	"strconv"

	"Gin_postgres_redis_device_tracker/app"
	"Gin_postgres_redis_device_tracker/models"

	"github.com/gin-gonic/gin"
)

type AssignmentController struct{ *Srv }

func NewAssignmentController(s *Srv) *AssignmentController { return &AssignmentController{Srv: s} }

// 把设备分配给工单
func (ac *AssignmentController) Assign(c *gin.Context) {
	var in struct {
		OrderID  string `json:"orderId" binding:"required,uuid"`
		DeviceID string `json:"deviceId" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	a, err := ac.Repo.AssignDevice(c.Request.Context(), in.OrderID, in.DeviceID)
	if err != nil {
		respondErr(c, err)
		return
	}

	ac.Cache.Invalidate(c.Request.Context(), in.DeviceID)
	if _, err := ac.Repo.LogAssignmentEvent(c.Request.Context(), "assign", in.OrderID, in.DeviceID, actorFrom(c), nil); err != nil {
		log.Printf("audit assign %s -> %s: %v", in.DeviceID, in.OrderID, err) // 审计失败不回滚分配
	}
	log.Printf("device %s assigned to order %s", in.DeviceID, in.OrderID)
	c.JSON(http.StatusCreated, a)
}

// 释放设备；resultingStatus 是调用方对归还设备的评估，只落在台账上
func (ac *AssignmentController) Release(c *gin.Context) {
	var in struct {
		DeviceID        string `json:"deviceId" binding:"required,uuid"`
		ResultingStatus string `json:"resultingStatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	status, ok := models.ParseDeviceStatus(in.ResultingStatus)
	if !ok || status == models.StatusOccupied {
		c.JSON(http.StatusBadRequest, app.H{"error": "resultingStatus must be GOOD_CONDITION, FAIR or NEEDS_REPAIR"})
		return
	}

	a, err := ac.Repo.ReleaseDevice(c.Request.Context(), in.DeviceID, status)
	if err != nil {
		respondErr(c, err)
		return
	}

	ac.Cache.Invalidate(c.Request.Context(), in.DeviceID)
	if _, err := ac.Repo.LogAssignmentEvent(c.Request.Context(), "release", a.OrderID, in.DeviceID, actorFrom(c), nil); err != nil {
		log.Printf("audit release %s: %v", in.DeviceID, err)
	}
	log.Printf("device %s released, recorded status %s", in.DeviceID, status)
	c.JSON(http.StatusOK, a)
}

// 已释放的分配历史，按释放时间倒序
func (ac *AssignmentController) History(c *gin.Context) {
	rows, err := ac.Repo.ListAssignmentHistory(c.Request.Context(), c.Param("deviceId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"history": rows})
}

// 单台设备的 active 标记；设备不存在返回 active=false
func (ac *AssignmentController) HasActiveAssignment(c *gin.Context) {
	deviceID := c.Param("deviceId")
	ctx := c.Request.Context()

	if active, ok := ac.Cache.Get(ctx, deviceID); ok {
		c.JSON(http.StatusOK, app.H{"deviceId": deviceID, "active": active})
		return
	}

	active, err := ac.Repo.HasActiveAssignment(ctx, deviceID)
	if err != nil {
		respondErr(c, err)
		return
	}
	ac.Cache.Set(ctx, deviceID, active)
	c.JSON(http.StatusOK, app.H{"deviceId": deviceID, "active": active})
}

// 批量查询 active 标记；先查缓存，miss 的再查台账并回填
func (ac *AssignmentController) HasActiveAssignments(c *gin.Context) {
	var in struct {
		IDs []string `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	cached := make(map[string]bool, len(in.IDs))
	var misses []string
	for _, id := range in.IDs {
		if active, ok := ac.Cache.Get(ctx, id); ok {
			cached[id] = active
		} else {
			misses = append(misses, id)
		}
	}

	if len(misses) > 0 {
		flags, err := ac.Repo.HasActiveAssignments(ctx, misses)
		if err != nil {
			respondErr(c, err)
			return
		}
		for _, f := range flags {
			cached[f.DeviceID] = f.Active
			ac.Cache.Set(ctx, f.DeviceID, f.Active)
		}
	}

	out := make([]app.H, 0, len(in.IDs))
	for _, id := range in.IDs {
		out = append(out, app.H{"deviceId": id, "active": cached[id]})
	}
	c.JSON(http.StatusOK, out)
}

// 审计流水（排障用）：GET /devices-assignments/log?deviceId=&limit=
func (ac *AssignmentController) ListAuditLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := ac.Repo.ListAssignmentLog(c.Request.Context(), c.Query("deviceId"), limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"entries": rows})
}
