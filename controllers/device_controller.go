// controllers/device_controller.go
package controllers

import (
	"net/http"
	"strings"

	"Gin_postgres_redis_device_tracker/app"
	"Gin_postgres_redis_device_tracker/db"
	"Gin_postgres_redis_device_tracker/models"

	"github.com/gin-gonic/gin"
)

type DeviceController struct{ *Srv }

func NewDeviceController(s *Srv) *DeviceController { return &DeviceController{Srv: s} }

// 创建一台设备（barcode 全局唯一）
func (dc *DeviceController) CreateDevice(c *gin.Context) {
	var in struct {
		Name    string `json:"name" binding:"required,max=100"`
		Brand   string `json:"brand" binding:"required,max=100"`
		Barcode string `json:"barcode" binding:"required,max=120"`
		Status  string `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	status := models.StatusGoodCondition
	if in.Status != "" {
		s, ok := models.ParseDeviceStatus(in.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, app.H{"error": "unknown status: " + in.Status})
			return
		}
		status = s
	}

	d, err := dc.Repo.CreateDevice(c.Request.Context(), db.CreateDeviceInput{
		Name: in.Name, Brand: in.Brand, Barcode: in.Barcode, Status: status,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (dc *DeviceController) GetDevice(c *gin.Context) {
	d, err := dc.Repo.FindDeviceByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (dc *DeviceController) GetDeviceByBarcode(c *gin.Context) {
	d, err := dc.Repo.FindDeviceByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (dc *DeviceController) ListDevices(c *gin.Context) {
	ds, err := dc.Repo.ListDevices(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"devices": ds})
}

// 按单个状态过滤：GET /devices/status/:status
func (dc *DeviceController) ListDevicesByStatus(c *gin.Context) {
	s, ok := models.ParseDeviceStatus(c.Param("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, app.H{"error": "unknown status: " + c.Param("status")})
		return
	}
	ds, err := dc.Repo.ListDevicesByStatuses(c.Request.Context(), []models.DeviceStatus{s})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"devices": ds})
}

// 按多个状态过滤：GET /devices/statuses?statuses=GOOD_CONDITION,FAIR
func (dc *DeviceController) ListDevicesByStatuses(c *gin.Context) {
	raw := c.Query("statuses")
	if strings.TrimSpace(raw) == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "statuses query param is required"})
		return
	}
	var statuses []models.DeviceStatus
	for _, part := range strings.Split(raw, ",") {
		s, ok := models.ParseDeviceStatus(strings.TrimSpace(part))
		if !ok {
			c.JSON(http.StatusBadRequest, app.H{"error": "unknown status: " + part})
			return
		}
		statuses = append(statuses, s)
	}
	ds, err := dc.Repo.ListDevicesByStatuses(c.Request.Context(), statuses)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"devices": ds})
}

// 批量查询设备信息（供订单服务一次取回多台）
func (dc *DeviceController) GetDevicesByIDs(c *gin.Context) {
	var in struct {
		IDs []string `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	ds, err := dc.Repo.ListDevicesByIDs(c.Request.Context(), in.IDs)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"devices": ds})
}

// 部分更新；version 必须是调用方读到的当前值
func (dc *DeviceController) UpdateDevice(c *gin.Context) {
	var in struct {
		Name    *string `json:"name"`
		Brand   *string `json:"brand"`
		Barcode *string `json:"barcode"`
		Status  *string `json:"status"`
		Version *int64  `json:"version" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	upd := db.UpdateDeviceInput{
		Name: in.Name, Brand: in.Brand, Barcode: in.Barcode, Version: *in.Version,
	}
	if in.Status != nil {
		s, ok := models.ParseDeviceStatus(*in.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, app.H{"error": "unknown status: " + *in.Status})
			return
		}
		upd.Status = &s
	}

	d, err := dc.Repo.UpdateDevice(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (dc *DeviceController) DeleteDevice(c *gin.Context) {
	if err := dc.Repo.DeleteDevice(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// 管理侧批量置状态（绕过台账，直接改设备）
func (dc *DeviceController) UpdateDevicesBatch(c *gin.Context) {
	var in struct {
		DeviceIDs []string `json:"deviceIds" binding:"required,min=1"`
		State     string   `json:"state" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	status, ok := models.ParseDeviceStatus(in.State)
	if !ok {
		c.JSON(http.StatusBadRequest, app.H{"error": "unknown status: " + in.State})
		return
	}

	if err := dc.Repo.UpdateStatusBatch(c.Request.Context(), in.DeviceIDs, status); err != nil {
		respondErr(c, err)
		return
	}
	// 状态改了，缓存的 active 标记不受影响（由台账决定），无需失效
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// 批量恢复到各自指定的状态
func (dc *DeviceController) RestoreDevices(c *gin.Context) {
	var in struct {
		Items []struct {
			DeviceID string `json:"deviceId" binding:"required"`
			State    string `json:"state" binding:"required"`
		} `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	items := make([]db.RestoreItem, 0, len(in.Items))
	for _, it := range in.Items {
		status, ok := models.ParseDeviceStatus(it.State)
		if !ok {
			c.JSON(http.StatusBadRequest, app.H{"error": "unknown status: " + it.State})
			return
		}
		items = append(items, db.RestoreItem{DeviceID: it.DeviceID, Status: status})
	}

	if err := dc.Repo.RestoreStates(c.Request.Context(), items); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
