package routes

import (
	"Gin_postgres_redis_device_tracker/app"
	"Gin_postgres_redis_device_tracker/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	deviceCtl := controllers.NewDeviceController(s)
	assignCtl := controllers.NewAssignmentController(s)

	// 复用的中间件
	authMW := app.AuthRequired(a.Config)

	// ------------------------------
	// 设备 CRUD + 批量
	// ------------------------------
	devices := r.Group("/devices", authMW)
	{
		devices.POST("", deviceCtl.CreateDevice)
		devices.GET("", deviceCtl.ListDevices)
		devices.GET("/statuses", deviceCtl.ListDevicesByStatuses) // ?statuses=GOOD_CONDITION,FAIR
		devices.GET("/status/:status", deviceCtl.ListDevicesByStatus)
		devices.GET("/barcode/:barcode", deviceCtl.GetDeviceByBarcode)
		devices.POST("/batch", deviceCtl.GetDevicesByIDs)
		devices.PUT("/update-batch", deviceCtl.UpdateDevicesBatch)
		devices.POST("/restore", deviceCtl.RestoreDevices)
		devices.GET("/:id", deviceCtl.GetDevice)
		devices.PUT("/:id", deviceCtl.UpdateDevice)
		devices.DELETE("/:id", deviceCtl.DeleteDevice)
	}

	// ------------------------------
	// 分配台账
	// ------------------------------
	assignments := r.Group("/devices-assignments", authMW)
	{
		assignments.POST("/assign", assignCtl.Assign)
		assignments.POST("/release", assignCtl.Release)
		assignments.GET("/:deviceId/history", assignCtl.History)
		assignments.GET("/:deviceId/active", assignCtl.HasActiveAssignment)
		assignments.POST("/devices/active", assignCtl.HasActiveAssignments)
		assignments.GET("/log", assignCtl.ListAuditLog) // ?deviceId=&limit=
	}
}
