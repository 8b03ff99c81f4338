package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// Request validation happens before any repo call, so these run without a
// database behind the Srv.
func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	s := &Srv{}
	dc := NewDeviceController(s)
	ac := NewAssignmentController(s)

	r := gin.New()
	r.POST("/devices", dc.CreateDevice)
	r.GET("/devices/statuses", dc.ListDevicesByStatuses)
	r.PUT("/devices/update-batch", dc.UpdateDevicesBatch)
	r.POST("/devices/restore", dc.RestoreDevices)
	r.POST("/devices-assignments/assign", ac.Assign)
	r.POST("/devices-assignments/release", ac.Release)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateDevice_Validation(t *testing.T) {
	r := testRouter()

	w := do(r, http.MethodPost, "/devices", `{"brand":"acme","barcode":"BC-1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code) // name missing

	w = do(r, http.MethodPost, "/devices", `{"name":"drill","brand":"acme","barcode":"BC-1","status":"BROKEN"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "unknown status")
}

func TestListDevicesByStatuses_Validation(t *testing.T) {
	r := testRouter()

	w := do(r, http.MethodGet, "/devices/statuses", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/devices/statuses?statuses=GOOD_CONDITION,NOPE", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatch_Validation(t *testing.T) {
	r := testRouter()

	w := do(r, http.MethodPut, "/devices/update-batch", `{"deviceIds":[],"state":"FAIR"}`)
	require.Equal(t, http.StatusBadRequest, w.Code) // 空批量

	w = do(r, http.MethodPut, "/devices/update-batch", `{"deviceIds":["x"],"state":"NOPE"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/devices/restore", `{"items":[{"deviceId":"x"}]}`)
	require.Equal(t, http.StatusBadRequest, w.Code) // state missing
}

func TestAssignRelease_Validation(t *testing.T) {
	r := testRouter()

	w := do(r, http.MethodPost, "/devices-assignments/assign", `{"orderId":"not-a-uuid","deviceId":"also-not"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/devices-assignments/assign", `{"deviceId":"3f0b6a4e-34a1-4e0a-9a68-9f6b1e3d7c21"}`)
	require.Equal(t, http.StatusBadRequest, w.Code) // orderId missing

	// OCCUPIED 不是合法的归还评估
	w = do(r, http.MethodPost, "/devices-assignments/release",
		`{"deviceId":"3f0b6a4e-34a1-4e0a-9a68-9f6b1e3d7c21","resultingStatus":"OCCUPIED"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "resultingStatus")
}
