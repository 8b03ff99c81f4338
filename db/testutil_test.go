package db

import (
	"context"
	"fmt"
	"os"
	"testing"

	"Gin_postgres_redis_device_tracker/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Integration tests run against a real Postgres because the ledger's
// guarantees live in row locks and the partial unique index. Set
// TEST_DATABASE_URL to enable, e.g.
//
//	TEST_DATABASE_URL="host=127.0.0.1 user=postgres password=postgres dbname=igd_test port=5432 sslmode=disable"
func openTestRepo(t *testing.T) *Repo {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping Postgres integration test")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))

	// 每个用例从干净的表开始
	require.NoError(t, conn.Exec(fmt.Sprintf(
		"TRUNCATE %s, %s, %s",
		models.AssignmentTable, models.AssignmentLog{}.TableName(), models.DeviceTable,
	)).Error)
	return NewRepo(conn)
}

func mustCreateDevice(t *testing.T, r *Repo, status models.DeviceStatus) *models.Device {
	t.Helper()
	d, err := r.CreateDevice(context.Background(), CreateDeviceInput{
		Name:    "drill",
		Brand:   "acme",
		Barcode: "BC-" + uuid.NewString(),
		Status:  status,
	})
	require.NoError(t, err)
	return d
}
