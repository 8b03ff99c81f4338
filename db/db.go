package db

import (
	"Gin_postgres_redis_device_tracker/models"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	// TranslateError: 把驱动的唯一约束冲突翻译成 gorm.ErrDuplicatedKey
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(conn); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return conn
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Device{}, &models.DeviceAssignment{}, &models.AssignmentLog{}); err != nil {
		return err
	}

	// 同一设备最多一条“未释放”的分配
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_open_per_device
	  ON %s (device_id)
	  WHERE released_at IS NULL;
	`, models.AssignmentTable, models.AssignmentTable)).Error; err != nil {
		return err
	}

	// 查询历史（按释放时间倒序）更快
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_released_device_desc
	  ON %s (device_id, released_at DESC)
	  WHERE released_at IS NOT NULL;
	`, models.AssignmentTable, models.AssignmentTable)).Error; err != nil {
		return err
	}

	return nil
}
