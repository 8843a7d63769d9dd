package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB membuka koneksi database dari environment. Default MySQL;
// set DB_DRIVER=sqlite untuk development/test lokal tanpa server.
func InitDB() (*gorm.DB, error) {
	// TranslateError supaya duplicate key dari driver terbaca sebagai
	// gorm.ErrDuplicatedKey; race first-touch ledger bergantung padanya.
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	if os.Getenv("DB_DRIVER") == "sqlite" {
		path := os.Getenv("DB_PATH")
		if path == "" {
			path = "scheduling.db"
		}
		return gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), gormConfig)
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		envOr("DB_HOST", "127.0.0.1"),
		envOr("DB_PORT", "3306"),
		envOr("DB_NAME", "scheduling_engine"),
	)
	return gorm.Open(mysql.Open(dsn), gormConfig)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
