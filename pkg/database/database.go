package database

import (
	"fmt"
	"log"
	"qdrt_backend/internal/config"
	"qdrt_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the MySQL connection string for cfg.
func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)
}

// InitDB opens the state database. The state_entries table is migrated when migrate is set
// or when it does not exist yet.
func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(DSN(cfg)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if migrate || !db.Migrator().HasTable(&model.StateEntry{}) {
		if err := db.AutoMigrate(&model.StateEntry{}); err != nil {
			return nil, err
		}
		log.Println("Database migration completed")
	}

	return db, nil
}
