package database

import (
	"agri_training_backend/internal/config"
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/util"
	applog "agri_training_backend/pkg/logger"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go.uber.org/zap"
)

// Models 按外键依赖顺序排列，迁移和重置都用这个顺序
func Models() []interface{} {
	return []interface{}{
		&model.Employee{},
		&model.Program{},
		&model.WorkStream{},
		&model.WorkPlan{},
		&model.Target{},
		&model.Schedule{},
		&model.FieldTeam{},
		&model.Task{},
		&model.FarmerData{},
		&model.QuizRecord{},
	}
}

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case util.DriverMySQL, "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case util.DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)
		return postgres.Open(dsn), nil
	case util.DriverSQLite:
		// 外键约束在 SQLite 中默认关闭
		return sqlite.Open(cfg.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// InitDB 连接数据库并迁移表结构。表结构跨重启保留，resetDemo 为 true 时才会先删表。
func InitDB(cfg *config.DatabaseConfig, debug bool, resetDemo bool) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	applog.Log.Info("Database connection established", zap.String("driver", cfg.Driver))

	if resetDemo {
		if err := ResetSchema(db); err != nil {
			return nil, err
		}
		applog.Log.Warn("Demo reset: all tables dropped")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	applog.Log.Info("Database migration completed")

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// ResetSchema 按依赖逆序删除所有表
func ResetSchema(db *gorm.DB) error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(models[i]); err != nil {
			return err
		}
	}
	return nil
}
