package sql

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"recordvault/backend/internal/domain"
	"recordvault/backend/internal/storage"
)

// Store SQL 数据库存储实现（支持 MySQL 5.7+ 和 PostgreSQL）。
//
// 单条 INSERT/DELETE 的原子性由数据库提供，无需应用层锁。
type Store struct {
	db         *sql.DB
	gormDB     *gorm.DB
	driverName string // "mysql" or "postgres"
}

// NewStore 创建 SQL 数据库存储。
func NewStore(
	driverName string,
	dsn string,
	maxOpenConns int,
	maxIdleConns int,
	connMaxLifetime time.Duration,
) (*Store, error) {
	if driverName != "mysql" && driverName != "postgres" {
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres)", driverName)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var gormDB *gorm.DB
	switch driverName {
	case "mysql":
		gormDB, err = gorm.Open(gormmysql.New(gormmysql.Config{Conn: db}), gormConfig)
	case "postgres":
		gormDB, err = gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db}), gormConfig)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize GORM: %w", err)
	}

	store := &Store{
		db:         db,
		gormDB:     gormDB,
		driverName: driverName,
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate 自动建表。
func (s *Store) migrate() error {
	return s.gormDB.AutoMigrate(&domain.Record{})
}

// SaveRecord 保存记录。
func (s *Store) SaveRecord(record *domain.Record) error {
	if err := s.gormDB.Create(record).Error; err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// GetRecord 根据 ID 获取记录。
func (s *Store) GetRecord(id string) (*domain.Record, error) {
	var record domain.Record
	err := s.gormDB.First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	return &record, nil
}

// FindRecordBySubject 按主题查找，created_at, id 排序保证稳定的首个匹配。
func (s *Store) FindRecordBySubject(subject string) (*domain.Record, error) {
	var record domain.Record
	err := s.gormDB.
		Where("subject = ?", subject).
		Order("created_at, id").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to query record by subject: %w", err)
	}
	return &record, nil
}

// DeleteRecord 删除记录。RowsAffected 为 0 时返回未找到，
// 两个并发删除只有一方拿到受影响行。
func (s *Store) DeleteRecord(id string) error {
	result := s.gormDB.Delete(&domain.Record{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrRecordNotFound
	}
	return nil
}

// CountRecords 返回记录总数。
func (s *Store) CountRecords() (int, error) {
	var count int64
	if err := s.gormDB.Model(&domain.Record{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return int(count), nil
}

// Health 检查数据库连接。
func (s *Store) Health() error {
	return s.db.Ping()
}

// Close 关闭数据库连接。
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
