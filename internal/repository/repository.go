package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ifelsik/livecall/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("call record not found")

type ORMrepository struct {
	logger *logrus.Entry
	db     *gorm.DB
}

func NewORMrepository(db *gorm.DB, log *logrus.Logger) (*ORMrepository, error) {
	if err := db.AutoMigrate(&models.CallRecord{}); err != nil {
		return nil, fmt.Errorf("migrate call records: %w", err)
	}

	return &ORMrepository{
		logger: logrus.NewEntry(log),
		db:     db,
	}, nil
}

func (rep *ORMrepository) CreateCallRecord(ctx context.Context, record *models.CallRecord) (uint, error) {
	result := rep.db.WithContext(ctx).Create(record)
	if result.Error != nil {
		rep.logger.Errorf("Failed to save call record: %v", result.Error)
		return 0, result.Error
	}

	rep.logger.Debug("Call record saved")
	return record.ID, nil
}

func (rep *ORMrepository) GetCallRecordByID(ctx context.Context, id uint64) (*models.CallRecord, error) {
	rep.logger.Debugf("Getting call record by id: %d", id)

	record := new(models.CallRecord)
	result := rep.db.WithContext(ctx).Take(record, id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get call record %d: %w", id, ErrNotFound)
	}
	if result.Error != nil {
		rep.logger.Errorf("Failed to get call record: %v", result.Error)
		return nil, result.Error
	}

	return record, nil
}

// GetCallRecords returns the newest records first, without headers.
func (rep *ORMrepository) GetCallRecords(ctx context.Context, limit int) ([]*models.CallRecord, error) {
	rep.logger.Debug("Getting call records count ", limit)

	var records []*models.CallRecord
	result := rep.db.WithContext(ctx).
		Select("id", "created_at", "call_id", "method", "url", "status_code", "message", "outcome", "error", "elapsed_ms").
		Limit(limit).
		Order("id desc").
		Find(&records)
	if result.Error != nil {
		rep.logger.Errorf("Failed to get call records: %v", result.Error)
		return nil, result.Error
	}

	return records, nil
}

func ConnectPGSQL(host, user, password, dbName, port string) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host,
		user,
		password,
		dbName,
		port,
	)
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}
