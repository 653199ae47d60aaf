package repository

import (
	"context"

	"github.com/Ifelsik/livecall/internal/models"
)

type Repository interface {
	CreateCallRecord(ctx context.Context, record *models.CallRecord) (uint, error)
	GetCallRecordByID(ctx context.Context, id uint64) (*models.CallRecord, error)
	GetCallRecords(ctx context.Context, limit int) ([]*models.CallRecord, error)
}
