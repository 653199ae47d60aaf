package repository

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/Ifelsik/livecall/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *ORMrepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	rep, err := NewORMrepository(db, log)
	require.NoError(t, err)
	return rep
}

func newRecord(n int) *models.CallRecord {
	return &models.CallRecord{
		CallID:         fmt.Sprintf("0190c3b2-0000-7000-8000-%012d", n),
		Method:         "GET",
		URL:            fmt.Sprintf("http://example.com/items/%d", n),
		StatusCode:     200,
		Message:        "OK",
		Outcome:        models.OutcomeSuccess,
		RequestHeader:  datatypes.JSON(`{"Accept":["application/json"]}`),
		ResponseHeader: datatypes.JSON(`{"Content-Type":["text/plain"]}`),
		ElapsedMS:      int64(n),
	}
}

func TestCreateCallRecordReturnsID(t *testing.T) {
	rep := newTestRepository(t)
	ctx := context.Background()

	first, err := rep.CreateCallRecord(ctx, newRecord(1))
	require.NoError(t, err)
	second, err := rep.CreateCallRecord(ctx, newRecord(2))
	require.NoError(t, err)

	assert.NotZero(t, first)
	assert.Greater(t, second, first)
}

func TestCreateCallRecordDuplicateCallID(t *testing.T) {
	rep := newTestRepository(t)
	ctx := context.Background()

	_, err := rep.CreateCallRecord(ctx, newRecord(1))
	require.NoError(t, err)

	_, err = rep.CreateCallRecord(ctx, newRecord(1))
	require.Error(t, err)
}

func TestGetCallRecordByID(t *testing.T) {
	rep := newTestRepository(t)
	ctx := context.Background()

	id, err := rep.CreateCallRecord(ctx, newRecord(7))
	require.NoError(t, err)

	got, err := rep.GetCallRecordByID(ctx, uint64(id))
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "http://example.com/items/7", got.URL)
	assert.Equal(t, models.OutcomeSuccess, got.Outcome)
	assert.EqualValues(t, 7, got.ElapsedMS)
	assert.JSONEq(t, `{"Accept":["application/json"]}`, string(got.RequestHeader))
	assert.JSONEq(t, `{"Content-Type":["text/plain"]}`, string(got.ResponseHeader))
}

func TestGetCallRecordByIDNotFound(t *testing.T) {
	rep := newTestRepository(t)

	got, err := rep.GetCallRecordByID(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, got)
}

func TestGetCallRecordsNewestFirstWithLimit(t *testing.T) {
	rep := newTestRepository(t)
	ctx := context.Background()

	var ids []uint
	for i := 1; i <= 3; i++ {
		id, err := rep.CreateCallRecord(ctx, newRecord(i))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	records, err := rep.GetCallRecords(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, ids[2], records[0].ID)
	assert.Equal(t, ids[1], records[1].ID)
	assert.Equal(t, "http://example.com/items/3", records[0].URL)
	assert.Equal(t, "OK", records[0].Message)
	// Headers are left out of the list query.
	assert.Empty(t, records[0].RequestHeader)
	assert.Empty(t, records[0].ResponseHeader)
}

func TestGetCallRecordsEmpty(t *testing.T) {
	rep := newTestRepository(t)

	records, err := rep.GetCallRecords(context.Background(), 25)
	require.NoError(t, err)
	assert.Empty(t, records)
}
