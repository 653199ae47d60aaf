package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Ifelsik/livecall/internal/call"
	"github.com/Ifelsik/livecall/internal/models"
	"github.com/Ifelsik/livecall/internal/repository"
	"github.com/Ifelsik/livecall/internal/result"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const historyLimit = 25

type HistoryUseCase struct {
	logger     *logrus.Entry
	repository repository.Repository
}

func NewHistoryUseCase(repo repository.Repository, log *logrus.Logger) *HistoryUseCase {
	return &HistoryUseCase{
		logger:     logrus.NewEntry(log),
		repository: repo,
	}
}

// BuildRecord maps a finished call onto the row stored for it. Outcome and
// Message are classified from the event the same way the adapter classifies
// the response. Calls bound through api.Client decode straight into the
// declared body type, so both agree there; an adapter that rejects the body
// after decoding is not visible to the listener and is stored as success.
func (u *HistoryUseCase) BuildRecord(e call.Event) (*models.CallRecord, error) {
	requestHeader, err := marshalHeader(e.RequestHeader)
	if err != nil {
		return nil, fmt.Errorf("marshal request header: %w", err)
	}
	responseHeader, err := marshalHeader(e.ResponseHeader)
	if err != nil {
		return nil, fmt.Errorf("marshal response header: %w", err)
	}

	record := &models.CallRecord{
		CallID:         e.ID.String(),
		Method:         e.Method,
		URL:            e.URL,
		StatusCode:     e.StatusCode,
		RequestHeader:  requestHeader,
		ResponseHeader: responseHeader,
		ElapsedMS:      e.Elapsed.Milliseconds(),
	}

	var envelope result.SuccessError[struct{}]
	if e.Err != nil {
		record.Error = e.Err.Error()
		envelope = result.Failure[struct{}](e.Err.Error())
	} else {
		envelope = result.FromResponse(&call.Response[struct{}]{
			StatusCode: e.StatusCode,
			Message:    e.Message,
			HasBody:    e.HasBody,
		})
	}

	record.Outcome = models.OutcomeSuccess
	record.Message = e.Message
	if envelope.IsFailure() {
		record.Outcome = models.OutcomeFailure
		record.Message = envelope.Message
	}
	return record, nil
}

// CallCompleted stores e. Failures are logged and otherwise ignored.
func (u *HistoryUseCase) CallCompleted(ctx context.Context, e call.Event) {
	log := u.logger.WithField("call_id", e.ID.String())

	record, err := u.BuildRecord(e)
	if err != nil {
		log.Errorf("Failed to build call record: %v", err)
		return
	}

	// The call's own context may already be cancelled; the record outlives it.
	id, err := u.repository.CreateCallRecord(context.WithoutCancel(ctx), record)
	if err != nil {
		log.Errorf("Failed to save call record: %v", err)
		return
	}
	log.Debugf("Call record %d saved", id)
}

func (u *HistoryUseCase) GetCallsHistory(ctx context.Context) ([]*CallsListHistory, error) {
	u.logger.Debugln("Getting calls history")

	records, err := u.repository.GetCallRecords(ctx, historyLimit)
	if err != nil {
		u.logger.Errorf("Failed to get calls history: %v", err)
		return nil, err
	}

	history := make([]*CallsListHistory, len(records))
	for i, record := range records {
		history[i] = &CallsListHistory{
			ID:         record.ID,
			Method:     record.Method,
			URL:        record.URL,
			StatusCode: record.StatusCode,
			Outcome:    record.Outcome,
		}
	}

	return history, nil
}

func (u *HistoryUseCase) GetCallByID(ctx context.Context, id uint64) (*CallHistory, error) {
	u.logger.Debugf("Getting call by id: %d", id)

	record, err := u.repository.GetCallRecordByID(ctx, id)
	if err != nil {
		u.logger.Errorf("Failed to get call: %v", err)
		return nil, err
	}

	requestHeader, err := unmarshalHeader(record.RequestHeader)
	if err != nil {
		return nil, fmt.Errorf("unmarshal request header: %w", err)
	}
	responseHeader, err := unmarshalHeader(record.ResponseHeader)
	if err != nil {
		return nil, fmt.Errorf("unmarshal response header: %w", err)
	}

	return &CallHistory{
		ID:             record.ID,
		CallID:         record.CallID,
		CreatedAt:      record.CreatedAt,
		Method:         record.Method,
		URL:            record.URL,
		StatusCode:     record.StatusCode,
		Outcome:        record.Outcome,
		Message:        record.Message,
		Error:          record.Error,
		RequestHeader:  requestHeader,
		ResponseHeader: responseHeader,
		ElapsedMS:      record.ElapsedMS,
	}, nil
}

func marshalHeader(h http.Header) (datatypes.JSON, error) {
	if h == nil {
		h = http.Header{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func unmarshalHeader(raw datatypes.JSON) (map[string][]string, error) {
	header := map[string][]string{}
	if len(raw) == 0 {
		return header, nil
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, err
	}
	return header, nil
}
