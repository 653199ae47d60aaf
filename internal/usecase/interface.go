package usecase

import (
	"context"
	"time"

	"github.com/Ifelsik/livecall/internal/call"
)

type CallsListHistory struct {
	ID         uint   `json:"id"`
	Method     string `json:"method"`
	URL        string `json:"url"`
	StatusCode int    `json:"statusCode"`
	Outcome    string `json:"outcome"`
}

type CallHistory struct {
	ID             uint                `json:"id"`
	CallID         string              `json:"callId"`
	CreatedAt      time.Time           `json:"createdAt"`
	Method         string              `json:"method"`
	URL            string              `json:"url"`
	StatusCode     int                 `json:"statusCode"`
	Outcome        string              `json:"outcome"`
	Message        string              `json:"message"`
	Error          string              `json:"error,omitempty"`
	RequestHeader  map[string][]string `json:"requestHeader"`
	ResponseHeader map[string][]string `json:"responseHeader"`
	ElapsedMS      int64               `json:"elapsedMs"`
}

type UseCase interface {
	call.Listener
	GetCallsHistory(ctx context.Context) ([]*CallsListHistory, error)
	GetCallByID(ctx context.Context, id uint64) (*CallHistory, error)
}
