package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// CallRecord is one finished call. Error is set only when the request
// never produced a response.
type CallRecord struct {
	gorm.Model
	CallID         string `gorm:"uniqueIndex; size:36; not null"`
	Method         string
	URL            string
	StatusCode     int
	Message        string
	Outcome        string `gorm:"index"`
	Error          string
	RequestHeader  datatypes.JSON
	ResponseHeader datatypes.JSON
	ElapsedMS      int64
}
