package models

import "time"

// StatusCheck is a lightweight liveness record written by clients to verify
// end-to-end connectivity through the API and store.
type StatusCheck struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// CreateStatusCheckRequest is the request body for creating a status check.
type CreateStatusCheckRequest struct {
	ClientName string `json:"client_name" binding:"required"`
}
