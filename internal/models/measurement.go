// Package models contains the data models for the application.
package models

// Point is a single captured 2D screen coordinate contributing to a measurement.
// Point ids are assigned by the capturing client; the server does not enforce
// uniqueness among them.
type Point struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	ID string  `json:"id"`
}

// MeasurementResult holds the geometric quantities derived by the client.
// Which fields are populated depends on the measurement mode; the server
// stores whatever subset the client computed.
type MeasurementResult struct {
	Distance  *float64 `json:"distance,omitempty"`
	Area      *float64 `json:"area,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
	Perimeter *float64 `json:"perimeter,omitempty"`
}

// Measurement is a persisted AR measurement session. ID and Timestamp are
// assigned by the server at creation; the record is immutable afterwards.
// Timestamp is milliseconds since epoch and is the sole sort key for listing.
type Measurement struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Mode             string            `json:"mode"`
	Points           []Point           `json:"points"`
	CalibrationScale float64           `json:"calibrationScale"`
	Result           MeasurementResult `json:"result"`
	Unit             string            `json:"unit"`
	Timestamp        int64             `json:"timestamp"`
	ImageData        string            `json:"imageData,omitempty"`
}

// PointPayload is a point as submitted by the client. Coordinates are
// pointers so that 0 still satisfies the required binding.
type PointPayload struct {
	X  *float64 `json:"x" binding:"required"`
	Y  *float64 `json:"y" binding:"required"`
	ID string   `json:"id" binding:"required"`
}

// CreateMeasurementRequest is the request body for creating a measurement.
// Every field except ImageData is required; id and timestamp are never
// accepted from the client.
type CreateMeasurementRequest struct {
	Name             string             `json:"name" binding:"required"`
	Mode             string             `json:"mode" binding:"required"`
	Points           []PointPayload     `json:"points" binding:"required,dive"`
	CalibrationScale *float64           `json:"calibrationScale" binding:"required"`
	Result           *MeasurementResult `json:"result" binding:"required"`
	Unit             string             `json:"unit" binding:"required"`
	ImageData        string             `json:"imageData"`
}

// MeasurementExport is the reduced projection returned for format=csv
// exports. The mobile client consumes this as structured JSON, not as
// comma-separated text.
type MeasurementExport struct {
	Name      string            `json:"name"`
	Mode      string            `json:"mode"`
	Result    MeasurementResult `json:"result"`
	Timestamp int64             `json:"timestamp"`
}

// Export returns the csv projection of the measurement.
func (m *Measurement) Export() MeasurementExport {
	return MeasurementExport{
		Name:      m.Name,
		Mode:      m.Mode,
		Result:    m.Result,
		Timestamp: m.Timestamp,
	}
}

// MessageResponse is the body for confirmation responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// DetailResponse is the error body for not-found and internal errors.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// FieldError describes a single field-level validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse carries the per-field problems of a rejected
// request body.
type ValidationErrorResponse struct {
	Detail []FieldError `json:"detail"`
}
