package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(f float64) *float64 {
	return &f
}

func TestMeasurement_JSONMarshaling(t *testing.T) {
	measurement := Measurement{
		ID:   "test-uuid",
		Name: "Room width",
		Mode: "distance",
		Points: []Point{
			{X: 100, Y: 200, ID: "p1"},
			{X: 300, Y: 400, ID: "p2"},
		},
		CalibrationScale: 2.5,
		Result:           MeasurementResult{Distance: floatPtr(350.5)},
		Unit:             "metric",
		Timestamp:        1735689600123,
	}

	data, err := json.Marshal(measurement)
	assert.NoError(t, err)

	var unmarshaled Measurement
	err = json.Unmarshal(data, &unmarshaled)
	assert.NoError(t, err)

	assert.Equal(t, measurement.ID, unmarshaled.ID)
	assert.Equal(t, measurement.Points, unmarshaled.Points)
	assert.Equal(t, measurement.CalibrationScale, unmarshaled.CalibrationScale)
	assert.Equal(t, measurement.Timestamp, unmarshaled.Timestamp)
	assert.Equal(t, 350.5, *unmarshaled.Result.Distance)
}

func TestMeasurement_PointOrderPreserved(t *testing.T) {
	// Point order defines the polygon path and must survive serialization.
	points := []Point{
		{X: 3, Y: 1, ID: "c"},
		{X: 1, Y: 2, ID: "a"},
		{X: 2, Y: 3, ID: "b"},
	}

	data, err := json.Marshal(Measurement{ID: "m1", Points: points})
	assert.NoError(t, err)

	var unmarshaled Measurement
	err = json.Unmarshal(data, &unmarshaled)
	assert.NoError(t, err)
	assert.Equal(t, points, unmarshaled.Points)
}

func TestMeasurementResult_OmitsAbsentFields(t *testing.T) {
	result := MeasurementResult{Area: floatPtr(12.25)}

	data, err := json.Marshal(result)
	assert.NoError(t, err)

	var parsed map[string]interface{}
	err = json.Unmarshal(data, &parsed)
	assert.NoError(t, err)

	assert.Contains(t, parsed, "area")
	assert.NotContains(t, parsed, "distance")
	assert.NotContains(t, parsed, "volume")
	assert.NotContains(t, parsed, "perimeter")
}

func TestMeasurement_OmitsEmptyImageData(t *testing.T) {
	data, err := json.Marshal(Measurement{ID: "m1"})
	assert.NoError(t, err)

	var parsed map[string]interface{}
	err = json.Unmarshal(data, &parsed)
	assert.NoError(t, err)
	assert.NotContains(t, parsed, "imageData")

	data, err = json.Marshal(Measurement{ID: "m1", ImageData: "base64-payload"})
	assert.NoError(t, err)

	err = json.Unmarshal(data, &parsed)
	assert.NoError(t, err)
	assert.Equal(t, "base64-payload", parsed["imageData"])
}

func TestMeasurement_Export(t *testing.T) {
	measurement := Measurement{
		ID:   "test-uuid",
		Name: "Garden plot",
		Mode: "area",
		Points: []Point{
			{X: 0, Y: 0, ID: "p1"},
			{X: 10, Y: 0, ID: "p2"},
			{X: 10, Y: 10, ID: "p3"},
		},
		CalibrationScale: 1.5,
		Result:           MeasurementResult{Area: floatPtr(225), Perimeter: floatPtr(60)},
		Unit:             "metric",
		Timestamp:        1735689600123,
		ImageData:        "snapshot",
	}

	export := measurement.Export()

	assert.Equal(t, measurement.Name, export.Name)
	assert.Equal(t, measurement.Mode, export.Mode)
	assert.Equal(t, measurement.Result, export.Result)
	assert.Equal(t, measurement.Timestamp, export.Timestamp)

	// The projection serializes to exactly four keys.
	data, err := json.Marshal(export)
	assert.NoError(t, err)

	var parsed map[string]interface{}
	err = json.Unmarshal(data, &parsed)
	assert.NoError(t, err)
	assert.Len(t, parsed, 4)
	assert.NotContains(t, parsed, "points")
	assert.NotContains(t, parsed, "imageData")
}

func TestValidationErrorResponse_Structure(t *testing.T) {
	response := ValidationErrorResponse{
		Detail: []FieldError{
			{Field: "calibrationScale", Message: "field required"},
		},
	}

	data, err := json.Marshal(response)
	assert.NoError(t, err)

	var parsed map[string]interface{}
	err = json.Unmarshal(data, &parsed)
	assert.NoError(t, err)

	detail, ok := parsed["detail"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, detail, 1)
}

func TestDetailResponse_Structure(t *testing.T) {
	data, err := json.Marshal(DetailResponse{Detail: "Measurement not found"})
	assert.NoError(t, err)

	var parsed map[string]interface{}
	err = json.Unmarshal(data, &parsed)
	assert.NoError(t, err)
	assert.Equal(t, "Measurement not found", parsed["detail"])
}
