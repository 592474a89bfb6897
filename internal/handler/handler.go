// Package handler provides the HTTP handlers for the measurement API.
package handler

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ar-measure/backend/internal/cache"
	"github.com/ar-measure/backend/internal/database"
	"github.com/ar-measure/backend/internal/models"
)

// rootMessage is the constant identity string served at the API root. The
// mobile client pings it on startup.
const rootMessage = "AR Mess-App API"

const notFoundDetail = "Measurement not found"

func init() {
	// Report validation problems under the JSON field names the client sent.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// Handler provides HTTP handlers for measurement and status check operations.
type Handler struct {
	repo   database.Repository
	cache  cache.Cache
	logger *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(repo database.Repository, cache cache.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// RegisterRoutes registers the handler routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.Root)
	rg.POST("/status", h.CreateStatusCheck)
	rg.GET("/status", h.GetStatusChecks)
	rg.POST("/measurements", h.CreateMeasurement)
	rg.GET("/measurements", h.GetMeasurements)
	rg.GET("/measurements/:id", h.GetMeasurement)
	rg.DELETE("/measurements/:id", h.DeleteMeasurement)
	rg.GET("/measurements/export/:id", h.ExportMeasurement)
}

// Root serves the API identity message.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, models.MessageResponse{Message: rootMessage})
}

// CreateStatusCheck handles the creation of a new status check.
func (h *Handler) CreateStatusCheck(c *gin.Context) {
	var req models.CreateStatusCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid status check request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, validationResponse(err))
		return
	}

	ctx := context.Background()
	check, err := h.repo.CreateStatusCheck(ctx, &req)
	if err != nil {
		h.logger.Error("Failed to create status check", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.DetailResponse{Detail: "failed to create status check"})
		return
	}

	c.JSON(http.StatusOK, check)
}

// GetStatusChecks handles retrieving all status checks.
func (h *Handler) GetStatusChecks(c *gin.Context) {
	checks, err := h.repo.GetStatusChecks(context.Background())
	if err != nil {
		h.logger.Error("Failed to get status checks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.DetailResponse{Detail: "failed to retrieve status checks"})
		return
	}

	c.JSON(http.StatusOK, checks)
}

// CreateMeasurement handles the creation of a new measurement. The id and
// timestamp are assigned server-side; nothing is persisted when validation
// fails.
func (h *Handler) CreateMeasurement(c *gin.Context) {
	var req models.CreateMeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid measurement request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, validationResponse(err))
		return
	}

	ctx := context.Background()
	measurement, err := h.repo.CreateMeasurement(ctx, &req)
	if err != nil {
		h.logger.Error("Failed to create measurement", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.DetailResponse{Detail: "failed to create measurement"})
		return
	}

	_ = h.cache.Set(ctx, measurement)

	c.JSON(http.StatusOK, measurement)
}

// GetMeasurements handles retrieving all measurements, newest first.
func (h *Handler) GetMeasurements(c *gin.Context) {
	ctx := context.Background()

	measurements, found, err := h.cache.GetList(ctx)
	if err == nil && found {
		h.logger.Debug("Returning cached measurement list")
		c.JSON(http.StatusOK, measurements)
		return
	}

	measurements, err = h.repo.GetMeasurements(ctx)
	if err != nil {
		h.logger.Error("Failed to get measurements", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.DetailResponse{Detail: "failed to retrieve measurements"})
		return
	}

	_ = h.cache.SetList(ctx, measurements)

	c.JSON(http.StatusOK, measurements)
}

// GetMeasurement handles retrieving a single measurement by id.
func (h *Handler) GetMeasurement(c *gin.Context) {
	id := c.Param("id")
	ctx := context.Background()

	measurement, ok := h.fetchMeasurement(ctx, c, id)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, measurement)
}

// DeleteMeasurement handles deleting a measurement by id.
func (h *Handler) DeleteMeasurement(c *gin.Context) {
	id := c.Param("id")
	ctx := context.Background()

	if err := h.repo.DeleteMeasurement(ctx, id); err != nil {
		if errors.Is(err, database.ErrMeasurementNotFound) {
			c.JSON(http.StatusNotFound, models.DetailResponse{Detail: notFoundDetail})
			return
		}

		h.logger.Error("Failed to delete measurement", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.DetailResponse{Detail: "failed to delete measurement"})
		return
	}

	_ = h.cache.Delete(ctx, id)

	c.JSON(http.StatusOK, models.MessageResponse{Message: "Measurement deleted"})
}

// ExportMeasurement handles exporting a measurement in the requested format.
// "csv" returns the reduced name/mode/result/timestamp projection; "json"
// and any unrecognized format return the full document.
func (h *Handler) ExportMeasurement(c *gin.Context) {
	id := c.Param("id")
	format := c.DefaultQuery("format", "json")
	ctx := context.Background()

	measurement, ok := h.fetchMeasurement(ctx, c, id)
	if !ok {
		return
	}

	if format == "csv" {
		c.JSON(http.StatusOK, measurement.Export())
		return
	}

	c.JSON(http.StatusOK, measurement)
}

// fetchMeasurement looks up a measurement via the cache with store
// fallthrough. On a miss in both it writes the 404 response and reports
// false; on a store failure it writes the 500 response.
func (h *Handler) fetchMeasurement(ctx context.Context, c *gin.Context, id string) (*models.Measurement, bool) {
	measurement, err := h.cache.Get(ctx, id)
	if err == nil && measurement != nil {
		h.logger.Debug("Returning cached measurement", zap.String("id", id))
		return measurement, true
	}

	measurement, err = h.repo.GetMeasurementByID(ctx, id)
	if err != nil {
		h.logger.Error("Failed to get measurement", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.DetailResponse{Detail: "failed to retrieve measurement"})
		return nil, false
	}

	if measurement == nil {
		c.JSON(http.StatusNotFound, models.DetailResponse{Detail: notFoundDetail})
		return nil, false
	}

	_ = h.cache.Set(ctx, measurement)

	return measurement, true
}

// validationResponse turns a binding error into the per-field detail list.
// Errors that are not field validations (malformed JSON, wrong types) are
// reported as a single body-level problem.
func validationResponse(err error) models.ValidationErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.ValidationErrorResponse{
			Detail: []models.FieldError{{Field: "body", Message: err.Error()}},
		}
	}

	details := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		message := "field required"
		if fe.Tag() != "required" {
			message = "failed on '" + fe.Tag() + "' validation"
		}
		details = append(details, models.FieldError{
			Field:   fe.Field(),
			Message: message,
		})
	}

	return models.ValidationErrorResponse{Detail: details}
}
