package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/transport/http/middleware"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/usecase"
)

// DeviceHandler exposes the caller's device registry.
type DeviceHandler struct {
	devices *usecase.DeviceService
	logger  *zap.Logger
}

// NewDeviceHandler builds a new device handler instance.
func NewDeviceHandler(devices *usecase.DeviceService, log *zap.Logger) *DeviceHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DeviceHandler{devices: devices, logger: log}
}

// List handles GET /api/v1/devices.
func (h *DeviceHandler) List(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	devices, err := h.devices.List(c.Request.Context(), accountID)
	if err != nil {
		respondWithUsecaseError(c, h.logger, err)
		return
	}

	response := make([]DeviceResponse, 0, len(devices))
	for _, device := range devices {
		response = append(response, DeviceResponse{
			DeviceID:   device.DeviceID,
			Name:       device.Name,
			Class:      device.Class,
			Trusted:    device.Trusted,
			Active:     device.Active,
			LastUsedAt: device.LastUsedAt,
			ExpiresAt:  device.ExpiresAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"devices": response})
}

// Trust handles POST /api/v1/devices/:id/trust. Restricted to admins by
// routing; identity was already proven through a stronger channel.
func (h *DeviceHandler) Trust(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	deviceID := c.Param("id")

	if err := h.devices.Trust(c.Request.Context(), accountID, deviceID); err != nil {
		respondWithUsecaseError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "device trusted"})
}

// Revoke handles DELETE /api/v1/devices/:id.
func (h *DeviceHandler) Revoke(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	deviceID := c.Param("id")

	if err := h.devices.Revoke(c.Request.Context(), accountID, deviceID); err != nil {
		respondWithUsecaseError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "device revoked"})
}
