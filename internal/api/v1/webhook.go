package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/funduq/funduq/internal/config"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/logger"
	"github.com/funduq/funduq/internal/service"
	"github.com/funduq/funduq/internal/types"
	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	webhookService service.WebhookService
	config         *config.Configuration
	log            *logger.Logger
}

func NewWebhookHandler(webhookService service.WebhookService, cfg *config.Configuration, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		config:         cfg,
		log:            log,
	}
}

// @Summary Receive a Moyasar webhook
// @Description Verifies the signature, records the delivery and applies it
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-Moyasar-Signature header string false "HMAC-SHA256 signature"
// @Param X-Moyasar-Timestamp header string false "Signature timestamp"
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 401 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /webhooks/moyasar [post]
func (h *WebhookHandler) HandleMoyasarWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.config.Server.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Error(ierr.WithError(err).
				WithHintf("Webhook body exceeds %d bytes", tooLarge.Limit).
				Mark(ierr.ErrValidation))
			return
		}
		c.Error(ierr.WithError(err).
			WithHint("Failed to read webhook body").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.webhookService.HandleMoyasarWebhook(c.Request.Context(), &service.WebhookDelivery{
		Body:      body,
		Signature: c.GetHeader(types.HeaderMoyasarSignature),
		Timestamp: c.GetHeader(types.HeaderMoyasarTimestamp),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
