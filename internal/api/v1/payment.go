package v1

import (
	"net/http"

	"github.com/funduq/funduq/internal/api/dto"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/logger"
	"github.com/funduq/funduq/internal/service"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService   service.PaymentService
	reprocessService service.ReprocessService
	log              *logger.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, reprocessService service.ReprocessService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService:   paymentService,
		reprocessService: reprocessService,
		log:              log,
	}
}

// @Summary Create a booking payment
// @Description Starts a gateway payment for a booking balance
// @Tags Payments
// @Accept json
// @Produce json
// @Param payment body dto.CreateBookingPaymentRequest true "Payment request"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 502 {object} ierr.ErrorResponse
// @Router /payments [post]
func (h *PaymentHandler) CreateBookingPayment(c *gin.Context) {
	var req dto.CreateBookingPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.paymentService.CreateBookingPayment(c.Request.Context(), &req)
	if err != nil {
		h.log.Errorw("failed to create booking payment", "booking_id", req.BookingID, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Start a subscription checkout
// @Tags Payments
// @Accept json
// @Produce json
// @Param checkout body dto.CreateSubscriptionPaymentRequest true "Checkout request"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /subscriptions/checkout [post]
func (h *PaymentHandler) CreateSubscriptionPayment(c *gin.Context) {
	var req dto.CreateSubscriptionPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.paymentService.CreateSubscriptionPayment(c.Request.Context(), &req)
	if err != nil {
		h.log.Errorw("failed to create subscription payment", "user_id", req.UserID, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a gateway payment
// @Tags Payments
// @Produce json
// @Param id path string true "Gateway payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("payment id is required").
			WithHint("Payment ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List gateway payments
// @Tags Payments
// @Produce json
// @Param filter query dto.ListPaymentsRequest false "Filter"
// @Success 200 {object} dto.ListPaymentsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	var req dto.ListPaymentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.paymentService.ListPayments(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Capture an authorized payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Gateway payment ID"
// @Param capture body dto.CapturePaymentRequest false "Capture amount"
// @Success 200 {object} dto.PaymentResponse
// @Router /payments/{id}/capture [post]
func (h *PaymentHandler) CapturePayment(c *gin.Context) {
	var req dto.CapturePaymentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.paymentService.CapturePayment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.log.Errorw("failed to capture payment", "payment_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Refund a payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Gateway payment ID"
// @Param refund body dto.RefundPaymentRequest false "Refund amount"
// @Success 200 {object} dto.PaymentResponse
// @Router /payments/{id}/refund [post]
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	var req dto.RefundPaymentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.paymentService.RefundPayment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.log.Errorw("failed to refund payment", "payment_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Reprocess payments from the gateway
// @Description Fetches each payment and applies it as if its webhook had arrived
// @Tags Payments
// @Accept json
// @Produce json
// @Param reprocess body dto.ReprocessRequest true "Payment IDs"
// @Success 200 {object} dto.ReprocessResponse
// @Router /payments/reprocess [post]
func (h *PaymentHandler) ReprocessPayments(c *gin.Context) {
	var req dto.ReprocessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.reprocessService.ReprocessPayments(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	h.log.Infow("reprocessed payments", "succeeded", resp.Succeeded, "failed", resp.Failed)
	c.JSON(http.StatusOK, resp)
}

// bindOptionalJSON binds the body when there is one. Capture and refund
// default to the full amount with an empty body.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation)
	}
	return nil
}
