package handlers

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/technotronz/symposium/internal/middleware"
	"github.com/technotronz/symposium/internal/services"
)

// PaymentHandler starts PayApp payments and receives their callbacks.
type PaymentHandler struct {
	payments *services.PaymentService
	verifier *services.VerificationService
	baseURL  string
}

// NewPaymentHandler constructs a PaymentHandler. Callback redirects go to pages under baseURL.
func NewPaymentHandler(payments *services.PaymentService, verifier *services.VerificationService, baseURL string) *PaymentHandler {
	return &PaymentHandler{payments: payments, verifier: verifier, baseURL: baseURL}
}

// Status returns the user's payment aggregate, creating the default one on first read.
func (h *PaymentHandler) Status(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	agg, err := h.payments.Status(c.UserContext(), userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{
		"eventFeePaid":   agg.EventFeePaid,
		"eventFeeAmount": agg.EventFeeAmount,
		"workshopsPaid":  agg.WorkshopsPaid,
	})
}

// Initiate creates a transaction and returns the PayApp payment page for it.
func (h *PaymentHandler) Initiate(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	var req services.InitiatePaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.payments.Initiate(c.UserContext(), userID, req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"paymentUrl": res.PaymentURL,
		"txnId":      res.TxnID,
	})
}

type callbackBody struct {
	Data          string `json:"data"`
	DycryptString string `json:"dycryptstring"`
}

func (b callbackBody) payload() string {
	if b.Data != "" {
		return b.Data
	}
	return b.DycryptString
}

// VerifyGet handles the browser redirect from PayApp (?data=...).
func (h *PaymentHandler) VerifyGet(c *fiber.Ctx) error {
	encrypted := c.Query("data")
	if encrypted == "" {
		encrypted = c.Query("dycryptstring")
	}
	logrus.WithField("length", len(encrypted)).Info("payment callback received (GET)")
	return h.verify(c, encrypted)
}

// VerifyPost handles a posted callback carrying the payload as JSON, form
// fields or a raw url-encoded body.
func (h *PaymentHandler) VerifyPost(c *fiber.Ctx) error {
	encrypted, ok := postedPayload(c)
	if !ok {
		return h.redirectFailure(c, services.VerificationResult{Reason: services.ReasonParseError})
	}
	logrus.WithField("length", len(encrypted)).Info("payment callback received (POST)")
	return h.verify(c, encrypted)
}

// postedPayload reads the payload from a JSON or form body. A body that does
// not decode as declared is re-read as url-encoded form data; only a body
// that fails both ways is reported as unparseable.
func postedPayload(c *fiber.Ctx) (string, bool) {
	contentType := strings.ToLower(c.Get(fiber.HeaderContentType))
	body := c.Body()

	if !strings.Contains(contentType, fiber.MIMEApplicationForm) {
		var b callbackBody
		if err := json.Unmarshal(body, &b); err == nil {
			return b.payload(), true
		}
	}
	return formPayload(string(body))
}

func formPayload(raw string) (string, bool) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "", false
	}
	if v := values.Get("data"); v != "" {
		return v, true
	}
	return values.Get("dycryptstring"), true
}

func (h *PaymentHandler) verify(c *fiber.Ctx, encrypted string) error {
	result := h.verifier.Verify(c.UserContext(), encrypted)
	if result.Success {
		return c.Redirect(h.baseURL+"/payment/success?"+url.Values{"txn_id": {result.TxnID}}.Encode(), fiber.StatusSeeOther)
	}
	return h.redirectFailure(c, result)
}

func (h *PaymentHandler) redirectFailure(c *fiber.Ctx, result services.VerificationResult) error {
	q := url.Values{}
	if result.Reason != "" {
		q.Set("reason", result.Reason)
	}
	if result.TxnID != "" {
		q.Set("txn_id", result.TxnID)
	}
	return c.Redirect(h.baseURL+"/payment/failure?"+q.Encode(), fiber.StatusSeeOther)
}
