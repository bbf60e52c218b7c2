package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/technotronz/symposium/internal/models"
	"github.com/technotronz/symposium/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// DashboardStats returns participant and payment totals.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var completedUsers int64
	if err := h.db.Model(&models.User{}).Where("registration_completed = ?", true).Count(&completedUsers).Error; err != nil {
		return err
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.PaymentTransaction{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	txnsByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		txnsByStatus[sc.Status] = sc.Count
	}

	type typeRevenue struct {
		Type  string `json:"type"`
		Total int64  `json:"total"`
	}
	var revenueRows []typeRevenue
	if err := h.db.Model(&models.PaymentTransaction{}).
		Where("status = ?", models.PaymentStatusSuccess).
		Select("type, COALESCE(SUM(amount), 0) as total").
		Group("type").
		Scan(&revenueRows).Error; err != nil {
		return err
	}

	var totalRevenue int64
	revenueByType := make(map[string]int64)
	for _, r := range revenueRows {
		revenueByType[r.Type] = r.Total
		totalRevenue += r.Total
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":             totalUsers,
			"completed_registrations": completedUsers,
			"transactions_by_status":  txnsByStatus,
			"revenue_by_type":         revenueByType,
			"total_revenue":           totalRevenue,
		},
	})
}

// ListTransactions returns PayApp transaction history, optionally filtered.
func (h *AdminHandler) ListTransactions(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.PaymentTransaction{})

	if status := strings.ToUpper(strings.TrimSpace(c.Query("status"))); status != "" {
		switch status {
		case models.PaymentStatusPending, models.PaymentStatusSuccess, models.PaymentStatusFailed:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "invalid status")
		}
		query = query.Where("status = ?", status)
	}
	if txnType := strings.ToUpper(strings.TrimSpace(c.Query("type"))); txnType != "" {
		if txnType != models.PaymentTypeEvent && txnType != models.PaymentTypeWorkshop {
			return fiber.NewError(fiber.StatusBadRequest, "invalid type")
		}
		query = query.Where("type = ?", txnType)
	}
	if userID := strings.TrimSpace(c.Query("user_id")); userID != "" {
		parsed, err := uuid.Parse(userID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
		}
		query = query.Where("user_id = ?", parsed)
	}
	if txnID := strings.TrimSpace(c.Query("txn_id")); txnID != "" {
		query = query.Where("txn_id = ?", txnID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var txns []models.PaymentTransaction
	if err := query.
		Order("created_at desc").
		Limit(pg.Limit).
		Offset(pg.Offset).
		Find(&txns).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    txns,
		"pagination": pg.Meta(total),
	})
}
