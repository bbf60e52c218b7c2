package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/technotronz/symposium/internal/config"
	"github.com/technotronz/symposium/internal/middleware"
	"github.com/technotronz/symposium/internal/models"
	"github.com/technotronz/symposium/internal/services"
)

// ProfileHandler serves the signed-in participant's profile.
type ProfileHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	users    *services.UserStore
	payments *services.PaymentStore
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(db *gorm.DB, cfg *config.Config, users *services.UserStore, payments *services.PaymentStore) *ProfileHandler {
	return &ProfileHandler{db: db, cfg: cfg, users: users, payments: payments}
}

type completeRegistrationRequest struct {
	Name         string `json:"name" validate:"required"`
	CollegeName  string `json:"collegeName" validate:"required"`
	MobileNumber string `json:"mobileNumber" validate:"required,len=10,numeric"`
	YearOfStudy  string `json:"yearOfStudy" validate:"required"`
	Department   string `json:"department" validate:"required"`
}

// CompleteRegistration fills in the participant profile and re-issues the
// session so the token reflects the completed registration.
func (h *ProfileHandler) CompleteRegistration(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	}

	var req completeRegistrationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"name":                   strings.TrimSpace(req.Name),
		"college_name":           strings.TrimSpace(req.CollegeName),
		"mobile_number":          req.MobileNumber,
		"year_of_study":          strings.TrimSpace(req.YearOfStudy),
		"department":             strings.TrimSpace(req.Department),
		"registration_completed": true,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "User not found")
	}

	user, err := h.users.FindUser(c.UserContext(), userID)
	if err != nil {
		return serviceError(err)
	}
	if err := issueSession(c, h.cfg, user); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Registration completed successfully!",
	})
}

// Me returns the full profile with registrations, workshop flags and payment state.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	ctx := c.UserContext()
	user, err := h.users.LoadProfile(ctx, userID)
	if err != nil {
		return serviceError(err)
	}
	agg, err := h.payments.FindPaymentAggregate(ctx, userID)
	if err != nil {
		return err
	}

	events := make([]string, 0, len(user.EventRegistrations))
	for _, r := range user.EventRegistrations {
		events = append(events, r.EventID)
	}
	workshops := make([]string, 0, len(user.WorkshopRegistrations))
	for _, r := range user.WorkshopRegistrations {
		workshops = append(workshops, r.WorkshopID)
	}
	flags := make(map[string]string, len(user.WorkshopStatuses))
	for _, s := range user.WorkshopStatuses {
		flags[s.WorkshopID] = s.PaymentStatus
	}

	var payment fiber.Map
	if agg != nil {
		payment = fiber.Map{
			"eventFeePaid":   agg.EventFeePaid,
			"eventFeeAmount": agg.EventFeeAmount,
			"workshopsPaid":  agg.WorkshopsPaid,
		}
	}

	return c.JSON(fiber.Map{
		"id":                    user.ID,
		"name":                  user.Name,
		"email":                 user.Email,
		"tzId":                  user.TzID,
		"collegeName":           user.CollegeName,
		"mobileNumber":          user.MobileNumber,
		"yearOfStudy":           user.YearOfStudy,
		"department":            user.Department,
		"registrationCompleted": user.RegistrationCompleted,
		"role":                  user.Role,
		"eventsRegistered":      events,
		"workshopsRegistered":   workshops,
		"workshopPayments":      flags,
		"payment":               payment,
		"createdAt":             user.CreatedAt,
		"updatedAt":             user.UpdatedAt,
	})
}
