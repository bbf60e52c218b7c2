package models

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Workshop payment flags mirrored on the user for older readers.
const (
	WorkshopPaid    = "PAID"
	WorkshopNotPaid = "NOT_PAID"
)

// User represents a symposium participant.
type User struct {
	BaseModel
	Name                  string `json:"name"`
	Email                 string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash          string `json:"-"`
	TzID                  string `gorm:"column:tz_id;uniqueIndex" json:"tz_id"`
	CollegeName           string `json:"college_name"`
	MobileNumber          string `json:"mobile_number"`
	YearOfStudy           string `json:"year_of_study"`
	Department            string `json:"department"`
	RegistrationCompleted bool   `gorm:"default:false" json:"registration_completed"`
	Role                  string `gorm:"default:user" json:"role"`

	EventRegistrations    []EventRegistration    `json:"event_registrations,omitempty"`
	WorkshopRegistrations []WorkshopRegistration `json:"workshop_registrations,omitempty"`
	WorkshopStatuses      []UserWorkshopStatus   `json:"workshop_statuses,omitempty"`
}
