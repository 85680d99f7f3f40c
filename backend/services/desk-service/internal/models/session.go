package models

import "time"

// SessionState tracks lifecycle. A session only moves forward:
// planned -> active -> completed.
type SessionState string

const (
	SessionStatePlanned   SessionState = "planned"
	SessionStateActive    SessionState = "active"
	SessionStateCompleted SessionState = "completed"
)

// PaymentStatus values.
type PaymentStatus string

const (
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentMethod values.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodMixed  PaymentMethod = "mixed"
)

// Session represents one timed, billed usage period of a station.
// Time-of-day fields are minutes since midnight; LoginMinutes is meaningful
// only when State is active or completed, LogoutMinutes and the derived
// fields only when State is completed.
type Session struct {
	ID             int64         `db:"id" json:"id"`
	Date           string        `db:"date" json:"date"`
	CustomerName   string        `db:"customer_name" json:"customer_name"`
	StationID      int64         `db:"station_id" json:"station_id"`
	StationName    string        `db:"station_name" json:"station_name"`
	State          SessionState  `db:"state" json:"state"`
	PlannedMinutes int           `db:"planned_minutes" json:"planned_minutes"`
	LoginMinutes   int           `db:"login_minutes" json:"login_minutes"`
	LogoutMinutes  int           `db:"logout_minutes" json:"logout_minutes"`
	ActualMinutes  int           `db:"actual_minutes" json:"actual_minutes"`
	HourlyRate     float64       `db:"hourly_rate" json:"hourly_rate"`
	ExtraCharges   float64       `db:"extra_charges" json:"extra_charges"`
	TotalDue       float64       `db:"total_due" json:"total_due"`
	PaymentMethod  PaymentMethod `db:"payment_method" json:"payment_method"`
	PaymentStatus  PaymentStatus `db:"payment_status" json:"payment_status"`
	Notes          string        `db:"notes" json:"notes"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the session currently occupies its station.
func (s *Session) IsActive() bool {
	return s.State == SessionStateActive
}

// ValidPaymentMethod reports whether m is one of the known methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodOnline, PaymentMethodMixed:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether s is one of the known statuses.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusPending, PaymentStatusRefunded:
		return true
	}
	return false
}
