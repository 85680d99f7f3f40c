// Package validate holds the field validators guarding every raw input that
// can reach the session lifecycle. Each validator is total: malformed input
// is an expected outcome reported through the returned *deskerr.ValidationError,
// never a panic. On success the normalized value is returned for downstream
// reuse (the billing calculator consumes minutes since midnight, not the raw
// clock string).
package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"gamedesk/backend/services/desk-service/internal/deskerr"
)

// Field names used in validation errors.
const (
	FieldCustomerName  = "customer_name"
	FieldStation       = "station_id"
	FieldLoginTime     = "login_time"
	FieldLogoutTime    = "logout_time"
	FieldHourlyRate    = "hourly_rate"
	FieldExtraCharges  = "extra_charges"
	FieldNotes         = "notes"
	FieldPaymentStatus = "payment_status"
	FieldDate          = "date"
)

const (
	customerNameMin = 2
	customerNameMax = 100
	notesMax        = 500
	hourlyRateMax   = 10000
	extraChargesMax = 100000
)

var (
	namePattern = regexp.MustCompile(`^[A-Za-z0-9 '-]+$`)

	// 12-hour clock: H:MM or HH:MM, hour 1-12, optional space before AM/PM.
	clock12Pattern = regexp.MustCompile(`^(0?[1-9]|1[0-2]):([0-5][0-9])\s*([AaPp][Mm])$`)
	// 24-hour clock: H:MM or HH:MM, hour 0-23.
	clock24Pattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// CustomerName returns the trimmed name. Length must be 2-100 and only
// letters, digits, spaces, hyphens and apostrophes are allowed.
func CustomerName(raw string) (string, *deskerr.ValidationError) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", deskerr.Validation(FieldCustomerName, "Customer name cannot be empty.")
	}
	if len(name) < customerNameMin {
		return "", deskerr.Validation(FieldCustomerName, "Customer name must be at least 2 characters long.")
	}
	if len(name) > customerNameMax {
		return "", deskerr.Validation(FieldCustomerName, "Customer name cannot exceed 100 characters.")
	}
	if !namePattern.MatchString(name) {
		return "", deskerr.Validation(FieldCustomerName,
			"Customer name contains invalid characters. Use letters, numbers, spaces, hyphens, or apostrophes.")
	}
	return name, nil
}

// StationName applies the customer-name length and charset rules to a
// station name.
func StationName(raw string) (string, *deskerr.ValidationError) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", deskerr.Validation("station_name", "Station name cannot be empty.")
	}
	if len(name) < customerNameMin || len(name) > customerNameMax {
		return "", deskerr.Validation("station_name", "Station name must be between 2 and 100 characters.")
	}
	if !namePattern.MatchString(name) {
		return "", deskerr.Validation("station_name",
			"Station name contains invalid characters. Use letters, numbers, spaces, hyphens, or apostrophes.")
	}
	return name, nil
}

// Clock parses a time of day in either 12-hour ("2:30 PM") or 24-hour
// ("14:30") form and returns it normalized to minutes since midnight.
// The field parameter names the offending field in the error.
func Clock(field, raw string) (int, *deskerr.ValidationError) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, deskerr.Validation(field, "Time cannot be empty.")
	}

	if m := clock12Pattern.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		hour %= 12
		if strings.EqualFold(m[3], "pm") {
			hour += 12
		}
		return hour*60 + minute, nil
	}

	if m := clock24Pattern.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return hour*60 + minute, nil
	}

	return 0, deskerr.Validation(field,
		"Invalid time format. Use HH:MM AM/PM (e.g., 2:30 PM) or HH:MM in 24-hour format.")
}

// HourlyRate parses the rate and enforces 0 < rate <= 10000. The three
// failure reasons (not a number, non-positive, unreasonably high) stay
// distinct so the caller can decide how hard to reject the last one.
func HourlyRate(raw string) (float64, *deskerr.ValidationError) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, deskerr.Validation(FieldHourlyRate, "Hourly rate cannot be empty.")
	}
	rate, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, deskerr.Validation(FieldHourlyRate, "Hourly rate must be a valid number (e.g., 50.00).")
	}
	if rate <= 0 {
		return 0, deskerr.Validation(FieldHourlyRate, "Hourly rate must be greater than 0.")
	}
	if rate > hourlyRateMax {
		return 0, deskerr.Validation(FieldHourlyRate, "Hourly rate seems too high. Please verify.")
	}
	return rate, nil
}

// ExtraCharges parses extra charges and enforces 0 <= charges <= 100000.
func ExtraCharges(raw string) (float64, *deskerr.ValidationError) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, deskerr.Validation(FieldExtraCharges, "Extra charges cannot be empty.")
	}
	charges, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, deskerr.Validation(FieldExtraCharges, "Extra charges must be a valid number (e.g., 10.50).")
	}
	if charges < 0 {
		return 0, deskerr.Validation(FieldExtraCharges, "Extra charges cannot be negative.")
	}
	if charges > extraChargesMax {
		return 0, deskerr.Validation(FieldExtraCharges, "Extra charges amount seems too high. Please verify.")
	}
	return charges, nil
}

// Notes accepts anything up to 500 characters; empty is valid.
func Notes(raw string) (string, *deskerr.ValidationError) {
	if utf8.RuneCountInString(raw) > notesMax {
		return "", deskerr.Validation(FieldNotes, "Notes cannot exceed 500 characters.")
	}
	return raw, nil
}

// Date checks the YYYY-MM-DD shape used for session dates.
func Date(raw string) (string, *deskerr.ValidationError) {
	s := strings.TrimSpace(raw)
	if !datePattern.MatchString(s) {
		return "", deskerr.Validation(FieldDate, "Date must be in YYYY-MM-DD format.")
	}
	return s, nil
}
