package leads

import "errors"

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrInvalidChannel is returned when the intake channel is not one of the known channels
	ErrInvalidChannel = errors.New("channel must be one of web, sms, whatsapp, instagram")

	// ErrInvalidEmail is returned when a supplied email address is malformed
	ErrInvalidEmail = errors.New("email is invalid")

	// ErrConflict is returned when a concurrent writer changed the lead first
	ErrConflict = errors.New("lead was modified concurrently")
)
