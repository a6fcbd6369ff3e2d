package models

// RoleViewer can read templates and dispatch history but not edit schedules.
// It is also the only role that can log in without a password.
const RoleViewer = "viewer"

// RoleAdmin can manage templates, schedules, and users.
const RoleAdmin = "admin"

// User is an operator account for the API and CLI.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}
