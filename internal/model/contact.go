package model

import "strings"

// RawContact is a contact row as exported from the customer database.
// Blank fields are treated as absent.
type RawContact struct {
	Phone string `csv:"client_phone" json:"client_phone"`
	Name  string `csv:"client_name" json:"client_name"`
	Email string `csv:"client_email" json:"client_email"`
}

// CleanContact is a contact that passed phone and name validation.
// Phone is unique across a cleaned set.
type CleanContact struct {
	Phone     string `csv:"client_phone" json:"client_phone"`
	Name      string `csv:"client_name" json:"client_name"`
	Email     string `csv:"client_email,omitempty" json:"client_email,omitempty"`
	FirstName string `csv:"first_name" json:"first_name"`
	TestGroup string `csv:"test_group,omitempty" json:"test_group,omitempty"`
}

// HasEmail reports whether the contact carries a non-blank email.
func (c CleanContact) HasEmail() bool {
	return hasText(c.Email)
}

// HasFirstName reports whether a first name was derived for the contact.
func (c CleanContact) HasFirstName() bool {
	return hasText(c.FirstName)
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
