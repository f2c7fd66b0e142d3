package models

import "time"

// UserProfile holds the account-holder section of the consent-data feed.
// Fields are passed through from the FIP as-is; the service never derives
// anything from them beyond the contact address for notifications.
type UserProfile struct {
	ID             string    `json:"id,omitempty"`
	Name           string    `json:"name"`
	DOB            string    `json:"dob,omitempty"`
	Mobile         string    `json:"mobile,omitempty"`
	Email          string    `json:"email,omitempty"`
	PAN            string    `json:"pan,omitempty"`
	Address        string    `json:"address,omitempty"`
	Nominee        string    `json:"nominee,omitempty"`
	CKYCCompliance bool      `json:"ckycCompliance,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}
