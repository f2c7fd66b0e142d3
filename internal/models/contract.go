package models

import "time"

// EsignStatus is the e-signature state of a loan contract.
type EsignStatus string

const (
	EsignPending   EsignStatus = "pending"
	EsignCompleted EsignStatus = "completed"
	EsignRejected  EsignStatus = "rejected"
)

// Valid reports whether the status is one of the known e-signature states.
func (s EsignStatus) Valid() bool {
	switch s {
	case EsignPending, EsignCompleted, EsignRejected:
		return true
	}
	return false
}

// Contract is the e-signable loan agreement handed to an applicant. The
// agreement document itself lives behind AppURL; only the signing state is
// tracked here.
type Contract struct {
	ID             string      `json:"id,omitempty"`
	AppURL         string      `json:"app_url"`
	EsignLabel     string      `json:"esign_label,omitempty"`
	SignedByUser   bool        `json:"signed_by_user"`
	SignedByLender bool        `json:"signed_by_lender"`
	EsignStatus    EsignStatus `json:"esign_status"`
	GeneratedAt    time.Time   `json:"generated_at,omitempty"`
}

// ContractUpdate carries a partial contract update, typically a signing
// event. Nil fields are left untouched.
type ContractUpdate struct {
	AppURL         *string      `json:"app_url"`
	EsignLabel     *string      `json:"esign_label"`
	SignedByUser   *bool        `json:"signed_by_user"`
	SignedByLender *bool        `json:"signed_by_lender"`
	EsignStatus    *EsignStatus `json:"esign_status"`
}
