package service

import (
	"testing"

	"github.com/ArchanSureja/QuickCredit/internal/models"
)

func TestApplicationLifecycleGuards(t *testing.T) {
	tests := []struct {
		status          models.ApplicationStatus
		wantProcessable bool
		wantDisbursable bool
	}{
		{models.ApplicationPending, true, false},
		{models.ApplicationApproved, false, true},
		{models.ApplicationRejected, false, false},
		{models.ApplicationDisbursed, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := processable(tt.status); got != tt.wantProcessable {
				t.Errorf("processable(%s) = %v, want %v", tt.status, got, tt.wantProcessable)
			}
			if got := disbursable(tt.status); got != tt.wantDisbursable {
				t.Errorf("disbursable(%s) = %v, want %v", tt.status, got, tt.wantDisbursable)
			}
		})
	}
}

func TestValidateContractUpdate(t *testing.T) {
	completed := models.EsignCompleted
	bogus := models.EsignStatus("notarized")
	signed := true

	if err := validateContractUpdate(models.ContractUpdate{}); err != nil {
		t.Errorf("empty update rejected: %v", err)
	}
	if err := validateContractUpdate(models.ContractUpdate{SignedByUser: &signed, EsignStatus: &completed}); err != nil {
		t.Errorf("signing update rejected: %v", err)
	}
	if err := validateContractUpdate(models.ContractUpdate{EsignStatus: &bogus}); err == nil {
		t.Error("unknown esign_status accepted")
	}
}
