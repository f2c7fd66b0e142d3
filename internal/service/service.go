package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ArchanSureja/QuickCredit/internal/analytics"
	"github.com/ArchanSureja/QuickCredit/internal/config"
	"github.com/ArchanSureja/QuickCredit/internal/integrations/aa"
	"github.com/ArchanSureja/QuickCredit/internal/matching"
	"github.com/ArchanSureja/QuickCredit/internal/models"
	"github.com/ArchanSureja/QuickCredit/internal/repository"
	"github.com/ArchanSureja/QuickCredit/internal/utils/email"
	"github.com/sirupsen/logrus"
)

var (
	// ErrSessionNotReady reports a data session whose payload the AA has
	// not finished assembling; the caller should retry later.
	ErrSessionNotReady = errors.New("data session not ready")

	// ErrDuplicateApplication reports a repeat application for the same
	// product by the same user.
	ErrDuplicateApplication = errors.New("application already exists")

	// ErrInvalidTransition reports an application lifecycle operation
	// applied in the wrong state, like disbursing a pending loan.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// processable reports whether an application can still be approved or
// rejected. Processed and disbursed applications are final.
func processable(status models.ApplicationStatus) bool {
	return status == models.ApplicationPending
}

// disbursable reports whether an application's funds can be released.
func disbursable(status models.ApplicationStatus) bool {
	return status == models.ApplicationApproved
}

// Service handles business logic
type Service struct {
	repo     *repository.Repository
	aa       *aa.Client
	mailer   *email.Sender
	matcher  *matching.Matcher
	selector analytics.FeedSelector
	log      *logrus.Logger
}

// NewService initializes a new service
func NewService(repo *repository.Repository, aaClient *aa.Client, mailer *email.Sender, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		repo:     repo,
		aa:       aaClient,
		mailer:   mailer,
		matcher:  matching.NewMatcher(cfg.MatchThreshold),
		selector: analytics.FeedSelector{FIPID: cfg.AAFIPID},
		log:      log,
	}
}

// CreateConsent starts the AA consent handshake for a phone handle.
func (s *Service) CreateConsent(ctx context.Context, phone string) (*aa.Consent, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone is required")
	}
	return s.aa.CreateConsent(ctx, phone)
}

// ConsentStatus passes through the AA's view of a consent.
func (s *Service) ConsentStatus(ctx context.Context, consentID string) (json.RawMessage, error) {
	return s.aa.ConsentStatus(ctx, consentID)
}

// CreateSession opens a data session against an approved consent and tracks
// it for ingestion.
func (s *Service) CreateSession(ctx context.Context, consentID string) (*aa.Session, error) {
	session, err := s.aa.CreateSession(ctx, consentID)
	if err != nil {
		return nil, err
	}
	ds := &models.DataSession{
		SessionID: session.ID,
		ConsentID: consentID,
		Status:    models.SessionPending,
	}
	if err := s.repo.CreateDataSession(ds); err != nil {
		return nil, err
	}
	return session, nil
}

// IngestResult identifies the documents produced by one ingestion.
type IngestResult struct {
	UserID      string `json:"user_id"`
	AnalyticsID string `json:"bank_analytics_id"`
	RiskID      string `json:"risk_record_id"`
}

// IngestSession fetches a data session's payload and runs the full analytics
// pipeline over it: normalize, aggregate, score, persist. Nothing is
// persisted when any core stage fails.
func (s *Service) IngestSession(ctx context.Context, sessionID string) (*IngestResult, error) {
	data, err := s.aa.FetchSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch data.Status {
	case "PENDING", "PARTIAL":
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, data.Status, ErrSessionNotReady)
	case "FAILED", "EXPIRED":
		failErr := fmt.Errorf("session %s is %s", sessionID, data.Status)
		s.markSessionFailed(sessionID, failErr)
		return nil, failErr
	}

	result, err := s.ingestPayload(data.Raw)
	if err != nil {
		// Core failures are permanent for this session; transport errors
		// above leave it pending for the next poll.
		s.markSessionFailed(sessionID, err)
		return nil, err
	}

	if err := s.repo.UpdateSessionStatus(sessionID, models.SessionIngested, ""); err != nil {
		s.log.Errorf("Failed to mark session %s ingested: %v", sessionID, err)
	}
	return result, nil
}

// ingestPayload runs the pure analytics core over a raw consent-data payload
// and persists its outputs.
func (s *Service) ingestPayload(raw []byte) (*IngestResult, error) {
	profile, txns, err := analytics.ParseFeed(raw, s.selector)
	if err != nil {
		return nil, err
	}

	record, err := analytics.Aggregate(txns)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveUserProfile(profile); err != nil {
		return nil, err
	}
	record.UserID = profile.ID
	if err := s.repo.SaveAnalytics(record); err != nil {
		return nil, err
	}

	risk := analytics.Score(record)
	if err := s.repo.SaveRiskRecord(&risk); err != nil {
		return nil, err
	}

	s.log.Infof("Ingested %d transactions for user %s: score=%d category=%s",
		len(txns), profile.ID, risk.CreditScore, risk.RiskCategory)

	return &IngestResult{
		UserID:      profile.ID,
		AnalyticsID: record.ID,
		RiskID:      risk.ID,
	}, nil
}

func (s *Service) markSessionFailed(sessionID string, cause error) {
	if err := s.repo.UpdateSessionStatus(sessionID, models.SessionFailed, cause.Error()); err != nil {
		s.log.Errorf("Failed to mark session %s failed: %v", sessionID, err)
	}
}

// PollPendingSessions tries to ingest every tracked session still awaiting
// its payload. Sessions that are not ready stay pending for the next run.
func (s *Service) PollPendingSessions(ctx context.Context) error {
	sessions, err := s.repo.ListPendingSessions()
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, err := s.IngestSession(ctx, session.SessionID)
		switch {
		case err == nil:
			s.log.Infof("Session %s ingested by poller", session.SessionID)
		case errors.Is(err, ErrSessionNotReady):
			s.log.Debugf("Session %s not ready yet", session.SessionID)
		default:
			s.log.Warnf("Session %s ingestion failed: %v", session.SessionID, err)
		}
	}
	return nil
}

// GetAnalytics retrieves one analytics record.
func (s *Service) GetAnalytics(id string) (*models.AnalyticsRecord, error) {
	return s.repo.FindAnalyticsByID(id)
}

// GetProfile retrieves a holder profile.
func (s *Service) GetProfile(userID string) (*models.UserProfile, error) {
	return s.repo.FindUserProfile(userID)
}

// GetRiskData scores the user's latest analytics record and appends the
// result to their risk history.
func (s *Service) GetRiskData(userID string) (*models.RiskRecord, error) {
	record, err := s.repo.FindLatestAnalyticsByUser(userID)
	if err != nil {
		return nil, err
	}
	risk := analytics.Score(record)
	if err := s.repo.SaveRiskRecord(&risk); err != nil {
		return nil, err
	}
	return &risk, nil
}

// MatchedOffers returns the catalog products the user qualifies for, in
// catalog order, with internal identifiers stripped.
func (s *Service) MatchedOffers(userID string) ([]models.LoanOffer, error) {
	record, err := s.repo.FindLatestAnalyticsByUser(userID)
	if err != nil {
		return nil, err
	}
	risk := analytics.Score(record)

	catalog, err := s.repo.ListLoanProducts()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(catalog))
	for i, p := range catalog {
		ids[i] = p.ID
	}
	params, err := s.repo.LenderParamsByProduct(ids)
	if err != nil {
		return nil, err
	}

	return s.matcher.MatchedOffers(catalog, params, record, &risk), nil
}

// ApplyForLoan files an application for the named product with the product's
// maximum limit and tenure, and notifies the lender admin.
func (s *Service) ApplyForLoan(userID, loanName string) (*models.LoanApplication, error) {
	product, err := s.repo.FindLoanProductByName(loanName)
	if err != nil {
		return nil, err
	}
	profile, err := s.repo.FindUserProfile(userID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.HasApplication(userID, product.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("user %s already applied for %q: %w", userID, loanName, ErrDuplicateApplication)
	}

	app := &models.LoanApplication{
		UserID:        userID,
		LoanProductID: product.ID,
		Limit:         product.MaxAmount,
		TenureMonths:  product.MaxTenureMonths,
		Status:        models.ApplicationPending,
	}
	if err := s.repo.CreateLoanApplication(app); err != nil {
		return nil, err
	}

	// Notification failure must not fail the application.
	if err := s.mailer.SendApplicationReceived(profile.Name, product.Name, product.MaxAmount, product.MaxTenureMonths); err != nil {
		s.log.Warnf("Failed to notify admin about application %s: %v", app.ID, err)
	}

	s.log.Infof("Application %s created for user %s on %q", app.ID, userID, product.Name)
	return app, nil
}

// ListApplications returns the user's applications joined with their
// products.
func (s *Service) ListApplications(userID string) ([]models.ApplicationSummary, error) {
	return s.repo.ListApplicationsByUser(userID)
}

// ProcessApplication approves or rejects a pending application and notifies
// the applicant.
func (s *Service) ProcessApplication(id string, status models.ApplicationStatus, reason string) (*models.LoanApplication, error) {
	if status != models.ApplicationApproved && status != models.ApplicationRejected {
		return nil, fmt.Errorf("invalid application status %q", status)
	}

	current, err := s.repo.FindApplication(id)
	if err != nil {
		return nil, err
	}
	if !processable(current.Status) {
		return nil, fmt.Errorf("application %s is %s: %w", id, current.Status, ErrInvalidTransition)
	}

	if err := s.repo.UpdateApplicationStatus(id, status, reason); err != nil {
		return nil, err
	}
	app, err := s.repo.FindApplication(id)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.FindLoanProductByID(app.LoanProductID)
	if err != nil {
		return nil, err
	}
	profile, err := s.repo.FindUserProfile(app.UserID)
	if err != nil {
		return nil, err
	}
	if profile.Email != "" {
		if err := s.mailer.SendApplicationStatus(profile.Email, profile.Name, product.Name, status, reason); err != nil {
			s.log.Warnf("Failed to notify applicant for application %s: %v", id, err)
		}
	}

	s.log.Infof("Application %s processed: %s", id, status)
	return app, nil
}

// DisburseLoan releases the funds of an approved application and notifies
// the applicant.
func (s *Service) DisburseLoan(id string) (*models.LoanApplication, error) {
	app, err := s.repo.FindApplication(id)
	if err != nil {
		return nil, err
	}
	if !disbursable(app.Status) {
		return nil, fmt.Errorf("application %s is %s: %w", id, app.Status, ErrInvalidTransition)
	}

	if err := s.repo.MarkApplicationDisbursed(id); err != nil {
		return nil, err
	}
	app, err = s.repo.FindApplication(id)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.FindLoanProductByID(app.LoanProductID)
	if err != nil {
		return nil, err
	}
	profile, err := s.repo.FindUserProfile(app.UserID)
	if err != nil {
		return nil, err
	}
	if profile.Email != "" {
		if err := s.mailer.SendApplicationStatus(profile.Email, profile.Name, product.Name, app.Status, ""); err != nil {
			s.log.Warnf("Failed to notify applicant for application %s: %v", id, err)
		}
	}

	s.log.Infof("Application %s disbursed", id)
	return app, nil
}

func validateLoanProduct(p *models.LoanProduct) error {
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if p.MaxTenureMonths < p.MinTenureMonths {
		return fmt.Errorf("max tenure below min tenure")
	}
	if p.MaxAmount.LessThan(p.MinAmount) {
		return fmt.Errorf("max amount below min amount")
	}
	return nil
}

// CreateLoanProduct adds a product to the catalog.
func (s *Service) CreateLoanProduct(p *models.LoanProduct) (*models.LoanProduct, error) {
	if err := validateLoanProduct(p); err != nil {
		return nil, err
	}
	if err := s.repo.CreateLoanProduct(p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateLoanProduct replaces a catalog entry.
func (s *Service) UpdateLoanProduct(id string, p *models.LoanProduct) (*models.LoanProduct, error) {
	if err := validateLoanProduct(p); err != nil {
		return nil, err
	}
	p.ID = id
	if err := s.repo.UpdateLoanProduct(p); err != nil {
		return nil, err
	}
	return s.repo.FindLoanProductByID(id)
}

// DeleteLoanProduct removes a catalog entry.
func (s *Service) DeleteLoanProduct(id string) error {
	return s.repo.DeleteLoanProduct(id)
}

// ListLoanProducts returns the full catalog.
func (s *Service) ListLoanProducts() ([]models.LoanProduct, error) {
	return s.repo.ListLoanProducts()
}

// CreateLenderParams stores eligibility thresholds for a product.
func (s *Service) CreateLenderParams(lp *models.LenderParams) (*models.LenderParams, error) {
	if lp.LoanProductID == "" {
		return nil, fmt.Errorf("loan_product_id is required")
	}
	if _, err := s.repo.FindLoanProductByID(lp.LoanProductID); err != nil {
		return nil, err
	}
	if lp.MaxCreditScore < lp.MinCreditScore {
		return nil, fmt.Errorf("max credit score below min credit score")
	}
	if err := s.repo.CreateLenderParams(lp); err != nil {
		return nil, err
	}
	return lp, nil
}

// ListLenderParams returns every stored parameter set.
func (s *Service) ListLenderParams() ([]models.LenderParams, error) {
	return s.repo.ListLenderParams()
}

// GetLenderParams retrieves one parameter set.
func (s *Service) GetLenderParams(id string) (*models.LenderParams, error) {
	return s.repo.FindLenderParams(id)
}

// UpdateLenderParams replaces a parameter set's thresholds.
func (s *Service) UpdateLenderParams(id string, lp *models.LenderParams) (*models.LenderParams, error) {
	if lp.MaxCreditScore < lp.MinCreditScore {
		return nil, fmt.Errorf("max credit score below min credit score")
	}
	lp.ID = id
	if err := s.repo.UpdateLenderParams(lp); err != nil {
		return nil, err
	}
	return s.repo.FindLenderParams(id)
}

// DeleteLenderParams removes a parameter set.
func (s *Service) DeleteLenderParams(id string) error {
	return s.repo.DeleteLenderParams(id)
}

// validateContractUpdate rejects an update carrying an unknown e-signature
// state before anything reaches storage.
func validateContractUpdate(upd models.ContractUpdate) error {
	if upd.EsignStatus != nil && !upd.EsignStatus.Valid() {
		return fmt.Errorf("invalid esign_status %q", *upd.EsignStatus)
	}
	return nil
}

// CreateContract generates a contract record in the pending signing state.
func (s *Service) CreateContract(appURL, esignLabel string) (*models.Contract, error) {
	if appURL == "" {
		return nil, fmt.Errorf("app_url is required")
	}
	c := &models.Contract{
		AppURL:     appURL,
		EsignLabel: esignLabel,
	}
	if err := s.repo.CreateContract(c); err != nil {
		return nil, err
	}
	s.log.Infof("Contract %s created", c.ID)
	return c, nil
}

// GetContract retrieves one contract.
func (s *Service) GetContract(id string) (*models.Contract, error) {
	return s.repo.FindContract(id)
}

// UpdateContract applies a signing event or label change to a contract.
func (s *Service) UpdateContract(id string, upd models.ContractUpdate) (*models.Contract, error) {
	if err := validateContractUpdate(upd); err != nil {
		return nil, err
	}
	return s.repo.UpdateContract(id, upd)
}
