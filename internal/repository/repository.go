package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ArchanSureja/QuickCredit/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrNotFound reports a lookup that matched no document.
var ErrNotFound = errors.New("not found")

// Repository provides database operations. Profiles and analytics records
// are stored as JSONB documents keyed by generated UUIDs; analytics and risk
// records are append-only history, never updated in place.
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveUserProfile stores a normalized holder profile and assigns its ID.
func (r *Repository) SaveUserProfile(profile *models.UserProfile) error {
	profile.ID = uuid.NewString()
	profile.CreatedAt = time.Now().UTC()

	doc := *profile
	doc.ID = ""
	doc.CreatedAt = time.Time{}
	document, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	query := `
		INSERT INTO quickcredit.user_profiles (id, document, created_at)
		VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(query, profile.ID, document, profile.CreatedAt); err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}
	return nil
}

// FindUserProfile retrieves a holder profile by ID.
func (r *Repository) FindUserProfile(id string) (*models.UserProfile, error) {
	var (
		document  []byte
		createdAt time.Time
	)
	query := `
		SELECT document, created_at
		FROM quickcredit.user_profiles
		WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&document, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user profile: %w", err)
	}

	profile := &models.UserProfile{}
	if err := json.Unmarshal(document, profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	profile.ID = id
	profile.CreatedAt = createdAt
	return profile, nil
}

// SaveAnalytics appends an analytics record to the user's history and
// assigns its ID.
func (r *Repository) SaveAnalytics(rec *models.AnalyticsRecord) error {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	doc := *rec
	doc.ID = ""
	doc.UserID = ""
	doc.CreatedAt = time.Time{}
	document, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics record: %w", err)
	}

	query := `
		INSERT INTO quickcredit.bank_analytics (id, user_id, document, created_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := r.db.Exec(query, rec.ID, rec.UserID, document, rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to save analytics record: %w", err)
	}
	return nil
}

// FindAnalyticsByID retrieves one analytics record.
func (r *Repository) FindAnalyticsByID(id string) (*models.AnalyticsRecord, error) {
	query := `
		SELECT user_id, document, created_at
		FROM quickcredit.bank_analytics
		WHERE id = $1`
	return r.scanAnalytics(r.db.QueryRow(query, id), id)
}

// FindLatestAnalyticsByUser retrieves the newest analytics record in the
// user's history.
func (r *Repository) FindLatestAnalyticsByUser(userID string) (*models.AnalyticsRecord, error) {
	query := `
		SELECT id, document, created_at
		FROM quickcredit.bank_analytics
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var (
		id        string
		document  []byte
		createdAt time.Time
	)
	err := r.db.QueryRow(query, userID).Scan(&id, &document, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analytics for user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find analytics: %w", err)
	}

	rec := &models.AnalyticsRecord{}
	if err := json.Unmarshal(document, rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analytics record: %w", err)
	}
	rec.ID = id
	rec.UserID = userID
	rec.CreatedAt = createdAt
	return rec, nil
}

func (r *Repository) scanAnalytics(row *sql.Row, id string) (*models.AnalyticsRecord, error) {
	var (
		userID    string
		document  []byte
		createdAt time.Time
	)
	err := row.Scan(&userID, &document, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analytics record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find analytics record: %w", err)
	}

	rec := &models.AnalyticsRecord{}
	if err := json.Unmarshal(document, rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analytics record: %w", err)
	}
	rec.ID = id
	rec.UserID = userID
	rec.CreatedAt = createdAt
	return rec, nil
}

// SaveRiskRecord appends a scoring result to the user's risk history.
func (r *Repository) SaveRiskRecord(rec *models.RiskRecord) error {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO quickcredit.risk_records
			(id, user_id, analytics_id, credit_score, credit_limit, risk_category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(query,
		rec.ID, rec.UserID, rec.AnalyticsID,
		rec.CreditScore, rec.CreditLimit, string(rec.RiskCategory), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save risk record: %w", err)
	}
	return nil
}

// CreateLoanProduct adds a product to the catalog.
func (r *Repository) CreateLoanProduct(p *models.LoanProduct) error {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO quickcredit.loan_products
			(id, admin_id, name, description, loan_type, target_segment,
			 min_tenure_months, max_tenure_months, min_amount, max_amount,
			 interest_rate, processing_fee_percent, prepayment_penalty,
			 grace_period_days, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.db.Exec(query,
		p.ID, p.AdminID, p.Name, p.Description, p.LoanType, p.TargetSegment,
		p.MinTenureMonths, p.MaxTenureMonths, p.MinAmount, p.MaxAmount,
		p.InterestRate, p.ProcessingFeePct, p.PrepaymentPenalty,
		p.GracePeriodDays, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan product: %w", err)
	}
	return nil
}

// ListLoanProducts returns the full catalog in stable insertion order.
func (r *Repository) ListLoanProducts() ([]models.LoanProduct, error) {
	query := `
		SELECT id, admin_id, name, description, loan_type, target_segment,
		       min_tenure_months, max_tenure_months, min_amount, max_amount,
		       interest_rate, processing_fee_percent, prepayment_penalty,
		       grace_period_days, created_at
		FROM quickcredit.loan_products
		ORDER BY created_at, id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list loan products: %w", err)
	}
	defer rows.Close()

	var products []models.LoanProduct
	for rows.Next() {
		var p models.LoanProduct
		err := rows.Scan(
			&p.ID, &p.AdminID, &p.Name, &p.Description, &p.LoanType, &p.TargetSegment,
			&p.MinTenureMonths, &p.MaxTenureMonths, &p.MinAmount, &p.MaxAmount,
			&p.InterestRate, &p.ProcessingFeePct, &p.PrepaymentPenalty,
			&p.GracePeriodDays, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list loan products: %w", err)
	}
	return products, nil
}

// FindLoanProductByID retrieves a catalog entry.
func (r *Repository) FindLoanProductByID(id string) (*models.LoanProduct, error) {
	query := `
		SELECT id, admin_id, name, description, loan_type, target_segment,
		       min_tenure_months, max_tenure_months, min_amount, max_amount,
		       interest_rate, processing_fee_percent, prepayment_penalty,
		       grace_period_days, created_at
		FROM quickcredit.loan_products
		WHERE id = $1`
	p := &models.LoanProduct{}
	err := r.db.QueryRow(query, id).Scan(
		&p.ID, &p.AdminID, &p.Name, &p.Description, &p.LoanType, &p.TargetSegment,
		&p.MinTenureMonths, &p.MaxTenureMonths, &p.MinAmount, &p.MaxAmount,
		&p.InterestRate, &p.ProcessingFeePct, &p.PrepaymentPenalty,
		&p.GracePeriodDays, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("loan product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan product: %w", err)
	}
	return p, nil
}

// FindLoanProductByName retrieves a catalog entry by its display name.
func (r *Repository) FindLoanProductByName(name string) (*models.LoanProduct, error) {
	query := `
		SELECT id, admin_id, name, description, loan_type, target_segment,
		       min_tenure_months, max_tenure_months, min_amount, max_amount,
		       interest_rate, processing_fee_percent, prepayment_penalty,
		       grace_period_days, created_at
		FROM quickcredit.loan_products
		WHERE name = $1`
	p := &models.LoanProduct{}
	err := r.db.QueryRow(query, name).Scan(
		&p.ID, &p.AdminID, &p.Name, &p.Description, &p.LoanType, &p.TargetSegment,
		&p.MinTenureMonths, &p.MaxTenureMonths, &p.MinAmount, &p.MaxAmount,
		&p.InterestRate, &p.ProcessingFeePct, &p.PrepaymentPenalty,
		&p.GracePeriodDays, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("loan product %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan product: %w", err)
	}
	return p, nil
}

// CreateLenderParams stores a product's eligibility thresholds.
func (r *Repository) CreateLenderParams(lp *models.LenderParams) error {
	lp.ID = uuid.NewString()
	lp.CreatedAt = time.Now().UTC()
	lp.UpdatedAt = lp.CreatedAt

	query := `
		INSERT INTO quickcredit.lender_params
			(id, admin_id, loan_product_id, min_maintained_balance,
			 max_debit_to_credit_ratio, min_monthly_inflow,
			 min_recommended_limit, max_recommended_limit,
			 min_credit_score, max_credit_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.Exec(query,
		lp.ID, lp.AdminID, lp.LoanProductID, lp.MinMaintainedBalance,
		lp.MaxDebitToCreditRatio, lp.MinMonthlyInflow,
		lp.MinRecommendedLimit, lp.MaxRecommendedLimit,
		lp.MinCreditScore, lp.MaxCreditScore, lp.CreatedAt, lp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lender params: %w", err)
	}
	return nil
}

// LenderParamsByProduct returns eligibility thresholds keyed by product ID
// for the given catalog subset.
func (r *Repository) LenderParamsByProduct(productIDs []string) (map[string]models.LenderParams, error) {
	query := `
		SELECT id, admin_id, loan_product_id, min_maintained_balance,
		       max_debit_to_credit_ratio, min_monthly_inflow,
		       min_recommended_limit, max_recommended_limit,
		       min_credit_score, max_credit_score, created_at, updated_at
		FROM quickcredit.lender_params
		WHERE loan_product_id = ANY($1)`
	rows, err := r.db.Query(query, pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load lender params: %w", err)
	}
	defer rows.Close()

	params := make(map[string]models.LenderParams)
	for rows.Next() {
		var lp models.LenderParams
		err := rows.Scan(
			&lp.ID, &lp.AdminID, &lp.LoanProductID, &lp.MinMaintainedBalance,
			&lp.MaxDebitToCreditRatio, &lp.MinMonthlyInflow,
			&lp.MinRecommendedLimit, &lp.MaxRecommendedLimit,
			&lp.MinCreditScore, &lp.MaxCreditScore, &lp.CreatedAt, &lp.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lender params: %w", err)
		}
		params[lp.LoanProductID] = lp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load lender params: %w", err)
	}
	return params, nil
}

// CreateLoanApplication records a new application.
func (r *Repository) CreateLoanApplication(app *models.LoanApplication) error {
	app.ID = uuid.NewString()
	app.Applied = time.Now().UTC()

	query := `
		INSERT INTO quickcredit.loan_applications
			(id, user_id, loan_product_id, loan_limit, tenure_months,
			 application_status, applied)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(query,
		app.ID, app.UserID, app.LoanProductID, app.Limit, app.TenureMonths,
		string(app.Status), app.Applied)
	if err != nil {
		return fmt.Errorf("failed to create loan application: %w", err)
	}
	return nil
}

// FindApplication retrieves one application by ID.
func (r *Repository) FindApplication(id string) (*models.LoanApplication, error) {
	query := `
		SELECT id, user_id, loan_product_id, loan_limit, tenure_months,
		       application_status, rejection_reason, applied, processed_at, disbursed_at
		FROM quickcredit.loan_applications
		WHERE id = $1`
	app := &models.LoanApplication{}
	var (
		status      string
		reason      sql.NullString
		processedAt sql.NullTime
		disbursedAt sql.NullTime
	)
	err := r.db.QueryRow(query, id).Scan(
		&app.ID, &app.UserID, &app.LoanProductID, &app.Limit, &app.TenureMonths,
		&status, &reason, &app.Applied, &processedAt, &disbursedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("loan application %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan application: %w", err)
	}
	app.Status = models.ApplicationStatus(status)
	app.RejectionReason = reason.String
	if processedAt.Valid {
		t := processedAt.Time
		app.ProcessedAt = &t
	}
	if disbursedAt.Valid {
		t := disbursedAt.Time
		app.DisbursedAt = &t
	}
	return app, nil
}

// HasApplication reports whether the user already applied for the product.
func (r *Repository) HasApplication(userID, productID string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM quickcredit.loan_applications
			WHERE user_id = $1 AND loan_product_id = $2
		)`
	if err := r.db.QueryRow(query, userID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check for application: %w", err)
	}
	return exists, nil
}

// ListApplicationsByUser returns the user's applications joined with their
// products, newest first.
func (r *Repository) ListApplicationsByUser(userID string) ([]models.ApplicationSummary, error) {
	query := `
		SELECT p.name, p.description, p.max_tenure_months, p.max_amount,
		       p.interest_rate, a.applied, a.processed_at, a.application_status
		FROM quickcredit.loan_applications a
		JOIN quickcredit.loan_products p ON p.id = a.loan_product_id
		WHERE a.user_id = $1
		ORDER BY a.applied DESC`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var summaries []models.ApplicationSummary
	for rows.Next() {
		var (
			s           models.ApplicationSummary
			status      string
			processedAt sql.NullTime
		)
		err := rows.Scan(&s.Name, &s.Description, &s.Tenure, &s.Amount,
			&s.InterestRate, &s.Applied, &processedAt, &status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		s.Status = models.ApplicationStatus(status)
		if processedAt.Valid {
			t := processedAt.Time
			s.Updated = &t
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return summaries, nil
}

// UpdateApplicationStatus marks an application processed.
func (r *Repository) UpdateApplicationStatus(id string, status models.ApplicationStatus, reason string) error {
	query := `
		UPDATE quickcredit.loan_applications
		SET application_status = $2, rejection_reason = $3, processed_at = $4
		WHERE id = $1`
	res, err := r.db.Exec(query, id, string(status), reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("loan application %s: %w", id, ErrNotFound)
	}
	return nil
}

// MarkApplicationDisbursed releases the funds of an approved application.
// The status guard lives in the query so a concurrent double disbursement
// cannot slip through.
func (r *Repository) MarkApplicationDisbursed(id string) error {
	query := `
		UPDATE quickcredit.loan_applications
		SET application_status = $2, disbursed_at = $3
		WHERE id = $1 AND application_status = $4`
	res, err := r.db.Exec(query, id,
		string(models.ApplicationDisbursed), time.Now().UTC(),
		string(models.ApplicationApproved))
	if err != nil {
		return fmt.Errorf("failed to disburse application: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("approved loan application %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateLoanProduct replaces a catalog entry's fields.
func (r *Repository) UpdateLoanProduct(p *models.LoanProduct) error {
	query := `
		UPDATE quickcredit.loan_products
		SET name = $2, description = $3, loan_type = $4, target_segment = $5,
		    min_tenure_months = $6, max_tenure_months = $7,
		    min_amount = $8, max_amount = $9, interest_rate = $10,
		    processing_fee_percent = $11, prepayment_penalty = $12,
		    grace_period_days = $13
		WHERE id = $1`
	res, err := r.db.Exec(query,
		p.ID, p.Name, p.Description, p.LoanType, p.TargetSegment,
		p.MinTenureMonths, p.MaxTenureMonths,
		p.MinAmount, p.MaxAmount, p.InterestRate,
		p.ProcessingFeePct, p.PrepaymentPenalty,
		p.GracePeriodDays)
	if err != nil {
		return fmt.Errorf("failed to update loan product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("loan product %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

// DeleteLoanProduct removes a catalog entry.
func (r *Repository) DeleteLoanProduct(id string) error {
	res, err := r.db.Exec(`DELETE FROM quickcredit.loan_products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete loan product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("loan product %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListLenderParams returns every stored parameter set, newest first.
func (r *Repository) ListLenderParams() ([]models.LenderParams, error) {
	query := `
		SELECT id, admin_id, loan_product_id, min_maintained_balance,
		       max_debit_to_credit_ratio, min_monthly_inflow,
		       min_recommended_limit, max_recommended_limit,
		       min_credit_score, max_credit_score, created_at, updated_at
		FROM quickcredit.lender_params
		ORDER BY created_at DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list lender params: %w", err)
	}
	defer rows.Close()

	var params []models.LenderParams
	for rows.Next() {
		var lp models.LenderParams
		err := rows.Scan(
			&lp.ID, &lp.AdminID, &lp.LoanProductID, &lp.MinMaintainedBalance,
			&lp.MaxDebitToCreditRatio, &lp.MinMonthlyInflow,
			&lp.MinRecommendedLimit, &lp.MaxRecommendedLimit,
			&lp.MinCreditScore, &lp.MaxCreditScore, &lp.CreatedAt, &lp.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lender params: %w", err)
		}
		params = append(params, lp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list lender params: %w", err)
	}
	return params, nil
}

// FindLenderParams retrieves one parameter set by ID.
func (r *Repository) FindLenderParams(id string) (*models.LenderParams, error) {
	query := `
		SELECT id, admin_id, loan_product_id, min_maintained_balance,
		       max_debit_to_credit_ratio, min_monthly_inflow,
		       min_recommended_limit, max_recommended_limit,
		       min_credit_score, max_credit_score, created_at, updated_at
		FROM quickcredit.lender_params
		WHERE id = $1`
	lp := &models.LenderParams{}
	err := r.db.QueryRow(query, id).Scan(
		&lp.ID, &lp.AdminID, &lp.LoanProductID, &lp.MinMaintainedBalance,
		&lp.MaxDebitToCreditRatio, &lp.MinMonthlyInflow,
		&lp.MinRecommendedLimit, &lp.MaxRecommendedLimit,
		&lp.MinCreditScore, &lp.MaxCreditScore, &lp.CreatedAt, &lp.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lender params %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lender params: %w", err)
	}
	return lp, nil
}

// UpdateLenderParams replaces a parameter set's thresholds.
func (r *Repository) UpdateLenderParams(lp *models.LenderParams) error {
	lp.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE quickcredit.lender_params
		SET min_maintained_balance = $2, max_debit_to_credit_ratio = $3,
		    min_monthly_inflow = $4, min_recommended_limit = $5,
		    max_recommended_limit = $6, min_credit_score = $7,
		    max_credit_score = $8, updated_at = $9
		WHERE id = $1`
	res, err := r.db.Exec(query,
		lp.ID, lp.MinMaintainedBalance, lp.MaxDebitToCreditRatio,
		lp.MinMonthlyInflow, lp.MinRecommendedLimit,
		lp.MaxRecommendedLimit, lp.MinCreditScore,
		lp.MaxCreditScore, lp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update lender params: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("lender params %s: %w", lp.ID, ErrNotFound)
	}
	return nil
}

// DeleteLenderParams removes a parameter set.
func (r *Repository) DeleteLenderParams(id string) error {
	res, err := r.db.Exec(`DELETE FROM quickcredit.lender_params WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lender params: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("lender params %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateContract stores a generated contract in its initial signing state.
func (r *Repository) CreateContract(c *models.Contract) error {
	c.ID = uuid.NewString()
	c.GeneratedAt = time.Now().UTC()
	if c.EsignStatus == "" {
		c.EsignStatus = models.EsignPending
	}

	query := `
		INSERT INTO quickcredit.contracts
			(id, app_url, esign_label, signed_by_user, signed_by_lender,
			 esign_status, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(query,
		c.ID, c.AppURL, c.EsignLabel, c.SignedByUser, c.SignedByLender,
		string(c.EsignStatus), c.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// FindContract retrieves one contract by ID.
func (r *Repository) FindContract(id string) (*models.Contract, error) {
	query := `
		SELECT id, app_url, esign_label, signed_by_user, signed_by_lender,
		       esign_status, generated_at
		FROM quickcredit.contracts
		WHERE id = $1`
	c := &models.Contract{}
	var status string
	err := r.db.QueryRow(query, id).Scan(
		&c.ID, &c.AppURL, &c.EsignLabel, &c.SignedByUser, &c.SignedByLender,
		&status, &c.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("contract %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contract: %w", err)
	}
	c.EsignStatus = models.EsignStatus(status)
	return c, nil
}

// UpdateContract applies a partial update to a contract's signing state.
// Nil fields keep their stored values.
func (r *Repository) UpdateContract(id string, upd models.ContractUpdate) (*models.Contract, error) {
	var esign *string
	if upd.EsignStatus != nil {
		s := string(*upd.EsignStatus)
		esign = &s
	}

	query := `
		UPDATE quickcredit.contracts
		SET app_url          = COALESCE($2, app_url),
		    esign_label      = COALESCE($3, esign_label),
		    signed_by_user   = COALESCE($4, signed_by_user),
		    signed_by_lender = COALESCE($5, signed_by_lender),
		    esign_status     = COALESCE($6, esign_status)
		WHERE id = $1`
	res, err := r.db.Exec(query, id,
		upd.AppURL, upd.EsignLabel, upd.SignedByUser, upd.SignedByLender, esign)
	if err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("contract %s: %w", id, ErrNotFound)
	}
	return r.FindContract(id)
}

// CreateDataSession tracks a newly opened AA data session.
func (r *Repository) CreateDataSession(s *models.DataSession) error {
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt

	query := `
		INSERT INTO quickcredit.data_sessions
			(session_id, consent_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(query, s.SessionID, s.ConsentID, string(s.Status), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create data session: %w", err)
	}
	return nil
}

// ListPendingSessions returns sessions awaiting ingestion, oldest first.
func (r *Repository) ListPendingSessions() ([]models.DataSession, error) {
	query := `
		SELECT session_id, consent_id, status, COALESCE(last_error, ''), created_at, updated_at
		FROM quickcredit.data_sessions
		WHERE status = $1
		ORDER BY created_at`
	rows, err := r.db.Query(query, string(models.SessionPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.DataSession
	for rows.Next() {
		var (
			s      models.DataSession
			status string
		)
		err := rows.Scan(&s.SessionID, &s.ConsentID, &status, &s.LastError, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan data session: %w", err)
		}
		s.Status = models.SessionStatus(status)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pending sessions: %w", err)
	}
	return sessions, nil
}

// UpdateSessionStatus records the outcome of a poll or ingestion attempt.
func (r *Repository) UpdateSessionStatus(sessionID string, status models.SessionStatus, lastError string) error {
	query := `
		UPDATE quickcredit.data_sessions
		SET status = $2, last_error = $3, updated_at = $4
		WHERE session_id = $1`
	res, err := r.db.Exec(query, sessionID, string(status), lastError, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update data session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("data session %s: %w", sessionID, ErrNotFound)
	}
	return nil
}
