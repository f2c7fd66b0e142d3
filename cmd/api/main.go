package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/ArchanSureja/QuickCredit/internal/config"
	"github.com/ArchanSureja/QuickCredit/internal/handler"
	"github.com/ArchanSureja/QuickCredit/internal/integrations/aa"
	"github.com/ArchanSureja/QuickCredit/internal/job"
	"github.com/ArchanSureja/QuickCredit/internal/repository"
	"github.com/ArchanSureja/QuickCredit/internal/service"
	"github.com/ArchanSureja/QuickCredit/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	aaClient := aa.NewClient(cfg, logger)
	mailer := email.NewSender(cfg, logger)
	svc := service.NewService(repo, aaClient, mailer, cfg, logger)
	h := handler.NewHandler(svc)

	// Start the pending-session poller
	poller := job.NewSessionPoller(svc, cfg.SessionPollSpec, logger)
	if err := poller.Start(); err != nil {
		logger.Fatalf("Failed to start session poller: %v", err)
	}
	defer poller.Stop()

	// Setup router
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods("GET")
	// Consent and data-session flow
	r.HandleFunc("/create-consent", h.CreateConsent).Methods("POST")
	r.HandleFunc("/consent-status/{consentID}", h.ConsentStatus).Methods("GET")
	r.HandleFunc("/sessions/{consentID}", h.CreateSession).Methods("POST")
	r.HandleFunc("/sessions/{sessionID}/ingest", h.IngestSession).Methods("POST")
	// Derived records
	r.HandleFunc("/analytics/{analyticsID}", h.GetAnalytics).Methods("GET")
	r.HandleFunc("/profiles/{userID}", h.GetProfile).Methods("GET")
	r.HandleFunc("/risk-data/{userID}", h.GetRiskData).Methods("GET")
	r.HandleFunc("/matched-offers/{userID}", h.GetMatchedOffers).Methods("GET")
	// Loan catalog and applications
	r.HandleFunc("/loan-products", h.CreateLoanProduct).Methods("POST")
	r.HandleFunc("/loan-products", h.ListLoanProducts).Methods("GET")
	r.HandleFunc("/loan-products/{productID}", h.UpdateLoanProduct).Methods("PUT")
	r.HandleFunc("/loan-products/{productID}", h.DeleteLoanProduct).Methods("DELETE")
	r.HandleFunc("/lender-params", h.CreateLenderParams).Methods("POST")
	r.HandleFunc("/lender-params", h.ListLenderParams).Methods("GET")
	r.HandleFunc("/lender-params/{paramsID}", h.GetLenderParams).Methods("GET")
	r.HandleFunc("/lender-params/{paramsID}", h.UpdateLenderParams).Methods("PUT")
	r.HandleFunc("/lender-params/{paramsID}", h.DeleteLenderParams).Methods("DELETE")
	r.HandleFunc("/applications", h.AddApplication).Methods("POST")
	r.HandleFunc("/applications/{userID}", h.ListApplications).Methods("GET")
	r.HandleFunc("/applications/{applicationID}/process", h.ProcessApplication).Methods("POST")
	r.HandleFunc("/applications/{applicationID}/disburse", h.DisburseLoan).Methods("POST")
	// Contracts
	r.HandleFunc("/contracts", h.CreateContract).Methods("POST")
	r.HandleFunc("/contracts/{contractID}", h.GetContract).Methods("GET")
	r.HandleFunc("/contracts/{contractID}", h.UpdateContract).Methods("PUT")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
