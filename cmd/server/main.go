package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/merchflow/autopilot/internal/db"
	"github.com/merchflow/autopilot/internal/handlers"
	"github.com/merchflow/autopilot/internal/logger"
	"github.com/merchflow/autopilot/internal/repositories"
	"github.com/merchflow/autopilot/internal/services"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	zlog, err := logger.New()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zlog.Sync()

	// Database connection
	config := db.NewConfig()
	database, err := db.Connect(config)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Health(); err != nil {
		zlog.Fatal("Database health check failed", zap.Error(err))
	}
	zlog.Info("Database connection established")

	// Executor client (external service that calls the storefront platform)
	executorURL := os.Getenv("EXECUTOR_URL")
	if executorURL == "" {
		executorURL = "http://localhost:8090"
	}
	executor := services.NewHTTPExecutor(executorURL)

	// Initialize repositories
	approvalRepo := repositories.NewApprovalRepository(database)
	settingsRepo := repositories.NewSettingsRepository(database)
	counterRepo := repositories.NewCounterRepository(database)
	auditRepo := repositories.NewAuditRepository(database)

	// Initialize services
	settingsService := services.NewSettingsService(settingsRepo)
	approvalService := services.NewApprovalService(approvalRepo, counterRepo, auditRepo, settingsService, executor, zlog)

	// Initialize handlers
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	approvalsHandler := handlers.NewApprovalsHandler(approvalService)
	actionsHandler := handlers.NewActionsHandler(approvalService)

	// Setup HTTP router
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"service": "autopilot-governance",
		})
	})

	// Automation settings
	router.HandleFunc("/api/automation/settings", settingsHandler.HandleSettings).Methods("GET", "PUT")

	// Approval queue
	router.HandleFunc("/api/pending-approvals", approvalsHandler.HandleApprovals).Methods("GET")
	router.HandleFunc("/api/pending-approvals/bulk-approve", approvalsHandler.HandleBulkApprove).Methods("POST")
	router.HandleFunc("/api/pending-approvals/bulk-reject", approvalsHandler.HandleBulkReject).Methods("POST")
	router.HandleFunc("/api/pending-approvals/{id}", approvalsHandler.HandleApproval).Methods("GET")
	router.HandleFunc("/api/pending-approvals/{id}/approve", approvalsHandler.HandleApprove).Methods("POST")
	router.HandleFunc("/api/pending-approvals/{id}/reject", approvalsHandler.HandleReject).Methods("POST")

	// Proposal intake (called by the agent's recommendation loop)
	router.HandleFunc("/api/proposals", approvalsHandler.HandleSubmitProposal).Methods("POST")

	// Executed-action history and raw audit trail
	router.HandleFunc("/api/autonomous-actions", actionsHandler.HandleAutonomousActions).Methods("GET")
	router.HandleFunc("/api/audit-trail", actionsHandler.HandleAuditTrail).Methods("GET")

	// CORS middleware
	corsHandler := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID, X-Reviewer-ID")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}

	// Get port from environment
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	zlog.Info("Server starting", zap.String("port", port))
	zlog.Fatal("Server stopped", zap.Error(http.ListenAndServe(":"+port, corsHandler(router))))
}
