package main

import (
	"fmt"
	"net/http"
	"time"

	"banquito/config"
	"banquito/controllers"
	"banquito/database"
	"banquito/middleware"
	"banquito/models"
	"banquito/services"
	"banquito/utils"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

// healthHandler reports service liveness
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","time":"%s"}`, time.Now().Format(time.RFC3339))
}

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		panic(fmt.Sprintf("loading configuration: %v", err))
	}

	log := utils.NewLogger(cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}

	emailService := services.NewEmailService(
		cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, log)
	rateClient := services.NewReferenceRateClient(cfg.ReferenceRateURL, log)

	settingsService := services.NewSettingsService(db, log, rateClient)
	if err := settingsService.InitializeDefaults(); err != nil {
		log.Fatalf("seeding default settings: %v", err)
	}
	if err := settingsService.RefreshReferenceRate(); err != nil {
		log.Warnf("refreshing reference rate: %v", err)
	}

	memberService := services.NewMemberService(db, settingsService, log)
	loanService := services.NewLoanService(db, settingsService, emailService, log)
	requestService := services.NewLoanRequestService(db, loanService, settingsService, emailService, log)
	savingService := services.NewFixedSavingService(db, settingsService, emailService, log)
	userService := services.NewUserService(db, log)

	jwtKey := []byte(cfg.JWT.SecretKey)
	authController := controllers.NewAuthController(userService, jwtKey)
	memberController := controllers.NewMemberController(memberService)
	loanController := controllers.NewLoanController(loanService)
	requestController := controllers.NewLoanRequestController(requestService)
	savingController := controllers.NewFixedSavingController(savingService)
	settingsController := controllers.NewSettingsController(settingsService)

	router := mux.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logging(log))
	router.Use(middleware.CORS)
	router.Use(middleware.RateLimit(utils.NewRateLimiter(cfg.RateLimit, time.Minute)))

	router.HandleFunc("/health", healthHandler).Methods("GET")

	// Public authentication routes
	router.HandleFunc("/api/auth/register", authController.Register).Methods("POST")
	router.HandleFunc("/api/auth/login", authController.Login).Methods("POST")

	// Everything else requires a token
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(jwtKey))

	api.HandleFunc("/auth/me", authController.Me).Methods("GET")
	api.HandleFunc("/auth/change-password", authController.ChangePassword).Methods("POST")

	// Review and administration routes are admin only
	admin := api.NewRoute().Subrouter()
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	api.HandleFunc("/members", memberController.GetMembers).Methods("GET")
	api.HandleFunc("/members/statistics", memberController.GetMemberStatistics).Methods("GET")
	api.HandleFunc("/members/{id:[0-9]+}", memberController.GetMember).Methods("GET")
	admin.HandleFunc("/members", memberController.CreateMember).Methods("POST")
	admin.HandleFunc("/members/{id:[0-9]+}", memberController.UpdateMember).Methods("PUT")
	admin.HandleFunc("/members/{id:[0-9]+}", memberController.DeactivateMember).Methods("DELETE")

	api.HandleFunc("/loans", loanController.GetLoans).Methods("GET")
	api.HandleFunc("/loans/statistics", loanController.GetLoanStatistics).Methods("GET")
	api.HandleFunc("/loans/overdue", loanController.GetOverdueLoans).Methods("GET")
	api.HandleFunc("/loans/{id:[0-9]+}", loanController.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{id:[0-9]+}/payments", loanController.GetPayments).Methods("GET")
	api.HandleFunc("/loans/{id:[0-9]+}/schedule", loanController.GetSchedule).Methods("GET")
	admin.HandleFunc("/loans", loanController.CreateLoan).Methods("POST")
	admin.HandleFunc("/loans/{id:[0-9]+}", loanController.UpdateLoan).Methods("PUT")
	admin.HandleFunc("/loans/{id:[0-9]+}/cancel", loanController.CancelLoan).Methods("POST")
	admin.HandleFunc("/loans/{id:[0-9]+}/payments", loanController.RecordPayment).Methods("POST")

	api.HandleFunc("/loan-requests", requestController.GetLoanRequests).Methods("GET")
	api.HandleFunc("/loan-requests/statistics", requestController.GetLoanRequestStatistics).Methods("GET")
	api.HandleFunc("/loan-requests/pending", requestController.GetPendingLoanRequests).Methods("GET")
	api.HandleFunc("/loan-requests/{id:[0-9]+}", requestController.GetLoanRequest).Methods("GET")
	api.HandleFunc("/loan-requests", requestController.CreateLoanRequest).Methods("POST")
	admin.HandleFunc("/loan-requests/{id:[0-9]+}/approve", requestController.ApproveLoanRequest).Methods("POST")
	admin.HandleFunc("/loan-requests/{id:[0-9]+}/reject", requestController.RejectLoanRequest).Methods("POST")

	api.HandleFunc("/fixed-savings", savingController.GetFixedSavings).Methods("GET")
	api.HandleFunc("/fixed-savings/statistics", savingController.GetFixedSavingStatistics).Methods("GET")
	api.HandleFunc("/fixed-savings/{id:[0-9]+}", savingController.GetFixedSaving).Methods("GET")
	admin.HandleFunc("/fixed-savings", savingController.CreateFixedSaving).Methods("POST")
	admin.HandleFunc("/fixed-savings/{id:[0-9]+}", savingController.UpdateFixedSaving).Methods("PUT")
	admin.HandleFunc("/fixed-savings/{id:[0-9]+}/mature", savingController.MatureFixedSaving).Methods("POST")
	admin.HandleFunc("/fixed-savings/{id:[0-9]+}/cancel", savingController.CancelFixedSaving).Methods("POST")

	api.HandleFunc("/settings", settingsController.GetSettings).Methods("GET")
	api.HandleFunc("/settings/{key}", settingsController.GetSetting).Methods("GET")
	admin.HandleFunc("/settings", settingsController.CreateSetting).Methods("POST")
	admin.HandleFunc("/settings/refresh-rate", settingsController.RefreshReferenceRate).Methods("POST")
	admin.HandleFunc("/settings/{key}", settingsController.UpdateSetting).Methods("PUT")
	admin.HandleFunc("/settings/{key}", settingsController.DeleteSetting).Methods("DELETE")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Infof("server listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
