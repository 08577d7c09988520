package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"energy-commitments/internal/audit"
	"energy-commitments/internal/auth"
	commitmentsapp "energy-commitments/internal/commitments/application"
	"energy-commitments/internal/commitments/infrastructure/excel"
	"energy-commitments/internal/commitments/infrastructure/marketdata"
	"energy-commitments/internal/commitments/infrastructure/memory"
	commitmentsrepo "energy-commitments/internal/commitments/infrastructure/postgres"
	commitmentsinterfaces "energy-commitments/internal/commitments/interfaces"
	"energy-commitments/internal/config"
	"energy-commitments/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config error: %v", err)
	}

	var (
		db          *sql.DB
		reportRepo  commitmentsapp.ReportRepository
		auditLogger audit.Logger
	)
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		reportRepo = commitmentsrepo.NewReportRepository(db)
		auditLogger = audit.NewRepository(db)
	} else {
		logger.Printf("DATABASE_URL not set, reports are kept in memory")
		reportRepo = memory.NewReportRepository()
		auditLogger = audit.NewLogWriter(logger)
	}

	metrics.Init(db, logger)

	market, err := marketdata.NewClient(cfg.MarketData, marketdata.WithTimeout(cfg.MarketDataTimeout))
	if err != nil {
		logger.Fatalf("market data client error: %v", err)
	}
	loader := excel.NewCapacityLoader(excel.WithSkipRows(cfg.CapacitySkipRows))
	pipeline, err := commitmentsapp.NewPipeline(loader, market, logger)
	if err != nil {
		logger.Fatalf("pipeline error: %v", err)
	}
	reportService, err := commitmentsapp.NewReportService(pipeline, reportRepo, logger, commitmentsapp.SystemClock{})
	if err != nil {
		logger.Fatalf("report service error: %v", err)
	}
	reportHandler, err := commitmentsinterfaces.NewReportHandler(reportService, auditLogger, logger)
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	if authMiddleware == nil {
		logger.Printf("AUTH_JWT_SECRET not set, report endpoints are unauthenticated")
	}

	mux := http.NewServeMux()
	reportHandler.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
