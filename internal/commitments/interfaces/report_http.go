package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"energy-commitments/internal/audit"
	"energy-commitments/internal/auth"
	commitmentsapp "energy-commitments/internal/commitments/application"
	commitments "energy-commitments/internal/commitments/domain"
	"energy-commitments/internal/commitments/infrastructure/excel"
)

const maxUploadBytes = 32 << 20

// Reports is the report use case the handler serves.
type Reports interface {
	Generate(ctx context.Context, capacityFile io.Reader, date time.Time) (commitmentsapp.Report, error)
	Find(ctx context.Context, date time.Time) (commitmentsapp.Report, error)
	Today() time.Time
}

// ReportHandler provides the report HTTP endpoints.
type ReportHandler struct {
	reports     Reports
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewReportHandler constructs a handler.
func NewReportHandler(reports Reports, auditLogger audit.Logger, logger *log.Logger) (*ReportHandler, error) {
	if reports == nil {
		return nil, errors.New("report handler: nil reports")
	}
	return &ReportHandler{reports: reports, auditLogger: auditLogger, logger: logger}, nil
}

// Register mounts the report endpoints on mux.
func (h *ReportHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/generate-report/", h.handleGenerate)
	mux.HandleFunc("/get-report/", h.exportHandler(FormatPDF))
	mux.HandleFunc("/get-csv/", h.exportHandler(FormatCSV))
	mux.HandleFunc("/get-xlsx/", h.exportHandler(FormatXLSX))
}

func (h *ReportHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	if !excel.IsWorkbookName(header.Filename) {
		http.Error(w, "file must be an Excel workbook (.xls or .xlsx)", http.StatusBadRequest)
		return
	}

	date := h.reports.Today()
	if value := strings.TrimSpace(r.URL.Query().Get("report_date")); value != "" {
		date, err = commitmentsapp.ParseReportDate(value)
		if err != nil {
			http.Error(w, "report_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	report, err := h.reports.Generate(r.Context(), file, date)
	if err != nil {
		h.logf("generate report error: date=%s err=%v", date.Format(commitments.DateLayout), err)
		writeReportError(w, err)
		return
	}

	body, err := BuildReportPDF(report.Date, report.Rows)
	if err != nil {
		http.Error(w, "render report error", http.StatusInternalServerError)
		return
	}
	h.logAudit(r, audit.ActionReportGenerate, FormatPDF, report, body, map[string]any{
		"file":   filepath.Base(header.Filename),
		"cached": report.Cached,
	})
	writeAttachment(w, FormatPDF, report.Date, body)
}

func (h *ReportHandler) exportHandler(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		value := strings.TrimSpace(r.URL.Query().Get("report_date"))
		if value == "" {
			http.Error(w, "report_date is required", http.StatusBadRequest)
			return
		}
		date, err := commitmentsapp.ParseReportDate(value)
		if err != nil {
			http.Error(w, "report_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		report, err := h.reports.Find(r.Context(), date)
		if err != nil {
			writeReportError(w, err)
			return
		}
		body, err := BuildReport(format, report.Date, report.Rows)
		if err != nil {
			http.Error(w, "render report error", http.StatusInternalServerError)
			return
		}
		h.logAudit(r, audit.ActionReportExport, format, report, body, nil)
		writeAttachment(w, format, report.Date, body)
	}
}

func (h *ReportHandler) logAudit(r *http.Request, action, format string, report commitmentsapp.Report, body []byte, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	entry := audit.FromRequest(r, action, report.Date.Format(commitments.DateLayout))
	entry.Actor = auth.SubjectFromContext(r.Context())
	entry.Role = string(auth.RoleFromContext(r.Context()))
	entry.Format = format
	entry.Rows = len(report.Rows)
	entry.PayloadDigest = audit.DigestBytes(body)
	if len(meta) > 0 {
		entry.Metadata, _ = json.Marshal(meta)
	}
	if err := h.auditLogger.Log(r.Context(), entry); err != nil {
		h.logf("audit log error: action=%s err=%v", action, err)
	}
}

func (h *ReportHandler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}

func writeAttachment(w http.ResponseWriter, format string, date time.Time, body []byte) {
	w.Header().Set("Content-Type", ContentType(format))
	w.Header().Set("Content-Disposition", "attachment; filename="+FileName(format, date))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeReportError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	var upstream *commitments.UpstreamError
	switch {
	case errors.Is(err, commitments.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, commitments.ErrReportNotFound):
		return http.StatusNotFound
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.Is(err, commitments.ErrParse), errors.Is(err, commitments.ErrNoPriceFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
