package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BubDublin/solar-proforma/internal/domain"
	"github.com/BubDublin/solar-proforma/internal/projection"
	"github.com/BubDublin/solar-proforma/internal/reporting"
	"github.com/BubDublin/solar-proforma/internal/storage"
	"github.com/BubDublin/solar-proforma/internal/verification"
)

var errNoStorage = errors.New("pro-forma storage is not configured")

// ErrDigestMismatch is returned when an export does not reproduce the previewed result.
var ErrDigestMismatch = errors.New("result digest does not match preview")

// ProjectionResponse is the body of POST /api/projections.
type ProjectionResponse struct {
	ProFormaID string                   `json:"id"`
	Digest     string                   `json:"digest"`
	Input      domain.ProjectInput      `json:"input"`
	Headline   domain.Headline          `json:"headline"`
	Result     *domain.ProjectionResult `json:"result"`
}

// ExportRequest is the body of POST /api/exports.
type ExportRequest struct {
	Input domain.ProjectInput `json:"input"`

	// ExpectedDigest, when set, must equal the digest of the recomputed result.
	ExpectedDigest string `json:"expected_digest,omitempty"`

	// Format is "xlsx" (default), "csv" or "md".
	Format string `json:"format,omitempty"`
}

// compute runs the engine through the report generator and records metrics.
func (s *Server) compute(source string, in domain.ProjectInput) (*reporting.Report, error) {
	start := time.Now()
	rep, err := s.generator.Generate(s.normalize(in))
	if err != nil {
		if errors.Is(err, projection.ErrInvalidInput) {
			s.metrics.RecordInvalidInput()
		}
		return nil, err
	}
	s.metrics.RecordProjection(source, time.Since(start))
	return rep, nil
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	var in domain.ProjectInput
	if err := decodeJSON(r.Body, &in); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	rep, err := s.compute("api", in)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, ProjectionResponse{
		ProFormaID: rep.ProFormaID,
		Digest:     rep.Digest,
		Input:      rep.Input,
		Headline:   rep.Result.Headline(),
		Result:     rep.Result,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	format := req.Format
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "csv" && format != "md" {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: unknown format %q", errDecode, req.Format))
		return
	}

	rep, err := s.compute("export", req.Input)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	if req.ExpectedDigest != "" && req.ExpectedDigest != rep.Digest {
		s.writeError(w, r, http.StatusConflict, fmt.Errorf("%w: expected %s, got %s", ErrDigestMismatch, req.ExpectedDigest, rep.Digest))
		return
	}

	if err := s.save(r.Context(), rep); err != nil {
		s.logger.Printf("%s save proforma %s: %v", RequestID(r.Context()), rep.ProFormaID, err)
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	var (
		body        bytes.Buffer
		contentType string
		filename    string
	)
	switch format {
	case "csv":
		body.WriteString(reporting.RenderCashFlowCSV(rep.Result.Rows))
		contentType = "text/csv; charset=utf-8"
		filename = reporting.BaseName(rep) + "_CashFlow.csv"
	case "md":
		body.WriteString(reporting.RenderSummaryMarkdown(rep))
		contentType = "text/markdown; charset=utf-8"
		filename = reporting.BaseName(rep) + "_Summary.md"
	default:
		if err := reporting.WriteWorkbook(&body, rep); err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = reporting.Filename(rep)
	}
	s.metrics.RecordExport(format)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-ProForma-ID", rep.ProFormaID)
	w.Header().Set("X-Result-Digest", rep.Digest)
	w.WriteHeader(http.StatusOK)
	w.Write(body.Bytes())
}

// save persists the pro-forma and its rows. A record already saved under
// the same deterministic ID counts as success, but its rows are still
// written if an earlier save stopped before them.
func (s *Server) save(ctx context.Context, rep *reporting.Report) error {
	if s.proformas == nil {
		return nil
	}

	outcome := "saved"
	rec := domain.NewProFormaRecord(rep.ProFormaID, rep.Input, rep.Result, rep.GeneratedAt.UnixMilli())
	err := s.proformas.Insert(ctx, rec)
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		outcome = "existing"
	case err != nil:
		s.metrics.RecordSave("error")
		return fmt.Errorf("insert proforma: %w", err)
	}

	if s.cashflows != nil {
		// Rows are inserted as one batch, so a duplicate means all of them are stored.
		err := s.cashflows.InsertBulk(ctx, rep.ProFormaID, rep.Result.Rows)
		switch {
		case err == nil && outcome == "existing":
			outcome = "repaired"
		case errors.Is(err, storage.ErrDuplicateKey):
		case err != nil:
			s.metrics.RecordSave("error")
			return fmt.Errorf("insert cash flows: %w", err)
		}
	}
	s.metrics.RecordSave(outcome)
	return nil
}

// ProFormaResponse is a saved pro-forma as returned by the API.
type ProFormaResponse struct {
	ProFormaID    string               `json:"id"`
	CustomerName  string               `json:"customer_name"`
	ProjectName   string               `json:"project_name"`
	Location      domain.Location      `json:"location"`
	Utility       domain.UtilityID     `json:"utility"`
	SystemSizeKW  decimal.Decimal      `json:"system_size_kw"`
	InstalledCost decimal.Decimal      `json:"installed_cost"`
	NetCost       decimal.Decimal      `json:"net_cost"`
	Year1Benefit  decimal.Decimal      `json:"year1_benefit"`
	PaybackYear   int                  `json:"payback_year"`
	CreatedAt     int64                `json:"created_at"`
	Input         domain.ProjectInput  `json:"input"`
	Rows          []domain.CashFlowRow `json:"rows,omitempty"`
}

func newProFormaResponse(rec *domain.ProFormaRecord) ProFormaResponse {
	return ProFormaResponse{
		ProFormaID:    rec.ProFormaID,
		CustomerName:  rec.CustomerName,
		ProjectName:   rec.ProjectName,
		Location:      rec.Location,
		Utility:       rec.Utility,
		SystemSizeKW:  rec.SystemSizeKW,
		InstalledCost: rec.InstalledCost,
		NetCost:       rec.NetCost,
		Year1Benefit:  rec.Year1Benefit,
		PaybackYear:   rec.PaybackYear,
		CreatedAt:     rec.CreatedAt,
		Input:         rec.Input,
	}
}

func (s *Server) handleListProFormas(w http.ResponseWriter, r *http.Request) {
	if s.proformas == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, errNoStorage)
		return
	}

	var (
		records []*domain.ProFormaRecord
		err     error
	)
	if customer := r.URL.Query().Get("customer"); customer != "" {
		records, err = s.proformas.GetByCustomer(r.Context(), customer)
	} else {
		records, err = s.proformas.GetAll(r.Context())
	}
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	out := make([]ProFormaResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, newProFormaResponse(rec))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProForma(w http.ResponseWriter, r *http.Request) {
	if s.proformas == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, errNoStorage)
		return
	}

	rec, err := s.proformas.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	resp := newProFormaResponse(rec)
	if s.cashflows != nil {
		rows, err := s.cashflows.GetByProFormaID(r.Context(), rec.ProFormaID)
		if err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}
		resp.Rows = rows
	}
	s.writeJSON(w, http.StatusOK, resp)
}

const summaryPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

func (s *Server) handleProFormaSummary(w http.ResponseWriter, r *http.Request) {
	if s.proformas == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, errNoStorage)
		return
	}

	rec, err := s.proformas.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	rep, err := s.compute("summary", rec.Input)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	fragment, err := reporting.RenderSummaryHTML(rep)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.metrics.RecordExport("html")

	title := html.EscapeString(rec.CustomerName + " - " + rec.ProjectName)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, summaryPage, title, fragment)
}

func (s *Server) handleVerifyProForma(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, errNoStorage)
		return
	}

	result, err := s.verifier.VerifyProForma(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, verification.ErrProFormaNotFound) {
			s.writeError(w, r, http.StatusNotFound, err)
			return
		}
		s.writeError(w, r, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
