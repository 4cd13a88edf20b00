/*
payroll.go - Period-wide payroll runs

PURPOSE:
  Calculates one period for many instructors in a single request. Each
  instructor is paid by their assigned policy. A failure for one instructor
  is reported next to the others and never aborts the run.

DESIGN:
  - Entries are calculated concurrently, bounded by Handler.PayrollWorkers
  - Results keep the order of the request entries
  - Official runs (preview_mode=false) persist every successful calculation
  - TotalNet sums the net salary of successful entries only

SEE ALSO:
  - handlers.go: Calculate (single instructor) and persistence helpers
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/educanvas/salary-engine/salary"
)

// RunPayroll handles POST /api/payroll/run.
func (h *Handler) RunPayroll(w http.ResponseWriter, r *http.Request) {
	var req PayrollRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, err := salary.ParsePeriod(req.Period)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	if len(req.Entries) == 0 {
		writeError(w, http.StatusBadRequest, "entries must not be empty", nil)
		return
	}

	preview := req.PreviewMode == nil || *req.PreviewMode
	resp, err := h.runPayroll(r.Context(), TenantFrom(r.Context()), period, preview, req.Entries)
	if err != nil {
		h.fail(w, r, "Payroll run failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type payrollOutcome struct {
	calc    CalculationDTO
	failure *PayrollFailure
}

func (h *Handler) runPayroll(ctx context.Context, tenant salary.TenantID, period salary.Period, preview bool, entries []PayrollEntry) (PayrollRunResponse, error) {
	outcomes := make([]payrollOutcome, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	workers := h.PayrollWorkers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = h.payrollEntry(gctx, tenant, period, preview, entry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PayrollRunResponse{}, err
	}

	resp := PayrollRunResponse{
		Period:       period.String(),
		PreviewMode:  preview,
		Calculations: []CalculationDTO{},
		Failures:     []PayrollFailure{},
	}
	for _, o := range outcomes {
		if o.failure != nil {
			resp.Failures = append(resp.Failures, *o.failure)
			continue
		}
		resp.Calculations = append(resp.Calculations, o.calc)
		resp.TotalNet += o.calc.NetSalary
	}

	h.Logger.Info("payroll run completed",
		zap.String("tenant_id", string(tenant)),
		zap.String("period", resp.Period),
		zap.Bool("preview_mode", preview),
		zap.Int("calculated", len(resp.Calculations)),
		zap.Int("failed", len(resp.Failures)),
		zap.Int64("total_net", resp.TotalNet),
	)
	return resp, nil
}

func (h *Handler) payrollEntry(ctx context.Context, tenant salary.TenantID, period salary.Period, preview bool, entry PayrollEntry) payrollOutcome {
	instructorID := salary.InstructorID(entry.InstructorID)
	failed := func(err error) payrollOutcome {
		f := &PayrollFailure{InstructorID: entry.InstructorID, Error: err.Error()}
		var verr *salary.ValidationError
		if errors.As(err, &verr) {
			f.Error = salary.ErrValidation.Error()
			f.Errors = verr.Messages()
		}
		h.Logger.Warn("payroll entry failed",
			zap.String("tenant_id", string(tenant)),
			zap.String("instructor_id", entry.InstructorID),
			zap.Error(err),
		)
		return payrollOutcome{failure: f}
	}

	if instructorID == "" {
		return failed(badRequest("instructor_id is required"))
	}

	policy, err := h.resolvePolicy(ctx, tenant, instructorID, "", nil, preview)
	if err != nil {
		return failed(err)
	}

	dto, err := h.calculate(ctx, tenant, salary.Request{
		InstructorID: instructorID,
		Period:       period,
		Policy:       policy,
		Metrics:      entry.Metrics.Metrics(),
		PreviewMode:  preview,
	})
	if err != nil {
		return failed(err)
	}
	return payrollOutcome{calc: dto}
}
