package controllers

import (
	"net/http"
	"time"

	"github.com/dukapoint/stockledger-backend/api/responses"
	"github.com/dukapoint/stockledger-backend/internal/variance"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
)

// VarianceReport serves the per-day variance report. The date query
// parameter defaults to today, UTC.
func VarianceReport(svc variance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID, _, err := identity(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		date := time.Now().UTC()
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date must be a YYYY-MM-DD date"))
				return
			}
			date = parsed
		}

		counterID, err := optionalUUID(r, "counter_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.Report(ctx, tenantID, date, counterID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
