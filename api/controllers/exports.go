package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dukapoint/stockledger-backend/api/responses"
	"github.com/dukapoint/stockledger-backend/internal/exports"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
)

func ExportsReorder(svc exports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID, _, err := identity(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filename := fmt.Sprintf("reorder-%s.csv", time.Now().UTC().Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := svc.WriteReorderCSV(ctx, tenantID, w); err != nil {
			// Headers are already out, so log rather than re-encode.
			logg.Error(ctx, "writing reorder export", err)
		}
	}
}

func ExportsSalesTemplate(svc exports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID, _, err := identity(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="sales-template.csv"`)
		if err := svc.WriteSalesTemplateCSV(ctx, tenantID, w); err != nil {
			logg.Error(ctx, "writing sales template export", err)
		}
	}
}
