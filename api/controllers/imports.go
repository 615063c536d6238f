package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dukapoint/stockledger-backend/api/responses"
	"github.com/dukapoint/stockledger-backend/internal/imports"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
	"github.com/dukapoint/stockledger-backend/pkg/tabular"
)

const maxUploadBytes = 16 << 20

type importFunc func(ctx context.Context, tenantID, actorID uuid.UUID, table *tabular.Table) (*imports.Result, error)

// importUpload handles the shared multipart plumbing for all three batch
// kinds. The file field is named "file" and may be CSV or XLSX.
func importUpload(run importFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID, userID, err := identity(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "expected a multipart upload with a file field"))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file field is required"))
			return
		}
		defer file.Close()

		table, err := tabular.Parse(file, header.Filename)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not parse upload"))
			return
		}

		result, err := run(ctx, tenantID, userID, table)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ImportsSales(svc imports.Service, logg *logger.Logger) http.HandlerFunc {
	return importUpload(svc.ImportSales, logg)
}

func ImportsPhysicalCounts(svc imports.Service, logg *logger.Logger) http.HandlerFunc {
	return importUpload(svc.ImportPhysicalCounts, logg)
}

func ImportsRestock(svc imports.Service, logg *logger.Logger) http.HandlerFunc {
	return importUpload(svc.ImportRestock, logg)
}
