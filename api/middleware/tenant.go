package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dukapoint/stockledger-backend/api/responses"
	"github.com/dukapoint/stockledger-backend/internal/tenants"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
)

const (
	tenantIDHeader = "X-Tenant-ID"
	userIDHeader   = "X-User-ID"
)

// TenantContext extracts the tenant and acting user the upstream gateway
// authenticated. Auth itself happens before traffic reaches this
// service; requests without the headers are rejected outright.
func TenantContext(repo tenants.Repository, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tenantID := strings.TrimSpace(r.Header.Get(tenantIDHeader))
			if _, err := uuid.Parse(tenantID); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "valid X-Tenant-ID header required"))
				return
			}
			userID := strings.TrimSpace(r.Header.Get(userIDHeader))
			if _, err := uuid.Parse(userID); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "valid X-User-ID header required"))
				return
			}

			if repo != nil {
				tenant, err := repo.FindByID(ctx, uuid.MustParse(tenantID))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "tenant lookup failed"))
					return
				}
				if tenant == nil || !tenant.IsActive {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "tenant is unknown or inactive"))
					return
				}
			}

			ctx = WithTenantID(ctx, tenantID)
			ctx = WithUserID(ctx, userID)
			if logg != nil {
				ctx = logg.WithTenantID(ctx, tenantID)
				ctx = logg.WithUserID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
