package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/dukapoint/stockledger-backend/api/middleware"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
)

// identity pulls the gateway-authenticated tenant and user out of the
// request context. The tenant middleware guarantees both parse.
func identity(ctx context.Context) (uuid.UUID, uuid.UUID, error) {
	tenantID, err := uuid.Parse(middleware.TenantIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	userID, err := uuid.Parse(middleware.UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return tenantID, userID, nil
}
