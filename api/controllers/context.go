package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func currentUser(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
