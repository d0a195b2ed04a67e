package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockroomhq/stockroom-backend/api/middleware"
	"github.com/stockroomhq/stockroom-backend/api/responses"
	"github.com/stockroomhq/stockroom-backend/api/validators"
	"github.com/stockroomhq/stockroom-backend/internal/ledger"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

type recordMovementBody struct {
	LotID    string  `json:"lotId"`
	Quantity float64 `json:"quantity"`
	Type     string  `json:"type"`
}

type correctQuantityBody struct {
	LotID       string  `json:"lotId"`
	NewQuantity float64 `json:"newQuantity"`
}

func RecordMovement(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body recordMovementBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RecordMovement(r.Context(), ledger.MovementInput{
			LotCode:  body.LotID,
			UserID:   middleware.UserIDFromContext(r.Context()),
			Quantity: body.Quantity,
			Type:     body.Type,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func CorrectQuantity(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body correctQuantityBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CorrectQuantity(r.Context(), ledger.CorrectionInput{
			LotCode:     body.LotID,
			UserID:      middleware.UserIDFromContext(r.Context()),
			NewQuantity: body.NewQuantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetLotHistory(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := svc.LotHistory(r.Context(), chi.URLParam(r, "lotId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}
