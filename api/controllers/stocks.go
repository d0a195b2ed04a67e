package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/api/responses"
	"github.com/stockroomhq/stockroom-backend/api/validators"
	"github.com/stockroomhq/stockroom-backend/internal/stock"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

type createLotBody struct {
	ItemID       string   `json:"itemId" validate:"required,uuid"`
	LotID        string   `json:"lotId"`
	Quantity     float64  `json:"quantity"`
	UnitPrice    *float64 `json:"unitPrice"`
	ExpiryDate   string   `json:"expiryDate"`
	ReorderLevel *float64 `json:"reorderLevel"`
	Remarks      *string  `json:"remarks"`
}

type updateLotBody struct {
	NewLotID   *string  `json:"newLotId"`
	UnitPrice  *float64 `json:"unitPrice"`
	ExpiryDate *string  `json:"expiryDate"`
	Remarks    *string  `json:"remarks"`
}

func CreateLot(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createLotBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := uuid.Parse(body.ItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		lot, err := svc.CreateLot(r.Context(), stock.CreateLotInput{
			ItemID:       itemID,
			LotCode:      body.LotID,
			Quantity:     body.Quantity,
			UnitPrice:    body.UnitPrice,
			ExpiryDate:   body.ExpiryDate,
			ReorderLevel: body.ReorderLevel,
			Remarks:      body.Remarks,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, lot)
	}
}

func UpdateLotDetails(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lotCode := chi.URLParam(r, "lotId")

		var body updateLotBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lot, err := svc.UpdateLotDetails(r.Context(), stock.UpdateLotDetailsInput{
			ItemID:     itemID,
			LotCode:    lotCode,
			NewLotCode: body.NewLotID,
			UnitPrice:  body.UnitPrice,
			ExpiryDate: body.ExpiryDate,
			Remarks:    body.Remarks,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lot)
	}
}

func GetLot(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lot, err := svc.GetByLotCode(r.Context(), chi.URLParam(r, "lotId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lot)
	}
}

func GetLowStockLots(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lots, err := svc.ListLowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lots)
	}
}

func GetExpiringLots(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lots, err := svc.ListExpiring(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lots)
	}
}
