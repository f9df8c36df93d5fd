package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"wastemap-server/internal/modules/disposal/repository"
	"wastemap-server/internal/modules/disposal/types"
	"wastemap-server/internal/utils"
)

// writeRepoError maps repository sentinels onto HTTP statuses.
func writeRepoError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrConflict):
		utils.WriteError(w, http.StatusConflict, err.Error())
	default:
		slog.Error(op+" failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func (c *disposalControllerImpl) handleCreateBusiness(w http.ResponseWriter, r *http.Request) {
	var in types.NewBusiness
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	business, err := c.repository.CreateBusiness(r.Context(), in)
	if err != nil {
		writeRepoError(w, "create business", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, business)
}

func (c *disposalControllerImpl) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var in types.NewDisposalRequest
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := c.repository.CreateDisposalRequest(r.Context(), in)
	if err != nil {
		writeRepoError(w, "create disposal request", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, req)
}

func (c *disposalControllerImpl) handleListRequests(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := parseListQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	reqs, err := c.repository.ListDisposalRequests(r.Context(), offset, limit)
	if err != nil {
		writeRepoError(w, "list disposal requests", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqs)
}

func (c *disposalControllerImpl) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	detail, err := c.repository.GetDisposalRequest(r.Context(), id)
	if err != nil {
		writeRepoError(w, "get disposal request", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, detail)
}

func (c *disposalControllerImpl) handleCreateTimeslot(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var in types.NewTimeslot
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	slot, err := c.repository.CreateTimeslot(r.Context(), id, in)
	if err != nil {
		writeRepoError(w, "create timeslot", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, slot)
}
