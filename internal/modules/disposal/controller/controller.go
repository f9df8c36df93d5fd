package controller

import (
	"net/http"

	"wastemap-server/internal/modules/disposal/repository"
)

type DisposalController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type disposalControllerImpl struct {
	repository repository.DisposalRepository
}

func NewDisposalController(repository repository.DisposalRepository) DisposalController {
	return &disposalControllerImpl{repository: repository}
}

func (c *disposalControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /businesses/{$}", c.handleCreateBusiness)
	mux.HandleFunc("POST /disposal/requests/{$}", c.handleCreateRequest)
	mux.HandleFunc("GET /disposal/requests/{$}", c.handleListRequests)
	mux.HandleFunc("GET /disposal/requests/{id}", c.handleGetRequest)
	mux.HandleFunc("POST /disposal/requests/{id}/timeslots", c.handleCreateTimeslot)
}
