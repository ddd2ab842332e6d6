package dto

import (
	domainClient "github.com/reportik/reportik/internal/domain/client"
	ierr "github.com/reportik/reportik/internal/errors"
)

type CreateClientRequest struct {
	Name      string   `json:"name" binding:"required"`
	Segment   string   `json:"segment"`
	Objective string   `json:"objective"`
	Channels  []string `json:"channels"`
}

func (r *CreateClientRequest) Validate() error {
	if r.Name == "" {
		return ierr.NewError("client name is required").
			WithHint("Provide a name for the client").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type ClientResponse struct {
	*domainClient.Client
}

type ListClientsResponse struct {
	Items []*ClientResponse `json:"items"`
	Total int               `json:"total"`
}
