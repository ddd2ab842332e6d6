package client

import (
	"github.com/lib/pq"

	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

// Client is a marketing client managed by a tenant. The number of clients a
// tenant can hold is gated by its plan.
type Client struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Segment   string         `db:"segment" json:"segment"`
	Objective string         `db:"objective" json:"objective"`
	Channels  pq.StringArray `db:"channels" json:"channels"`
	types.BaseModel
}

func (c *Client) TableName() string {
	return "clients"
}

func (c *Client) Validate() error {
	if c.Name == "" {
		return ierr.NewError("client name is required").
			WithHint("Client name must not be empty").
			Mark(ierr.ErrValidation)
	}
	return nil
}
