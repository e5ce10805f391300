package services

import (
	"encoding/json"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
)

const statusKey = "key"

// StatusService serves the hand-written operational banner. The banner is
// placed in the collection out of band; absence means all clear.
type StatusService struct {
	status *store.Collection[models.Status]
}

// NewStatusService opens the status collection under root.
func NewStatusService(root string) *StatusService {
	return &StatusService{status: store.NewCollection[models.Status](root, "v2_status")}
}

// Read returns the response body clients expect: the banner under a
// "status" key, null when none is set.
func (s *StatusService) Read() ([]byte, error) {
	var rsp struct {
		Status *models.Status `json:"status"`
	}
	if banner, ok := s.status.Read(statusKey); ok {
		rsp.Status = &banner
	}
	return json.Marshal(rsp)
}
