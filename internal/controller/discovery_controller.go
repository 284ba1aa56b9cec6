package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/model"
)

type BatchRunner interface {
	RunBatch(ctx context.Context, organizationIDs []string, batchSize int) model.DiscoveryProgress
}

type DiscoveryController struct {
	Batcher BatchRunner
	Logger  *zap.Logger
}

// RunDiscovery handles POST /discovery {organizationIds, batchSize?}. It
// blocks until the whole batch has finished.
func (c *DiscoveryController) RunDiscovery(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrganizationIDs []string `json:"organizationIds"`
		BatchSize       int      `json:"batchSize"`
	}
	if err := Decode(r, &body); err != nil {
		WriteError(w, c.Logger, err)
		return
	}
	if len(body.OrganizationIDs) == 0 {
		WriteError(w, c.Logger, appErrors.NewBadRequest("organizationIds must not be empty"))
		return
	}

	progress := c.Batcher.RunBatch(r.Context(), body.OrganizationIDs, body.BatchSize)
	WriteJSON(w, http.StatusOK, progress)
}
