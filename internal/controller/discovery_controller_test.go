package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-pipeline/internal/controller"
	"github.com/unclebandit/outreach-pipeline/internal/model"
)

type recordingBatcher struct {
	ids       []string
	batchSize int
}

func (b *recordingBatcher) RunBatch(ctx context.Context, ids []string, batchSize int) model.DiscoveryProgress {
	b.ids, b.batchSize = ids, batchSize
	out := model.DiscoveryProgress{Total: len(ids), Results: []model.DiscoveryResult{}}
	for _, id := range ids {
		out.Processed++
		out.Succeeded++
		out.Results = append(out.Results, model.DiscoveryResult{
			OrganizationID: id,
			Emails:         []string{"pastor@" + id + ".org"},
			Status:         model.DiscoverySuccess,
		})
	}
	return out
}

func TestRunDiscoveryHandler(t *testing.T) {
	b := &recordingBatcher{}
	ctrl := &controller.DiscoveryController{Batcher: b, Logger: zap.NewNop()}

	w := post(ctrl.RunDiscovery, "/discovery", `{"organizationIds":["a","b"],"batchSize":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"a", "b"}, b.ids)
	assert.Equal(t, 5, b.batchSize)

	var progress model.DiscoveryProgress
	require.NoError(t, json.NewDecoder(w.Body).Decode(&progress))
	assert.Equal(t, 2, progress.Total)
	assert.Len(t, progress.Results, 2)

	w = post(ctrl.RunDiscovery, "/discovery", `{"organizationIds":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
