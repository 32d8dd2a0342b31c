package workflows

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"kb-admin-client/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"
)

type fakeSyncer struct {
	datasourceCalls atomic.Int32
	documentCalls   atomic.Int32
	documentsErr    error
}

func (f *fakeSyncer) SyncDatasources(ctx context.Context) (int, int, error) {
	f.datasourceCalls.Add(1)
	return 2, 1, nil
}

func (f *fakeSyncer) SyncDocuments(ctx context.Context) (int, int, error) {
	f.documentCalls.Add(1)
	if f.documentsErr != nil {
		return 0, 0, f.documentsErr
	}
	return 10, 3, nil
}

func newEnv(t *testing.T, syncer Syncer) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	activities := NewActivities(syncer)
	env.RegisterWorkflowWithOptions(SyncWorkflow, workflow.RegisterOptions{Name: models.SyncWorkflowName})
	env.RegisterActivityWithOptions(activities.SyncDatasources, activity.RegisterOptions{Name: SyncDatasourcesActivity})
	env.RegisterActivityWithOptions(activities.SyncDocuments, activity.RegisterOptions{Name: SyncDocumentsActivity})
	return env
}

func TestSyncWorkflow(t *testing.T) {
	t.Run("FullSync", func(t *testing.T) {
		syncer := &fakeSyncer{}
		env := newEnv(t, syncer)

		env.ExecuteWorkflow(models.SyncWorkflowName, models.SyncRequest{})

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())
		var result models.SyncResult
		require.NoError(t, env.GetWorkflowResult(&result))
		assert.Equal(t, models.SyncResult{Datasources: 2, Documents: 10, Pruned: 4}, result)
	})

	t.Run("SkipDocuments", func(t *testing.T) {
		syncer := &fakeSyncer{}
		env := newEnv(t, syncer)

		env.ExecuteWorkflow(models.SyncWorkflowName, models.SyncRequest{SkipDocuments: true})

		require.NoError(t, env.GetWorkflowError())
		assert.Equal(t, int32(1), syncer.datasourceCalls.Load())
		assert.Zero(t, syncer.documentCalls.Load())
	})

	t.Run("DocumentFailureRetriesThenFails", func(t *testing.T) {
		syncer := &fakeSyncer{documentsErr: errors.New("backend returned status 503: unavailable")}
		env := newEnv(t, syncer)

		env.ExecuteWorkflow(models.SyncWorkflowName, models.SyncRequest{SkipDatasources: true})

		require.True(t, env.IsWorkflowCompleted())
		require.Error(t, env.GetWorkflowError())
		assert.Equal(t, int32(5), syncer.documentCalls.Load())
	})
}
