package workflows

import (
	"context"
	"time"

	"kb-admin-client/internal/models"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

const (
	SyncDatasourcesActivity = "SyncDatasources"
	SyncDocumentsActivity   = "SyncDocuments"
)

// Syncer is the mirror sync work the activities delegate to.
type Syncer interface {
	SyncDatasources(ctx context.Context) (int, int, error)
	SyncDocuments(ctx context.Context) (int, int, error)
}

type PassResult struct {
	Synced int `json:"synced"`
	Pruned int `json:"pruned"`
}

type Activities struct {
	syncer Syncer
}

func NewActivities(syncer Syncer) *Activities {
	return &Activities{syncer: syncer}
}

func (a *Activities) SyncDatasources(ctx context.Context) (PassResult, error) {
	logger := activity.GetLogger(ctx)
	synced, pruned, err := a.syncer.SyncDatasources(ctx)
	if err != nil {
		logger.Error("Datasource sync failed", "error", err)
		return PassResult{}, err
	}
	return PassResult{Synced: synced, Pruned: pruned}, nil
}

func (a *Activities) SyncDocuments(ctx context.Context) (PassResult, error) {
	logger := activity.GetLogger(ctx)
	synced, pruned, err := a.syncer.SyncDocuments(ctx)
	if err != nil {
		logger.Error("Document sync failed", "error", err)
		return PassResult{}, err
	}
	return PassResult{Synced: synced, Pruned: pruned}, nil
}

// SyncWorkflow mirrors datasources, then documents. Retries happen here, per
// activity; the backend client never retries on its own.
func SyncWorkflow(ctx workflow.Context, req models.SyncRequest) (models.SyncResult, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    2 * time.Minute,
			MaximumAttempts:    5,
		},
	})
	logger := workflow.GetLogger(ctx)

	var result models.SyncResult
	if !req.SkipDatasources {
		var pass PassResult
		if err := workflow.ExecuteActivity(ctx, SyncDatasourcesActivity).Get(ctx, &pass); err != nil {
			return result, err
		}
		result.Datasources = pass.Synced
		result.Pruned += pass.Pruned
	}
	if !req.SkipDocuments {
		var pass PassResult
		if err := workflow.ExecuteActivity(ctx, SyncDocumentsActivity).Get(ctx, &pass); err != nil {
			return result, err
		}
		result.Documents = pass.Synced
		result.Pruned += pass.Pruned
	}

	logger.Info("Mirror sync completed",
		"datasources", result.Datasources,
		"documents", result.Documents,
		"pruned", result.Pruned)
	return result, nil
}

// Register adds the sync workflow and its activities to r under the names
// the scheduler starts them by.
func Register(r worker.Registry, activities *Activities) {
	r.RegisterWorkflowWithOptions(SyncWorkflow, workflow.RegisterOptions{Name: models.SyncWorkflowName})
	r.RegisterActivityWithOptions(activities.SyncDatasources, activity.RegisterOptions{Name: SyncDatasourcesActivity})
	r.RegisterActivityWithOptions(activities.SyncDocuments, activity.RegisterOptions{Name: SyncDocumentsActivity})
}
