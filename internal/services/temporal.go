package services

import (
	"context"
	"fmt"
	"time"

	"kb-admin-client/internal/config"
	"kb-admin-client/internal/models"

	"github.com/google/uuid"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
)

// SyncScheduler starts and inspects mirror sync workflows.
type SyncScheduler struct {
	client client.Client
	cfg    *config.TemporalConfig
}

func NewSyncScheduler(cfg *config.TemporalConfig) (*SyncScheduler, error) {
	c, err := client.Dial(client.Options{
		HostPort:  fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Namespace: cfg.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create temporal client: %w", err)
	}

	return NewSyncSchedulerWithClient(c, cfg), nil
}

func NewSyncSchedulerWithClient(c client.Client, cfg *config.TemporalConfig) *SyncScheduler {
	return &SyncScheduler{
		client: c,
		cfg:    cfg,
	}
}

func (s *SyncScheduler) Close() {
	s.client.Close()
}

func (s *SyncScheduler) StartSyncWorkflow(ctx context.Context, req models.SyncRequest) (string, error) {
	workflowOptions := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("mirror-sync-%s", uuid.NewString()),
		TaskQueue: s.cfg.TaskQueue,
	}

	we, err := s.client.ExecuteWorkflow(ctx, workflowOptions, models.SyncWorkflowName, req)
	if err != nil {
		return "", fmt.Errorf("failed to start sync workflow: %w", err)
	}

	return we.GetID(), nil
}

func (s *SyncScheduler) QueryWorkflowStatus(ctx context.Context, workflowID string) (models.SyncStatus, error) {
	resp, err := s.client.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("failed to describe workflow %s: %w", workflowID, err)
	}

	info := resp.GetWorkflowExecutionInfo()
	status := models.SyncStatus{
		WorkflowID: info.GetExecution().GetWorkflowId(),
		RunID:      info.GetExecution().GetRunId(),
		Status:     info.GetStatus().String(),
	}
	if info.GetStartTime() != nil {
		t := info.GetStartTime().AsTime()
		status.StartTime = &t
	}
	if info.GetCloseTime() != nil {
		t := info.GetCloseTime().AsTime()
		status.CloseTime = &t
	}
	return status, nil
}

func (s *SyncScheduler) CancelWorkflow(ctx context.Context, workflowID string) error {
	if err := s.client.CancelWorkflow(ctx, workflowID, ""); err != nil {
		return fmt.Errorf("failed to cancel workflow %s: %w", workflowID, err)
	}
	return nil
}

func (s *SyncScheduler) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.client.WorkflowService().GetSystemInfo(ctx, &workflowservice.GetSystemInfoRequest{})
	return err
}
