package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"kb-admin-client/internal/models"
	"kb-admin-client/internal/repository"
	"kb-admin-client/internal/services"

	"github.com/spf13/cobra"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Maintain the local mirror of documents and datasources",
}

var (
	syncRequest models.SyncRequest
	syncRemote  bool
)

var mirrorSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy documents and datasources into the mirror",
	Long: `Copy every datasource and document into the mirror database and remove
rows that no longer exist in the backend.

With --remote the sync runs as a Temporal workflow on the sync worker and
the workflow ID is printed instead.`,
	Args: cobra.NoArgs,
	RunE: runMirrorSync,
}

var (
	mirrorLimit  int
	mirrorOffset int
	mirrorStatus string
)

var mirrorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mirrored documents",
	Args:  cobra.NoArgs,
	RunE:  runMirrorList,
}

var mirrorStatusCmd = &cobra.Command{
	Use:   "status WORKFLOW_ID",
	Short: "Show the state of a remote sync",
	Args:  cobra.ExactArgs(1),
	RunE:  runMirrorStatus,
}

var mirrorCancelCmd = &cobra.Command{
	Use:   "cancel WORKFLOW_ID",
	Short: "Cancel a remote sync",
	Args:  cobra.ExactArgs(1),
	RunE:  runMirrorCancel,
}

func init() {
	f := mirrorSyncCmd.Flags()
	f.BoolVar(&syncRequest.SkipDatasources, "skip-datasources", false, "Do not sync datasources")
	f.BoolVar(&syncRequest.SkipDocuments, "skip-documents", false, "Do not sync documents")
	f.BoolVar(&syncRemote, "remote", false, "Run the sync on the sync worker")

	f = mirrorListCmd.Flags()
	f.IntVar(&mirrorLimit, "limit", 20, "Maximum number of documents")
	f.IntVar(&mirrorOffset, "offset", 0, "Number of documents to skip")
	f.StringVar(&mirrorStatus, "index-status", "", "Filter by index status")

	mirrorCmd.AddCommand(mirrorSyncCmd)
	mirrorCmd.AddCommand(mirrorListCmd)
	mirrorCmd.AddCommand(mirrorStatusCmd)
	mirrorCmd.AddCommand(mirrorCancelCmd)
}

func runMirrorSync(cmd *cobra.Command, args []string) error {
	backend, cfg, logger, err := newBackend(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if syncRemote {
		scheduler, err := services.NewSyncScheduler(&cfg.Temporal)
		if err != nil {
			return err
		}
		defer scheduler.Close()

		workflowID, err := scheduler.StartSyncWorkflow(ctx, syncRequest)
		if err != nil {
			return err
		}
		return render(cmd, models.SyncResponse{WorkflowID: workflowID}, []string{"Workflow ID"}, [][]string{{workflowID}})
	}

	repo, err := repository.New(ctx, &cfg.Mirror)
	if err != nil {
		return err
	}
	defer repo.Close()

	syncer := services.NewSyncer(backend.Documents, backend.Datasources, repo, cfg.Mirror.PageSize, logger)
	result, err := syncer.Sync(ctx, syncRequest)
	if err != nil {
		return err
	}
	return render(cmd, result, []string{"Datasources", "Documents", "Pruned"}, [][]string{{
		fmt.Sprint(result.Datasources),
		fmt.Sprint(result.Documents),
		fmt.Sprint(result.Pruned),
	}})
}

func runMirrorList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := repository.New(cmd.Context(), &cfg.Mirror)
	if err != nil {
		return err
	}
	defer repo.Close()

	docs, total, err := repo.ListDocuments(cmd.Context(), mirrorLimit, mirrorOffset, mirrorStatus)
	if err != nil {
		return err
	}

	resp := models.DocumentListResponse{
		Documents: make([]models.Document, 0, len(docs)),
		Total:     total,
		Limit:     mirrorLimit,
		Offset:    mirrorOffset,
	}
	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		resp.Documents = append(resp.Documents, *d)
		rows = append(rows, documentRow(*d))
	}
	return render(cmd, resp, documentHeaders, rows)
}

func runMirrorStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	scheduler, err := services.NewSyncScheduler(&cfg.Temporal)
	if err != nil {
		return err
	}
	defer scheduler.Close()

	status, err := scheduler.QueryWorkflowStatus(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	started, closed := "-", "-"
	if status.StartTime != nil {
		started = formatTime(*status.StartTime)
	}
	if status.CloseTime != nil {
		closed = formatTime(*status.CloseTime)
	}
	return render(cmd, status, []string{"Workflow ID", "Run ID", "Status", "Started", "Closed"},
		[][]string{{status.WorkflowID, status.RunID, status.Status, started, closed}})
}

func runMirrorCancel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	scheduler, err := services.NewSyncScheduler(&cfg.Temporal)
	if err != nil {
		return err
	}
	defer scheduler.Close()

	if err := scheduler.CancelWorkflow(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sync %s cancelled\n", args[0])
	return nil
}
