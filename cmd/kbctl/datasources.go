package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"kb-admin-client/internal/models"
	"kb-admin-client/internal/services"

	"github.com/spf13/cobra"
)

var datasourcesCmd = &cobra.Command{
	Use:     "datasources",
	Aliases: []string{"ds"},
	Short:   "Manage datasources and their indexing progress",
}

var datasourcesListParams services.ListParams

var datasourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List datasources",
	Args:  cobra.NoArgs,
	RunE:  runDatasourcesList,
}

var datasourcesGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show a datasource",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasourcesGet,
}

var datasourcesDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a datasource",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasourcesDelete,
}

var (
	createName        string
	createDescription string
	createKG          bool
	createLLM         int
	createSitemap     string
	createURLs        []string
)

var datasourcesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a web datasource",
	Long: `Create a datasource that crawls the web.

Pass --sitemap to crawl every page listed in a sitemap, or one or more --url
flags to index single pages. File datasources are created with import-s3.`,
	Args: cobra.NoArgs,
	RunE: runDatasourcesCreate,
}

var datasourcesOverviewCmd = &cobra.Command{
	Use:   "overview ID",
	Short: "Show indexing progress for a datasource",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasourcesOverview,
}

var datasourcesRetryCmd = &cobra.Command{
	Use:   "retry ID",
	Short: "Retry failed indexing tasks of a datasource",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasourcesRetry,
}

var (
	importBucket  string
	importRequest services.ImportRequest
	importLLM     int
)

var datasourcesImportS3Cmd = &cobra.Command{
	Use:   "import-s3 PREFIX",
	Short: "Upload the objects under an S3 prefix as a file datasource",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasourcesImportS3,
}

func init() {
	datasourcesListCmd.Flags().IntVar(&datasourcesListParams.Page, "page", 0, "Page number, starting at 1")
	datasourcesListCmd.Flags().IntVar(&datasourcesListParams.Size, "size", 0, "Page size")

	f := datasourcesCreateCmd.Flags()
	f.StringVar(&createName, "name", "", "Datasource name")
	f.StringVar(&createDescription, "description", "", "Datasource description")
	f.BoolVar(&createKG, "kg", false, "Build a knowledge graph index")
	f.IntVar(&createLLM, "llm-id", 0, "LLM used to build the knowledge graph")
	f.StringVar(&createSitemap, "sitemap", "", "Sitemap URL")
	f.StringSliceVar(&createURLs, "url", nil, "Page URL (repeatable)")
	_ = datasourcesCreateCmd.MarkFlagRequired("name")
	datasourcesCreateCmd.MarkFlagsMutuallyExclusive("sitemap", "url")
	datasourcesCreateCmd.MarkFlagsOneRequired("sitemap", "url")

	f = datasourcesImportS3Cmd.Flags()
	f.StringVar(&importBucket, "bucket", "", "Bucket name (default: from S3_BUCKET)")
	f.StringVar(&importRequest.Name, "name", "", "Datasource name")
	f.StringVar(&importRequest.Description, "description", "", "Datasource description")
	f.BoolVar(&importRequest.BuildKGIndex, "kg", false, "Build a knowledge graph index")
	f.IntVar(&importLLM, "llm-id", 0, "LLM used to build the knowledge graph")
	f.IntVar(&importRequest.BatchSize, "batch-size", 10, "Objects uploaded per request")
	_ = datasourcesImportS3Cmd.MarkFlagRequired("name")

	datasourcesCmd.AddCommand(datasourcesListCmd)
	datasourcesCmd.AddCommand(datasourcesGetCmd)
	datasourcesCmd.AddCommand(datasourcesCreateCmd)
	datasourcesCmd.AddCommand(datasourcesDeleteCmd)
	datasourcesCmd.AddCommand(datasourcesOverviewCmd)
	datasourcesCmd.AddCommand(datasourcesRetryCmd)
	datasourcesCmd.AddCommand(datasourcesImportS3Cmd)
}

func runDatasourcesList(cmd *cobra.Command, args []string) error {
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	page, err := backend.Datasources.List(cmd.Context(), datasourcesListParams)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(page.Items))
	for _, ds := range page.Items {
		rows = append(rows, datasourceRow(ds))
	}
	return render(cmd, page, datasourceHeaders, rows)
}

func runDatasourcesGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	ds, err := backend.Datasources.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	return render(cmd, ds, datasourceHeaders, [][]string{datasourceRow(ds)})
}

func runDatasourcesCreate(cmd *cobra.Command, args []string) error {
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	params := models.CreateDatasourceParams{
		Name:         createName,
		Description:  createDescription,
		BuildKGIndex: createKG,
	}
	if cmd.Flags().Changed("llm-id") {
		id := createLLM
		params.LLMID = &id
	}
	if createSitemap != "" {
		params.Config = models.WebSitemapConfig{URL: createSitemap}
	} else {
		params.Config = models.WebSinglePageConfig{URLs: createURLs}
	}

	ds, err := backend.Datasources.Create(cmd.Context(), params)
	if err != nil {
		return err
	}
	return render(cmd, ds, datasourceHeaders, [][]string{datasourceRow(ds)})
}

func runDatasourcesDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	if err := backend.Datasources.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "datasource %d deleted\n", id)
	return nil
}

func runDatasourcesOverview(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	overview, err := backend.IndexProgress.Overview(cmd.Context(), id)
	if err != nil {
		return err
	}

	rows := [][]string{progressRow("vector", overview.VectorIndex)}
	if overview.KGIndex != nil {
		rows = append(rows, progressRow("kg", *overview.KGIndex))
	}
	if outputFmt == "table" {
		fmt.Fprintf(cmd.OutOrStdout(), "documents: %d  chunks: %d  entities: %s  relationships: %s\n\n",
			overview.Documents, overview.Chunks,
			formatOptionalInt(overview.Entities), formatOptionalInt(overview.Relationships))
	}
	return render(cmd, overview, []string{"Index", "Not Started", "Pending", "Running", "Completed", "Failed"}, rows)
}

func runDatasourcesRetry(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	if err := backend.IndexProgress.RetryFailedTasks(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "retry scheduled for datasource %d\n", id)
	return nil
}

func runDatasourcesImportS3(cmd *cobra.Command, args []string) error {
	backend, cfg, logger, err := newBackend(cmd)
	if err != nil {
		return err
	}

	bucket := importBucket
	if bucket == "" {
		bucket = cfg.S3.Bucket
	}
	if bucket == "" {
		return fmt.Errorf("no bucket given: pass --bucket or set S3_BUCKET")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := services.NewS3Source(ctx, &cfg.S3, bucket)
	if err != nil {
		return err
	}

	req := importRequest
	req.Prefix = args[0]
	req.LLMID = nil
	if cmd.Flags().Changed("llm-id") {
		id := importLLM
		req.LLMID = &id
	}

	result, err := services.NewImporter(source, backend.Uploads, backend.Datasources, logger).Import(ctx, req)
	if err != nil {
		return err
	}
	if outputFmt == "table" {
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d objects from s3://%s/%s\n\n", len(result.Uploads), bucket, req.Prefix)
	}
	return render(cmd, result.Datasource, datasourceHeaders, [][]string{datasourceRow(result.Datasource)})
}

var datasourceHeaders = []string{"ID", "Name", "Type", "KG Index", "Updated"}

func datasourceRow(ds models.Datasource) []string {
	return []string{
		fmt.Sprint(ds.ID),
		truncate(ds.Name, 40),
		string(ds.Type()),
		fmt.Sprint(ds.BuildKGIndex),
		formatTime(ds.UpdatedAt),
	}
}

func progressRow(index string, p models.IndexProgress) []string {
	return []string{
		index,
		fmt.Sprint(p.NotStarted),
		fmt.Sprint(p.Pending),
		fmt.Sprint(p.Running),
		fmt.Sprint(p.Completed),
		fmt.Sprint(p.Failed),
	}
}
