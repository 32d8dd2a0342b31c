package main

import (
	"fmt"

	"kb-admin-client/internal/models"
	"kb-admin-client/internal/services"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage indexed documents",
}

var (
	documentsListParams services.ListDocumentsParams
	documentsDatasource int
)

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsGet,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

func init() {
	f := documentsListCmd.Flags()
	f.IntVar(&documentsListParams.Page, "page", 0, "Page number, starting at 1")
	f.IntVar(&documentsListParams.Size, "size", 0, "Page size")
	f.StringVar(&documentsListParams.Query, "search", "", "Filter by name")
	f.StringVar(&documentsListParams.IndexStatus, "index-status", "", "Filter by index status")
	f.StringVar(&documentsListParams.MimeType, "mime-type", "", "Filter by MIME type")
	f.IntVar(&documentsDatasource, "datasource", 0, "Filter by datasource ID")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsGetCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	params := documentsListParams
	params.DataSourceID = nil
	if cmd.Flags().Changed("datasource") {
		id := documentsDatasource
		params.DataSourceID = &id
	}

	page, err := backend.Documents.List(cmd.Context(), params)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(page.Items))
	for _, d := range page.Items {
		rows = append(rows, documentRow(d))
	}
	if err := render(cmd, page, documentHeaders, rows); err != nil {
		return err
	}
	if outputFmt == "table" {
		fmt.Fprintf(cmd.OutOrStdout(), "\npage %d of %d (%d total)\n", page.Page, max(page.Pages, 1), page.Total)
	}
	return nil
}

func runDocumentsGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	doc, err := backend.Documents.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	return render(cmd, doc, documentHeaders, [][]string{documentRow(doc)})
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	if err := backend.Documents.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "document %d deleted\n", id)
	return nil
}

var documentHeaders = []string{"ID", "Name", "MIME Type", "Index Status", "Datasource", "Updated"}

func documentRow(d models.Document) []string {
	return []string{
		fmt.Sprint(d.ID),
		truncate(d.Name, 48),
		d.MimeType,
		d.IndexStatus,
		fmt.Sprint(d.DataSourceID),
		formatTime(d.UpdatedAt),
	}
}
