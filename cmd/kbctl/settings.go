package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"kb-admin-client/internal/models"
	"kb-admin-client/internal/services"

	"github.com/spf13/cobra"
)

var llmsCmd = &cobra.Command{
	Use:   "llms",
	Short: "Inspect configured language models",
}

var llmsListParams services.ListParams

var llmsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List language models",
	Args:  cobra.NoArgs,
	RunE:  runLLMsList,
}

var llmsGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show a language model",
	Args:  cobra.ExactArgs(1),
	RunE:  runLLMsGet,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and change site settings",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List site settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsList,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Change a site setting",
	Long: `Change a site setting.

VALUE is sent as JSON when it parses as JSON (true, 42, "text", {"a": 1});
anything else is sent as a string.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which required components are configured",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	llmsListCmd.Flags().IntVar(&llmsListParams.Page, "page", 0, "Page number, starting at 1")
	llmsListCmd.Flags().IntVar(&llmsListParams.Size, "size", 0, "Page size")

	llmsCmd.AddCommand(llmsListCmd)
	llmsCmd.AddCommand(llmsGetCmd)

	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func runLLMsList(cmd *cobra.Command, args []string) error {
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	page, err := backend.LLMs.List(cmd.Context(), llmsListParams)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(page.Items))
	for _, llm := range page.Items {
		rows = append(rows, llmRow(llm))
	}
	return render(cmd, page, llmHeaders, rows)
}

func runLLMsGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	llm, err := backend.LLMs.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	return render(cmd, llm, llmHeaders, [][]string{llmRow(llm)})
}

func runSettingsList(cmd *cobra.Command, args []string) error {
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	settings, err := backend.SiteSettings.List(cmd.Context())
	if err != nil {
		return err
	}

	names := make([]string, 0, len(settings))
	for name := range settings {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		s := settings[name]
		rows = append(rows, []string{name, s.Group, s.DataType, truncate(string(s.Value), 60)})
	}
	return render(cmd, settings, []string{"Name", "Group", "Type", "Value"}, rows)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	name := args[0]
	if err := backend.SiteSettings.Update(cmd.Context(), name, parseSettingValue(args[1])); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "setting %s updated\n", name)
	return nil
}

// parseSettingValue keeps valid JSON as-is and quotes everything else.
func parseSettingValue(raw string) any {
	if json.Valid([]byte(raw)) {
		return json.RawMessage(raw)
	}
	return raw
}

func runStatus(cmd *cobra.Command, args []string) error {
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	status, err := backend.System.BootstrapStatus(cmd.Context())
	if err != nil {
		return err
	}

	rows := [][]string{
		{"default_llm", "required", fmt.Sprint(status.Required.DefaultLLM)},
		{"default_embedding_model", "required", fmt.Sprint(status.Required.DefaultEmbeddingModel)},
		{"datasource", "required", fmt.Sprint(status.Required.Datasource)},
		{"langfuse", "optional", fmt.Sprint(status.Optional.Langfuse)},
		{"default_reranker", "optional", fmt.Sprint(status.Optional.DefaultReranker)},
	}
	if err := render(cmd, status, []string{"Component", "Kind", "Configured"}, rows); err != nil {
		return err
	}
	if outputFmt == "table" {
		ready := "ready"
		if !status.Ready() {
			ready = "bootstrap incomplete"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", ready)
	}
	return nil
}

var llmHeaders = []string{"ID", "Name", "Provider", "Model", "Default"}

func llmRow(l models.LLM) []string {
	return []string{
		fmt.Sprint(l.ID),
		truncate(l.Name, 32),
		string(l.Provider),
		l.Model,
		fmt.Sprint(l.IsDefault),
	}
}
