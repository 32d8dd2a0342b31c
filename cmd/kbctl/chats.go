package main

import (
	"fmt"

	"kb-admin-client/internal/models"
	"kb-admin-client/internal/services"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Inspect and delete chats",
}

var chatsListParams services.ListParams

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chats",
	Args:  cobra.NoArgs,
	RunE:  runChatsList,
}

var chatsGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show a chat",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsGet,
}

var chatsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a chat",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsDelete,
}

func init() {
	chatsListCmd.Flags().IntVar(&chatsListParams.Page, "page", 0, "Page number, starting at 1")
	chatsListCmd.Flags().IntVar(&chatsListParams.Size, "size", 0, "Page size")

	chatsCmd.AddCommand(chatsListCmd)
	chatsCmd.AddCommand(chatsGetCmd)
	chatsCmd.AddCommand(chatsDeleteCmd)
}

func runChatsList(cmd *cobra.Command, args []string) error {
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	page, err := backend.Chats.List(cmd.Context(), chatsListParams)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(page.Items))
	for _, chat := range page.Items {
		rows = append(rows, chatRow(chat))
	}
	return render(cmd, page, chatHeaders, rows)
}

func runChatsGet(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", args[0], err)
	}
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	chat, err := backend.Chats.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	return render(cmd, chat, chatHeaders, [][]string{chatRow(chat)})
}

func runChatsDelete(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", args[0], err)
	}
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	if err := backend.Chats.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "chat %s deleted\n", id)
	return nil
}

var chatHeaders = []string{"ID", "Title", "Engine", "Updated"}

func chatRow(c models.Chat) []string {
	return []string{
		c.ID.String(),
		truncate(c.Title, 48),
		formatOptionalInt(c.EngineID),
		formatTime(c.UpdatedAt),
	}
}
