package main

import (
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"kb-admin-client/internal/models"
	"kb-admin-client/internal/services"
	"kb-admin-client/internal/watcher"

	"github.com/spf13/cobra"
)

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "Upload files to the backend",
}

var uploadsPutCmd = &cobra.Command{
	Use:   "put FILE...",
	Short: "Upload files",
	Long: `Upload one or more files in a single request.

Files are named by their base name, so two paths with the same base name
cannot be uploaded together.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUploadsPut,
}

var (
	watchExtensions []string
	watchDebounce   time.Duration
)

var uploadsWatchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Upload files as they appear in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runUploadsWatch,
}

func init() {
	uploadsWatchCmd.Flags().StringSliceVar(&watchExtensions, "ext", nil, "File extensions to upload (default: all)")
	uploadsWatchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "Quiet period before a changed file is uploaded")

	uploadsCmd.AddCommand(uploadsPutCmd)
	uploadsCmd.AddCommand(uploadsWatchCmd)
}

func runUploadsPut(cmd *cobra.Command, args []string) error {
	backend, _, _, err := newBackend(cmd)
	if err != nil {
		return err
	}

	files := make([]models.FileHandle, 0, len(args))
	names := make([]string, 0, len(args))
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		name := filepath.Base(path)
		files = append(files, models.FileHandle{
			Name:        name,
			ContentType: mime.TypeByExtension(filepath.Ext(name)),
			Body:        f,
		})
		names = append(names, name)
	}

	uploads, err := backend.Uploads.UploadFiles(cmd.Context(), files)
	if err != nil {
		return err
	}
	byName, err := services.UploadsByName(uploads)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		u, ok := byName[name]
		if !ok {
			return fmt.Errorf("backend returned no upload record for %s", name)
		}
		rows = append(rows, uploadRow(u))
	}
	return render(cmd, uploads, uploadHeaders, rows)
}

func runUploadsWatch(cmd *cobra.Command, args []string) error {
	backend, _, logger, err := newBackend(cmd)
	if err != nil {
		return err
	}

	w, err := watcher.New(backend.Uploads, watchExtensions, watchDebounce, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := w.Watch(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s, press Ctrl+C to stop\n", args[0])

	out := cmd.OutOrStdout()
	for result := range results {
		if result.Err != nil {
			fmt.Fprintf(out, "%s\tfailed: %v\n", result.Path, result.Err)
			continue
		}
		fmt.Fprintf(out, "%s\tuploaded as %d (%s)\n", result.Path, result.Upload.ID, result.Upload.Path)
	}
	return nil
}

var uploadHeaders = []string{"ID", "Name", "Size", "MIME Type", "Path"}

func uploadRow(u models.Upload) []string {
	return []string{
		fmt.Sprint(u.ID),
		u.Name,
		fmt.Sprint(u.Size),
		u.MimeType,
		u.Path,
	}
}
