package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hearsay-app/hearsay/internal/platform"
	"github.com/hearsay-app/hearsay/internal/version"
	"github.com/hearsay-app/hearsay/internal/whisper"
)

func newInfoCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show host and model storage information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			rt := platform.CurrentRuntime()

			fmt.Fprintf(out, "hearsay v%s (%s/%s)\n", version.Resolve(), rt.OS, rt.Arch)

			modelDir, err := app.modelStorageDir()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Model directory: %s\n", modelDir)

			installed := 0
			for _, artifact := range whisper.Artifacts() {
				if _, statErr := os.Stat(artifact.InstallPath(modelDir)); statErr == nil {
					installed++
				}
			}
			fmt.Fprintf(out, "Installed models: %d of %d\n", installed, len(whisper.Artifacts()))

			if free, err := platform.DiskFree(modelDir); err == nil {
				fmt.Fprintf(out, "Free disk space: %s\n", humanBytes(free))
			} else if !errors.Is(err, platform.ErrUnsupported) {
				return err
			}

			if mem, err := platform.Memory(); err == nil {
				fmt.Fprintf(out, "Total memory: %s\n", humanBytes(mem.TotalBytes))
				if mem.AvailableBytes > 0 {
					fmt.Fprintf(out, "Available memory: %s\n", humanBytes(mem.AvailableBytes))
				}
			} else if !errors.Is(err, platform.ErrUnsupported) {
				return err
			}

			return nil
		},
	}
}
