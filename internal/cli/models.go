package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hearsay-app/hearsay/internal/checksum"
	"github.com/hearsay-app/hearsay/internal/whisper"
)

func newModelsCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage speech model artifacts",
	}

	cmd.AddCommand(newModelsListCmd(app))
	cmd.AddCommand(newModelsFetchCmd(app))
	cmd.AddCommand(newModelsRemoveCmd(app))
	cmd.AddCommand(newModelsVerifyCmd(app))

	return cmd
}

func newModelsListCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known models and their install state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			modelDir, err := app.modelStorageDir()
			if err != nil {
				return err
			}

			for _, artifact := range whisper.Artifacts() {
				state := "not downloaded"
				if _, statErr := os.Stat(artifact.InstallPath(modelDir)); statErr == nil {
					state = "installed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %10s  %s\n",
					artifact.Variant, humanBytes(uint64(artifact.SizeBytes)), state)
			}
			return nil
		},
	}
}

func newModelsFetchCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [variant]",
		Short: "Download and verify a speech model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := app.model
			if len(args) == 1 {
				name = args[0]
			}

			variant, err := whisper.ParseVariant(name)
			if err != nil {
				return err
			}

			modelDir, err := app.modelStorageDir()
			if err != nil {
				return err
			}

			artifact, ok := whisper.Lookup(variant)
			if !ok {
				return fmt.Errorf("variant %s is not in the model catalog", variant)
			}

			path := artifact.InstallPath(modelDir)
			if _, statErr := os.Stat(path); statErr == nil {
				if err := app.verifyInstalled(path, artifact.SHA256); err == nil {
					app.log().Info("model already present", zap.String("model", string(variant)), zap.String("path", path))
					fmt.Fprintf(cmd.OutOrStdout(), "Model %s already present at %s\n", variant, path)
					return nil
				}
				app.log().Warn("model checksum verification failed; downloading fresh copy", zap.String("model", string(variant)))
			}

			if err := app.fetchArtifact(cmd.Context(), artifact, modelDir); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Model %s installed at %s\n", variant, path)
			return nil
		},
	}
}

func newModelsRemoveCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <variant>",
		Short: "Delete an installed speech model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variant, err := whisper.ParseVariant(args[0])
			if err != nil {
				return err
			}

			modelDir, err := app.modelStorageDir()
			if err != nil {
				return err
			}

			artifact, ok := whisper.Lookup(variant)
			if !ok {
				return fmt.Errorf("variant %s is not in the model catalog", variant)
			}

			path := artifact.InstallPath(modelDir)
			if err := os.Remove(path); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("model %s is not installed", variant)
				}
				return fmt.Errorf("remove model %s: %w", variant, err)
			}

			app.log().Info("model removed", zap.String("model", string(variant)), zap.String("path", path))
			fmt.Fprintf(cmd.OutOrStdout(), "Model %s removed\n", variant)
			return nil
		},
	}
}

func newModelsVerifyCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <variant|path>",
		Short: "Check the integrity of a model artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := args[0]

			if looksLikePath(ref) {
				digest, err := checksum.SumFile(filepath.Clean(ref))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", digest, filepath.Clean(ref))
				return nil
			}

			variant, err := whisper.ParseVariant(ref)
			if err != nil {
				return err
			}

			modelDir, err := app.modelStorageDir()
			if err != nil {
				return err
			}

			artifact, ok := whisper.Lookup(variant)
			if !ok {
				return fmt.Errorf("variant %s is not in the model catalog", variant)
			}

			path := artifact.InstallPath(modelDir)
			if err := app.verifyInstalled(path, artifact.SHA256); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Model %s verified: %s\n", variant, artifact.SHA256)
			return nil
		},
	}
}

func looksLikePath(input string) bool {
	return strings.ContainsRune(input, os.PathSeparator) || strings.HasSuffix(strings.ToLower(input), ".bin")
}
