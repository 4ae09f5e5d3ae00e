package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/isp/internal/build"
	"github.com/goplus/isp/internal/env"
	"github.com/goplus/isp/recipe"
)

var (
	buildRecipe    string
	buildSource    string
	buildType      string
	buildDeps      string
	buildWorkspace string
	buildForce     bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Configure, build and install the project",
	Long: `Build configures the project with CMake for the host settings, builds it and
installs it into the workspace. Results are cached per version and settings.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildRecipe, "file", "f", recipe.FileName, "Recipe file")
	buildCmd.Flags().StringVarP(&buildSource, "source", "s", ".", "Project source directory")
	buildCmd.Flags().StringVar(&buildType, "build-type", recipe.DefaultBuildType, "CMake build type")
	buildCmd.Flags().StringVar(&buildDeps, "deps", "", "Directory holding <name>/<version> dependency installs")
	buildCmd.Flags().StringVar(&buildWorkspace, "workspace", "", "Directory holding build outputs and the build cache")
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "Rebuild even if a cached build exists")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	r, err := loadRecipe(buildRecipe)
	if err != nil {
		return err
	}
	deps, err := expandDir(buildDeps)
	if err != nil {
		return err
	}
	workspace, err := expandDir(buildWorkspace)
	if err != nil {
		return err
	}
	b, err := build.NewBuilder(build.Options{
		SourceDir:    buildSource,
		WorkspaceDir: workspace,
		DepsDir:      deps,
		BuildType:    buildType,
		Force:        buildForce,
		Logger:       logger.Named("build"),
	})
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}
	res, err := b.Build(cmd.Context(), r)
	if err != nil {
		return fmt.Errorf("failed to build: %w", err)
	}
	state := "built"
	if res.Cached {
		state = "cached"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n%s\n", state, res.Ref, res.Matrix, res.InstallDir)
	return nil
}

// expandDir expands "~" in a directory flag; empty stays empty so the
// default location applies.
func expandDir(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	return env.Expand(dir)
}
