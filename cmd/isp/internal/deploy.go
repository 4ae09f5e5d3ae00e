package internal

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goplus/isp/internal/build"
	"github.com/goplus/isp/internal/deploy"
	"github.com/goplus/isp/recipe"
)

var (
	importsRecipe  string
	importsDeps    string
	importsProject string

	deployRecipe   string
	deployFrom     string
	deployOut      string
	deployProgress bool
)

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "Copy shared libraries and debug symbols from dependencies",
	Long: `Imports applies the recipe's import rules to every installed dependency,
copying shared libraries and debug symbols into the project's bin directory.`,
	Args: cobra.NoArgs,
	RunE: runImports,
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Assemble a distributable bin directory",
	Long:  `Deploy applies the recipe's deploy rules to a build output directory.`,
	Args:  cobra.NoArgs,
	RunE:  runDeploy,
}

func init() {
	importsCmd.Flags().StringVarP(&importsRecipe, "file", "f", recipe.FileName, "Recipe file")
	importsCmd.Flags().StringVar(&importsDeps, "deps", "", "Directory holding <name>/<version> dependency installs")
	importsCmd.Flags().StringVarP(&importsProject, "dir", "C", ".", "Project directory to import into")

	deployCmd.Flags().StringVarP(&deployRecipe, "file", "f", recipe.FileName, "Recipe file")
	deployCmd.Flags().StringVar(&deployFrom, "from", ".", "Build output directory")
	deployCmd.Flags().StringVarP(&deployOut, "output", "o", "deploy", "Deploy directory")
	deployCmd.Flags().BoolVar(&deployProgress, "progress", false, "Show a progress bar")

	rootCmd.AddCommand(importsCmd, deployCmd)
}

func runImports(cmd *cobra.Command, args []string) error {
	r, err := loadRecipe(importsRecipe)
	if err != nil {
		return err
	}
	deps, err := expandDir(importsDeps)
	if err != nil {
		return err
	}
	b, err := build.NewBuilder(build.Options{DepsDir: deps, Logger: logger.Named("build")})
	if err != nil {
		return err
	}
	roots, err := b.DepRoots(r)
	if err != nil {
		return err
	}
	c := &deploy.Copier{L: logger.Named("imports")}
	rep, err := c.Imports(cmd.Context(), r, roots, importsProject)
	if err != nil {
		return fmt.Errorf("failed to import: %w", err)
	}
	printReport(cmd.OutOrStdout(), rep)
	return nil
}

func runDeploy(cmd *cobra.Command, args []string) error {
	r, err := loadRecipe(deployRecipe)
	if err != nil {
		return err
	}
	c := &deploy.Copier{L: logger.Named("deploy")}
	if deployProgress {
		c.Progress = cmd.ErrOrStderr()
	}
	rep, err := c.Deploy(cmd.Context(), r, deployFrom, deployOut)
	if err != nil {
		return fmt.Errorf("failed to deploy: %w", err)
	}
	printReport(cmd.OutOrStdout(), rep)
	return nil
}

func printReport(w io.Writer, rep *deploy.Report) {
	for _, f := range rep.Copied {
		fmt.Fprintf(w, "copied %s\n", f)
	}
	fmt.Fprintf(w, "%d copied, %d up to date\n", len(rep.Copied), len(rep.Skipped))
}
