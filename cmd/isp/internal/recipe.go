package internal

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goplus/isp/recipe"
)

var (
	recipeFile      string
	recipeInitOut   string
	recipeInitForce bool
	showBuildType   string
)

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Create, check and inspect the project recipe",
}

var recipeInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default ISPProject recipe",
	Long:  `Init writes the ISPProject recipe (OpenCV with contrib modules, CLI11 and the shared library copy rules) to isp.yaml.`,
	Args:  cobra.NoArgs,
	RunE:  runRecipeInit,
}

var recipeCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the recipe",
	Args:  cobra.NoArgs,
	RunE:  runRecipeCheck,
}

var recipeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the normalised recipe and the host settings",
	Args:  cobra.NoArgs,
	RunE:  runRecipeShow,
}

func init() {
	recipeCmd.PersistentFlags().StringVarP(&recipeFile, "file", "f", recipe.FileName, "Recipe file")
	recipeInitCmd.Flags().StringVarP(&recipeInitOut, "output", "o", recipe.FileName, "Where to write the recipe")
	recipeInitCmd.Flags().BoolVar(&recipeInitForce, "force", false, "Overwrite an existing file")
	recipeShowCmd.Flags().StringVar(&showBuildType, "build-type", recipe.DefaultBuildType, "Build type used for the host settings")

	recipeCmd.AddCommand(recipeInitCmd, recipeCheckCmd, recipeShowCmd)
	rootCmd.AddCommand(recipeCmd)
}

// loadRecipe reads and validates the recipe at path.
func loadRecipe(path string) (*recipe.Recipe, error) {
	r, err := recipe.Load(path)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recipe %s:\n%w", path, err)
	}
	return r, nil
}

func runRecipeInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(recipeInitOut); err == nil && !recipeInitForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", recipeInitOut)
	}
	r := recipe.Default()
	data, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}
	if err := os.WriteFile(recipeInitOut, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", recipeInitOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized recipe %s in %s\n", r.Ref(), recipeInitOut)
	return nil
}

func runRecipeCheck(cmd *cobra.Command, args []string) error {
	r, err := loadRecipe(recipeFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d requirements, %d options, %d import rules, %d deploy rules)\n",
		r.Ref(), len(r.Requires), len(r.DefaultOptions), len(r.Imports), len(r.Deploy))
	return nil
}

func runRecipeShow(cmd *cobra.Command, args []string) error {
	r, err := loadRecipe(recipeFile)
	if err != nil {
		return err
	}
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))

	host := r.HostSettings(showBuildType)
	fmt.Fprintf(out, "\n# host settings: %s\n", host.Key())
	for _, req := range r.Requires {
		var opts []string
		for _, o := range r.OptionsFor(req) {
			opts = append(opts, o.Name+"="+o.Value)
		}
		if len(opts) > 0 {
			fmt.Fprintf(out, "# %s: %s\n", req, strings.Join(opts, " "))
		}
	}
	return nil
}
