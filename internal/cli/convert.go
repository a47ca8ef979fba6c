// internal/cli/convert.go
package cli

import (
	"fmt"
	"os"

	"apptainer-compose/pkg/recipe"

	"github.com/spf13/cobra"
)

var (
	convertOutput string
	convertJSON   bool
	convertForce  bool

	// convertCmd translates a single Dockerfile without touching a
	// compose document.
	convertCmd = &cobra.Command{
		Use:   "convert [dockerfile]",
		Short: "Translate a Dockerfile into a definition file",
		Long: `Translate a Dockerfile (default ./Dockerfile) into an Apptainer
definition file, printed to stdout unless --output is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runConvert,
	}
)

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "write the definition to a file instead of stdout")
	convertCmd.Flags().BoolVar(&convertJSON, "json", false, "print the parsed build recipe as JSON instead")
	convertCmd.Flags().BoolVar(&convertForce, "force", false, "overwrite an existing output file")
}

func runConvert(cmd *cobra.Command, args []string) error {
	path := "Dockerfile"
	if len(args) > 0 {
		path = args[0]
	}

	rec, err := recipe.ParseFile(path)
	if err != nil {
		return err
	}

	if convertJSON {
		out, err := rec.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if convertOutput != "" {
		if err := recipe.SaveDefinition(convertOutput, rec, convertForce); err != nil {
			return err
		}
		fmt.Printf("%s wrote %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(convertOutput))
		return nil
	}

	return recipe.WriteDefinition(os.Stdout, rec)
}
