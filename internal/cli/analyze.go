package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"scaffoldstudio/internal/models"
	"scaffoldstudio/pkg/criteria"
	"scaffoldstudio/pkg/mechanics"
	"scaffoldstudio/pkg/morphology"
	"scaffoldstudio/pkg/workflow"
)

type analyzeOptions struct {
	voxelSize float64
	asJSON    bool
}

type analyzeOutput struct {
	Metrics   models.Metrics        `json:"metrics"`
	Problems  models.Problems       `json:"problems"`
	Mechanics *mechanics.Properties `json:"mechanics,omitempty"`
}

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze INPUT",
		Short: "Measure a scaffold image stack and diagnose it",
		Long:  "Segment a slice directory or single image and report porosity, pore size,\ninterconnectivity, tortuosity, detected problems and estimated mechanics.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runAnalyze(cmd, cliCtx, args[0], opts)
		},
	}
	cmd.Flags().Float64Var(&opts.voxelSize, "voxel-size", 0, "voxel edge length in µm (default from config)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func runAnalyze(cmd *cobra.Command, cliCtx *CLIContext, input string, opts *analyzeOptions) error {
	cfg := cliCtx.Config
	voxel := cfg.Processing.VoxelSizeUM
	if cmd.Flags().Changed("voxel-size") {
		voxel = opts.voxelSize
	}

	v, _, err := workflow.LoadVolume(input, cfg.Segment, cliCtx.Logger)
	if err != nil {
		return err
	}
	analyzer, err := morphology.NewAnalyzer(voxel)
	if err != nil {
		return err
	}
	m, err := analyzer.Analyze(v)
	if err != nil {
		return err
	}

	out := analyzeOutput{Metrics: m, Problems: criteria.Detect(m)}
	if p, err := mechanics.FromMetrics(m, cfg.Material); err == nil {
		out.Mechanics = &p
	}

	w := cmd.OutOrStdout()
	if opts.asJSON {
		return printJSON(w, out)
	}
	fmt.Fprintf(w, "Volume: %dx%dx%d voxels at %g µm\n\n", v.Width, v.Height, v.Depth, voxel)
	printMetrics(w, "Metrics", m)
	printProblems(w, out.Problems)
	if out.Mechanics != nil {
		printMechanics(w, "Estimated mechanics", *out.Mechanics)
	}
	return nil
}

func printMetrics(w io.Writer, title string, m models.Metrics) {
	fmt.Fprintf(w, "%s:\n", title)
	fmt.Fprintf(w, "  Porosity:          %.2f%%\n", m.Porosity*100)
	fmt.Fprintf(w, "  Mean pore size:    %.1f µm\n", m.MeanPoreSizeUM)
	fmt.Fprintf(w, "  Interconnectivity: %.2f%%\n", m.Interconnectivity*100)
	fmt.Fprintf(w, "  Tortuosity:        %.3f\n", m.Tortuosity)
}

func printProblems(w io.Writer, p models.Problems) {
	if len(p) == 0 {
		fmt.Fprintln(w, "\nNo problems detected.")
		return
	}
	fmt.Fprintln(w, "\nProblems:")
	for _, category := range criteria.Categories(p) {
		fmt.Fprintf(w, "  - %s: %s\n", category, p[category])
	}
}

func printMechanics(w io.Writer, title string, p mechanics.Properties) {
	fmt.Fprintf(w, "\n%s:\n", title)
	fmt.Fprintf(w, "  Elastic modulus:   %.3f MPa\n", p.ElasticModulusMPa)
	fmt.Fprintf(w, "  Yield strength:    %.4f MPa\n", p.YieldStrengthMPa)
	fmt.Fprintf(w, "  Permeability:      %.3e Darcy\n", p.PermeabilityDarcy)
}
