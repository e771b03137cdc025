package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"scaffoldstudio/pkg/binvox"
	"scaffoldstudio/pkg/criteria"
	"scaffoldstudio/pkg/generator"
	"scaffoldstudio/pkg/morphology"
	"scaffoldstudio/pkg/visualization"
	"scaffoldstudio/pkg/workflow"
)

type generateOptions struct {
	output     string
	method     string
	quality    string
	porosity   float64
	poreSize   float64
	size       float64
	resolution float64
	seed       uint64
	binvox     bool
	slices     bool
}

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a scaffold from design targets without an input scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runGenerate(cmd, cliCtx, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output directory (default from config)")
	f.StringVarP(&opts.method, "method", "m", "", "fabrication method")
	f.StringVarP(&opts.quality, "quality", "q", "", "mesh quality")
	f.Float64Var(&opts.porosity, "porosity", 0, "target porosity in (0, 1)")
	f.Float64Var(&opts.poreSize, "pore-size", 0, "target pore diameter in µm")
	f.Float64Var(&opts.size, "size", 0, "cube edge length in mm")
	f.Float64Var(&opts.resolution, "resolution", 0, "voxel edge length in µm")
	f.Uint64Var(&opts.seed, "seed", 0, "salt-leaching random seed")
	f.BoolVar(&opts.binvox, "binvox", false, "also export binvox")
	f.BoolVar(&opts.slices, "slices", false, "save PNG slice previews")
	return cmd
}

func runGenerate(cmd *cobra.Command, cliCtx *CLIContext, opts *generateOptions) error {
	cfg := *cliCtx.Config
	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Processing.Method = opts.method
	}
	if flags.Changed("quality") {
		cfg.Processing.Quality = opts.quality
	}
	if flags.Changed("seed") {
		cfg.Processing.Seed = opts.seed
	}
	if flags.Changed("output") {
		cfg.Output.Dir = opts.output
	}
	if flags.Changed("porosity") {
		cfg.Target.PorosityTarget = opts.porosity
	}
	if flags.Changed("pore-size") {
		cfg.Target.PoreSizeTargetUM = opts.poreSize
	}
	if flags.Changed("size") {
		cfg.Target.VolumeMM = [3]float64{opts.size, opts.size, opts.size}
	}
	if flags.Changed("resolution") {
		cfg.Target.ResolutionUM = opts.resolution
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	method, _ := cfg.FabricationMethod()
	quality, _ := cfg.MeshQuality()
	res := cfg.Target.ResolutionUM

	v, err := generator.Generate(method, cfg.Target, cfg.Processing.Seed)
	if err != nil {
		return err
	}
	analyzer, err := morphology.NewAnalyzer(res)
	if err != nil {
		return err
	}
	m, err := analyzer.Analyze(v)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Generated %s scaffold: %dx%dx%d voxels at %g µm\n\n", method, v.Width, v.Height, v.Depth, res)
	printMetrics(w, "Metrics", m)
	printProblems(w, criteria.Detect(m))

	base := filepath.Join(cfg.Output.Dir, method.String())
	summary, err := workflow.ExportMesh(v, res, quality, base+".stl", cliCtx.Logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nMesh saved: %s\n", summary)

	if opts.binvox {
		if err := binvox.Write(base+".binvox", v, res); err != nil {
			return err
		}
		fmt.Fprintf(w, "Binvox saved: %s.binvox\n", base)
	}
	if opts.slices {
		n, err := visualization.NewViewer(v, res).SaveAllAxes(base + "_slices")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Saved %d slice previews to %s_slices\n", n, base)
	}
	return nil
}
