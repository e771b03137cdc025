package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"scaffoldstudio/pkg/workflow"
)

type optimizeOptions struct {
	output       string
	method       string
	quality      string
	voxelSize    float64
	seed         uint64
	binvox       bool
	slices       bool
	skipOriginal bool
}

// NewOptimizeCmd creates the optimize command.
func NewOptimizeCmd() *cobra.Command {
	opts := &optimizeOptions{}
	cmd := &cobra.Command{
		Use:   "optimize INPUT",
		Short: "Run the full analyze, optimize, mesh and report pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runOptimize(cmd, cliCtx, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output directory (default from config)")
	f.StringVarP(&opts.method, "method", "m", "", "fabrication method: freeze-casting, 3d-bioprinting, salt-leaching")
	f.StringVarP(&opts.quality, "quality", "q", "", "mesh quality: draft, standard, high, ultra")
	f.Float64Var(&opts.voxelSize, "voxel-size", 0, "input voxel edge length in µm")
	f.Uint64Var(&opts.seed, "seed", 0, "salt-leaching random seed")
	f.BoolVar(&opts.binvox, "binvox", false, "also export the optimized volume as binvox")
	f.BoolVar(&opts.slices, "slices", false, "save PNG slice previews of the optimized volume")
	f.BoolVar(&opts.skipOriginal, "skip-original", false, "do not mesh the input scaffold")
	return cmd
}

func runOptimize(cmd *cobra.Command, cliCtx *CLIContext, input string, opts *optimizeOptions) error {
	cfg := *cliCtx.Config
	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Processing.Method = opts.method
	}
	if flags.Changed("quality") {
		cfg.Processing.Quality = opts.quality
	}
	if flags.Changed("voxel-size") {
		cfg.Processing.VoxelSizeUM = opts.voxelSize
	}
	if flags.Changed("seed") {
		cfg.Processing.Seed = opts.seed
	}
	if flags.Changed("output") {
		cfg.Output.Dir = opts.output
	}
	if flags.Changed("binvox") {
		cfg.Output.WriteBinvox = opts.binvox
	}
	if flags.Changed("slices") {
		cfg.Output.SaveSlices = opts.slices
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	method, _ := cfg.FabricationMethod()
	quality, _ := cfg.MeshQuality()

	params := &workflow.Params{
		InputPath:        input,
		OutputDir:        cfg.Output.Dir,
		VoxelSizeUM:      cfg.Processing.VoxelSizeUM,
		Quality:          quality,
		Method:           method,
		Target:           cfg.Target,
		Segment:          cfg.Segment,
		Material:         cfg.Material,
		Seed:             cfg.Processing.Seed,
		MaxVoxels:        cfg.Processing.MaxVoxels,
		SkipOriginalMesh: opts.skipOriginal,
		WriteBinvox:      cfg.Output.WriteBinvox,
		SaveSlices:       cfg.Output.SaveSlices,
	}
	res, err := workflow.New(params, workflow.WithLogger(cliCtx.Logger)).Process()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	r := res.Report
	printMetrics(w, "Original", r.OriginalMetrics)
	printProblems(w, r.Problems)
	fmt.Fprintln(w)
	printMetrics(w, fmt.Sprintf("Optimized (%s)", r.FabricationMethod), r.OptimizedMetrics)

	fmt.Fprintln(w, "\nImprovement:")
	keys := make([]string, 0, len(r.ImprovementPercent))
	for k := range r.ImprovementPercent {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-18s %+.1f%%\n", k+":", r.ImprovementPercent[k])
	}

	fmt.Fprintln(w, "\nFabrication parameters:")
	keys = keys[:0]
	for k := range r.FabricationParameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-18s %s\n", k+":", r.FabricationParameters[k])
	}

	if r.Mechanics.Optimized != nil {
		printMechanics(w, "Optimized mechanics", *r.Mechanics.Optimized)
	}

	fmt.Fprintln(w, "\nOutputs:")
	if res.Original != nil {
		fmt.Fprintf(w, "  %s\n", res.Original)
	}
	fmt.Fprintf(w, "  %s\n", res.Optimized)
	if r.Files.Binvox != "" {
		fmt.Fprintf(w, "  %s\n", r.Files.Binvox)
	}
	if res.SliceCount > 0 {
		fmt.Fprintf(w, "  %d slice previews\n", res.SliceCount)
	}
	fmt.Fprintf(w, "  %s\n", res.ReportPath)
	fmt.Fprintf(w, "\nCompleted in %.2f seconds\n", res.Elapsed.Seconds())
	return nil
}
