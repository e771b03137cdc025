package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"scaffoldstudio/pkg/reconstruction"
	"scaffoldstudio/pkg/workflow"
)

type meshOptions struct {
	output    string
	quality   string
	voxelSize float64
}

// NewMeshCmd creates the mesh command.
func NewMeshCmd() *cobra.Command {
	opts := &meshOptions{}
	cmd := &cobra.Command{
		Use:   "mesh INPUT",
		Short: "Reconstruct an image stack as an STL surface mesh",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runMesh(cmd, cliCtx, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "scaffold.stl", "output STL file")
	cmd.Flags().StringVarP(&opts.quality, "quality", "q", "", "mesh quality: draft, standard, high, ultra")
	cmd.Flags().Float64Var(&opts.voxelSize, "voxel-size", 0, "voxel edge length in µm")
	return cmd
}

func runMesh(cmd *cobra.Command, cliCtx *CLIContext, input string, opts *meshOptions) error {
	cfg := cliCtx.Config
	qualityName := cfg.Processing.Quality
	if cmd.Flags().Changed("quality") {
		qualityName = opts.quality
	}
	quality, err := reconstruction.ParseQuality(qualityName)
	if err != nil {
		return err
	}
	voxel := cfg.Processing.VoxelSizeUM
	if cmd.Flags().Changed("voxel-size") {
		voxel = opts.voxelSize
	}

	v, _, err := workflow.LoadVolume(input, cfg.Segment, cliCtx.Logger)
	if err != nil {
		return err
	}
	summary, err := workflow.ExportMesh(v, voxel, quality, opts.output, cliCtx.Logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Mesh saved: %s\n", summary)
	return nil
}
