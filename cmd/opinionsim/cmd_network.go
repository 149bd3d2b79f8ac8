package main

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
	"github.com/dd0wney/opinion-diffusion/pkg/logging"
	"github.com/dd0wney/opinion-diffusion/pkg/network"
	"github.com/spf13/cobra"
)

func newNetworkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "network",
		Short: "Generate a network and print its statistics",
		Long: `Generate a preferential-attachment network without simulating and print
its degree distribution, component count and clustering.

Examples:
  opinionsim network --size 1000 --avg-degree 3 --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			size, _ := cmd.Flags().GetInt("size")
			avgDegree, _ := cmd.Flags().GetInt("avg-degree")
			seed, _ := cmd.Flags().GetInt64("seed")

			timer := logging.StartTimer(logger, "network generated",
				logging.Int("size", size), logging.Int("avg_degree", avgDegree))
			g, err := network.Generate(size, avgDegree, diffusion.NewRand(uint64(seed)))
			if err != nil {
				timer.EndError(err)
				return err
			}
			timer.End(logging.Int("edges", g.Size()))

			stats := network.ComputeStats(g)

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Nodes %d, edges %d, components %d\n", stats.Order, stats.Edges, stats.Components)
			fmt.Fprintf(w, "Degree min %d, max %d, mean %.3f, isolated %d\n",
				stats.MinDegree, stats.MaxDegree, stats.MeanDegree, stats.Isolated)
			fmt.Fprintf(w, "Triangles %d, average clustering %.4f\n", stats.Triangles, stats.AverageClustering)

			fmt.Fprintln(w, "Degree histogram:")
			degrees := make([]int, 0, len(stats.DegreeHistogram))
			for d := range stats.DegreeHistogram {
				degrees = append(degrees, d)
			}
			slices.Sort(degrees)
			for _, d := range degrees {
				fmt.Fprintf(w, "  %4d: %d\n", d, stats.DegreeHistogram[d])
			}
			return nil
		},
	}

	cmd.Flags().Int("size", 100, "Number of nodes")
	cmd.Flags().Int("avg-degree", 2, "Edges attached per new node")
	cmd.Flags().Int64("seed", 1, "Random seed")

	return cmd
}
