/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/notargets/tetpart/InputParameters"
	"github.com/notargets/tetpart/mesh"
	"github.com/notargets/tetpart/partition"
	"github.com/notargets/tetpart/reorder"
)

// partitionCmd represents the partition command
var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Partition a tet mesh and renumber its nodes globally",
	Long: `Partition a tetrahedral SU2 mesh into load balanced units across a
number of worker ranks, then negotiate one contiguous global node
renumbering and report the per-rank row bounds and communication cost.`,
	Run: func(cmd *cobra.Command, args []string) {
		pp := processInput(cmd)
		runPartition(cmd, pp)
	},
}

func init() {
	rootCmd.AddCommand(partitionCmd)
	partitionCmd.Flags().StringP("gridFile", "F", "", "grid file to use, SU2 extension")
	partitionCmd.Flags().StringP("inputFile", "I", "", "YAML input parameters file")
	partitionCmd.Flags().IntP("nRanks", "n", 1, "number of worker ranks")
	partitionCmd.Flags().Float64P("virtualization", "u", 0,
		"overdecomposition in [0,1): 0 is one unit per rank")
	partitionCmd.Flags().StringP("algorithm", "a", "rcb",
		"partitioning algorithm: rcb, rib or block")
	partitionCmd.Flags().Bool("profile", false, "write a CPU profile")
}

// processInput merges the optional YAML parameter file with command flags;
// flags win where both are set
func processInput(cmd *cobra.Command) (pp *InputParameters.PartitionParameters) {
	var (
		err error
	)
	pp = &InputParameters.PartitionParameters{
		NumRanks:  1,
		Algorithm: "rcb",
	}
	if inputFile, _ := cmd.Flags().GetString("inputFile"); inputFile != "" {
		var data []byte
		if data, err = ioutil.ReadFile(inputFile); err != nil {
			fmt.Printf("Unable to read input file %s: %v\n", inputFile, err)
			os.Exit(1)
		}
		if err = pp.Parse(data); err != nil {
			fmt.Printf("Unable to parse input file %s: %v\n", inputFile, err)
			os.Exit(1)
		}
	}
	if gf, _ := cmd.Flags().GetString("gridFile"); gf != "" {
		pp.GridFile = gf
	}
	if cmd.Flags().Changed("nRanks") {
		pp.NumRanks, _ = cmd.Flags().GetInt("nRanks")
	}
	if cmd.Flags().Changed("virtualization") {
		pp.Virtualization, _ = cmd.Flags().GetFloat64("virtualization")
	}
	if cmd.Flags().Changed("algorithm") {
		pp.Algorithm, _ = cmd.Flags().GetString("algorithm")
	}
	pp.Print()
	return
}

func runPartition(cmd *cobra.Command, pp *InputParameters.PartitionParameters) {
	if prof, _ := cmd.Flags().GetBool("profile"); prof {
		defer profile.Start().Stop()
	}
	if pp.GridFile == "" {
		fmt.Println("No grid file supplied, use the --gridFile flag")
		os.Exit(1)
	}

	alg, err := partition.AlgorithmFromString(pp.Algorithm)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	m, err := mesh.ReadSU2(pp.GridFile)
	if err != nil {
		fmt.Printf("Unable to read grid file %s: %v\n", pp.GridFile, err)
		os.Exit(1)
	}
	log.Printf("Read %d tetrahedra, %d nodes from %s",
		m.NumElements, m.NumVertices, pp.GridFile)

	cfg := reorder.Config{
		NumRanks:       pp.NumRanks,
		Virtualization: pp.Virtualization,
		Algorithm:      alg,
	}
	oracle := partition.NewGeometric(alg, cfg.NumRanks, m.NumElements)
	res, err := reorder.Run(cfg, mesh.NewMeshReader(m), oracle)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	log.Printf("Renumbered %d nodes into %d units across %d ranks",
		res.TotalNodes, res.NUnits, cfg.NumRanks)
	for rank, b := range res.Bounds {
		log.Printf("  rank %d owns rows [%d,%d)", rank, b[0], b[1])
	}
}
