package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type PartitionParameters struct {
	Title          string  `yaml:"Title"`
	GridFile       string  `yaml:"GridFile"`
	NumRanks       int     `yaml:"NumRanks"`
	Virtualization float64 `yaml:"Virtualization"`
	Algorithm      string  `yaml:"Algorithm"` // rcb, rib or block
}

func (pp *PartitionParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, pp)
}

func (pp *PartitionParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", pp.Title)
	fmt.Printf("[%s]\t\t= Grid File\n", pp.GridFile)
	fmt.Printf("[%d]\t\t\t\t= Num Ranks\n", pp.NumRanks)
	fmt.Printf("%8.5f\t\t= Virtualization\n", pp.Virtualization)
	fmt.Printf("[%s]\t\t\t= Algorithm\n", pp.Algorithm)
}
