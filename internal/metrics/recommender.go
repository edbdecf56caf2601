package metrics

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

// Recommender supplies the sizing policy used during aggregation: the safety
// margin applied over observed peaks, and the instance type covering a
// cpu/memory requirement.
type Recommender interface {
	Headroom() float64
	InstanceType(cpus, memoryGiB int) string
}

// InstanceSpec is one entry of the instance-type catalog.
type InstanceSpec struct {
	Name      string `yaml:"name"`
	Cpus      int    `yaml:"cpus"`
	MemoryGiB int    `yaml:"memory_gib"`
}

// Catalog is the ordered set of instance types available for sizing.
type Catalog struct {
	specs []InstanceSpec
}

//go:embed instance_catalog.yaml
var defaultCatalogYAML []byte

// DefaultCatalog loads the embedded omics instance-type catalog.
func DefaultCatalog() (*Catalog, error) {
	return parseCatalog(defaultCatalogYAML)
}

// LoadCatalog reads a catalog override from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read instance catalog %s: %w", path, err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*Catalog, error) {
	raw := struct {
		InstanceTypes []InstanceSpec `yaml:"instance_types"`
	}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse instance catalog: %w", err)
	}
	if len(raw.InstanceTypes) == 0 {
		return nil, fmt.Errorf("instance catalog is empty")
	}

	specs := raw.InstanceTypes
	sort.Slice(specs, func(i, j int) bool {
		if specs[i].Cpus != specs[j].Cpus {
			return specs[i].Cpus < specs[j].Cpus
		}
		return specs[i].MemoryGiB < specs[j].MemoryGiB
	})
	return &Catalog{specs: specs}, nil
}

// Fit returns the smallest instance type covering the requirement. The
// second return is false when even the largest type is too small; the
// largest type is still returned as the closest available choice.
func (c *Catalog) Fit(cpus, memoryGiB int) (InstanceSpec, bool) {
	for _, spec := range c.specs {
		if spec.Cpus >= cpus && spec.MemoryGiB >= memoryGiB {
			return spec, true
		}
	}
	return c.specs[len(c.specs)-1], false
}

// CatalogRecommender recommends the smallest catalog instance covering the
// observed peak plus headroom.
type CatalogRecommender struct {
	catalog  *Catalog
	headroom float64
}

var _ Recommender = (*CatalogRecommender)(nil)

func NewCatalogRecommender(catalog *Catalog, headroom float64) *CatalogRecommender {
	if headroom < 0 {
		headroom = 0
	}
	return &CatalogRecommender{catalog: catalog, headroom: headroom}
}

func (r *CatalogRecommender) Headroom() float64 {
	return r.headroom
}

func (r *CatalogRecommender) InstanceType(cpus, memoryGiB int) string {
	spec, _ := r.catalog.Fit(cpus, memoryGiB)
	return spec.Name
}
