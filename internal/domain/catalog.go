package domain

import "fmt"

// Catalog is a fixed, insertion-ordered set of regions. It is not safe for
// concurrent use; owners serialize access.
type Catalog struct {
	regions []Region
	index   map[string]int
}

// NewCatalog builds a catalog from regions in the given order. It rejects an
// empty table and duplicate IDs.
func NewCatalog(regions []Region) (*Catalog, error) {
	if len(regions) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		regions: make([]Region, 0, len(regions)),
		index:   make(map[string]int, len(regions)),
	}
	for _, r := range regions {
		if r.ID == "" {
			return nil, fmt.Errorf("region %q has no id", r.Name)
		}
		if _, dup := c.index[r.ID]; dup {
			return nil, fmt.Errorf("duplicate region id %q", r.ID)
		}
		c.index[r.ID] = len(c.regions)
		c.regions = append(c.regions, r.Clone())
	}
	return c, nil
}

// Len returns the number of regions.
func (c *Catalog) Len() int { return len(c.regions) }

// Regions returns a copy of every region in catalog order.
func (c *Catalog) Regions() []Region {
	out := make([]Region, len(c.regions))
	for i, r := range c.regions {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of the region with the given ID.
func (c *Catalog) Get(id string) (Region, bool) {
	i, ok := c.index[id]
	if !ok {
		return Region{}, false
	}
	return c.regions[i].Clone(), true
}

// Jitter perturbs every region's at-risk counter by at most ±bound.
func (c *Catalog) Jitter(bound float64, rng RandomSource) {
	for i := range c.regions {
		c.regions[i].AtRisk = Jitter(c.regions[i].AtRisk, bound, rng)
	}
}

// ReplaceRivers swaps the river list of one region wholesale.
func (c *Catalog) ReplaceRivers(id string, rivers []RiverStatus) error {
	i, ok := c.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRegionNotFound, id)
	}
	c.regions[i].Rivers = append([]RiverStatus(nil), rivers...)
	return nil
}
