package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegions() []Region {
	return []Region{
		{ID: "texas", Name: "Texas", Center: Geo{31.9686, -99.9018}, Counts: map[string]int{"economic_impact": 340000000},
			Rivers: []RiverStatus{{Name: "Trinity River", Status: StatusCritical, CurrentLevel: "28.7 ft", FloodStage: "30.0 ft"}}},
		{ID: "florida", Name: "Florida", Center: Geo{27.7663, -81.6868}},
	}
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog(testRegions())
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	ids := []string{}
	for _, r := range c.Regions() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"texas", "florida"}, ids)
}

func TestNewCatalog_Rejects(t *testing.T) {
	_, err := NewCatalog(nil)
	require.ErrorIs(t, err, ErrEmptyCatalog)

	dup := append(testRegions(), Region{ID: "texas", Name: "Texas again"})
	_, err = NewCatalog(dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate region id")

	_, err = NewCatalog([]Region{{Name: "nameless"}})
	require.Error(t, err)
}

func TestCatalog_RegionsAreCopies(t *testing.T) {
	c, err := NewCatalog(testRegions())
	require.NoError(t, err)

	rs := c.Regions()
	rs[0].Counts["economic_impact"] = 1
	rs[0].Rivers[0].Status = StatusNormal

	texas, _ := c.Get("texas")
	assert.Equal(t, 340000000, texas.Counts["economic_impact"])
	assert.Equal(t, StatusCritical, texas.Rivers[0].Status)
}

func TestCatalog_ReplaceRivers(t *testing.T) {
	c, err := NewCatalog(testRegions())
	require.NoError(t, err)

	require.NoError(t, c.ReplaceRivers("texas", []RiverStatus{{Name: "Brazos River", Status: StatusWarning}}))
	texas, _ := c.Get("texas")
	require.Len(t, texas.Rivers, 1)
	assert.Equal(t, "Brazos River", texas.Rivers[0].Name)

	err = c.ReplaceRivers("ohio", nil)
	require.ErrorIs(t, err, ErrRegionNotFound)
}
