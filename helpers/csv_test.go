package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const crimeCSV = `Borough Name,Crime Category,Count,Year,Recorded Date
Westminster,Burglary,120,2022,2022-03-01
Camden,Robbery,85,2022,2022-04-15
Hackney,Burglary,97,2023,2023-01-09
Westminster,Theft,210,2023,2023-06-30
`

func TestDatasetFromCSV(t *testing.T) {
	meta, err := DatasetFromCSV("crime-rates", "crime-rates", "crime-safety", []byte(crimeCSV))
	require.NoError(t, err)

	assert.Equal(t, "crime-rates", meta.ID)
	require.Len(t, meta.Columns, 5)

	byName := make(map[string]string)
	for _, c := range meta.Columns {
		byName[c.Name] = c.Type
	}
	assert.Equal(t, "categorical", byName["borough_name"])
	assert.Equal(t, "categorical", byName["crime_category"])
	assert.Equal(t, "numeric", byName["count"])
	assert.Equal(t, "numeric", byName["year"])
	assert.Equal(t, "datetime", byName["recorded_date"])
}

func TestDatasetFromCSVDistinctAndSamples(t *testing.T) {
	meta, err := DatasetFromCSV("crime-rates", "crime-rates", "crime-safety", []byte(crimeCSV))
	require.NoError(t, err)

	var borough, year *int
	for i := range meta.Columns {
		switch meta.Columns[i].Name {
		case "borough_name":
			borough = &meta.Columns[i].DistinctCount
			assert.LessOrEqual(t, len(meta.Columns[i].SampleValues), 3)
			assert.Contains(t, meta.Columns[i].SampleValues, "Camden")
		case "year":
			year = &meta.Columns[i].DistinctCount
		}
	}
	require.NotNil(t, borough)
	require.NotNil(t, year)
	assert.Equal(t, 3, *borough)
	assert.Equal(t, 2, *year)
}

func TestDatasetFromCSVErrors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := DatasetFromCSV("x", "x", "", nil)
		require.Error(t, err)
	})

	t.Run("header only", func(t *testing.T) {
		_, err := DatasetFromCSV("x", "x", "", []byte("a,b,c\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no data rows")
	})
}

func TestToSnakeCase(t *testing.T) {
	cases := map[string]string{
		"Borough Name":  "borough_name",
		"crimeCategory": "crime_category",
		"COUNT":         "count",
		"recorded-date": "recorded_date",
	}
	for in, want := range cases {
		assert.Equal(t, want, toSnakeCase(in), in)
	}
}
