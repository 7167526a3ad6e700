package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValid(t *testing.T) {
	assert.True(t, FormatCSV.Valid())
	assert.True(t, FormatPDF.Valid())
	assert.False(t, Format("xlsx").Valid())
}

func TestRenderCSV(t *testing.T) {
	table := Table{
		Title:   "Marks Sheet",
		Columns: []string{"Student", "Marks"},
		Rows: [][]string{
			{"Asha Rao", "80.00"},
			{"Vikram Nair"},
		},
	}

	data, err := Render(table, FormatCSV)
	require.NoError(t, err)
	// Short rows are padded to the column count.
	assert.Equal(t, "Student,Marks\nAsha Rao,80.00\nVikram Nair,\n", string(data))
}

func TestRenderCSVRequiresColumns(t *testing.T) {
	_, err := Render(Table{}, FormatCSV)
	assert.Error(t, err)
}

func TestRenderPDF(t *testing.T) {
	table := Table{
		Title:   "Attendance Overview",
		Columns: []string{"Class", "Percentage"},
		Rows:    [][]string{{"Grade 5", "90.00"}},
	}

	data, err := Render(table, FormatPDF)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(Table{Columns: []string{"A"}}, Format("xlsx"))
	assert.Error(t, err)
}
