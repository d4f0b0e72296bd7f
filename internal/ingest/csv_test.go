package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := "date,campaign_name,impressions,clicks,spend,revenue\n" +
		"2026-01-01,Google Search,5000,150,500.0,2500.0\n" +
		"2026-01-02,Email Blast,1200,80,75.5,0\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2026-01-01", rows[0]["date"])
	assert.Equal(t, "Google Search", rows[0]["campaign_name"])
	assert.Equal(t, "500.0", rows[0]["spend"])
	assert.Equal(t, "Email Blast", rows[1]["campaign_name"])
}

func TestReadCSV_NormalizesHeader(t *testing.T) {
	input := "Date, Campaign_Name ,IMPRESSIONS,clicks,spend\n" +
		"2026-01-01,Test,100,10,5\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "2026-01-01", rows[0]["date"])
	assert.Equal(t, "Test", rows[0]["campaign_name"])
	assert.Equal(t, "100", rows[0]["impressions"])
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("date,campaign_name,impressions,clicks,spend\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSV_RaggedLine(t *testing.T) {
	input := "date,campaign_name,impressions\n" +
		"2026-01-01,Test,100\n" +
		"2026-01-02,Short\n"

	_, err := ReadCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}
