package application

import (
	"bytes"
	"errors"
	"testing"

	"heimdall/internal/models"
	"heimdall/pkg/sheets"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeSheetsClient struct {
	cleared string
	updated [][]interface{}
	failUpd error
}

func (c *fakeSheetsClient) EnsureSpreadsheet(title, ownerEmail string) (string, string, error) {
	return "sheet-1", "https://example.test/sheet-1", nil
}

func (c *fakeSheetsClient) ClearRange(spreadsheetID, rangeA1 string) error {
	c.cleared = rangeA1
	return nil
}

func (c *fakeSheetsClient) UpdateValues(spreadsheetID, startCell string, values [][]interface{}) error {
	if c.failUpd != nil {
		return c.failUpd
	}
	c.updated = values
	return nil
}

func newReportFixture(t *testing.T, client *fakeSheetsClient) (*fixture, *ReportService) {
	t.Helper()
	f := newFixture(t, LinkOptions{})
	var sheetsClient sheets.Client
	if client != nil {
		sheetsClient = client
	}
	reports := NewReportService(f.membership, f.exclusions, f.joins, sheetsClient, "owner@example.test", nopLogger{})
	return f, reports
}

func TestExcelReport(t *testing.T) {
	f, reports := newReportFixture(t, nil)

	id := uuid.New()
	_, err := f.membership.Admit(id, "steve", models.ConsoleActor(), "founder")
	require.NoError(t, err)
	_, err = f.exclusions.Exclude(uuid.New(), "griefer", models.ConsoleActor(), nil, "grief", false)
	require.NoError(t, err)
	f.joins.Record(uuid.New(), "stranger", "lobby", "")

	data, err := reports.ExcelReport()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	assert.ElementsMatch(t, []string{"Members", "Exclusions", "Join attempts"}, book.GetSheetList())

	name, err := book.GetCellValue("Members", "B2")
	require.NoError(t, err)
	assert.Equal(t, "steve", name)

	reason, err := book.GetCellValue("Exclusions", "F2")
	require.NoError(t, err)
	assert.Equal(t, "grief", reason)
}

func TestSyncToGoogleSheet(t *testing.T) {
	client := &fakeSheetsClient{}
	f, reports := newReportFixture(t, client)

	_, err := f.membership.Admit(uuid.New(), "steve", models.ConsoleActor(), "")
	require.NoError(t, err)

	url, err := reports.SyncToGoogleSheet()
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/sheet-1", url)
	assert.NotEmpty(t, client.cleared)
	require.NotEmpty(t, client.updated)
	assert.Equal(t, "steve", client.updated[1][1])
}

func TestSyncToGoogleSheetUnconfigured(t *testing.T) {
	_, reports := newReportFixture(t, nil)

	_, err := reports.SyncToGoogleSheet()
	assert.Error(t, err)
}

func TestSyncToGoogleSheetUpdateFailure(t *testing.T) {
	client := &fakeSheetsClient{failUpd: errors.New("quota exceeded")}
	_, reports := newReportFixture(t, client)

	_, err := reports.SyncToGoogleSheet()
	assert.Error(t, err)
}
