package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type Client interface {
	EnsureSpreadsheet(title, ownerEmail string) (spreadsheetID, url string, err error)
	ClearRange(spreadsheetID, rangeStr string) error
	UpdateValues(spreadsheetID, rangeStr string, values [][]interface{}) error
}

type GoogleSheetsClient struct {
	sheets        *sheets.Service
	drive         *drive.Service
	spreadsheetID string
}

func NewGoogleSheetsClient(credentialsPath, spreadsheetID string) (*GoogleSheetsClient, error) {
	ctx := context.Background()

	sheetsSrv, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	driveSrv, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &GoogleSheetsClient{
		sheets:        sheetsSrv,
		drive:         driveSrv,
		spreadsheetID: spreadsheetID,
	}, nil
}

// EnsureSpreadsheet returns the configured spreadsheet, or creates one shared
// with the owner and readable by anyone with the link.
func (c *GoogleSheetsClient) EnsureSpreadsheet(title, ownerEmail string) (string, string, error) {
	if c.spreadsheetID != "" {
		return c.spreadsheetID, spreadsheetURL(c.spreadsheetID), nil
	}

	resp, err := c.sheets.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title: title,
		},
	}).Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to create spreadsheet: %w", err)
	}
	c.spreadsheetID = resp.SpreadsheetId

	if ownerEmail != "" {
		_, err = c.drive.Permissions.Create(c.spreadsheetID, &drive.Permission{
			Type:         "user",
			Role:         "writer",
			EmailAddress: ownerEmail,
		}).Do()
		if err != nil {
			return "", "", fmt.Errorf("failed to add owner: %w", err)
		}
	}

	_, err = c.drive.Permissions.Create(c.spreadsheetID, &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}).Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to make spreadsheet public: %w", err)
	}

	return c.spreadsheetID, resp.SpreadsheetUrl, nil
}

func (c *GoogleSheetsClient) ClearRange(spreadsheetID, rangeStr string) error {
	_, err := c.sheets.Spreadsheets.Values.Clear(spreadsheetID, rangeStr, &sheets.ClearValuesRequest{}).Do()
	if err != nil {
		return fmt.Errorf("failed to clear range: %w", err)
	}
	return nil
}

func (c *GoogleSheetsClient) UpdateValues(spreadsheetID, rangeStr string, values [][]interface{}) error {
	valRange := &sheets.ValueRange{Values: values}
	_, err := c.sheets.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valRange).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to update values: %w", err)
	}
	return nil
}

func spreadsheetURL(id string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", id)
}
