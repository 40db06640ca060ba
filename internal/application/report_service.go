package application

import (
	"fmt"
	"time"

	"heimdall/pkg/sheets"

	"github.com/xuri/excelize/v2"
)

// ReportService renders the membership, exclusion and join-attempt state for
// operator review: an Excel workbook for attachments and a shared Google
// Sheet for the standing roster.
type ReportService struct {
	membership *MembershipService
	exclusions *ExclusionService
	joins      *JoinAttemptService

	sheetsClient sheets.Client
	ownerEmail   string
	logger       Logger
}

func NewReportService(membership *MembershipService, exclusions *ExclusionService,
	joins *JoinAttemptService, sheetsClient sheets.Client, ownerEmail string, logger Logger) *ReportService {
	return &ReportService{
		membership:   membership,
		exclusions:   exclusions,
		joins:        joins,
		sheetsClient: sheetsClient,
		ownerEmail:   ownerEmail,
		logger:       logger,
	}
}

func (s *ReportService) ExcelReport() ([]byte, error) {
	f := excelize.NewFile()

	writeSheet(f, "Members", []string{"UUID", "Name", "Added by", "Added at", "Reason", "Discord", "Verified"},
		s.memberRows())
	writeSheet(f, "Exclusions", []string{"UUID", "Name", "Issued by", "Issued at", "Expires", "Reason"},
		s.exclusionRows())
	writeSheet(f, "Join attempts", []string{"UUID", "Name", "First seen", "Last seen", "Count", "Origin", "Message"},
		s.joinRows())
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ReportService) SyncToGoogleSheet() (string, error) {
	if s.sheetsClient == nil {
		return "", fmt.Errorf("google sheets client is not configured")
	}

	spreadsheetID, url, err := s.sheetsClient.EnsureSpreadsheet(rosterSheetTitle, s.ownerEmail)
	if err != nil {
		return "", err
	}

	rows := [][]interface{}{
		{"UUID", "Name", "Added at", "Discord", "Verified"},
	}
	for _, m := range s.membership.ListAll() {
		discordName, verified := "", ""
		if m.Link != nil {
			discordName = m.Link.ExternalName
			verified = fmt.Sprintf("%t", m.Link.Verified)
		}
		rows = append(rows, []interface{}{
			m.ID.String(), m.Name, m.AddedAt.Format(time.RFC3339), discordName, verified,
		})
	}

	rows = append(rows, []interface{}{}, []interface{}{"Active exclusions"})
	rows = append(rows, []interface{}{"UUID", "Name", "Expires", "Reason"})
	for _, e := range s.exclusions.ListActive() {
		expires := "never"
		if e.ExpiresAt != nil {
			expires = e.ExpiresAt.Format(time.RFC3339)
		}
		rows = append(rows, []interface{}{e.ID.String(), e.Name, expires, e.Reason})
	}

	if err := s.sheetsClient.ClearRange(spreadsheetID, rosterClearRange); err != nil {
		s.logger.Error("failed to clear roster sheet: %v", err)
	}
	if err := s.sheetsClient.UpdateValues(spreadsheetID, "A1", rows); err != nil {
		return "", fmt.Errorf("failed to update roster sheet: %w", err)
	}
	return url, nil
}

func writeSheet(f *excelize.File, name string, headers []string, rows [][]interface{}) {
	f.NewSheet(name)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(name, cell, h)
	}
	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(name, cell, value)
		}
	}
	f.SetColWidth(name, "A", "A", 38)
	f.SetColWidth(name, "B", "G", 18)
}

func (s *ReportService) memberRows() [][]interface{} {
	var rows [][]interface{}
	for _, m := range s.membership.ListAll() {
		discordName, verified := "", ""
		if m.Link != nil {
			discordName = m.Link.ExternalName
			verified = fmt.Sprintf("%t", m.Link.Verified)
		}
		rows = append(rows, []interface{}{
			m.ID.String(), m.Name, m.AddedBy.String(), m.AddedAt.Format(time.RFC3339),
			m.Reason, discordName, verified,
		})
	}
	return rows
}

func (s *ReportService) exclusionRows() [][]interface{} {
	var rows [][]interface{}
	for _, e := range s.exclusions.ListActive() {
		expires := "never"
		if e.ExpiresAt != nil {
			expires = e.ExpiresAt.Format(time.RFC3339)
		}
		rows = append(rows, []interface{}{
			e.ID.String(), e.Name, e.IssuedBy.String(), e.IssuedAt.Format(time.RFC3339),
			expires, e.Reason,
		})
	}
	return rows
}

func (s *ReportService) joinRows() [][]interface{} {
	var rows [][]interface{}
	for _, a := range s.joins.ListAll() {
		rows = append(rows, []interface{}{
			a.ID.String(), a.Name, a.FirstSeen.Format(time.RFC3339),
			a.LastSeen.Format(time.RFC3339), a.Count, a.Origin, a.Message,
		})
	}
	return rows
}
