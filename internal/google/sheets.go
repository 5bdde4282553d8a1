package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"praktika/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const scheduleSheetName = "Schedule"

// SheetsService mirrors the practice schedule into a spreadsheet the
// front desk can print or share. The sheet is a day-by-room grid, redrawn
// whole; partial cell updates would drift from the database.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	loc           *time.Location
}

func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID string, loc *time.Location) (*SheetsService, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		loc:           loc,
	}, nil
}

// TestConnection reads one cell to verify credentials and sharing.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, scheduleSheetName+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// ServiceAccountEmail extracts the account email for sharing instructions.
func ServiceAccountEmail(credentialsFile string) (string, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(raw, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

// UpdateScheduleSheet redraws the schedule grid for [startDate, endDate).
// Rows are rooms plus a trailing "Remote" row; columns are days.
func (s *SheetsService) UpdateScheduleSheet(ctx context.Context, startDate, endDate time.Time, dailyBookings map[string][]*models.Booking, rooms []*models.Room) error {
	sheetID, err := s.sheetIDByName(ctx, scheduleSheetName)
	if err != nil {
		return fmt.Errorf("resolve sheet id: %w", err)
	}

	_, err = s.service.Spreadsheets.Values.
		Clear(s.spreadsheetID, scheduleSheetName+"!A:Z", &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	days := dayKeys(startDate, endDate, s.loc)
	if len(days) == 0 {
		return fmt.Errorf("invalid date range %s..%s", startDate, endDate)
	}

	var data [][]interface{}
	data = append(data, []interface{}{fmt.Sprintf("Schedule %s - %s",
		startDate.In(s.loc).Format("02.01.2006"),
		endDate.In(s.loc).Add(-time.Second).Format("02.01.2006"))})
	data = append(data, []interface{}{})

	headerRow := []interface{}{""}
	for _, day := range days {
		parsed, _ := time.ParseInLocation("2006-01-02", day, s.loc)
		headerRow = append(headerRow, parsed.Format("Mon 02.01"))
	}
	data = append(data, headerRow)

	sortedRooms := append([]*models.Room(nil), rooms...)
	sort.Slice(sortedRooms, func(i, j int) bool {
		if sortedRooms[i].SortOrder == sortedRooms[j].SortOrder {
			return sortedRooms[i].ID < sortedRooms[j].ID
		}
		return sortedRooms[i].SortOrder < sortedRooms[j].SortOrder
	})

	for _, room := range sortedRooms {
		row := []interface{}{room.Name}
		for _, day := range days {
			row = append(row, s.dayCell(dailyBookings[day], func(b *models.Booking) bool {
				return b.HasRoom() && *b.RoomID == room.ID
			}))
		}
		data = append(data, row)
	}

	remoteRow := []interface{}{"Remote"}
	for _, day := range days {
		remoteRow = append(remoteRow, s.dayCell(dailyBookings[day], func(b *models.Booking) bool {
			return !b.HasRoom()
		}))
	}
	data = append(data, remoteRow)

	_, err = s.service.Spreadsheets.Values.
		Update(s.spreadsheetID, scheduleSheetName+"!A1", &sheets.ValueRange{Values: data}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update schedule sheet: %w", err)
	}

	return s.applyGridFormat(ctx, sheetID, len(days), len(sortedRooms)+1)
}

// dayCell renders one room/day cell: every live session as a line, blank
// when the room is free all day.
func (s *SheetsService) dayCell(bookings []*models.Booking, match func(*models.Booking) bool) string {
	cell := ""
	for _, b := range bookings {
		if !b.IsLive() || !match(b) {
			continue
		}
		cell += fmt.Sprintf("%s-%s %s\n",
			b.Start.In(s.loc).Format("15:04"),
			b.End().In(s.loc).Format("15:04"),
			b.ClientName)
	}
	return cell
}

func dayKeys(start, end time.Time, loc *time.Location) []string {
	var keys []string
	day := start.In(loc)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	for day.Before(end) && len(keys) < 100 {
		keys = append(keys, day.Format("2006-01-02"))
		day = day.AddDate(0, 0, 1)
	}
	return keys
}

func (s *SheetsService) applyGridFormat(ctx context.Context, sheetID int64, dayCols, roomRows int) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    2,
					EndRowIndex:      3,
					StartColumnIndex: 1,
					EndColumnIndex:   int64(dayCols + 1),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						HorizontalAlignment: "CENTER",
						TextFormat:          &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat(textFormat,horizontalAlignment)",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    3,
					EndRowIndex:      int64(3 + roomRows),
					StartColumnIndex: 0,
					EndColumnIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat(textFormat)",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    3,
					EndRowIndex:      int64(3 + roomRows),
					StartColumnIndex: 1,
					EndColumnIndex:   int64(dayCols + 1),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						VerticalAlignment: "TOP",
						WrapStrategy:      "WRAP",
					},
				},
				Fields: "userEnteredFormat(verticalAlignment,wrapStrategy)",
			},
		},
		{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   1,
				},
				Properties: &sheets.DimensionProperties{PixelSize: 160},
				Fields:     "pixelSize",
			},
		},
		{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 1,
					EndIndex:   int64(dayCols + 1),
				},
				Properties: &sheets.DimensionProperties{PixelSize: 180},
				Fields:     "pixelSize",
			},
		},
	}

	_, err := s.service.Spreadsheets.
		BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("apply grid format: %w", err)
	}
	return nil
}

func (s *SheetsService) sheetIDByName(ctx context.Context, name string) (int64, error) {
	spreadsheet, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == name {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", name)
}
