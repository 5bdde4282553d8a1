package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"praktika/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Schedule"

// Exporter writes the practice schedule to an xlsx file the front desk
// can hand out. Same day-by-room grid as the Sheets mirror.
type Exporter struct {
	scheduleSource ScheduleSource
	dir            string
	loc            *time.Location
	logger         *zerolog.Logger
}

// ScheduleSource supplies the data for one export run.
type ScheduleSource interface {
	GetDailyBookings(ctx context.Context, start, end time.Time, loc *time.Location) (map[string][]*models.Booking, error)
	GetActiveRooms(ctx context.Context) ([]*models.Room, error)
}

func NewExporter(source ScheduleSource, dir string, loc *time.Location, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		scheduleSource: source,
		dir:            dir,
		loc:            loc,
		logger:         logger,
	}
}

// ScheduleToExcel renders [startDate, endDate) and returns the file path.
func (e *Exporter) ScheduleToExcel(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	daily, err := e.scheduleSource.GetDailyBookings(ctx, startDate, endDate, e.loc)
	if err != nil {
		return "", fmt.Errorf("load bookings: %w", err)
	}
	rooms, err := e.scheduleSource.GetActiveRooms(ctx)
	if err != nil {
		return "", fmt.Errorf("load rooms: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Schedule %s - %s",
		startDate.In(e.loc).Format("02.01.2006"),
		endDate.In(e.loc).Add(-time.Second).Format("02.01.2006")))

	dateCols := e.writeDateHeaders(f, startDate, endDate)
	e.writeRoomRows(f, daily, rooms, dateCols)

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	if len(dateCols) > 0 {
		last, _ := excelize.ColumnNumberToName(len(dateCols) + 1)
		_ = f.SetColWidth(sheetName, "B", last, 24)
		_ = f.MergeCell(sheetName, "A1", last+"1")
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("schedule_%s_to_%s.xlsx",
		startDate.In(e.loc).Format("2006-01-02"),
		endDate.In(e.loc).Add(-time.Second).Format("2006-01-02"))
	filePath := filepath.Join(e.dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("schedule export created")
	return filePath, nil
}

func (e *Exporter) writeDateHeaders(f *excelize.File, startDate, endDate time.Time) map[string]int {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	cols := make(map[string]int)
	col := 2
	day := startDate.In(e.loc)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, e.loc)
	for day.Before(endDate) && col < 102 {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, day.Format("Mon 02.01"))
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		cols[day.Format("2006-01-02")] = col
		col++
		day = day.AddDate(0, 0, 1)
	}
	return cols
}

func (e *Exporter) writeRoomRows(f *excelize.File, daily map[string][]*models.Booking, rooms []*models.Room, dateCols map[string]int) {
	roomStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})

	writeRow := func(row int, label string, match func(*models.Booking) bool) {
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, labelCell, label)
		_ = f.SetCellStyle(sheetName, labelCell, labelCell, roomStyle)

		for dateKey, col := range dateCols {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetName, cell, e.dayCell(daily[dateKey], match))
			_ = f.SetCellStyle(sheetName, cell, cell, cellStyle)
		}
	}

	row := 3
	for _, room := range rooms {
		id := room.ID
		writeRow(row, room.Name, func(b *models.Booking) bool {
			return b.HasRoom() && *b.RoomID == id
		})
		row++
	}
	writeRow(row, "Remote", func(b *models.Booking) bool { return !b.HasRoom() })
}

func (e *Exporter) dayCell(bookings []*models.Booking, match func(*models.Booking) bool) string {
	cell := ""
	for _, b := range bookings {
		if !b.IsLive() || !match(b) {
			continue
		}
		cell += fmt.Sprintf("%s-%s %s\n",
			b.Start.In(e.loc).Format("15:04"),
			b.End().In(e.loc).Format("15:04"),
			b.ClientName)
		if b.Comment != "" {
			cell += fmt.Sprintf("   %s\n", b.Comment)
		}
	}
	return cell
}
