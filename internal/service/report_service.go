package service

import (
	"bytes"
	"context"
	"fmt"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/xuri/excelize/v2"
)

// ReportService renders supervisor exports. Only the visit-history sheet
// exists today.
type ReportService interface {
	ExportVisitHistory(ctx context.Context, actorID, actorRole string, filter VisitHistoryFilter) (*bytes.Buffer, error)
}

type reportService struct {
	visits VisitService
}

func NewReportService(visits VisitService) ReportService {
	return &reportService{visits: visits}
}

var visitSheetHeader = []string{
	"Visit ID", "Store", "Store Code", "PC", "Check-in", "Check-out", "Status",
	"Required Tasks", "Completed Required",
}

func (s *reportService) ExportVisitHistory(ctx context.Context, actorID, actorRole string, filter VisitHistoryFilter) (*bytes.Buffer, error) {
	visits, err := s.visits.GetVisitHistory(ctx, actorID, actorRole, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Visits"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range visitSheetHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, apperror.Internal("failed to write sheet header", err)
		}
	}

	for i, visit := range visits {
		stats := model.ComputeStats(visit.Assignments)
		checkOut := ""
		if visit.CheckOutTime != nil {
			checkOut = visit.CheckOutTime.Format("2006-01-02 15:04")
		}
		storeName, storeCode, pcName := "", "", ""
		if visit.Store != nil {
			storeName, storeCode = visit.Store.Name, visit.Store.Code
		}
		if visit.PC != nil {
			pcName = visit.PC.Username
		}

		row := []interface{}{
			visit.ID.String(),
			storeName,
			storeCode,
			pcName,
			visit.CheckInTime.Format("2006-01-02 15:04"),
			checkOut,
			visit.Status,
			stats.TotalRequired,
			stats.CompletedRequired,
		}
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, apperror.Internal(fmt.Sprintf("failed to write row %d", i+2), err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperror.Internal("failed to render workbook", err)
	}
	return buf, nil
}
