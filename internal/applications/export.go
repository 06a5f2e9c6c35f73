package applications

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/store"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Applications"

var exportHeader = []any{
	"Application ID", "Applicant", "Email", "Phone", "Job Title", "School Site",
	"Department", "Status", "Source", "Years Experience", "Submitted At", "Resume URL",
}

// ExportFilter narrows the export; zero values mean "everything".
type ExportFilter struct {
	JobPostingID *uuid.UUID
	Status       string
}

// Export writes the matching applications to an xlsx workbook, one row each.
func (s *Service) Export(ctx context.Context, actor auth.Actor, f ExportFilter) (*bytes.Buffer, error) {
	if !s.cfg.IsFullAccess(actor.Role) {
		return nil, apperr.Forbidden("not allowed to export applications")
	}
	filter := store.ApplicationFilter{JobPostingID: f.JobPostingID}
	if status := strings.TrimSpace(f.Status); status != "" {
		st, err := models.ParseApplicationStatus(status)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeValidation, err.Error(), err)
		}
		filter.Status = &st
	}
	apps, err := s.st.ListApplications(ctx, filter)
	if err != nil {
		return nil, err
	}

	book := excelize.NewFile()
	defer book.Close()
	if err := book.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	if err := book.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, err
	}
	bold, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		book.SetRowStyle(exportSheet, 1, 1, bold)
	}

	jobs := map[uuid.UUID]*models.JobPosting{}
	for i, a := range apps {
		var name, email, phone, title, site, dept string
		if applicant, err := s.st.GetApplicant(ctx, a.ApplicantID); err == nil {
			name, email, phone = applicant.FullName(), applicant.Email, applicant.Phone
		}
		if job := s.cachedJob(ctx, jobs, a.JobPostingID); job != nil {
			title, site, dept = job.Title, string(job.SchoolSite), job.Department
		}
		var years any
		if a.YearsExperience != nil {
			years = *a.YearsExperience
		}
		var submitted string
		if a.SubmittedAt != nil {
			submitted = a.SubmittedAt.UTC().Format("2006-01-02 15:04")
		}
		row := []any{
			a.ID.String(), name, email, phone, title, site,
			dept, string(a.Status), a.Source, years, submitted, a.ResumeURL,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := book.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("could not write row %d: %w", i+2, err)
		}
	}
	book.SetColWidth(exportSheet, "A", "A", 38)
	book.SetColWidth(exportSheet, "B", "L", 20)

	return book.WriteToBuffer()
}
