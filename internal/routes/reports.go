package routes

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nhatem/pollumap/internal/db"
	"github.com/nhatem/pollumap/internal/models"
)

const maxMultipartMemory = 32 << 20 // 32 MiB in memory, the rest spills to disk

func (routes *Routes) PostReport(w http.ResponseWriter, r *http.Request) AppError {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return &ErrBadRequest{Cause: err, Motivation: "expected multipart form data"}
	}

	latStr := r.FormValue("latitude")
	lonStr := r.FormValue("longitude")
	if latStr == "" || lonStr == "" || r.FormValue("description") == "" {
		return &ErrBadRequest{Cause: db.ErrMissingField}
	}
	latitude, latErr := strconv.ParseFloat(latStr, 64)
	longitude, lonErr := strconv.ParseFloat(lonStr, 64)
	if latErr != nil || lonErr != nil {
		return &ErrBadRequest{Cause: db.ErrBadCoordinate}
	}

	report := models.Report{
		Latitude:      latitude,
		Longitude:     longitude,
		Description:   r.FormValue("description"),
		Severity:      r.FormValue("severity"),
		PollutionType: r.FormValue("pollutionType"),
		UserIP:        clientIP(r),
	}

	var images []models.ImageUpload
	for _, header := range r.MultipartForm.File["images"] {
		f, err := header.Open()
		if err != nil {
			return &ErrInternal{Cause: err, Motivation: "error reading the uploaded images"}
		}
		defer f.Close()
		images = append(images, models.ImageUpload{Filename: header.Filename, Content: f})
	}

	_, err := routes.db.CreateReport(r.Context(), &report, images)
	if isValidationErr(err) {
		return &ErrBadRequest{Cause: err}
	}
	if err != nil {
		return &ErrInternal{Cause: err, Motivation: "error saving the report"}
	}

	routes.sessions.Register(GetSessionToken(r), report.ID)
	renderJSON(w, http.StatusCreated, map[string]string{"message": "report added"})
	return nil
}

func (routes *Routes) GetReports(w http.ResponseWriter, r *http.Request) AppError {
	filter := models.ReportFilter{
		PollutionType: r.URL.Query().Get("pollution_type"),
		Severity:      r.URL.Query().Get("severity"),
	}
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days < 0 {
			return &ErrBadRequest{Motivation: "days must be a non-negative integer"}
		}
		filter.Since = time.Now().UTC().AddDate(0, 0, -days)
	}

	reports, err := routes.db.ListReports(r.Context(), filter)
	if err != nil {
		return &ErrInternal{Cause: err}
	}

	token := GetSessionToken(r)
	views := make([]models.ReportView, 0, len(reports))
	for _, report := range reports {
		images, err := routes.db.ImagesFor(r.Context(), report.ID)
		if err != nil {
			return &ErrInternal{Cause: err}
		}
		views = append(views, models.ReportView{
			Report:    report,
			Images:    images,
			CanDelete: routes.sessions.CanDelete(token, report.ID),
		})
	}

	renderJSON(w, http.StatusOK, views)
	return nil
}

func (routes *Routes) DeleteReport(w http.ResponseWriter, r *http.Request) AppError {
	reportID, err := strconv.Atoi(chi.URLParam(r, "reportID"))
	if err != nil {
		return &ErrBadRequest{Cause: err, Motivation: "the report id must be an integer"}
	}

	if _, err := routes.db.GetReport(r.Context(), reportID); err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			return &ErrNotFound{Cause: err, Thing: "report"}
		}
		return &ErrInternal{Cause: err}
	}

	token := GetSessionToken(r)
	if !routes.sessions.CanDelete(token, reportID) {
		return &ErrForbidden{Motivation: "you can only delete reports you created"}
	}

	if err := routes.db.RemoveReport(r.Context(), reportID); err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			// Lost a race against another delete of the same report.
			return &ErrNotFound{Cause: err, Thing: "report"}
		}
		return &ErrInternal{Cause: err, Motivation: "error deleting the report"}
	}
	routes.sessions.Release(token, reportID)

	renderJSON(w, http.StatusOK, map[string]string{"message": "report deleted"})
	return nil
}

func (routes *Routes) GetStatistics(w http.ResponseWriter, r *http.Request) AppError {
	stats, err := routes.db.Statistics(r.Context())
	if err != nil {
		return &ErrInternal{Cause: err}
	}
	renderJSON(w, http.StatusOK, stats)
	return nil
}

func isValidationErr(err error) bool {
	return errors.Is(err, db.ErrMissingField) ||
		errors.Is(err, db.ErrBadCoordinate) ||
		errors.Is(err, db.ErrDescriptionTooLong)
}

// clientIP trusts middleware.RealIP to have rewritten RemoteAddr and strips
// the port if one is present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
