package api

import (
	"net/http"
	"time"

	"github.com/clinicware/scheduling/internal/appointment"
)

func attendedReportHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, ok := parseRange(w, r)
		if !ok {
			return
		}

		caller, _ := CallerFromContext(r.Context())

		visits, err := svc.AttendedReport(r.Context(), caller.ID, from, to)
		if err != nil {
			handleAppointmentError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, ReportResponse{
			From:        from.Format(dateLayout),
			To:          to.Format(dateLayout),
			TotalVisits: len(visits),
			Visits:      toVisitResponses(visits),
		})
	}
}

func diseaseReportHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, ok := parseRange(w, r)
		if !ok {
			return
		}

		disease := r.URL.Query().Get("disease")
		caller, _ := CallerFromContext(r.Context())

		visits, err := svc.DiseaseReport(r.Context(), caller.ID, disease, from, to)
		if err != nil {
			handleAppointmentError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, ReportResponse{
			From:        from.Format(dateLayout),
			To:          to.Format(dateLayout),
			Disease:     disease,
			TotalVisits: len(visits),
			Visits:      toVisitResponses(visits),
		})
	}
}

func parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "from must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dateLayout, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "to must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
