package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicware/scheduling/internal/user"
)

func registerHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		created, err := svc.Register(r.Context(), user.RegisterInput{
			Names:      req.Names,
			Surnames:   req.Surnames,
			Email:      req.Email,
			Password:   req.Password,
			Phone:      req.Phone,
			NationalID: req.NationalID,
			Role:       user.Role(req.Role),
		})
		if err != nil {
			handleUserError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toUserResponse(*created))
	}
}

func loginHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		token, u, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			handleUserError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: toUserResponse(*u)})
	}
}

func getProfileHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "id must be a valid UUID")
			return
		}

		caller, _ := CallerFromContext(r.Context())

		profile, err := svc.GetProfile(r.Context(), caller.ID, caller.Role, targetID)
		if err != nil {
			handleUserError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(*profile))
	}
}

func ownProfileHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := CallerFromContext(r.Context())

		profile, err := svc.GetProfile(r.Context(), caller.ID, caller.Role, caller.ID)
		if err != nil {
			handleUserError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(*profile))
	}
}

func updateUserHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "id must be a valid UUID")
			return
		}

		var req UpdateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		caller, _ := CallerFromContext(r.Context())

		updated, err := svc.UpdateProfile(r.Context(), caller.ID, caller.Role, targetID, req.Names, req.Surnames, req.Phone)
		if err != nil {
			handleUserError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(*updated))
	}
}

func listUsersHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := CallerFromContext(r.Context())

		users, err := svc.List(r.Context(), caller.Role)
		if err != nil {
			handleUserError(w, r, err)
			return
		}

		resp := make([]UserResponse, 0, len(users))
		for _, u := range users {
			resp = append(resp, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listDoctorsHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context())
		if err != nil {
			handleUserError(w, r, err)
			return
		}

		resp := make([]UserResponse, 0, len(doctors))
		for _, d := range doctors {
			resp = append(resp, toUserResponse(d))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func addEmergencyContactHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "id must be a valid UUID")
			return
		}

		var req EmergencyContactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		caller, _ := CallerFromContext(r.Context())

		contact, err := svc.AddEmergencyContact(r.Context(), caller.ID, targetID, req.Name, req.Phone, req.Relation)
		if err != nil {
			handleUserError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, EmergencyContactResponse{
			ID:       contact.ID,
			Name:     contact.Name,
			Phone:    contact.Phone,
			Relation: contact.Relation,
		})
	}
}

func addMedicalHistoryHandler(svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "id must be a valid UUID")
			return
		}

		var req MedicalHistoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var diagnosedOn *time.Time
		if req.DiagnosedOn != "" {
			d, err := time.Parse(dateLayout, req.DiagnosedOn)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "diagnosed_on must be YYYY-MM-DD")
				return
			}
			diagnosedOn = &d
		}

		caller, _ := CallerFromContext(r.Context())

		entry, err := svc.AddMedicalHistory(r.Context(), caller.ID, caller.Role, targetID, req.Disease, req.Diagnosis, diagnosedOn)
		if err != nil {
			handleUserError(w, r, err)
			return
		}

		resp := MedicalHistoryResponse{
			ID:        entry.ID,
			Disease:   entry.Disease,
			Diagnosis: entry.Diagnosis,
		}
		if entry.DiagnosedOn != nil {
			d := entry.DiagnosedOn.Format(dateLayout)
			resp.DiagnosedOn = &d
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func handleUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrMissingField),
		errors.Is(err, user.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
	case errors.Is(err, user.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, user.ErrUserExists):
		writeError(w, http.StatusConflict, "user_exists", "email or national id already registered")
	default:
		serverError(w, r, err)
	}
}
