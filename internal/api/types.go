package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicware/scheduling/internal/appointment"
	"github.com/clinicware/scheduling/internal/user"
)

const dateLayout = "2006-01-02"

// -- Auth / users --

type RegisterRequest struct {
	Names      string  `json:"names"`
	Surnames   string  `json:"surnames"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Phone      *string `json:"phone,omitempty"`
	NationalID string  `json:"national_id"`
	Role       string  `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Names      string    `json:"names"`
	Surnames   string    `json:"surnames"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone,omitempty"`
	NationalID string    `json:"national_id"`
	Role       string    `json:"role"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UpdateUserRequest struct {
	Names    string  `json:"names"`
	Surnames string  `json:"surnames"`
	Phone    *string `json:"phone,omitempty"`
}

type EmergencyContactRequest struct {
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Relation *string `json:"relation,omitempty"`
}

type EmergencyContactResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	Relation *string   `json:"relation,omitempty"`
}

type MedicalHistoryRequest struct {
	Disease     string  `json:"disease"`
	Diagnosis   *string `json:"diagnosis,omitempty"`
	DiagnosedOn string  `json:"diagnosed_on,omitempty"`
}

type MedicalHistoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Disease     string    `json:"disease"`
	Diagnosis   *string   `json:"diagnosis,omitempty"`
	DiagnosedOn *string   `json:"diagnosed_on,omitempty"`
}

type ProfileResponse struct {
	User              UserResponse               `json:"user"`
	EmergencyContacts []EmergencyContactResponse `json:"emergency_contacts"`
	MedicalHistory    []MedicalHistoryResponse   `json:"medical_history"`
}

// -- Appointments --

type CreateAppointmentRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id,omitempty"`
	Date      string `json:"date"`
	Slot      string `json:"slot"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type RecordAttentionRequest struct {
	Symptoms     string `json:"symptoms"`
	Diagnosis    string `json:"diagnosis"`
	Treatment    string `json:"treatment"`
	Medication   string `json:"medication"`
	Observations string `json:"observations"`
}

type ParticipantResponse struct {
	ID         uuid.UUID `json:"id"`
	Names      string    `json:"names"`
	Surnames   string    `json:"surnames"`
	NationalID string    `json:"national_id"`
}

type AppointmentResponse struct {
	ID        uuid.UUID            `json:"id"`
	PatientID uuid.UUID            `json:"patient_id"`
	DoctorID  uuid.UUID            `json:"doctor_id"`
	Date      string               `json:"date"`
	Slot      string               `json:"slot"`
	Status    string               `json:"status"`
	Patient   *ParticipantResponse `json:"patient,omitempty"`
	Doctor    *ParticipantResponse `json:"doctor,omitempty"`
}

type RecordResponse struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	Symptoms      string    `json:"symptoms"`
	Diagnosis     string    `json:"diagnosis"`
	Treatment     string    `json:"treatment"`
	Medication    string    `json:"medication"`
	Observations  string    `json:"observations"`
	CreatedAt     time.Time `json:"created_at"`
}

// -- Reports --

type VisitResponse struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Date          string    `json:"date"`
	Slot          string    `json:"slot"`
	Patient       string    `json:"patient"`
	NationalID    string    `json:"national_id"`
	Symptoms      string    `json:"symptoms"`
	Diagnosis     string    `json:"diagnosis"`
	Treatment     string    `json:"treatment"`
	Medication    string    `json:"medication"`
}

type ReportResponse struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Disease     string          `json:"disease,omitempty"`
	TotalVisits int             `json:"total_visits"`
	Visits      []VisitResponse `json:"visits"`
}

// -- Converters --

func toUserResponse(u user.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Names:      u.Names,
		Surnames:   u.Surnames,
		Email:      u.Email,
		Phone:      u.Phone,
		NationalID: u.NationalID,
		Role:       string(u.Role),
	}
}

func toProfileResponse(p user.Profile) ProfileResponse {
	resp := ProfileResponse{
		User:              toUserResponse(p.User),
		EmergencyContacts: []EmergencyContactResponse{},
		MedicalHistory:    []MedicalHistoryResponse{},
	}
	for _, c := range p.EmergencyContacts {
		resp.EmergencyContacts = append(resp.EmergencyContacts, EmergencyContactResponse{
			ID:       c.ID,
			Name:     c.Name,
			Phone:    c.Phone,
			Relation: c.Relation,
		})
	}
	for _, e := range p.MedicalHistory {
		entry := MedicalHistoryResponse{
			ID:        e.ID,
			Disease:   e.Disease,
			Diagnosis: e.Diagnosis,
		}
		if e.DiagnosedOn != nil {
			d := e.DiagnosedOn.Format(dateLayout)
			entry.DiagnosedOn = &d
		}
		resp.MedicalHistory = append(resp.MedicalHistory, entry)
	}
	return resp
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		Date:      a.Date.Format(dateLayout),
		Slot:      a.Slot,
		Status:    string(a.Status),
	}
}

func toDetailResponse(d appointment.Detail) AppointmentResponse {
	resp := toAppointmentResponse(d.Appointment)
	if d.Patient != nil {
		resp.Patient = &ParticipantResponse{
			ID:         d.Patient.ID,
			Names:      d.Patient.Names,
			Surnames:   d.Patient.Surnames,
			NationalID: d.Patient.NationalID,
		}
	}
	if d.Doctor != nil {
		resp.Doctor = &ParticipantResponse{
			ID:         d.Doctor.ID,
			Names:      d.Doctor.Names,
			Surnames:   d.Doctor.Surnames,
			NationalID: d.Doctor.NationalID,
		}
	}
	return resp
}

func toDetailResponses(details []appointment.Detail) []AppointmentResponse {
	result := make([]AppointmentResponse, 0, len(details))
	for _, d := range details {
		result = append(result, toDetailResponse(d))
	}
	return result
}

func toRecordResponse(rec appointment.ConsultationRecord) RecordResponse {
	return RecordResponse{
		ID:            rec.ID,
		AppointmentID: rec.AppointmentID,
		Symptoms:      rec.Symptoms,
		Diagnosis:     rec.Diagnosis,
		Treatment:     rec.Treatment,
		Medication:    rec.Medication,
		Observations:  rec.Observations,
		CreatedAt:     rec.CreatedAt,
	}
}

func toVisitResponses(visits []appointment.AttendedVisit) []VisitResponse {
	result := make([]VisitResponse, 0, len(visits))
	for _, v := range visits {
		result = append(result, VisitResponse{
			AppointmentID: v.AppointmentID,
			Date:          v.Date.Format(dateLayout),
			Slot:          v.Slot,
			Patient:       v.PatientNames + " " + v.PatientSurnames,
			NationalID:    v.PatientNationalID,
			Symptoms:      v.Symptoms,
			Diagnosis:     v.Diagnosis,
			Treatment:     v.Treatment,
			Medication:    v.Medication,
		})
	}
	return result
}
