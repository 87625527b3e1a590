package doctor

import (
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

const (
	DefaultConsultationFee = 150
	DefaultRating          = 4.5
	DefaultImage           = "/placeholder-user.jpg"
)

var (
	DefaultLanguages    = []string{"English"}
	DefaultAvailability = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
)

// Specialties is the recommended set offered by the admin and registration
// forms. Specialty stays free-form.
var Specialties = []string{
	"General Medicine",
	"Cardiology",
	"Dermatology",
	"Pediatrics",
	"Orthopedics",
	"Neurology",
	"Psychiatry",
	"Gynecology",
	"Ophthalmology",
	"ENT",
	"Endocrinology",
}

type Doctor struct {
	ID              string    `json:"id"`
	ExternalID      string    `json:"externalId,omitempty"`
	Name            string    `json:"name"`
	Specialty       string    `json:"specialty"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	LicenseNumber   string    `json:"licenseNumber,omitempty"`
	Experience      string    `json:"experience,omitempty"`
	Education       string    `json:"education,omitempty"`
	About           string    `json:"about,omitempty"`
	Image           string    `json:"image,omitempty"`
	Languages       []string  `json:"languages"`
	Availability    []string  `json:"availability"`
	ConsultationFee int       `json:"consultationFee"`
	Rating          float64   `json:"rating"`
	TotalReviews    int       `json:"totalReviews"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CreateParams carries the fields of a new doctor. Nil or empty optional
// fields receive the directory defaults.
type CreateParams struct {
	ExternalID      string   `json:"externalId,omitempty"`
	Name            string   `json:"name"`
	Specialty       string   `json:"specialty"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone,omitempty"`
	LicenseNumber   string   `json:"licenseNumber,omitempty"`
	Experience      string   `json:"experience,omitempty"`
	Education       string   `json:"education,omitempty"`
	About           string   `json:"about,omitempty"`
	Image           string   `json:"image,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	Availability    []string `json:"availability,omitempty"`
	ConsultationFee *int     `json:"consultationFee,omitempty"`
	Status          Status   `json:"status,omitempty"`
}

// Update is a partial patch; nil fields are left unchanged.
type Update struct {
	Name            *string   `json:"name,omitempty"`
	Specialty       *string   `json:"specialty,omitempty"`
	Phone           *string   `json:"phone,omitempty"`
	LicenseNumber   *string   `json:"licenseNumber,omitempty"`
	Experience      *string   `json:"experience,omitempty"`
	Education       *string   `json:"education,omitempty"`
	About           *string   `json:"about,omitempty"`
	Image           *string   `json:"image,omitempty"`
	Languages       *[]string `json:"languages,omitempty"`
	Availability    *[]string `json:"availability,omitempty"`
	ConsultationFee *int      `json:"consultationFee,omitempty"`
	Status          *Status   `json:"status,omitempty"`
}

func (u Update) Empty() bool {
	return u == Update{}
}

type Filter struct {
	Specialty string
	Search    string
}

type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}
