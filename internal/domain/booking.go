package domain

// ServiceType identifica la oferta seleccionada en el formulario de reserva.
type ServiceType string

const (
	ServiceSubscription      ServiceType = "subscription-based-model"
	ServicePayPerSession     ServiceType = "pay-per-session-model"
	ServiceCorporateWellness ServiceType = "corporate-wellness-programs"
	ServiceWorkshops         ServiceType = "workshops-webinars"
	ServiceAffiliate         ServiceType = "affiliate-marketing"
	ServiceFreemium          ServiceType = "freemium-model"
	ServiceSponsoredContent  ServiceType = "sponsored-content-ads"
	ServiceEbooksCourses     ServiceType = "e-books-online-courses"
	ServiceDonations         ServiceType = "donations-crowdfunding"
	ServiceLicensing         ServiceType = "licensing-platform"
)

var serviceTypeNames = map[ServiceType]string{
	ServiceSubscription:      "Subscription-Based Model",
	ServicePayPerSession:     "Pay-Per-Session Model",
	ServiceCorporateWellness: "Corporate Wellness Programs",
	ServiceWorkshops:         "Workshops & Webinars",
	ServiceAffiliate:         "Affiliate Marketing",
	ServiceFreemium:          "Freemium Model",
	ServiceSponsoredContent:  "Sponsored Content & Ads",
	ServiceEbooksCourses:     "E-Books & Online Courses",
	ServiceDonations:         "Donations & Crowdfunding",
	ServiceLicensing:         "Licensing Platform",
}

// Valid indica si el valor pertenece al catálogo fijo de servicios.
func (s ServiceType) Valid() bool {
	_, ok := serviceTypeNames[s]
	return ok
}

// DisplayName devuelve el nombre legible del servicio.
func (s ServiceType) DisplayName() string {
	if name, ok := serviceTypeNames[s]; ok {
		return name
	}
	return string(s)
}

// ServiceTypes lista el catálogo en orden estable.
func ServiceTypes() []ServiceType {
	return []ServiceType{
		ServiceSubscription,
		ServicePayPerSession,
		ServiceCorporateWellness,
		ServiceWorkshops,
		ServiceAffiliate,
		ServiceFreemium,
		ServiceSponsoredContent,
		ServiceEbooksCourses,
		ServiceDonations,
		ServiceLicensing,
	}
}

// Therapist describe una entrada del catálogo de terapeutas.
type Therapist struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// DefaultTherapists es el catálogo fijo que muestra el formulario de reserva.
var DefaultTherapists = []Therapist{
	{Slug: "no-preference", Name: "No Preference"},
	{Slug: "dr-sharma", Name: "Dr. Priya Sharma (Mindfulness Specialist)"},
	{Slug: "dr-mehta", Name: "Dr. Rajiv Mehta (Sleep & Anxiety Expert)"},
	{Slug: "dr-das", Name: "Dr. Priyanka Das (Workplace Wellness Consultant)"},
	{Slug: "dr-kapoor", Name: "Dr. Arjun Kapoor (Depression & Public Health)"},
	{Slug: "dr-reddy", Name: "Dr. Arjun Reddy (Digital Wellness Specialist)"},
	{Slug: "dr-patel", Name: "Dr. Anjali Patel (Relationship Therapist)"},
	{Slug: "dr-krishnan", Name: "Dr. Maya Krishnan (Burnout Prevention Expert)"},
}

// TherapistDisplayName resuelve el nombre legible de una preferencia.
func TherapistDisplayName(slug string) string {
	for _, t := range DefaultTherapists {
		if t.Slug == slug {
			return t.Name
		}
	}
	if slug == "" {
		return "No Preference"
	}
	return slug
}

// BookingDraft es el borrador de reserva que viaja por el almacenamiento transitorio.
type BookingDraft struct {
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	Phone               string      `json:"phone"`
	ServiceType         ServiceType `json:"service_type"`
	TherapistPreference string      `json:"therapist_preference,omitempty"`
	Concerns            string      `json:"concerns,omitempty"`
	AppointmentDate     string      `json:"appointment_date"`
}
