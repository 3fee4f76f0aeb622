package session

// Record is the onboarding session document stored under an opaque token.
// Field names mirror the JSON payload the intake surface accepts, so the
// record round-trips through the HTTP layer unchanged.
//
// Secret is set only after an OTP has been requested and must never reach a
// read-facing response; use Redacted before returning a record to a caller.
type Record struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	MiddleName      string `json:"middleName,omitempty"`
	SuffixName      string `json:"suffixName,omitempty"`
	EmailAddress    string `json:"emailAddress"`
	MobileNumber    string `json:"mobileNumber"`
	TelephoneNumber string `json:"telephoneNumber,omitempty"`

	Gender      string `json:"gender,omitempty"`
	CivilStatus string `json:"civilStatus,omitempty"`
	Birthdate   string `json:"birthdate,omitempty"`
	Birthplace  string `json:"birthplace,omitempty"`
	Nationality string `json:"nationality,omitempty"`

	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	Region   string `json:"region,omitempty"`
	Province string `json:"province,omitempty"`
	City     string `json:"city,omitempty"`
	Zipcode  string `json:"zipcode,omitempty"`

	IncomeType         string `json:"incomeType,omitempty"`
	TIN                string `json:"tin,omitempty"`
	EmployerBusiness   string `json:"employerBusiness,omitempty"`
	WorkBusinessNature string `json:"workBusinessNature,omitempty"`
	Occupation         string `json:"occupation,omitempty"`
	MonthlyIncome      string `json:"monthlyIncome,omitempty"`

	Secret string `json:"secret,omitempty"`
}

// Redacted returns a copy of the record with the OTP secret stripped.
func (r *Record) Redacted() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Secret = ""
	return &out
}
