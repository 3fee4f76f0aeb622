package leads

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AbandonedLead is the durable copy of a near-expiry onboarding session,
// captured by the sweep for marketing follow-up. Never mutated after insert;
// the OTP secret is stripped before the record reaches this package.
type AbandonedLead struct {
	ID              bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	FirstName       string        `bson:"firstName" json:"firstName"`
	LastName        string        `bson:"lastName" json:"lastName"`
	MiddleName      string        `bson:"middleName,omitempty" json:"middleName,omitempty"`
	SuffixName      string        `bson:"suffixName,omitempty" json:"suffixName,omitempty"`
	EmailAddress    string        `bson:"emailAddress" json:"emailAddress"`
	MobileNumber    string        `bson:"mobileNumber" json:"mobileNumber"`
	TelephoneNumber string        `bson:"telephoneNumber,omitempty" json:"telephoneNumber,omitempty"`

	Gender      string `bson:"gender,omitempty" json:"gender,omitempty"`
	CivilStatus string `bson:"civilStatus,omitempty" json:"civilStatus,omitempty"`
	Birthdate   string `bson:"birthdate,omitempty" json:"birthdate,omitempty"`
	Birthplace  string `bson:"birthplace,omitempty" json:"birthplace,omitempty"`
	Nationality string `bson:"nationality,omitempty" json:"nationality,omitempty"`

	Address1 string `bson:"address1,omitempty" json:"address1,omitempty"`
	Address2 string `bson:"address2,omitempty" json:"address2,omitempty"`
	Region   string `bson:"region,omitempty" json:"region,omitempty"`
	Province string `bson:"province,omitempty" json:"province,omitempty"`
	City     string `bson:"city,omitempty" json:"city,omitempty"`
	Zipcode  string `bson:"zipcode,omitempty" json:"zipcode,omitempty"`

	IncomeType         string `bson:"incomeType,omitempty" json:"incomeType,omitempty"`
	TIN                string `bson:"tin,omitempty" json:"tin,omitempty"`
	EmployerBusiness   string `bson:"employerBusiness,omitempty" json:"employerBusiness,omitempty"`
	WorkBusinessNature string `bson:"workBusinessNature,omitempty" json:"workBusinessNature,omitempty"`
	Occupation         string `bson:"occupation,omitempty" json:"occupation,omitempty"`
	MonthlyIncome      string `bson:"monthlyIncome,omitempty" json:"monthlyIncome,omitempty"`

	CapturedAt time.Time `bson:"capturedAt" json:"capturedAt"`
}

// Client is the permanent client record created once the onboarding flow is
// presumed complete.
type Client struct {
	ID              bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ClientID        string        `bson:"clientId" json:"clientId"`
	FirstName       string        `bson:"firstName" json:"firstName"`
	LastName        string        `bson:"lastName" json:"lastName"`
	MiddleName      string        `bson:"middleName,omitempty" json:"middleName,omitempty"`
	SuffixName      string        `bson:"suffixName,omitempty" json:"suffixName,omitempty"`
	EmailAddress    string        `bson:"emailAddress" json:"emailAddress"`
	MobileNumber    string        `bson:"mobileNumber" json:"mobileNumber"`
	TelephoneNumber string        `bson:"telephoneNumber,omitempty" json:"telephoneNumber,omitempty"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
}

// Credential is a client's login secret, stored separately from the client
// document so client reads never carry hash material.
type Credential struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"-"`
	ClientID     string        `bson:"clientId" json:"-"`
	PasswordHash string        `bson:"password" json:"-"`
	CreatedAt    time.Time     `bson:"createdAt" json:"-"`
}
