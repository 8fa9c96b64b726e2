package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Contact represents a CRM contact mirrored into local storage.
// ExternalID is the CRM-assigned identifier and the sync key; it is
// immutable after creation and never updated from incoming payloads.
type Contact struct {
	BaseModel
	ExternalID        string         `gorm:"type:varchar(255);not null;uniqueIndex:uq_contacts_external_id" json:"external_id"`
	FirstName         string         `gorm:"type:varchar(100)" json:"first_name"`
	LastName          string         `gorm:"type:varchar(100)" json:"last_name"`
	FullNameLowercase string         `gorm:"type:varchar(255);index:idx_contacts_full_name_lowercase" json:"full_name_lowercase"`
	Email             *string        `gorm:"type:varchar(255)" json:"email"`
	Phone             string         `gorm:"type:varchar(20)" json:"phone"`
	Address           string         `gorm:"type:varchar(255)" json:"address"`
	Country           string         `gorm:"type:varchar(10)" json:"country"`
	Tags              datatypes.JSON `gorm:"type:jsonb" json:"tags"`
	Source            string         `gorm:"type:varchar(100)" json:"source"`
	DateAdded         time.Time      `gorm:"type:timestamp;not null;index:idx_contacts_date_added" json:"date_added"`
	DateUpdated       time.Time      `gorm:"type:timestamp;not null" json:"date_updated"`
	Opportunities     []Opportunity  `gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE" json:"opportunities,omitempty"`
}

// TableName specifies the table name for Contact
func (Contact) TableName() string {
	return "contacts"
}
