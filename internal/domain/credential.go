package domain

// AuthCredential holds the OAuth tokens issued by the CRM for one location.
// The orchestrator receives a credential explicitly at call time; nothing
// in the sync path assumes a single global credential row.
type AuthCredential struct {
	BaseModel
	LocationID   string `gorm:"type:varchar(255);not null;uniqueIndex:uq_auth_credentials_location_id" json:"location_id"`
	AccessToken  string `gorm:"type:text;not null" json:"-"`
	RefreshToken string `gorm:"type:text;not null" json:"-"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `gorm:"type:varchar(500)" json:"scope"`
	UserType     string `gorm:"type:varchar(50)" json:"user_type"`
	CompanyID    string `gorm:"type:varchar(255)" json:"company_id"`
	UserID       string `gorm:"type:varchar(255)" json:"user_id"`
	LocationName string `gorm:"type:varchar(255)" json:"location_name"`
	Timezone     string `gorm:"type:varchar(100)" json:"timezone"`
}

// TableName specifies the table name for AuthCredential
func (AuthCredential) TableName() string {
	return "auth_credentials"
}
