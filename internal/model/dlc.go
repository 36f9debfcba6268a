package model

import "time"

// Stored DLC statuses. expired and expires_soon are derived from the date at read time.
const (
	DlcStatusActive      = "active"
	DlcStatusExpiresSoon = "expires_soon"
	DlcStatusExpired     = "expired"
	DlcStatusValidated   = "validated"
)

// DlcProduct tracks a perishable product lot and its consumption deadline (date limite de consommation)
type DlcProduct struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ProductName string     `gorm:"type:varchar(255);not null" json:"productName"`
	GTIN        string     `gorm:"column:gtin;type:varchar(20);index" json:"gtin"`
	SupplierID  uint       `gorm:"not null;index" json:"supplierId"`
	Supplier    *Supplier  `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	GroupID     uint       `gorm:"not null;index" json:"groupId"`
	Group       *Group     `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	DlcDate     time.Time  `gorm:"type:date;not null;index" json:"dlcDate"`
	Quantity    int        `gorm:"not null;default:1" json:"quantity"`
	Unit        string     `gorm:"type:varchar(20);not null;default:'colis'" json:"unit"`
	Status      string     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Comments    string     `gorm:"type:text" json:"comments"`
	ValidatedBy *string    `gorm:"type:varchar(36)" json:"validatedBy"`
	ValidatedAt *time.Time `json:"validatedAt"`
	CreatedBy   string     `gorm:"type:varchar(36);not null;index" json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (p *DlcProduct) OwnerID() string    { return p.CreatedBy }
func (p *DlcProduct) OwnerGroupID() uint { return p.GroupID }

// EffectiveStatus derives the displayed status: validated lots stay validated, otherwise the
// deadline decides between expired, expires_soon (within warningDays) and active.
func (p *DlcProduct) EffectiveStatus(today time.Time, warningDays int) string {
	if p.Status == DlcStatusValidated {
		return DlcStatusValidated
	}
	day := truncateDay(today)
	dlc := truncateDay(p.DlcDate)
	if dlc.Before(day) {
		return DlcStatusExpired
	}
	if !dlc.After(day.AddDate(0, 0, warningDays)) {
		return DlcStatusExpiresSoon
	}
	return DlcStatusActive
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
