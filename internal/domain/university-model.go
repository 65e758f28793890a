package domain

import "time"

type PartnershipTier string

const (
	PartnershipTierFull      PartnershipTier = "full"
	PartnershipTierAssociate PartnershipTier = "associate"
	PartnershipTierCommunity PartnershipTier = "community"
)

type University struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	NameEN          string          `gorm:"type:varchar(255);column:name_en" json:"name_en"`
	NamePT          string          `gorm:"type:varchar(255);column:name_pt" json:"name_pt"`
	PartnershipTier PartnershipTier `gorm:"type:varchar(20);not null;default:community" json:"partnership_tier"`

	Domains []UniversityDomain `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignKey:UniversityID" json:"domains,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UniversityDomain is one email domain owned by a university. A university
// may own several (faculty subdomains, legacy domains), but a domain belongs
// to exactly one university.
type UniversityDomain struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UniversityID uint   `gorm:"not null;index" json:"university_id"`
	Domain       string `gorm:"type:varchar(255);uniqueIndex;not null" json:"domain"`
}
