package dto

type UniversityCreateRequest struct {
	NameEN          string   `json:"name_en"`
	NamePT          string   `json:"name_pt"` // nome da universidade
	PartnershipTier string   `json:"partnership_tier,omitempty"`
	Domains         []string `json:"domains"` // email domains, e.g. ucl.ac.uk
}

type UniversityResponse struct {
	ID              uint     `json:"id"`
	NameEN          string   `json:"name_en"`
	NamePT          string   `json:"name_pt"`
	PartnershipTier string   `json:"partnership_tier"`
	Domains         []string `json:"domains"`
}
