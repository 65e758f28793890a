package verification

import "strings"

// ProfileDraft holds the academic identity fields as entered. UniversityID
// is not part of the draft: the workflow seeds it from the domain match
// before the profile step can be reached.
type ProfileDraft struct {
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Program            string `json:"program"`
	YearOfStudy        string `json:"year_of_study"`
	ExpectedGraduation string `json:"expected_graduation,omitempty"`
	StudentNumber      string `json:"student_number,omitempty"`
	PhoneNumber        string `json:"phone_number,omitempty"`
}

type ProfileValidation struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ValidateProfile checks required fields only. At most one error per field,
// keyed by field name.
func ValidateProfile(d ProfileDraft) ProfileValidation {
	errs := make(map[string]string)

	required := []struct {
		field string
		value string
	}{
		{"first_name", d.FirstName},
		{"last_name", d.LastName},
		{"program", d.Program},
		{"year_of_study", d.YearOfStudy},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs[f.field] = f.field + " is required"
		}
	}

	if len(errs) > 0 {
		return ProfileValidation{Errors: errs}
	}
	return ProfileValidation{Valid: true}
}
