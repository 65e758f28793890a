package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func completeDraft() ProfileDraft {
	return ProfileDraft{
		FirstName:   "Maria",
		LastName:    "Silva",
		Program:     "Computer Science",
		YearOfStudy: "2",
	}
}

func TestValidateProfileComplete(t *testing.T) {
	v := ValidateProfile(completeDraft())
	assert.True(t, v.Valid)
	assert.Empty(t, v.Errors)
}

func TestValidateProfileMissingFields(t *testing.T) {
	v := ValidateProfile(ProfileDraft{FirstName: "Maria"})
	assert.False(t, v.Valid)
	assert.NotContains(t, v.Errors, "first_name")
	assert.Contains(t, v.Errors, "last_name")
	assert.Contains(t, v.Errors, "program")
	assert.Contains(t, v.Errors, "year_of_study")
}

func TestValidateProfileWhitespaceIsMissing(t *testing.T) {
	d := completeDraft()
	d.Program = "   "
	v := ValidateProfile(d)
	assert.False(t, v.Valid)
	assert.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors, "program")
}

func TestValidateProfileOptionalFieldsIgnored(t *testing.T) {
	d := completeDraft()
	d.ExpectedGraduation = ""
	d.StudentNumber = ""
	d.PhoneNumber = ""
	v := ValidateProfile(d)
	assert.True(t, v.Valid)
}
