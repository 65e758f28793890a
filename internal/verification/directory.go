package verification

import (
	"strings"

	"github.com/LusoHub/verification_service/internal/domain"
	"github.com/LusoHub/verification_service/internal/helper/utils"
)

// Directory is a read-only snapshot of the university registry, built once
// at startup and shared across workflow instances.
type Directory struct {
	byDomain map[string]*domain.University
	byID     map[uint]*domain.University
	all      []domain.University
}

func NewDirectory(universities []domain.University) *Directory {
	d := &Directory{
		byDomain: make(map[string]*domain.University),
		byID:     make(map[uint]*domain.University, len(universities)),
		all:      make([]domain.University, len(universities)),
	}
	copy(d.all, universities)
	for i := range d.all {
		u := &d.all[i]
		// detach from the caller's backing array, element copy alone still
		// aliases it
		u.Domains = append([]domain.UniversityDomain(nil), u.Domains...)
		d.byID[u.ID] = u
		for _, ud := range u.Domains {
			dom := strings.ToLower(strings.TrimSpace(ud.Domain))
			dom = strings.TrimPrefix(dom, "@")
			if dom == "" {
				continue
			}
			if _, ok := d.byDomain[dom]; !ok {
				d.byDomain[dom] = u
			}
		}
	}
	return d
}

// Match resolves an email domain to a university. The full domain is tried
// first, then parent domains by stripping leading labels, so
// "student.ucl.ac.uk" falls through to an entry for "ucl.ac.uk". Walking
// from the longest candidate down makes the result independent of registry
// order and prefers an exact entry over a suffix one.
func (d *Directory) Match(emailDomain string) *domain.University {
	dom := strings.ToLower(strings.TrimSpace(emailDomain))
	for dom != "" {
		if u, ok := d.byDomain[dom]; ok {
			return u
		}
		i := strings.Index(dom, ".")
		if i < 0 {
			return nil
		}
		dom = dom[i+1:]
		if !strings.Contains(dom, ".") {
			// single-label remainder ("uk") can never be a registry entry
			return nil
		}
	}
	return nil
}

func (d *Directory) ByID(id uint) *domain.University {
	return d.byID[id]
}

func (d *Directory) Universities() []domain.University {
	out := make([]domain.University, len(d.all))
	copy(out, d.all)
	for i := range out {
		out[i].Domains = append([]domain.UniversityDomain(nil), out[i].Domains...)
	}
	return out
}

type DomainVerificationResult struct {
	IsValid           bool               `json:"is_valid"`
	MatchedUniversity *domain.University `json:"matched_university,omitempty"`
	Domain            string             `json:"domain"`
	Suggestions       []string           `json:"suggestions,omitempty"`
}

// Static remediation hints shown when a well-formed address has no
// directory match. Not derived from the registry.
var domainSuggestions = []string{
	"Use your university email address, usually ending in .ac.uk",
	"Check the address for typos",
	"If your university address is not recognized, contact your university IT support",
}

// VerifyEmail is pure: it never touches the registry source or mutates the
// snapshot.
func (d *Directory) VerifyEmail(email string) DomainVerificationResult {
	dom, err := utils.ExtractEmailDomain(email)
	if err != nil {
		raw := ""
		if i := strings.LastIndex(email, "@"); i >= 0 {
			raw = email[i+1:]
		}
		return DomainVerificationResult{Domain: raw}
	}

	u := d.Match(dom)
	if u == nil {
		return DomainVerificationResult{
			Domain:      dom,
			Suggestions: append([]string(nil), domainSuggestions...),
		}
	}

	return DomainVerificationResult{
		IsValid:           true,
		MatchedUniversity: u,
		Domain:            dom,
	}
}
