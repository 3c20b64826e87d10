package domain

// SystemRegulation carries process-wide capacity ceilings for the agency
// management collaborator. It is injected from configuration and validated on
// load; zero values mean the corresponding ceiling is not enforced.
type SystemRegulation struct {
	MaxAgencies            int
	MaxAgenciesPerDistrict int
}

func (r SystemRegulation) Validate() error {
	if r.MaxAgencies < 0 {
		return E(KindValidation, "maxAgencies cannot be negative")
	}
	if r.MaxAgenciesPerDistrict < 0 {
		return E(KindValidation, "maxAgenciesPerDistrict cannot be negative")
	}
	return nil
}

// AllowsNewAgency checks the registration ceilings given the current agency
// counts. Exposed for the agency CRUD collaborator; the ledger itself never
// registers agencies.
func (r SystemRegulation) AllowsNewAgency(totalAgencies, agenciesInDistrict int) error {
	if r.MaxAgencies > 0 && totalAgencies >= r.MaxAgencies {
		return Ef(KindLimitExceeded, "agency limit of %d reached", r.MaxAgencies)
	}
	if r.MaxAgenciesPerDistrict > 0 && agenciesInDistrict >= r.MaxAgenciesPerDistrict {
		return Ef(KindLimitExceeded, "district agency limit of %d reached", r.MaxAgenciesPerDistrict)
	}
	return nil
}
