package domain

// BusinessUnitType is the kind of node in the business-unit forest.
type BusinessUnitType string

const (
	BusinessUnitGroup   BusinessUnitType = "group"
	BusinessUnitCompany BusinessUnitType = "company"
	BusinessUnitBranch  BusinessUnitType = "branch"
)

// Valid reports whether t is one of the known unit types.
func (t BusinessUnitType) Valid() bool {
	switch t {
	case BusinessUnitGroup, BusinessUnitCompany, BusinessUnitBranch:
		return true
	}
	return false
}

// BusinessUnit is a node in a self-referencing hierarchy. ParentID is nil for roots.
type BusinessUnit struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	Type     BusinessUnitType `json:"type"`
	ParentID *int64           `json:"parent_id"`
}
