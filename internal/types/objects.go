// Package types holds the domain records shared across dsplineage packages.
package types

// Space is an organizational partition grouping design objects.
type Space struct {
	ID           string `json:"id"`
	Label        string `json:"label,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
}

// DisplayName returns the business name when known, otherwise the label or id.
func (s Space) DisplayName() string {
	if s.BusinessName != "" {
		return s.BusinessName
	}
	if s.Label != "" {
		return s.Label
	}
	return s.ID
}

// DesignObject is a catalogued artifact such as a table, view or flow.
type DesignObject struct {
	ID            string `json:"id"`
	QualifiedName string `json:"qualifiedName,omitempty"`
	TechnicalName string `json:"technicalName,omitempty"`
	BusinessName  string `json:"businessName,omitempty"`
	Kind          string `json:"kind,omitempty"`
	SpaceID       string `json:"spaceId,omitempty"`
}

// Name returns the most specific human-readable name available.
func (o DesignObject) Name() string {
	switch {
	case o.TechnicalName != "":
		return o.TechnicalName
	case o.QualifiedName != "":
		return o.QualifiedName
	case o.BusinessName != "":
		return o.BusinessName
	default:
		return o.ID
	}
}

// Merge fills empty fields of o from other and returns the result.
// Non-empty fields of o always win.
func (o DesignObject) Merge(other DesignObject) DesignObject {
	if o.ID == "" {
		o.ID = other.ID
	}
	if o.QualifiedName == "" {
		o.QualifiedName = other.QualifiedName
	}
	if o.TechnicalName == "" {
		o.TechnicalName = other.TechnicalName
	}
	if o.BusinessName == "" {
		o.BusinessName = other.BusinessName
	}
	if o.Kind == "" {
		o.Kind = other.Kind
	}
	if o.SpaceID == "" {
		o.SpaceID = other.SpaceID
	}
	return o
}
