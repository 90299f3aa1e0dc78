package config

// TypeAssociation is the property type of every relation.
const TypeAssociation = "association"

// DataTypeToggle is the data type of boolean list fields that can be
// flipped in place.
const DataTypeToggle = "toggle"

// AssociationKind is the cardinality of a relation.
type AssociationKind string

const (
	OneToOne   AssociationKind = "one_to_one"
	ManyToOne  AssociationKind = "many_to_one"
	OneToMany  AssociationKind = "one_to_many"
	ManyToMany AssociationKind = "many_to_many"
)

// IsToMany reports whether the relation is multi-valued.
func (k AssociationKind) IsToMany() bool {
	return k == OneToMany || k == ManyToMany
}

// Valid reports whether k is a known kind.
func (k AssociationKind) Valid() bool {
	switch k {
	case OneToOne, ManyToOne, OneToMany, ManyToMany:
		return true
	}
	return false
}

// PropertyMetadata describes one property of an introspected entity.
// Multi-valued associations are never sortable.
type PropertyMetadata struct {
	Type            string          `json:"type"`
	AssociationType AssociationKind `json:"association_type,omitempty"`
	TargetEntity    string          `json:"target_entity,omitempty"`
	Nullable        bool            `json:"nullable,omitempty"`
	Length          int             `json:"length,omitempty"`
	ID              bool            `json:"id,omitempty"`
	Sortable        bool            `json:"sortable"`
}

// IsAssociation reports whether the property is a relation.
func (p PropertyMetadata) IsAssociation() bool {
	return p.Type == TypeAssociation
}
