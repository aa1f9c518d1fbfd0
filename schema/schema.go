package schema

// ============================================================================
// SCHEMA — Dataset metadata and classified field descriptors
// ============================================================================
// Dataset metadata arrives as an external document (id, name, category, file
// location, columns). Classification turns each column into a FieldDescriptor
// with a non-empty role set. Descriptors are immutable once built; template
// matching reads them through role buckets.
// ============================================================================

// DeclaredType is the type a column claims in the metadata document.
type DeclaredType string

const (
	TypeNumeric     DeclaredType = "numeric"
	TypeCategorical DeclaredType = "categorical"
	TypeDatetime    DeclaredType = "datetime"
	TypeString      DeclaredType = "string"
	TypeUnknown     DeclaredType = "unknown"
)

// ParseDeclaredType normalizes the type strings found in metadata documents.
// Unrecognized values map to TypeUnknown rather than failing.
func ParseDeclaredType(s string) DeclaredType {
	switch s {
	case "numeric", "quantitative", "number", "integer", "float":
		return TypeNumeric
	case "categorical", "nominal", "ordinal":
		return TypeCategorical
	case "datetime", "temporal", "date":
		return TypeDatetime
	case "string", "text":
		return TypeString
	default:
		return TypeUnknown
	}
}

// Role is a semantic role a column can play in a chart.
type Role string

const (
	RoleTime     Role = "time"
	RoleGeo      Role = "geo"
	RoleMetric   Role = "metric"
	RoleCategory Role = "category"
)

// ColumnMeta is one column as described by the metadata document.
type ColumnMeta struct {
	Name          string   `json:"columnName"`
	Type          string   `json:"columnType"`
	SampleValues  []string `json:"sampleValues"`
	DistinctCount int      `json:"distinctCount,omitempty"` // 0 = unknown
}

// DatasetMeta is one dataset as described by the metadata document.
type DatasetMeta struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Description string       `json:"description,omitempty"`
	FilePath    string       `json:"filePath,omitempty"` // opaque to this engine
	Columns     []ColumnMeta `json:"columns"`
}

// FieldDescriptor is a classified column. Roles is never empty.
type FieldDescriptor struct {
	Name         string       `json:"name"`
	DeclaredType DeclaredType `json:"declaredType"`
	SampleValues []string     `json:"sampleValues"` // up to 3, as supplied
	Roles        []Role       `json:"roles"`

	// Cardinality is the distinct-count hint from the metadata document,
	// falling back to the sample count when the document omits it.
	Cardinality int `json:"cardinality"`
}

// HasRole reports whether the descriptor carries the given role.
func (f FieldDescriptor) HasRole(r Role) bool {
	for _, have := range f.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// ColumnNames returns the dataset's column names in document order.
func (d DatasetMeta) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether the dataset declares the named column.
func (d DatasetMeta) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ============================================================================
// ROLE BUCKETS — Fields partitioned by role for template matching
// ============================================================================

// Buckets holds classified fields partitioned by role.
//
// Category excludes geo fields; CategoryOrGeo is the union. Geo fields always
// also carry the category role, so the split keeps pure categories apart for
// slots like category_x/category_y while category_or_geo slots accept either.
type Buckets struct {
	Time          []FieldDescriptor
	Geo           []FieldDescriptor
	Metric        []FieldDescriptor
	Category      []FieldDescriptor
	CategoryOrGeo []FieldDescriptor
}

// Partition groups fields into role buckets.
func Partition(fields []FieldDescriptor) Buckets {
	var b Buckets
	for _, f := range fields {
		if f.HasRole(RoleTime) {
			b.Time = append(b.Time, f)
		}
		if f.HasRole(RoleGeo) {
			b.Geo = append(b.Geo, f)
		}
		if f.HasRole(RoleMetric) {
			b.Metric = append(b.Metric, f)
		}
		if f.HasRole(RoleCategory) && !f.HasRole(RoleGeo) {
			b.Category = append(b.Category, f)
		}
		if f.HasRole(RoleCategory) || f.HasRole(RoleGeo) {
			b.CategoryOrGeo = append(b.CategoryOrGeo, f)
		}
	}
	return b
}
