package records

// PersonalDetail is one row of the generated table.
type PersonalDetail struct {
	Name        string `json:"Name"`
	Surname     string `json:"Surname"`
	DateOfBirth string `json:"DateOfBirth"`
}

// Envelope is the request body. PersonalDetails is a pointer so a missing
// key can be told apart from an empty list.
type Envelope struct {
	PersonalDetails *[]PersonalDetail `json:"PersonalDetails"`
}

const (
	FieldName        = "Name"
	FieldSurname     = "Surname"
	FieldDateOfBirth = "DateOfBirth"
)

// Fields lists the record fields in their positional column order.
var Fields = []string{FieldName, FieldSurname, FieldDateOfBirth}

// Value returns the record's value for one of Fields.
func (p PersonalDetail) Value(field string) string {
	switch field {
	case FieldName:
		return p.Name
	case FieldSurname:
		return p.Surname
	case FieldDateOfBirth:
		return p.DateOfBirth
	}
	return ""
}

// FromValues builds a record from a field name to value map.
func FromValues(values map[string]string) PersonalDetail {
	return PersonalDetail{
		Name:        values[FieldName],
		Surname:     values[FieldSurname],
		DateOfBirth: values[FieldDateOfBirth],
	}
}

func (p PersonalDetail) IsZero() bool {
	return p == PersonalDetail{}
}
