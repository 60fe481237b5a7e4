// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place lets handlers and storage
// import types without depending on each other.
package types

// Student represents a student record in our system.
//
// The json:"..." tags control how each field appears in API responses.
// ID is assigned by the storage backend on creation and never changes.
type Student struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Dob          Date   `json:"dob"`
	StudentClass string `json:"studentClass"`
	FeePaid      bool   `json:"feePaid"`
}

// StudentFilter selects students by exact name and/or phone.
// Empty fields are ignored; when both are set a record must match both.
type StudentFilter struct {
	Name  string
	Phone string
}

// IsEmpty reports whether the filter would match every record.
func (f StudentFilter) IsEmpty() bool {
	return f.Name == "" && f.Phone == ""
}

// Matches reports whether s satisfies the filter.
func (f StudentFilter) Matches(s Student) bool {
	if f.Name != "" && s.Name != f.Name {
		return false
	}
	if f.Phone != "" && s.Phone != f.Phone {
		return false
	}
	return true
}

// StudentPatch is a partial update. Only fields with Set == true are
// written; everything else on the stored record is left untouched.
type StudentPatch struct {
	Name         Optional[string]
	Phone        Optional[string]
	Dob          Optional[Date]
	StudentClass Optional[string]
	FeePaid      Optional[bool]
}

// IsEmpty reports whether the patch carries no fields at all.
func (p StudentPatch) IsEmpty() bool {
	return !p.Name.Set && !p.Phone.Set && !p.Dob.Set &&
		!p.StudentClass.Set && !p.FeePaid.Set
}

// Apply returns a copy of s with the patch's fields written over it.
func (p StudentPatch) Apply(s Student) Student {
	if p.Name.Set {
		s.Name = p.Name.Value
	}
	if p.Phone.Set {
		s.Phone = p.Phone.Value
	}
	if p.Dob.Set {
		s.Dob = p.Dob.Value
	}
	if p.StudentClass.Set {
		s.StudentClass = p.StudentClass.Value
	}
	if p.FeePaid.Set {
		s.FeePaid = p.FeePaid.Value
	}
	return s
}
