package domain

// Friend is a contact that loans and group expenses can refer to.
type Friend struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	Timestamps
}

func (f Friend) RecordKey() string { return f.ID }
