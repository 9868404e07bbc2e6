package core

// DecodeRow maps a raw CSV record onto Fields by position.
//
// Missing first name, last name or email become "", a missing phone stays nil.
// Values are passed through untouched; shape problems are left to validation.
func DecodeRow(record []string) Fields {
	f := Fields{
		FirstName: cell(record, ColFirstName),
		LastName:  cell(record, ColLastName),
		Email:     cell(record, ColEmail),
	}
	if len(record) > ColPhone {
		phone := record[ColPhone]
		f.Phone = &phone
	}
	return f
}

func cell(record []string, pos int) string {
	if pos < len(record) {
		return record[pos]
	}
	return ""
}
