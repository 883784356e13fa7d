package types

// NotAvailable is the sentinel stored for any absent, blank or unparseable field.
const NotAvailable = "N/A"

// Record column names, in the order they are extracted.
const (
	ColURL         = "url"
	ColName        = "name"
	ColDateOfBirth = "date_of_birth"
	ColCitizenship = "citizenship"
	ColAddress     = "address"
	ColReason      = "reason"
	ColDetails     = "details"
	ColBornIn      = "born_in"
	ColImageURL    = "image_url"
)

// RecordColumns lists every column a Record carries.
var RecordColumns = []string{
	ColURL,
	ColName,
	ColDateOfBirth,
	ColCitizenship,
	ColAddress,
	ColReason,
	ColDetails,
	ColBornIn,
	ColImageURL,
}

// Record is one wanted person scraped from a detail page.
//
// Every field is always set; absent data is NotAvailable. A Record is built
// once, passed through the pipeline, and never changed after it has been
// handed to the aggregator.
type Record struct {
	URL         string
	Name        string
	DateOfBirth string
	Citizenship string
	Address     string
	Reason      string
	Details     string
	BornIn      string
	ImageURL    string
}

// NewRecord returns a Record for sourceURL with every other field set to NotAvailable.
func NewRecord(sourceURL string) *Record {
	return &Record{
		URL:         sourceURL,
		Name:        NotAvailable,
		DateOfBirth: NotAvailable,
		Citizenship: NotAvailable,
		Address:     NotAvailable,
		Reason:      NotAvailable,
		Details:     NotAvailable,
		BornIn:      NotAvailable,
		ImageURL:    NotAvailable,
	}
}

func (r *Record) field(col string) *string {
	switch col {
	case ColURL:
		return &r.URL
	case ColName:
		return &r.Name
	case ColDateOfBirth:
		return &r.DateOfBirth
	case ColCitizenship:
		return &r.Citizenship
	case ColAddress:
		return &r.Address
	case ColReason:
		return &r.Reason
	case ColDetails:
		return &r.Details
	case ColBornIn:
		return &r.BornIn
	case ColImageURL:
		return &r.ImageURL
	}
	return nil
}

// Get returns the value of a column and whether the column exists.
func (r *Record) Get(col string) (string, bool) {
	p := r.field(col)
	if p == nil {
		return "", false
	}
	return *p, true
}

// Set assigns a column value. It reports false for unknown columns.
func (r *Record) Set(col, value string) bool {
	p := r.field(col)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Fields returns the record as a column -> value map.
func (r *Record) Fields() map[string]string {
	m := make(map[string]string, len(RecordColumns))
	for _, col := range RecordColumns {
		m[col] = *r.field(col)
	}
	return m
}

