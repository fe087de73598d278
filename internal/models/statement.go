package models

// LineTrace captures what a parser did with one input line.
type LineTrace struct {
	LineNum int    `json:"lineNum"`
	Text    string `json:"text"`
	Result  string `json:"result"` // "parsed", "ignored", "no-date", "no-amount", "empty-description", "outside-section"
	Method  string `json:"method,omitempty"`
}

// StatementMetadata holds the statement-level fields extracted by a parser.
type StatementMetadata struct {
	BankName          string
	BankType          BankType
	AccountNumber     *string
	AccountHolder     *string
	StatementPeriod   string
	DueDate           *string
	NextClosing       *string
	Balance           string
	MinimumPayment    *string
	CreditLimit       *string
	AvailableCredit   *string
	TotalTransactions int
}

// ProcessedStatement is the parsed form of one statement.
type ProcessedStatement struct {
	Transactions []Transaction
	Metadata     StatementMetadata
	RawText      string
	Notes        []string
	Trace        []LineTrace
}

// AddNote appends to the processing audit trail.
func (s *ProcessedStatement) AddNote(note string) {
	s.Notes = append(s.Notes, note)
}

// Headers returns the CSV column headers.
func (s *ProcessedStatement) Headers() []string {
	return []string{"Date", "Description", "Amount", "Type", "Category", "Reference"}
}

// Rows returns one CSV row per transaction in document order.
func (s *ProcessedStatement) Rows() [][]string {
	rows := make([][]string, 0, len(s.Transactions))
	for _, txn := range s.Transactions {
		rows = append(rows, []string{
			txn.Date.Format("2006-01-02"),
			txn.Description,
			txn.Amount.StringFixed(2),
			string(txn.Type),
			txn.Category,
			txn.Reference,
		})
	}
	return rows
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
