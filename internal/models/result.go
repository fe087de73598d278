package models

// ProcessingResult is the response envelope shared by every caller.
type ProcessingResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    *ResultData `json:"data"`
	Errors  []string    `json:"errors"`
}

// ResultData is the CSV-shaped payload of a successful result.
type ResultData struct {
	Headers  []string       `json:"headers"`
	Rows     [][]string     `json:"rows"`
	Metadata ResultMetadata `json:"metadata"`
}

// ResultMetadata is the metadata subset exposed to consumers.
type ResultMetadata struct {
	TotalTransactions int     `json:"totalTransactions"`
	StatementPeriod   string  `json:"statementPeriod"`
	DueDate           *string `json:"dueDate"`
	NextClosing       *string `json:"nextClosing"`
	Balance           string  `json:"balance"`
	BankName          string  `json:"bankName"`
}

// SuccessResult builds the success envelope for a statement.
func SuccessResult(stmt *ProcessedStatement) *ProcessingResult {
	return &ProcessingResult{
		Success: true,
		Message: "PDF processed successfully",
		Data: &ResultData{
			Headers: stmt.Headers(),
			Rows:    stmt.Rows(),
			Metadata: ResultMetadata{
				TotalTransactions: len(stmt.Transactions),
				StatementPeriod:   stmt.Metadata.StatementPeriod,
				DueDate:           stmt.Metadata.DueDate,
				NextClosing:       stmt.Metadata.NextClosing,
				Balance:           stmt.Metadata.Balance,
				BankName:          stmt.Metadata.BankName,
			},
		},
		Errors: []string{},
	}
}

// ErrorResult builds the failure envelope.
func ErrorResult(message string, errs ...string) *ProcessingResult {
	if len(errs) == 0 {
		errs = []string{message}
	}
	return &ProcessingResult{
		Success: false,
		Message: message,
		Errors:  errs,
	}
}
