package domain

import "fmt"

// InvalidTransitionError is returned when a document is asked to move to a
// status its transition table does not allow from the current one.
type InvalidTransitionError struct {
	DocType string
	From    string
	To      string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %q to %q", e.DocType, e.From, e.To)
}

// NewInvalidTransitionError builds an InvalidTransitionError for a document type.
func NewInvalidTransitionError(docType, from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{DocType: docType, From: from, To: to}
}

// checkTransition validates from→to against an allowed-transition table.
// Terminal states have no entry (or an empty entry) in the table.
func checkTransition(docType string, table map[string][]string, from, to string) error {
	for _, allowed := range table[from] {
		if allowed == to {
			return nil
		}
	}
	return NewInvalidTransitionError(docType, from, to)
}
