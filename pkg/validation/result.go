package validation

// Result collects the outcome of validating one request or response.
// Warnings never flip Valid.
type Result struct {
	Valid    bool          `json:"valid"`
	Errors   []*FieldError `json:"errors,omitempty"`
	Warnings []*FieldError `json:"warnings,omitempty"`
}

// Valid returns a passing result.
func Valid() *Result {
	return &Result{Valid: true}
}

func (r *Result) AddError(err *FieldError) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

func (r *Result) AddWarning(warn *FieldError) {
	r.Warnings = append(r.Warnings, warn)
}

func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

func (r *Result) HasWarnings() bool { return len(r.Warnings) > 0 }

// Messages returns the error messages in order. Safe on a nil Result.
func (r *Result) Messages() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Error())
	}
	return out
}
