package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var formats = validator.New()

func checkLength(errs *Errors, field, value string, min, max int) {
	n := utf8.RuneCountInString(strings.TrimSpace(value))

	switch {
	case n == 0 && min > 0:
		errs.Add(field, "is required")
	case n < min:
		errs.Add(field, fmt.Sprintf("must be at least %d characters", min))
	case n > max:
		errs.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

// checkFormat applies a validator tag such as "email" or "url". Empty values
// pass unless the tag itself demands otherwise.
func checkFormat(errs *Errors, field, value, tag, message string) {
	if value == "" {
		return
	}

	if err := formats.Var(value, tag); err != nil {
		errs.Add(field, message)
	}
}
