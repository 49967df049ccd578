package validation

import (
	"fmt"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for SetAddressRequest: `dive,required`
	// rejects empty lines but not whitespace-only ones.
	v.RegisterStructValidation(setAddressStructValidation, SetAddressRequest{})

	return v
}

// setAddressStructValidation rejects address lines that are blank once trimmed.
func setAddressStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(SetAddressRequest)

	for i, line := range req.AddressLines {
		if strings.TrimSpace(line) == "" {
			sl.ReportError(req.AddressLines, "addressLines", "AddressLines", "address_line_blank", fmt.Sprintf("line %d is blank", i))
			return
		}
	}
}
