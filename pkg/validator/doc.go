// Package validator builds field-level validation as small Rule values.
//
// Each rule pairs a Check func with the ValidationError reported when it
// fails. Apply evaluates all rules, ApplyFirst stops at the first failure per
// field. Both return ValidationErrors, which implements error:
//
//	err := validator.ApplyFirst(
//	    validator.RequiredString("phone_number", display, "Phone number is required"),
//	    validator.MinDigits("phone_number", display, 10, "Please enter a valid phone number"),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//	    msg := verrs.First("phone_number")
//	}
package validator
