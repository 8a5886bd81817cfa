// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	ethAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	ipfsURIPattern    = regexp.MustCompile(`^ipfs://[1-9A-HJ-NP-Za-km-z]{44,}$|^ipfs://Qm[1-9A-HJ-NP-Za-km-z]{44}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("eth_address", validateEthAddress)
	validate.RegisterValidation("ipfs_uri", validateIPFSURI)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateEthAddress(fl validator.FieldLevel) bool {
	return ethAddressPattern.MatchString(fl.Field().String())
}

func validateIPFSURI(fl validator.FieldLevel) bool {
	uri := fl.Field().String()
	return strings.HasPrefix(uri, "ipfs://") && len(uri) > len("ipfs://")
}

// IsEthAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsEthAddress(s string) bool {
	return ethAddressPattern.MatchString(s)
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "eth_address":
		return e.Field() + " must be a 0x-prefixed 40-character hex address"
	case "ipfs_uri":
		return e.Field() + " must be an ipfs:// URI"
	default:
		return e.Field() + " is invalid"
	}
}
