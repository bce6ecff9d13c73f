package services

import (
	"fmt"
	"strings"

	"github.com/rtucker-mozilla/minventory/pkg/response"
)

// ValidateHostname checks that name is a syntactically valid DNS name.
// Labels may hold letters, digits, "-" and "_", must not be empty, must end
// with a letter or digit and start with a letter, digit or "_". A leading
// "*" is allowed for wildcard names.
func ValidateHostname(name string) error {
	if name == "" {
		return response.NewFieldError("hostname", "Hostname is required")
	}
	fqdn := name
	if strings.HasPrefix(fqdn, "*") {
		fqdn = strings.Trim(fqdn[1:], ".")
	}
	for _, label := range strings.Split(fqdn, ".") {
		if label == "" {
			return response.NewFieldError("hostname", fmt.Sprintf("Invalid name %s. Empty label.", name))
		}
		if err := validateLabel(label); err != nil {
			return response.NewFieldError("hostname", err.Error())
		}
	}
	return nil
}

func validateLabel(label string) error {
	for _, r := range label {
		if !isAlnum(r) && r != '-' && r != '_' {
			return fmt.Errorf("Invalid name %s. Character '%c' is invalid.", label, r)
		}
	}
	first, last := rune(label[0]), rune(label[len(label)-1])
	if !isAlnum(last) || !(isAlnum(first) || first == '_') {
		return fmt.Errorf("Labels must end and begin only with a letter or digit")
	}
	return nil
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

// ValidateSiteName rejects empty site labels and labels with spaces or periods.
func ValidateSiteName(name string) error {
	if name == "" {
		return response.NewFieldError("name", "A site name must be non empty.")
	}
	if strings.ContainsAny(name, " ") {
		return response.NewFieldError("name", "A site name must not contain spaces.")
	}
	if strings.Contains(name, ".") {
		return response.NewFieldError("name", "A site name must not contain a period.")
	}
	return nil
}
