package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type DocumentType string

const (
	DocumentPHNationalID     DocumentType = "ph_national_id"
	DocumentPHDriversLicense DocumentType = "ph_drivers_license"
	DocumentPHPassport       DocumentType = "ph_passport"
	DocumentPHUMID           DocumentType = "ph_umid"
	DocumentPHSSS            DocumentType = "ph_sss"
	DocumentPHTIN            DocumentType = "ph_tin"
	DocumentPHPostalID       DocumentType = "ph_postal_id"
	DocumentPHPRCID          DocumentType = "ph_prc_id"
	DocumentPassport         DocumentType = "passport"
	DocumentNationalID       DocumentType = "national_id"
	DocumentDriversLicense   DocumentType = "drivers_license"
)

type documentSpec struct {
	label      string
	philippine bool
	format     *regexp.Regexp
}

var documentSpecs = map[DocumentType]documentSpec{
	// PhilSys Card Number: 0000-0000000-0
	DocumentPHNationalID: {"Philippine National ID (PhilSys)", true, regexp.MustCompile(`^\d{4}-\d{7}-\d$`)},
	// LTO license: A00-00-000000
	DocumentPHDriversLicense: {"Philippine Driver's License", true, regexp.MustCompile(`^[A-Z]\d{2}-\d{2}-\d{6}$`)},
	DocumentPHPassport:       {"Philippine Passport", true, regexp.MustCompile(`^[A-Z]{1,2}\d{7}[A-Z]?$`)},
	// UMID CRN: 0000-0000000-0
	DocumentPHUMID:     {"UMID", true, regexp.MustCompile(`^\d{4}-\d{7}-\d$`)},
	DocumentPHSSS:      {"SSS ID", true, regexp.MustCompile(`^\d{2}-\d{7}-\d$`)},
	DocumentPHTIN:      {"TIN ID", true, regexp.MustCompile(`^\d{3}-\d{3}-\d{3}(-\d{3})?$`)},
	DocumentPHPostalID: {"Postal ID", true, regexp.MustCompile(`^[A-Z0-9]{12}$`)},
	DocumentPHPRCID:    {"PRC ID", true, regexp.MustCompile(`^\d{7}$`)},

	DocumentPassport:       {"Passport", false, regexp.MustCompile(`^[A-Z0-9]{6,9}$`)},
	DocumentNationalID:     {"National ID", false, regexp.MustCompile(`^[A-Z0-9-]{5,20}$`)},
	DocumentDriversLicense: {"Driver's License", false, regexp.MustCompile(`^[A-Z0-9-]{5,20}$`)},
}

func (t DocumentType) IsSupported() bool {
	_, ok := documentSpecs[t]
	return ok
}

func (t DocumentType) IsPhilippine() bool {
	return documentSpecs[t].philippine
}

func (t DocumentType) Label() string {
	if spec, ok := documentSpecs[t]; ok {
		return spec.label
	}
	return string(t)
}

// SupportedDocumentTypes returns the accepted types in a stable order.
func SupportedDocumentTypes() []DocumentType {
	types := make([]DocumentType, 0, len(documentSpecs))
	for t := range documentSpecs {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// ValidateDocumentNumber checks number against the fixed format of the document type.
func ValidateDocumentNumber(t DocumentType, number string) error {
	spec, ok := documentSpecs[t]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedDocumentType, t)
	}
	if !spec.format.MatchString(NormalizeDocumentNumber(number)) {
		return fmt.Errorf("%w for %s", ErrInvalidDocumentNumber, spec.label)
	}
	return nil
}

// NormalizeDocumentNumber trims whitespace and upper-cases letters.
func NormalizeDocumentNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}
