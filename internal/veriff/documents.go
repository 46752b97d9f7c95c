package veriff

import (
	"strings"

	"github.com/pawsitter/backend/internal/domain"
)

// DocumentType is Veriff's document vocabulary.
type DocumentType string

const (
	DocumentPassport        DocumentType = "PASSPORT"
	DocumentIDCard          DocumentType = "ID_CARD"
	DocumentDriversLicense  DocumentType = "DRIVERS_LICENSE"
	DocumentResidencePermit DocumentType = "RESIDENCE_PERMIT"
)

const countryPhilippines = "PH"

var toVendor = map[domain.DocumentType]DocumentType{
	domain.DocumentPHNationalID:     DocumentIDCard,
	domain.DocumentPHDriversLicense: DocumentDriversLicense,
	domain.DocumentPHPassport:       DocumentPassport,
	domain.DocumentPHUMID:           DocumentIDCard,
	domain.DocumentPHSSS:            DocumentIDCard,
	domain.DocumentPHTIN:            DocumentIDCard,
	domain.DocumentPHPostalID:       DocumentIDCard,
	domain.DocumentPHPRCID:          DocumentIDCard,
	domain.DocumentPassport:         DocumentPassport,
	domain.DocumentNationalID:       DocumentIDCard,
	domain.DocumentDriversLicense:   DocumentDriversLicense,
}

// MapDocumentType never fails: unknown internal types go to the vendor as an
// ID card and the vendor decides whether it accepts the document.
func MapDocumentType(t domain.DocumentType) DocumentType {
	if vt, ok := toVendor[t]; ok {
		return vt
	}
	return DocumentIDCard
}

// ToInternalDocumentType maps a detected vendor type back. The same vendor
// code means different things depending on the document's country. Returns
// "" for types with no internal equivalent.
func ToInternalDocumentType(vendorType string, country string) domain.DocumentType {
	philippine := strings.EqualFold(strings.TrimSpace(country), countryPhilippines)

	switch DocumentType(strings.ToUpper(strings.TrimSpace(vendorType))) {
	case DocumentPassport:
		if philippine {
			return domain.DocumentPHPassport
		}
		return domain.DocumentPassport
	case DocumentIDCard:
		if philippine {
			return domain.DocumentPHNationalID
		}
		return domain.DocumentNationalID
	case DocumentDriversLicense:
		if philippine {
			return domain.DocumentPHDriversLicense
		}
		return domain.DocumentDriversLicense
	default:
		return ""
	}
}

// SameDocumentFamily reports whether a detected type is compatible with the
// submitted one. Any Philippine card collapses to ID_CARD on the vendor side,
// so UMID vs PhilSys is not a mismatch.
func SameDocumentFamily(submitted, detected domain.DocumentType) bool {
	if detected == "" {
		return true
	}
	return MapDocumentType(submitted) == MapDocumentType(detected) &&
		submitted.IsPhilippine() == detected.IsPhilippine()
}
