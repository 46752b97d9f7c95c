package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitRequest struct {
	DocumentType string `json:"document_type" binding:"required,doctype" validate:"required,doctype"`
	Category     string `json:"rejection_category" validate:"rejection_category"`
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.RegisterTagNameFunc(jsonTagName)
	require.NoError(t, v.RegisterValidation("doctype", documentTypeValidator))
	require.NoError(t, v.RegisterValidation("rejection_category", rejectionCategoryValidator))
	return v
}

func TestDocumentTypeValidator(t *testing.T) {
	v := newValidate(t)

	assert.NoError(t, v.Struct(submitRequest{DocumentType: "ph_umid"}))
	assert.NoError(t, v.Struct(submitRequest{DocumentType: "passport", Category: "document_expired"}))

	err := v.Struct(submitRequest{DocumentType: "library_card"})
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "document_type", verrs[0].Field())

	assert.Error(t, v.Struct(submitRequest{DocumentType: "passport", Category: "bad_vibes"}))
}
