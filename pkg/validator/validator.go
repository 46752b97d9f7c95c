package validator

import (
	"log"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pawsitter/backend/internal/domain"
)

func RegisterGinValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonTagName)
		if err := v.RegisterValidation("doctype", documentTypeValidator); err != nil {
			log.Fatal("register doctype validator failed")
		}
		if err := v.RegisterValidation("rejection_category", rejectionCategoryValidator); err != nil {
			log.Fatal("register rejection_category validator failed")
		}
	}
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

var documentTypeValidator validator.Func = func(fl validator.FieldLevel) bool {
	return domain.DocumentType(fl.Field().String()).IsSupported()
}

// rejectionCategoryValidator accepts an empty value, which means "other".
var rejectionCategoryValidator validator.Func = func(fl validator.FieldLevel) bool {
	_, err := domain.ParseRejectionCategory(fl.Field().String())
	return err == nil
}
