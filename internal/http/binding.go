package http

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"

	"github.com/yungbote/eigo-backend/internal/pkg/validate"
)

// structValidator runs gin's request binding through the shared validator so
// DTOs use the same `validate` tags and rules as the services.
type structValidator struct{}

func (structValidator) ValidateStruct(obj any) error {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	return validate.Engine().Struct(v.Interface())
}

func (structValidator) Engine() any { return validate.Engine() }

func init() {
	binding.Validator = structValidator{}
}
