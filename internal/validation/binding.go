package validation

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

// BindingValidator plugs the field-level violations into gin's binding
// layer. Request structs keep using binding tags.
type BindingValidator struct {
	validate *validator.Validate
}

func NewBindingValidator() *BindingValidator {
	return &BindingValidator{validate: newValidator("binding")}
}

func (b *BindingValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}

	value := reflect.ValueOf(obj)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}

	if value.Kind() != reflect.Struct {
		return nil
	}
	return translate(b.validate.Struct(value.Interface()))
}

func (b *BindingValidator) Engine() any {
	return b.validate
}
