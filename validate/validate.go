// Package validate checks request payloads and identifiers.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
)

var validate *validator.Validate

var translator ut.Translator

func init() {
	validate = validator.New()

	// Messages name the JSON field the client sent, not the Go field.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	en_translations.RegisterDefaultTranslations(validate, translator)
}

// Check validates val against its struct tags and returns the first failure
// as a readable message.
func Check(val any) error {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}

	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) || len(verrors) == 0 {
		return err
	}

	return errors.New(verrors[0].Translate(translator))
}

func GenerateID() string {
	return uuid.NewString()
}

func CheckID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("ID %q is not in its proper form", id)
	}
	return nil
}
