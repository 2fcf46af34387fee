package httpx

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Precisão monetária aceita na borda: até 10 dígitos inteiros e 2 decimais.
const (
	maxIntegerDigits  = 10
	maxFractionDigits = 2
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Mensagens usam o nome JSON do campo.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimal.Decimal é validado pela sua representação textual.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		return ValidMoney(fl.Field().String())
	})
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// ValidMoney aceita valores positivos com até 10 dígitos inteiros e 2 decimais.
func ValidMoney(raw string) bool {
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return false
	}
	if -d.Exponent() > maxFractionDigits && !d.Equal(d.Round(maxFractionDigits)) {
		return false
	}
	return len(d.Truncate(0).String()) <= maxIntegerDigits
}

// Struct valida dst e devolve uma mensagem legível com todas as violações.
// Listas (ex.: atributos) são validadas item a item.
func Struct(dst interface{}) error {
	var err error
	if v := reflect.Indirect(reflect.ValueOf(dst)); v.Kind() == reflect.Slice {
		err = validate.Var(v.Interface(), "dive")
	} else {
		err = validate.Struct(dst)
	}
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s é obrigatório", field)
	case "money":
		return fmt.Sprintf("%s deve ser positivo com até %d dígitos inteiros e %d decimais", field, maxIntegerDigits, maxFractionDigits)
	case "gte":
		return fmt.Sprintf("%s deve ser maior ou igual a %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s deve ser maior que %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s excede o tamanho máximo (%s)", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s exige pelo menos %s item(ns)", field, fe.Param())
	default:
		return fmt.Sprintf("%s é inválido (%s)", field, fe.Tag())
	}
}
