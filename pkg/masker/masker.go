// Package masker hides sensitive values before they reach the logs.
package masker

import (
	"errors"
	"reflect"
	"strings"

	"go.uber.org/zap"
)

// ErrConfigNotPointer is returned when LogConfigs receives a non-pointer.
var ErrConfigNotPointer = errors.New("masker: config must be a pointer to a struct")

// LogConfigs logs each struct on its own line. String fields tagged
// masked:"true" are masked; nested structs are flattened into maps.
func LogConfigs(logger *zap.Logger, configs ...interface{}) error {
	for _, config := range configs {
		v := reflect.ValueOf(config)
		t := reflect.TypeOf(config)

		if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
			return ErrConfigNotPointer
		}
		v = v.Elem()
		t = t.Elem()

		logger.Info("Config", zap.Any(t.Name(), maskStructFields(v, t)))
	}
	return nil
}

func maskStructFields(v reflect.Value, t reflect.Type) map[string]interface{} {
	result := make(map[string]interface{})
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		if !fieldType.IsExported() {
			continue
		}

		switch field.Kind() {
		case reflect.Struct:
			result[fieldType.Name] = maskStructFields(field, field.Type())
		case reflect.String:
			if fieldType.Tag.Get("masked") == "true" {
				result[fieldType.Name] = Secret(field.String())
			} else {
				result[fieldType.Name] = field.String()
			}
		default:
			result[fieldType.Name] = field.Interface()
		}
	}
	return result
}

// Secret keeps only the first and last characters. Values of two
// characters or fewer become "****".
func Secret(data string) string {
	if len(data) <= 2 {
		return "****"
	}
	return string(data[0]) + "****" + string(data[len(data)-1])
}

// TaxID keeps the last two check digits of a CPF: "***.***.***-25".
func TaxID(cpf string) string {
	if len(cpf) < 2 {
		return "***.***.***-**"
	}
	return "***.***.***-" + cpf[len(cpf)-2:]
}

// Email keeps the first character of the local part and the domain.
func Email(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return Secret(email)
	}
	return email[:1] + "***" + email[at:]
}
