package envloader

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load preenche uma struct (via ponteiro) com variáveis de ambiente,
// guiado pelas tags "env" e "envDefault". Structs aninhadas são
// percorridas recursivamente; campos sem tag são ignorados.
func Load(target interface{}) error {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return &InvalidTargetError{Value: val.Type()}
	}
	return fill(val.Elem())
}

// MustLoad é igual ao Load, mas panic em caso de erro.
func MustLoad(target interface{}) {
	if err := Load(target); err != nil {
		panic(err)
	}
}

func fill(val reflect.Value) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		// Structs aninhadas (time.Duration não cai aqui: é int64)
		if field.Kind() == reflect.Struct {
			if err := fill(field); err != nil {
				return err
			}
			continue
		}
		if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			if err := fill(field.Elem()); err != nil {
				return err
			}
			continue
		}

		name := fieldType.Tag.Get("env")
		if name == "" {
			continue
		}

		raw := os.Getenv(name)
		if raw == "" {
			raw = fieldType.Tag.Get("envDefault")
		}
		if raw == "" {
			continue
		}

		if err := assign(field, raw); err != nil {
			return &FieldError{
				FieldName: fieldType.Name,
				EnvVar:    name,
				Value:     raw,
				Err:       err,
			}
		}
	}

	return nil
}

func assign(field reflect.Value, value string) error {
	// time.Duration aceita "500ms", "10s" etc.
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Slice:
		// Apenas []string, separado por vírgula
		if field.Type().Elem().Kind() != reflect.String {
			return &UnsupportedTypeError{Type: field.Type()}
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))

	default:
		return &UnsupportedTypeError{Type: field.Type()}
	}

	return nil
}
