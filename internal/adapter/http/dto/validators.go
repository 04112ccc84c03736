package dto

import (
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// MaxIdempotencyKeyLen bounds the Idempotency-Key header.
const MaxIdempotencyKeyLen = 64

// identifierPattern covers usernames and idempotency keys.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

var customValidators = map[string]validator.Func{
	"safe_id": func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	},
}

func init() {
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	for tag, fn := range customValidators {
		_ = engine.RegisterValidation(tag, fn)
	}
}

// ValidIdempotencyKey reports whether a client-supplied idempotency key is
// usable. Empty means the client opted out.
func ValidIdempotencyKey(key string) bool {
	return key == "" || (len(key) <= MaxIdempotencyKeyLen && identifierPattern.MatchString(key))
}

// SanitizeStruct trims and HTML-escapes the string and *string fields of a
// request struct in place. Fields tagged `sanitize:"-"` (passwords) keep
// exactly what the client sent. Non-struct-pointers are ignored.
func SanitizeStruct(v interface{}) {
	ptr := reflect.ValueOf(v)
	if ptr.Kind() != reflect.Ptr || ptr.Elem().Kind() != reflect.Struct {
		return
	}
	req := ptr.Elem()
	for i := range req.NumField() {
		if req.Type().Field(i).Tag.Get("sanitize") == "-" {
			continue
		}
		field := req.Field(i)
		if field.Kind() == reflect.Ptr && !field.IsNil() {
			field = field.Elem()
		}
		if field.Kind() == reflect.String && field.CanSet() {
			field.SetString(html.EscapeString(strings.TrimSpace(field.String())))
		}
	}
}
