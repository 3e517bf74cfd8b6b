package schema

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// The types below never fail to decode: a value of an unexpected JSON type
// leaves the field empty so one bad field cannot reject a whole payload.

// text accepts any scalar. Objects contribute their name like field.
type text string

// texts accepts a list of scalars or a single scalar.
type texts []string

// flag accepts booleans, numbers and boolean strings.
type flag bool

// list decodes an array element by element and drops the elements that do
// not decode.
type list[T any] []T

// optional decodes an object into T and stays unset for anything else.
type optional[T any] struct {
	Value T
	Set   bool
}

var textObjectKeys = []string{"name", "nome", "stazione", "station", "descrizione", "description", "message"}

func decodeJSON(data []byte, out any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	return decoder.Decode(out)
}

func (t *text) UnmarshalJSON(data []byte) error {
	var value any
	if decodeJSON(data, &value) != nil {
		*t = ""
		return nil
	}

	*t = text(scalarText(value))
	return nil
}

func (t *texts) UnmarshalJSON(data []byte) error {
	var value any
	if decodeJSON(data, &value) != nil {
		*t = nil
		return nil
	}

	var values []string
	switch v := value.(type) {
	case []any:
		for _, element := range v {
			if s := scalarText(element); s != "" {
				values = append(values, s)
			}
		}
	default:
		if s := scalarText(v); s != "" {
			values = append(values, s)
		}
	}

	*t = values
	return nil
}

func (f *flag) UnmarshalJSON(data []byte) error {
	var value any
	if decodeJSON(data, &value) != nil {
		*f = false
		return nil
	}

	*f = flag(boolValue(value))
	return nil
}

func (l *list[T]) UnmarshalJSON(data []byte) error {
	var elements []json.RawMessage
	if json.Unmarshal(data, &elements) != nil {
		*l = nil
		return nil
	}

	values := make([]T, 0, len(elements))
	for _, element := range elements {
		var value T
		if decodeJSON(element, &value) != nil {
			continue
		}

		values = append(values, value)
	}

	*l = values
	return nil
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		*o = optional[T]{}
		return nil
	}

	var value T
	if decodeJSON(trimmed, &value) != nil {
		*o = optional[T]{}
		return nil
	}

	*o = optional[T]{Value: value, Set: true}
	return nil
}

func scalarText(value any) string {
	switch v := value.(type) {
	case map[string]any:
		for _, key := range textObjectKeys {
			if s := scalarText(v[key]); s != "" {
				return s
			}
		}
		return ""
	case bool:
		return strconv.FormatBool(v)
	}

	return stringValue(value)
}
