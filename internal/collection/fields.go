package collection

import (
	"strings"

	"github.com/hanmine/hanmine/internal/han"
)

var (
	textFieldNames    = map[string]bool{"hanzi": true, "characters": true, "simplified": true}
	pinyinFieldNames  = map[string]bool{"pinyin": true}
	meaningFieldNames = map[string]bool{"english": true, "translation": true}
)

// NoteFields is the detected role assignment of a note's field values.
type NoteFields struct {
	Text    string
	Pinyin  string
	Meaning string
}

// DetectFields resolves which of a note's fields carry the Han text, the
// pronunciation, and the translation, using the model's field names. When no
// field name matches a known text-field name, the field with the most Han
// runes is used instead; detection never fails. Pinyin and meaning stay
// empty when absent.
func DetectFields(model Model, fields []string) NoteFields {
	var out NoteFields
	textFound := false
	for i, name := range model.Fields {
		if i >= len(fields) {
			break
		}
		lower := strings.ToLower(name)
		switch {
		case !textFound && textFieldNames[lower]:
			out.Text = fields[i]
			textFound = true
		case out.Pinyin == "" && pinyinFieldNames[lower]:
			out.Pinyin = fields[i]
		case out.Meaning == "" && meaningFieldNames[lower]:
			out.Meaning = fields[i]
		}
	}
	if !textFound {
		out.Text = fieldWithMostHan(fields)
	}
	return out
}

// FillFields is the inverse of DetectFields: it builds a full field-value
// slice for the model, placing the text, pinyin, and meaning into the
// fields whose names match their role. When no field name matches a text
// role, the text goes into the first field. Unmatched fields stay empty.
func FillFields(model Model, nf NoteFields) []string {
	fields := make([]string, len(model.Fields))
	textFound := false
	for i, name := range model.Fields {
		lower := strings.ToLower(name)
		switch {
		case !textFound && textFieldNames[lower]:
			fields[i] = nf.Text
			textFound = true
		case pinyinFieldNames[lower]:
			fields[i] = nf.Pinyin
		case meaningFieldNames[lower]:
			fields[i] = nf.Meaning
		}
	}
	if !textFound && len(fields) > 0 {
		fields[0] = nf.Text
	}
	return fields
}

func fieldWithMostHan(fields []string) string {
	best := ""
	bestCount := -1
	for _, f := range fields {
		if n := han.Count(f); n > bestCount {
			best = f
			bestCount = n
		}
	}
	return best
}
