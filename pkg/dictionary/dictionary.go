package dictionary

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/leonid6372/crypto-tracker/pkg/format"
	"github.com/leonid6372/crypto-tracker/pkg/log"
	"go.uber.org/zap"
)

const DefaultLanguage = "en"

//go:embed dictionary.json
var defaultDictionary []byte

type Dictionary struct {
	dictionary map[string]map[string]string // map[language_code]map[key]value

	digitSeparator   string
	decimalSeparator string
}

// New loads the embedded dictionary.
func New() (*Dictionary, error) {
	return Parse(defaultDictionary)
}

func Parse(raw []byte) (*Dictionary, error) {
	var dictionary map[string]map[string]string
	if err := json.Unmarshal(raw, &dictionary); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary: %w", err)
	}

	if _, ok := dictionary[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("dictionary has no %q language", DefaultLanguage)
	}

	return &Dictionary{
		dictionary:       dictionary,
		digitSeparator:   ",",
		decimalSeparator: ".",
	}, nil
}

func (d *Dictionary) Languages() []string {
	langs := make([]string, 0, len(d.dictionary))

	for lang := range d.dictionary {
		langs = append(langs, lang)
	}

	return langs
}

// Text renders the template stored under key for lang, falling back to the
// default language. Numeric values are pretty-printed before rendering.
func (d *Dictionary) Text(lang, key string, values ...map[string]any) string {
	text, ok := d.dictionary[lang][key]
	if !ok {
		text, ok = d.dictionary[DefaultLanguage][key]
	}
	if !ok {
		log.Error("Text: value not found", zap.String("lang", lang), zap.String("key", key))
		return ""
	}

	tmpl, err := template.New(key).Parse(text)
	if err != nil {
		return text
	}

	valuesMap := map[string]any{}
	if len(values) > 0 {
		for key, value := range values[0] {
			switch v := value.(type) {
			case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
				valuesMap[key] = format.PrettyNumber(v, d.digitSeparator, d.decimalSeparator, false)
			default:
				valuesMap[key] = value
			}
		}
	}

	byteText := new(bytes.Buffer)
	if err = tmpl.Execute(byteText, valuesMap); err != nil {
		log.Error("Text: failed to execute template", zap.Error(err))
		return text
	}

	return byteText.String()
}
