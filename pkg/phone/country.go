package phone

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultCountryCode is preselected when no country was chosen.
const DefaultCountryCode = "GH"

var ErrUnknownCountry = errors.New("unsupported country")

// Country describes a dialing market and its local display mask.
type Country struct {
	Code        string `yaml:"code" json:"code"`
	Name        string `yaml:"name" json:"name"`
	DialCode    string `yaml:"dial_code" json:"dial_code"`
	Flag        string `yaml:"flag" json:"flag"`
	Mask        string `yaml:"format" json:"format"`
	TrunkPrefix string `yaml:"trunk_prefix" json:"trunk_prefix,omitempty"`
}

//go:embed countries.yaml
var countriesYAML []byte

var (
	loadOnce  sync.Once
	countries []Country
	byCode    map[string]Country
)

func load() {
	loadOnce.Do(func() {
		if err := yaml.Unmarshal(countriesYAML, &countries); err != nil {
			panic(fmt.Sprintf("phone: invalid embedded country table: %v", err))
		}
		byCode = make(map[string]Country, len(countries))
		for _, c := range countries {
			byCode[c.Code] = c
		}
	})
}

// Countries returns the supported countries in display order.
func Countries() []Country {
	load()
	out := make([]Country, len(countries))
	copy(out, countries)
	return out
}

// Lookup finds a country by ISO code, case-insensitively.
func Lookup(code string) (Country, bool) {
	load()
	c, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// MustLookup is Lookup that panics on unknown codes.
func MustLookup(code string) Country {
	c, ok := Lookup(code)
	if !ok {
		panic(fmt.Sprintf("phone: unknown country %q", code))
	}
	return c
}

// Default returns the preselected country.
func Default() Country {
	return MustLookup(DefaultCountryCode)
}

// Slots is the number of digits the display mask can hold.
func (c Country) Slots() int {
	return strings.Count(c.Mask, string(slot))
}

// Placeholder renders the mask with zeros in every digit slot.
func (c Country) Placeholder() string {
	return strings.ReplaceAll(c.Mask, string(slot), "0")
}

// Hint is the helper text shown under the input.
func (c Country) Hint() string {
	return fmt.Sprintf("Format: +%s %s", c.DialCode, c.Mask)
}

// Label is the option text for country pickers.
func (c Country) Label() string {
	return fmt.Sprintf("%s +%s", c.Flag, c.DialCode)
}

// Format masks raw input with the country's display format.
func (c Country) Format(raw string) string {
	return Format(raw, c.Mask)
}

// Normalize returns the submission value for raw input: the dial code followed
// by the masked digits, with one national trunk prefix removed.
func (c Country) Normalize(raw string) string {
	digits := DigitsOnly(c.Format(raw))
	if digits == "" {
		return ""
	}
	if c.TrunkPrefix != "" {
		digits = strings.TrimPrefix(digits, c.TrunkPrefix)
	}
	return c.DialCode + digits
}
