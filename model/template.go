package model

import (
	"encoding/json"
	"fmt"
)

// GridTemplate is the column shape of a Row.
type GridTemplate uint8

const (
	TemplateOneColumn GridTemplate = iota
	TemplateTwoEqual
	TemplateTwoWideLeft
	TemplateTwoWideRight
	TemplateThreeEqual
)

var templateNames = [...]string{
	TemplateOneColumn:    "1-col",
	TemplateTwoEqual:     "2-col-equal",
	TemplateTwoWideLeft:  "2-col-2-1",
	TemplateTwoWideRight: "2-col-1-2",
	TemplateThreeEqual:   "3-col-equal",
}

var templateCapacity = [...]int{
	TemplateOneColumn:    1,
	TemplateTwoEqual:     2,
	TemplateTwoWideLeft:  2,
	TemplateTwoWideRight: 2,
	TemplateThreeEqual:   3,
}

func (t GridTemplate) String() string {
	if int(t) < len(templateNames) {
		return templateNames[t]
	}
	return templateNames[TemplateOneColumn]
}

// Capacity is the number of columns the template lays out.
func (t GridTemplate) Capacity() int {
	if int(t) < len(templateCapacity) {
		return templateCapacity[t]
	}
	return 1
}

// ParseGridTemplate maps a keyword back to its template.
func ParseGridTemplate(s string) (GridTemplate, error) {
	for i, name := range templateNames {
		if name == s {
			return GridTemplate(i), nil
		}
	}
	return TemplateOneColumn, fmt.Errorf("unknown grid template %q", s)
}

func (t GridTemplate) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *GridTemplate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseGridTemplate(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
