package assets

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// Mount element ids a host page must provide.
const (
	MountResult      = "result"
	MountMath        = "math"
	MountSource      = "source"
	MountExplanation = "explanation"
)

// RequiredMounts lists the element ids checked by BuildHostPage.
var RequiredMounts = []string{MountResult, MountMath, MountSource, MountExplanation}

// hostData is the template context of a host page.
type hostData struct {
	Title string
	Style template.CSS
}

// BuildHostPage renders the named host template with the named style.
// Returns ErrMissingMount if the rendered page lacks a required mount id.
func BuildHostPage(loader AssetLoader, templateName, styleName string) (string, error) {
	if templateName == "" {
		templateName = DefaultTemplateName
	}
	if styleName == "" {
		styleName = DefaultStyleName
	}

	src, err := loader.LoadTemplate(templateName)
	if err != nil {
		return "", err
	}
	css, err := loader.LoadStyle(styleName)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(templateName).Parse(src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHostTemplate, err)
	}

	var buf bytes.Buffer
	data := hostData{
		Title: "mathtex",
		Style: template.CSS(css), // #nosec G203 -- style comes from trusted asset sources
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHostTemplate, err)
	}

	page := buf.String()
	for _, id := range RequiredMounts {
		if !strings.Contains(page, `id="`+id+`"`) {
			return "", fmt.Errorf("%w: %q in template %q", ErrMissingMount, id, templateName)
		}
	}
	return page, nil
}
