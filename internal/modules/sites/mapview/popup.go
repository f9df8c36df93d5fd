package mapview

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/language"

	"wastemap-server/internal/modules/sites/types"
)

// Locales with a deadline layout. The first entry is the fallback.
var supportedLocales = []language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.German,
	language.French,
	language.Spanish,
}

// Layouts follow what browsers print for Date.toLocaleString in each locale.
var deadlineLayouts = []string{
	"1/2/2006, 3:04:05 PM",
	"02/01/2006, 15:04:05",
	"2.1.2006, 15:04:05",
	"02/01/2006 15:04:05",
	"2/1/2006, 15:04:05",
}

var localeMatcher = language.NewMatcher(supportedLocales)

// MatchLocale picks the closest supported locale for Accept-Language style
// inputs, in preference order. Unparseable inputs are skipped.
func MatchLocale(prefs ...string) language.Tag {
	var tags []language.Tag
	for _, p := range prefs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	_, i, _ := localeMatcher.Match(tags...)
	return supportedLocales[i]
}

var popupTmpl = template.Must(template.New("popup").Parse(
	`<b>Address:</b> {{.Address}}<br>` +
		`<b>Waste Type:</b> {{.WasteType}}<br>` +
		`<b>Expected Amount:</b> {{.Amount}}<br>` +
		`<b>Deadline:</b> {{.Deadline}}`))

type Popup struct {
	Address   string        `json:"address"`
	WasteType string        `json:"wasteType"`
	Amount    string        `json:"amount"`
	Deadline  string        `json:"deadline"`
	HTML      template.HTML `json:"html"`
}

type PopupFormatter struct {
	Locale language.Tag
	// Zone deadlines are shown in. Nil means UTC.
	Zone *time.Location
}

func (f PopupFormatter) FormatDeadline(deadline string) (string, error) {
	t, err := types.ParseDeadline(deadline)
	if err != nil {
		return "", err
	}
	zone := f.Zone
	if zone == nil {
		zone = time.UTC
	}
	_, i, _ := localeMatcher.Match(f.Locale)
	return t.In(zone).Format(deadlineLayouts[i]), nil
}

func (f PopupFormatter) Popup(loc types.Location) (Popup, error) {
	deadline, err := f.FormatDeadline(loc.Deadline)
	if err != nil {
		return Popup{}, err
	}
	p := Popup{
		Address:   loc.Address,
		WasteType: loc.WasteType,
		Amount:    fmt.Sprintf("%d units", loc.ExpectedAmount),
		Deadline:  deadline,
	}
	var buf bytes.Buffer
	if err := popupTmpl.Execute(&buf, p); err != nil {
		return Popup{}, fmt.Errorf("render popup: %w", err)
	}
	p.HTML = template.HTML(buf.String())
	return p, nil
}
