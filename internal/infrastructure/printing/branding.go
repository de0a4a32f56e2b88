package printing

// Branding holds the fixed organisation identity printed on every statement
type Branding struct {
	// OrgName is shown in the header
	OrgName string
	// Contact is the contact line under the organisation name
	Contact string
	// Heading is the statement title
	Heading string
	// AccentColor is used for labels, headings and the placeholder glyph
	AccentColor string
	// PanelColor is the statement background
	PanelColor string
	// HeaderColor is the header band background
	HeaderColor string
	// TextColor is used for field values
	TextColor string
	// PlaceholderLabel is printed in the glyph shown while no logo is embeddable
	PlaceholderLabel string
	// LogoAlt is the alternative text of the logo image
	LogoAlt string
}

// DefaultBranding returns the Evmos DAO branding
func DefaultBranding() Branding {
	return Branding{
		OrgName:          "Evmos DAO",
		Contact:          "info@evmosdao.org",
		Heading:          "Earnings Statement",
		AccentColor:      "#ff5a5a",
		PanelColor:       "#292d34",
		HeaderColor:      "#1d2126",
		TextColor:        "#ffffff",
		PlaceholderLabel: "EVMOS",
		LogoAlt:          "Evmos DAO Logo",
	}
}

// withDefaults fills unset fields from DefaultBranding
func (b Branding) withDefaults() Branding {
	d := DefaultBranding()
	if b.OrgName == "" {
		b.OrgName = d.OrgName
	}
	if b.Contact == "" {
		b.Contact = d.Contact
	}
	if b.Heading == "" {
		b.Heading = d.Heading
	}
	if b.AccentColor == "" {
		b.AccentColor = d.AccentColor
	}
	if b.PanelColor == "" {
		b.PanelColor = d.PanelColor
	}
	if b.HeaderColor == "" {
		b.HeaderColor = d.HeaderColor
	}
	if b.TextColor == "" {
		b.TextColor = d.TextColor
	}
	if b.PlaceholderLabel == "" {
		b.PlaceholderLabel = d.PlaceholderLabel
	}
	if b.LogoAlt == "" {
		b.LogoAlt = d.LogoAlt
	}
	return b
}
