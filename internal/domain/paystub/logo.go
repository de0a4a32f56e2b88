package paystub

// LogoState is the lifecycle state of the resolved logo
type LogoState string

const (
	LogoPending     LogoState = "PENDING"
	LogoReady       LogoState = "READY"
	LogoUnavailable LogoState = "UNAVAILABLE"
)

// String returns the string representation of LogoState
func (s LogoState) String() string {
	return string(s)
}

// IsTerminal returns true once resolution has finished either way
func (s LogoState) IsTerminal() bool {
	return s == LogoReady || s == LogoUnavailable
}

// ResolvedLogo is the cached result of the logo resolver: either an
// embeddable PNG data URI or an explicit unavailable marker.
type ResolvedLogo struct {
	State   LogoState
	DataURI string
	Width   int
	Height  int
	// Reason records why resolution failed. It is logged, never displayed.
	Reason string
}

// PendingLogo is the state before the background fetch completes
func PendingLogo() ResolvedLogo {
	return ResolvedLogo{State: LogoPending}
}

// UnavailableLogo marks the logo as permanently unavailable for the process
func UnavailableLogo(reason string) ResolvedLogo {
	return ResolvedLogo{State: LogoUnavailable, Reason: reason}
}

// ReadyLogo wraps an embeddable image
func ReadyLogo(dataURI string, width, height int) ResolvedLogo {
	return ResolvedLogo{State: LogoReady, DataURI: dataURI, Width: width, Height: height}
}

// Embeddable returns true if the renderer can show the image itself.
// Pending and unavailable logos both fall back to the placeholder glyph.
func (l ResolvedLogo) Embeddable() bool {
	return l.State == LogoReady && l.DataURI != ""
}
