// Package paystub contains the Paystub bounded context.
// It holds the editable compensation record, the display formatters that
// turn raw field text into statement strings, and the resolved-logo value
// consumed by the layout renderer.
package paystub
