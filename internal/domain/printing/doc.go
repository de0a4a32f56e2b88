// Package printing contains the Printing bounded context.
// It describes paper geometry and tracks export jobs as a rendered paystub
// moves through capture, pagination and persistence.
package printing
