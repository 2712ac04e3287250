// Package fault defines the error kinds shared by every reconfiguration
// component. Callers classify failures with errors.Is against the sentinel
// kinds; the typed Error carries which resource failed.
package fault
