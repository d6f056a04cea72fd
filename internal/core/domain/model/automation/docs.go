// Package automation holds the value types of the automation scheduler: sweep kinds,
// the AutomationRun lease record, per-sweep outcome summaries and the versioned
// automation settings.
package automation
