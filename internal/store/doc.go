// Package store defines interfaces for task and tag persistence.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing the task-tracking rules to remain
// independent of specific database technologies or persistence details.
package store
