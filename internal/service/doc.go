// Package service contains the use cases of the task tracker. Services take
// the authenticated caller as a domain.Principal, narrow every read to the
// records that caller may see, and consult the ownership policy again
// before each mutation. They depend only on the interfaces in
// internal/store, internal/events and internal/service/auth.
package service
