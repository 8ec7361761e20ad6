// Package domain contains the core business entities of the task tracker:
// users, their tasks, and the ownership policy that decides who may touch
// which record. It is independent of storage and transport.
package domain
