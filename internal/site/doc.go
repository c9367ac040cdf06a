// Package site defines the lead records, form payloads, and ports shared by the
// marketing site API: stores, event queue, invalidators, and clocks.
package site
