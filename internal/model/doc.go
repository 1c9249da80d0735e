// Package model defines the format-agnostic sweep description: experiment
// configurations, the ordered sweep that contains them, and the per-launch
// environment settings. Loaders for concrete file formats translate into
// these types; nothing in this package reads files or launches anything.
package model
