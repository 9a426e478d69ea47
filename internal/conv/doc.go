// Package conv holds internal coercion helpers for loosely typed notification
// payloads, where JSON numbers may arrive as float64, json.Number or string.
package conv
