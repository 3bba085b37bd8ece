// Package textutil provides the text normalization shared by the blocklist
// aggregator and the match engine.
//
// Every stored entry and every observed title or artist line passes through
// Fold before comparison, so all matching is case-insensitive while
// diacritics are preserved ("Beyoncé" never equals "Beyonce").
package textutil
