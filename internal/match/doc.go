// Package match is the decision engine: a pure function from the current item
// and a blocklist snapshot to a verdict.
//
// Tiers are checked in a fixed order and the first hit wins:
//
//  1. track: folded title equals an entry title and, when the entry names an
//     artist, the folded artist line contains it
//  2. keyword: an entry is a substring of the folded title
//  3. manual artist: an entry equals one of the lead-artist tokens
//  4. remote artist: long entries are substrings of the whole artist line,
//     short entries must equal a lead-artist token
//
// Exact token matching for manual artists keeps "Ye" from matching
// "Kanye West".
package match
