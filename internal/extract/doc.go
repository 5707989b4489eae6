// Package extract provides pattern-matching analysis of conversation text.
//
// Extraction is deliberately shallow: independent regular expressions per
// entity type, fixed per-type confidence values, a keyword majority vote for
// sentiment, and presence checks against four fixed topic buckets. It exists
// as the always-available fallback behind the hosted AI backend and makes no
// network calls.
package extract
