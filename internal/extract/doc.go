// Package extract turns fetched markup into the two canonical forms the
// scrambler works on: the visible plain text of the page, and the list of
// hyperlink or image references it carries. Parsing is best-effort and never
// returns an error, so arbitrary web input always yields a (possibly empty)
// result.
package extract
