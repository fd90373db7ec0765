// Package livequery binds continuously re-evaluated store queries to
// observable state cells.
//
// A live query (LiveQuery) evaluates once on subscribe and again after every
// change published for one of its collections. Bind and BindRef turn an
// Observable into a Cell holding {Data, Loading, Err}. BindRef follows a
// reactive reference: whenever the reference changes, the previous
// subscription is disposed before the next one is made, and late results
// from a disposed subscription never reach the cell.
package livequery
