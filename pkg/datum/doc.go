// Package datum implements the runtime value model of the evaluator.
//
// A Datum is an immutable tagged value drawn from a closed set of kinds:
// MISSING, NULL, booleans, 32- and 64-bit integers, fixed-point decimals,
// strings, intervals and the composites struct, list and bag.
//
// MISSING and NULL are distinct: MISSING means "no value here" (an absent
// struct field, an out-of-range index) while NULL is a present unknown.
//
// # Ordering and equality
//
// Compare is a total order over every datum and is what ORDER BY, DISTINCT and
// grouping build on. Equal is structural equivalence (NULL equals NULL,
// numbers equal by value, bags equal as multisets) and Hash agrees with it.
// The three-valued SQL comparison operators live in the expression layer and
// are defined on top of these.
//
// # Decimals
//
// Decimals are backed by github.com/shopspring/decimal with the exponent fixed
// to -scale, plus a declared precision of at most 38 digits. Arith derives
// result scales the SQL way: max(s1, s2) for + and -, s1+s2 for *, and
// max(6, s1+p2+1) for /. Results exceeding the maximum precision fail with an
// Overflow error.
package datum
