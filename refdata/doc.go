// Package refdata provides an in-process reference-data cache for validating
// business codes and translating them between an internal (RL) code and an
// external domain code.
//
// Data is held in a Store as named groups of entries. Group names and
// cross-reference entry keys are composite strings joined by Delimiter:
//
//	<domain>:;:<typecode>      cross-reference group, key <rlCode>:;:<domainCode>
//	LISTREF:;:<typecode>       list-reference group, key <code>
//	EXTENDED:;:<typecode>      single extended attribute, key <typecode>
//
// Expiration is evaluated lazily against the wall clock at lookup time. There
// is no background sweep; FindTypeCodes removes groups holding an expired
// entry as a side effect of the query.
//
// An Engine answers lookups on top of a Store. Validation misses are returned
// as *NotFoundError values carrying a diagnostic snapshot; WireString renders
// them in the fixed @@@REFDATAERROR format expected by operators.
package refdata
