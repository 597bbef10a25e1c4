// Package match holds match records and the cache that owns them.
//
// A record's id is derived from its route id and the path params the route
// uses, so navigating between locations that resolve to the same id reuses
// the record and its loader data. Records are owned by id, not by the
// navigation that created them.
package match
