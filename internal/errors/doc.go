// Package errors provides structured, coded error messages for pathway.
//
// Every static configuration defect (duplicate route ids, malformed patterns,
// unresolved parents, bad config files) is reported as a *PathwayError that
// carries a registered code, the offending route, and a hint. Public packages
// wrap their sentinel errors in a PathwayError so callers can still use
// errors.Is against the sentinel.
//
// # Error Categories
//
//   - route: route tree construction errors
//   - match: location matching errors
//   - validation: search and path param validation
//   - loader: beforeLoad and loader failures
//   - config: pathway.json problems
//   - manifest: route manifest problems
//
// # Usage
//
//	err := errors.New("E201").
//	    WithRoute("/posts/$postId", "$postId").
//	    WithSuggestion("Give one of the routes an explicit ID")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E201 [route]: Duplicate route id
//	//
//	//   route   /posts/$postId ($postId)
//	//   hint    Give one of the routes an explicit ID
//	//   about   Two route definitions resolve to the same id. ...
package errors
