// Package routepath compiles route path patterns and canonicalizes pathnames.
//
// A compiled Pattern matches pathname segments, interpolates params back into
// a pathname, and exposes a specificity score used to order competing routes.
// Matching never decodes param values; callers decode explicitly with
// DecodeParams once a route has been chosen.
//
//	p := routepath.MustCompile("/posts/$postId")
//	res, ok := p.Test(routepath.Split("/posts/42")) // res.Params["postId"] == "42"
//	href, _ := p.Build(map[string]string{"postId": "43"}) // "/posts/43"
package routepath
