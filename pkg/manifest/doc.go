// Package manifest declares route trees in JSON.
//
// A manifest is a flat list of routes linked by parent id:
//
//	{
//	  "routes": [
//	    {"path": "posts", "staleTime": "30s",
//	     "search": [{"name": "page", "type": "int", "default": 1, "check": "value > 0"}]},
//	    {"path": "$postId", "parent": "/posts"},
//	    {"path": "old", "redirect": "/posts"}
//	  ]
//	}
//
// Search checks are expr expressions evaluated with value bound to the
// coerced field and search bound to the raw input.
package manifest
