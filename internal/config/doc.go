// Package config provides configuration parsing for pathway projects.
//
// The configuration is stored in pathway.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "blog",
//	  "manifest": "routes.json",
//	  "router": {
//	    "staleTime": "0s",
//	    "gcMaxAge": "30m",
//	    "preloadStaleTime": "30s",
//	    "notFoundMode": "fuzzy",
//	    "trailingSlash": "never"
//	  },
//	  "server": {
//	    "host": "localhost",
//	    "port": 4100,
//	    "inspect": true,
//	    "metrics": true
//	  },
//	  "snapshots": {
//	    "store": "s3",
//	    "bucket": "blog-snapshots",
//	    "region": "eu-west-1"
//	  },
//	  "log": {"level": "debug", "format": "json"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Stale time:", cfg.StaleTime())
package config
